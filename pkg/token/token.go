package token

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const rawLen = 32

// New generates a cryptographically random, URL-safe opaque token.
// 32 bytes of entropy make collisions among live invites practically
// impossible; callers still retry once on a uniqueness violation.
func New() (string, error) {
	buf := make([]byte, rawLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
