package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/motolinktech/server/config"
)

// ShiftInviteParams carries everything an invite message needs.
// Times are absolute instants; they are rendered in the business timezone.
type ShiftInviteParams struct {
	DeliverymanName string
	Phone           string
	ShiftDate       time.Time
	StartTime       time.Time
	EndTime         time.Time
	ClientName      string
	ClientAddress   string
	ConfirmationURL string
}

// Notifier dispatches invite messages to deliverymen.
type Notifier interface {
	// SendShiftInvite sends the invite; a non-nil error means the message
	// did not go out. The call never blocks past the configured timeout.
	SendShiftInvite(ctx context.Context, params ShiftInviteParams) error
}

// WhatsAppNotifier sends messages through the WhatsApp relay webhook.
type WhatsAppNotifier struct {
	webhookURL string
	apiToken   string
	client     *http.Client
	loc        *time.Location
	logger     *zap.Logger
}

// NewWhatsAppNotifier builds the webhook client.
func NewWhatsAppNotifier(cfg *config.WhatsAppConfig, loc *time.Location, logger *zap.Logger) *WhatsAppNotifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WhatsAppNotifier{
		webhookURL: cfg.WebhookURL,
		apiToken:   cfg.APIToken,
		client:     &http.Client{Timeout: timeout},
		loc:        loc,
		logger:     logger,
	}
}

type webhookMessage struct {
	Nome     string `json:"nome"`
	Telefone string `json:"telefone"`
	Mensagem string `json:"mensagem"`
}

type webhookRequest struct {
	Messages []webhookMessage `json:"messages"`
}

// SendShiftInvite renders the invite message and posts it to the relay.
func (n *WhatsAppNotifier) SendShiftInvite(ctx context.Context, params ShiftInviteParams) error {
	message := n.buildInviteMessage(params)
	return n.send(ctx, params.DeliverymanName, params.Phone, message)
}

func (n *WhatsAppNotifier) buildInviteMessage(p ShiftInviteParams) string {
	date := p.ShiftDate.In(n.loc).Format("02/01/2006")
	period := fmt.Sprintf("%s às %s",
		p.StartTime.In(n.loc).Format("15:04"),
		p.EndTime.In(n.loc).Format("15:04"),
	)

	var b strings.Builder
	fmt.Fprintf(&b, "👋🏻 Olá, %s, você foi convocado para uma escala de prestação de serviço na modalidade entrega no dia *%s*.  Gostaria de participar?\n\n", p.DeliverymanName, date)
	b.WriteString("📄 Informações da Escala:\n\n")
	fmt.Fprintf(&b, "Data: %s\n", date)
	fmt.Fprintf(&b, "Cliente: %s\n", p.ClientName)
	fmt.Fprintf(&b, "Motoboy: %s\n", p.DeliverymanName)
	fmt.Fprintf(&b, "Endereço: %s\n", p.ClientAddress)
	fmt.Fprintf(&b, "Escala: %s\n\n", period)
	b.WriteString("Caso tenha interesse, você poderá aceitar ou recusar livremente por meio do link abaixo:\n\n")
	fmt.Fprintf(&b, "👉 %s", p.ConfirmationURL)
	return b.String()
}

func (n *WhatsAppNotifier) send(ctx context.Context, name, phone, message string) error {
	body, err := json.Marshal(webhookRequest{
		Messages: []webhookMessage{{
			Nome:     name,
			Telefone: NormalizePhone(phone),
			Mensagem: message,
		}},
	})
	if err != nil {
		return fmt.Errorf("marshal webhook request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("motolink-api-token", n.apiToken)

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		n.logger.Warn("whatsapp webhook rejected message",
			zap.Int("status", resp.StatusCode),
			zap.String("phone", NormalizePhone(phone)),
		)
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}

	return nil
}

// NormalizePhone strips non-digits and prefixes the Brazilian country code
// when missing.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return phone
	}
	if strings.HasPrefix(digits, "55") {
		return digits
	}
	return "55" + digits
}
