package errors

import "errors"

// ErrOptimisticLock means the record was modified by a concurrent operation
// between read and conditional write; callers should re-read and retry.
var ErrOptimisticLock = errors.New("record was modified by another operation")
