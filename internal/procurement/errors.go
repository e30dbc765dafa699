package procurement

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ValidationError rejects a Save or Delete before any write happens. It is
// safe for the caller to correct the input and retry; store state is
// untouched when one is returned.
type ValidationError struct {
	Field  string
	Reason string
	ItemID uuid.UUID
}

func (e *ValidationError) Error() string {
	if e.ItemID != uuid.Nil {
		return fmt.Sprintf("%s: %s (item %s)", e.Field, e.Reason, e.ItemID)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func rejectf(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func rejectItem(field string, itemID uuid.UUID, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason, ItemID: itemID}
}

// IsValidation reports whether err is a validation rejection rather than a
// store failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ErrOrderNotFound is returned when the order targeted by a Save or Delete
// does not exist.
var ErrOrderNotFound = errors.New("purchase order not found")

// ErrSaveInFlight is returned when another save on the same order currently
// holds the best-effort lock. The caller can simply retry.
var ErrSaveInFlight = errors.New("another save for this order is in flight")
