package domain

import (
	"time"

	customError "github.com/segyhp/lending-core/pkg/errors"

	"github.com/google/uuid"
)

// MaxReferenceLength bounds the external payment reference.
const MaxReferenceLength = 100

// Payment is an append-only settlement record.
type Payment struct {
	ID            uuid.UUID
	LoanID        uuid.UUID
	InstallmentID *uuid.UUID
	Reference     string
	Amount        Money
	PaidAt        time.Time
}

func (p *Payment) Validate() error {
	return ValidateReference(p.Reference)
}

// ValidateReference checks an external payment reference is present and fits
// the stored column.
func ValidateReference(reference string) error {
	if reference == "" {
		return customError.NewValidationError(customError.ErrCodeInvalidReference, "payment reference is required")
	}
	if len(reference) > MaxReferenceLength {
		return customError.NewValidationError(customError.ErrCodeInvalidReference, "payment reference is too long")
	}
	return nil
}
