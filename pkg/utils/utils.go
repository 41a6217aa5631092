package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// IsDateOverdue reports whether dueDate falls on a calendar day before asOf.
func IsDateOverdue(dueDate, asOf time.Time) bool {
	return dueDate.Before(StartOfDay(asOf))
}

// DecimalFromString parses a plain decimal literal such as "1000.00".
// Exponent notation and surrounding whitespace are rejected.
func DecimalFromString(s string) (decimal.Decimal, error) {
	if s == "" || strings.TrimSpace(s) != s || strings.ContainsAny(s, "eE") {
		return decimal.Zero, fmt.Errorf("%q is not a decimal number", s)
	}
	return decimal.NewFromString(s)
}

// ParseUUID parses a canonical UUID string.
func ParseUUID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%q is not a valid UUID", s)
	}
	return id, nil
}
