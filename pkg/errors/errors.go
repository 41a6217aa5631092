package errors

import (
	"errors"
	"fmt"
)

// Error kinds. Every BusinessError wraps exactly one of these so callers can
// branch with errors.Is without knowing the individual codes.
var (
	ErrValidation   = errors.New("validation error")
	ErrBusinessRule = errors.New("business rule violation")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeInvalidAmount             = "INVALID_AMOUNT"
	ErrCodeInvalidCurrency           = "INVALID_CURRENCY"
	ErrCodeCurrencyMismatch          = "CURRENCY_MISMATCH"
	ErrCodeInsufficientBalance       = "INSUFFICIENT_BALANCE"
	ErrCodeInvalidRate               = "INVALID_RATE"
	ErrCodeInvalidTerm               = "INVALID_TERM"
	ErrCodeInvalidReference          = "INVALID_REFERENCE"
	ErrCodeInvalidRequest            = "INVALID_REQUEST"
	ErrCodeClientNotFound            = "CLIENT_NOT_FOUND"
	ErrCodeLoanNotFound              = "LOAN_NOT_FOUND"
	ErrCodeLoanAlreadyExists         = "LOAN_ALREADY_EXISTS"
	ErrCodeInstallmentNotFound       = "INSTALLMENT_NOT_FOUND"
	ErrCodeLoanNotPending            = "LOAN_NOT_PENDING"
	ErrCodeLoanNotApproved           = "LOAN_NOT_APPROVED"
	ErrCodeInstallmentAlreadyPaid    = "INSTALLMENT_ALREADY_PAID"
	ErrCodeInstallmentNotPending     = "INSTALLMENT_NOT_PENDING"
	ErrCodeCapacityExceeded          = "CAPACITY_EXCEEDED"
	ErrCodeClientDelinquent          = "CLIENT_DELINQUENT"
	ErrCodeClientActiveDebt          = "CLIENT_ACTIVE_DEBT"
	ErrCodePaymentAmountMismatch     = "PAYMENT_AMOUNT_MISMATCH"
	ErrCodeDuplicatePaymentReference = "DUPLICATE_PAYMENT_REFERENCE"
	ErrCodeForbiddenRole             = "FORBIDDEN_ROLE"
	ErrCodeScheduleExists            = "SCHEDULE_ALREADY_EXISTS"
	ErrCodeConstraintViolation       = "CONSTRAINT_VIOLATION"
	ErrCodeDatabaseError             = "DATABASE_ERROR"
	ErrCodeCacheError                = "CACHE_ERROR"
	ErrCodeInternal                  = "INTERNAL_ERROR"
)

// Kind labels returned by KindOf.
const (
	KindValidation   = "validation"
	KindBusinessRule = "business_rule"
	KindForbidden    = "forbidden"
	KindNotFound     = "not_found"
	KindConflict     = "conflict"
	KindInternal     = "internal"
)

// KindOf classifies err into one of the Kind labels. Anything that does not
// wrap a kind sentinel is internal.
func KindOf(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrBusinessRule):
		return KindBusinessRule
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrConflict):
		return KindConflict
	default:
		return KindInternal
	}
}

// CodeOf returns the BusinessError code carried by err, or "" when there is none.
func CodeOf(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

func NewValidationError(code, message string) *BusinessError {
	return NewBusinessError(code, message, ErrValidation)
}

func NewBusinessRuleViolation(code, message string) *BusinessError {
	return NewBusinessError(code, message, ErrBusinessRule)
}

func NewForbidden(code, message string) *BusinessError {
	return NewBusinessError(code, message, ErrForbidden)
}

func NewNotFound(code, message string) *BusinessError {
	return NewBusinessError(code, message, ErrNotFound)
}

func NewConflict(code, message string) *BusinessError {
	return NewBusinessError(code, message, ErrConflict)
}

// Wrap common errors with business context
func WrapClientNotFound(clientID string) *BusinessError {
	return NewNotFound(ErrCodeClientNotFound, fmt.Sprintf("Client with ID %s not found", clientID))
}

func WrapLoanNotFound(loanID string) *BusinessError {
	return NewNotFound(ErrCodeLoanNotFound, fmt.Sprintf("Loan with ID %s not found", loanID))
}

func WrapLoanAlreadyExists(loanID string) *BusinessError {
	return NewConflict(ErrCodeLoanAlreadyExists, fmt.Sprintf("Loan with ID %s already exists", loanID))
}

func WrapInstallmentNotFound(installmentID string) *BusinessError {
	return NewNotFound(ErrCodeInstallmentNotFound, fmt.Sprintf("Installment with ID %s not found", installmentID))
}

func WrapLoanNotPending(loanID, status string) *BusinessError {
	return NewBusinessRuleViolation(
		ErrCodeLoanNotPending,
		fmt.Sprintf("Loan with ID %s is %s, expected pending", loanID, status),
	)
}

func WrapLoanNotApproved(loanID, status string) *BusinessError {
	return NewBusinessRuleViolation(
		ErrCodeLoanNotApproved,
		fmt.Sprintf("Loan with ID %s is %s, expected approved", loanID, status),
	)
}

func WrapInstallmentAlreadyPaid(installmentID string) *BusinessError {
	return NewBusinessRuleViolation(
		ErrCodeInstallmentAlreadyPaid,
		fmt.Sprintf("Installment with ID %s is already paid", installmentID),
	)
}

func WrapInstallmentSettled(installmentID string) *BusinessError {
	return NewConflict(
		ErrCodeInstallmentAlreadyPaid,
		fmt.Sprintf("Installment with ID %s is already paid", installmentID),
	)
}

func WrapCapacityExceeded(payment, capacity string) *BusinessError {
	return NewBusinessRuleViolation(
		ErrCodeCapacityExceeded,
		fmt.Sprintf("Monthly payment %s exceeds client payment capacity %s", payment, capacity),
	)
}

func WrapClientDelinquent(clientID string) *BusinessError {
	return NewBusinessRuleViolation(
		ErrCodeClientDelinquent,
		fmt.Sprintf("Client with ID %s is delinquent", clientID),
	)
}

func WrapClientActiveDebt(clientID string) *BusinessError {
	return NewBusinessRuleViolation(
		ErrCodeClientActiveDebt,
		fmt.Sprintf("Client with ID %s has an approved loan with outstanding installments", clientID),
	)
}

func WrapPaymentAmountMismatch(expected, actual string) *BusinessError {
	return NewBusinessRuleViolation(
		ErrCodePaymentAmountMismatch,
		fmt.Sprintf("Payment amount %s does not match installment amount %s", actual, expected),
	)
}

func WrapDuplicatePaymentReference(reference string) *BusinessError {
	return NewConflict(
		ErrCodeDuplicatePaymentReference,
		fmt.Sprintf("Payment with reference %s already exists", reference),
	)
}

func WrapForbiddenRole(role string) *BusinessError {
	return NewForbidden(ErrCodeForbiddenRole, fmt.Sprintf("Role %q is not allowed to perform this operation", role))
}

func WrapCurrencyMismatch(left, right string) *BusinessError {
	return NewValidationError(ErrCodeCurrencyMismatch, fmt.Sprintf("Currency %s does not match %s", left, right))
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}

// WrapConstraintViolation reports a value the database refused to store, such
// as a numeric overflow or a failed CHECK.
func WrapConstraintViolation(detail string) *BusinessError {
	return NewValidationError(
		ErrCodeConstraintViolation,
		fmt.Sprintf("Value rejected by the database: %s", detail),
	)
}

func WrapCacheError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeCacheError,
		"Cache operation failed",
		err,
	)
}
