package handler

import (
	"net/http"
	"time"

	"github.com/segyhp/lending-core/internal/domain"
	"github.com/segyhp/lending-core/internal/service"
	customError "github.com/segyhp/lending-core/pkg/errors"
	"github.com/segyhp/lending-core/pkg/response"
	"github.com/segyhp/lending-core/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type LoanHandler struct {
	service   *service.LoanService
	validator *validator.Validate
	log       *logrus.Logger
}

func NewLoanHandler(service *service.LoanService, log *logrus.Logger) *LoanHandler {
	return &LoanHandler{
		service:   service,
		validator: newValidator(),
		log:       log,
	}
}

// Amounts and rates travel as decimal strings so no precision is lost in JSON.
type LoanTermsRequest struct {
	Principal   string `json:"principal" validate:"required"`
	Currency    string `json:"currency" validate:"required,len=3,uppercase"`
	MonthlyRate string `json:"monthly_rate" validate:"required"`
	TermMonths  int    `json:"term_months"`
}

type CreateLoanRequest struct {
	ClientID string `json:"client_id" validate:"required,uuid"`
	LoanTermsRequest
}

type QuoteLoanRequest struct {
	LoanTermsRequest
}

type DecideLoanRequest struct {
	Approve *bool   `json:"approve" validate:"required"`
	Reason  *string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

type QuoteLoanResponse struct {
	MonthlyPayment string `json:"monthly_payment"`
	TotalPayment   string `json:"total_payment"`
	TotalInterest  string `json:"total_interest"`
}

type CreateLoanResponse struct {
	LoanID         string `json:"loan_id"`
	MonthlyPayment string `json:"monthly_payment"`
}

type LoanResponse struct {
	LoanID      string    `json:"loan_id"`
	ClientID    string    `json:"client_id"`
	Principal   string    `json:"principal"`
	Currency    string    `json:"currency"`
	MonthlyRate string    `json:"monthly_rate"`
	TermMonths  int       `json:"term_months"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

func newLoanResponse(loan *domain.Loan) LoanResponse {
	return LoanResponse{
		LoanID:      loan.ID.String(),
		ClientID:    loan.ClientID.String(),
		Principal:   loan.Principal.Amount().StringFixed(domain.MoneyScale),
		Currency:    loan.Principal.Currency(),
		MonthlyRate: loan.Rate.Monthly().StringFixed(domain.MaxRatePlaces),
		TermMonths:  loan.TermMonths,
		Status:      string(loan.Status()),
		CreatedAt:   loan.CreatedAt,
	}
}

type DecideLoanResponse struct {
	LoanID string `json:"loan_id"`
	Status string `json:"status"`
}

// ListLoans handles GET /api/v1/loans
func (h *LoanHandler) ListLoans(w http.ResponseWriter, r *http.Request) {
	actor, err := authorizedActor(r, service.RequireStaff)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	loans, err := h.service.ListLoans(r.Context(), actor)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	items := make([]LoanResponse, 0, len(loans))
	for _, loan := range loans {
		items = append(items, newLoanResponse(loan))
	}
	response.Success(w, items)
}

// QuoteLoan handles POST /api/v1/loans/quote
func (h *LoanHandler) QuoteLoan(w http.ResponseWriter, r *http.Request) {
	var req QuoteLoanRequest
	if err := decodeAndValidate(w, r, h.validator, &req); err != nil {
		writeError(w, h.log, err)
		return
	}

	principal, rate, err := req.parse()
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	quote, err := h.service.QuoteLoan(service.QuoteLoanCommand{
		PrincipalAmount: principal,
		Currency:        req.Currency,
		MonthlyRate:     rate,
		TermMonths:      req.TermMonths,
	})
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	response.Success(w, QuoteLoanResponse{
		MonthlyPayment: quote.MonthlyPayment.StringFixed(domain.MoneyScale),
		TotalPayment:   quote.TotalPayment.StringFixed(domain.MoneyScale),
		TotalInterest:  quote.TotalInterest.StringFixed(domain.MoneyScale),
	})
}

// CreateLoan handles POST /api/v1/loans
func (h *LoanHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	actor, err := authorizedActor(r, service.RequireStaff)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	var req CreateLoanRequest
	if err := decodeAndValidate(w, r, h.validator, &req); err != nil {
		writeError(w, h.log, err)
		return
	}

	clientID, err := utils.ParseUUID(req.ClientID)
	if err != nil {
		writeError(w, h.log, invalidRequest(err.Error()))
		return
	}
	principal, rate, err := req.parse()
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	result, err := h.service.CreateLoan(r.Context(), actor, service.CreateLoanCommand{
		ClientID:        clientID,
		PrincipalAmount: principal,
		Currency:        req.Currency,
		MonthlyRate:     rate,
		TermMonths:      req.TermMonths,
	})
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	response.Created(w, CreateLoanResponse{
		LoanID:         result.LoanID.String(),
		MonthlyPayment: result.MonthlyPayment.StringFixed(domain.MoneyScale),
	})
}

// DecideLoan handles POST /api/v1/loans/{loanId}/decision
func (h *LoanHandler) DecideLoan(w http.ResponseWriter, r *http.Request) {
	actor, err := authorizedActor(r, service.RequireStaff)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	loanID, err := pathUUID(r, "loanId")
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	var req DecideLoanRequest
	if err := decodeAndValidate(w, r, h.validator, &req); err != nil {
		writeError(w, h.log, err)
		return
	}

	err = h.service.DecideLoan(r.Context(), actor, service.DecideLoanCommand{
		LoanID:  loanID,
		Approve: *req.Approve,
		Reason:  req.Reason,
	})
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	status := domain.LoanStatusRejected
	if *req.Approve {
		status = domain.LoanStatusApproved
	}
	response.Success(w, DecideLoanResponse{LoanID: loanID.String(), Status: string(status)})
}

func (t LoanTermsRequest) parse() (principal, rate decimal.Decimal, err error) {
	principal, err = parseDecimal("principal", customError.ErrCodeInvalidAmount, t.Principal)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	rate, err = parseDecimal("monthly_rate", customError.ErrCodeInvalidRate, t.MonthlyRate)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return principal, rate, nil
}
