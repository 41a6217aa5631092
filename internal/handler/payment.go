package handler

import (
	"net/http"

	"github.com/segyhp/lending-core/internal/service"
	customError "github.com/segyhp/lending-core/pkg/errors"
	"github.com/segyhp/lending-core/pkg/response"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

type PaymentHandler struct {
	service   *service.PaymentService
	validator *validator.Validate
	log       *logrus.Logger
}

func NewPaymentHandler(service *service.PaymentService, log *logrus.Logger) *PaymentHandler {
	return &PaymentHandler{
		service:   service,
		validator: newValidator(),
		log:       log,
	}
}

type RegisterPaymentRequest struct {
	Reference string `json:"reference" validate:"required,max=100"`
	Amount    string `json:"amount" validate:"required"`
	Currency  string `json:"currency" validate:"required,len=3,uppercase"`
}

type RegisterPaymentResponse struct {
	PaymentID     string `json:"payment_id"`
	InstallmentID string `json:"installment_id"`
	Reference     string `json:"reference"`
}

// RegisterPayment handles POST /api/v1/installments/{installmentId}/payments
func (h *PaymentHandler) RegisterPayment(w http.ResponseWriter, r *http.Request) {
	actor, err := authorizedActor(r, service.RequirePayer)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	installmentID, err := pathUUID(r, "installmentId")
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	var req RegisterPaymentRequest
	if err := decodeAndValidate(w, r, h.validator, &req); err != nil {
		writeError(w, h.log, err)
		return
	}

	amount, err := parseDecimal("amount", customError.ErrCodeInvalidAmount, req.Amount)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	paymentID, err := h.service.RegisterPayment(r.Context(), actor, service.RegisterPaymentCommand{
		InstallmentID: installmentID,
		Reference:     req.Reference,
		Amount:        amount,
		Currency:      req.Currency,
	})
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	response.Created(w, RegisterPaymentResponse{
		PaymentID:     paymentID.String(),
		InstallmentID: installmentID.String(),
		Reference:     req.Reference,
	})
}
