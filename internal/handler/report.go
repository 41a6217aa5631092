package handler

import (
	"net/http"

	"github.com/segyhp/lending-core/internal/domain"
	"github.com/segyhp/lending-core/internal/service"
	"github.com/segyhp/lending-core/pkg/response"

	"github.com/sirupsen/logrus"
)

type ReportHandler struct {
	service *service.ReportService
	log     *logrus.Logger
}

func NewReportHandler(service *service.ReportService, log *logrus.Logger) *ReportHandler {
	return &ReportHandler{
		service: service,
		log:     log,
	}
}

type DashboardResponse struct {
	Clients      ClientTotals      `json:"clients"`
	Loans        LoanTotals        `json:"loans"`
	Installments InstallmentTotals `json:"installments"`
	Payments     PaymentTotals     `json:"payments"`
}

type ClientTotals struct {
	Total             int    `json:"total"`
	Active            int    `json:"active"`
	Delinquent        int    `json:"delinquent"`
	DelinquentRate    string `json:"delinquent_rate"`
	WithMultipleLoans int    `json:"with_multiple_loans"`
}

type LoanTotals struct {
	Total      int                       `json:"total"`
	ByStatus   map[string]int            `json:"by_status"`
	ByCurrency map[string]CurrencyTotals `json:"by_currency"`
}

type CurrencyTotals struct {
	Count            int    `json:"count"`
	PrincipalSum     string `json:"principal_sum"`
	AveragePrincipal string `json:"average_principal"`
}

type InstallmentTotals struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"by_status"`
	Overdue  int            `json:"overdue"`
}

type PaymentTotals struct {
	Total          int               `json:"total"`
	PaidByCurrency map[string]string `json:"paid_by_currency"`
}

// Dashboard handles GET /api/v1/analytics/dashboard
func (h *ReportHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	actor, err := authorizedActor(r, service.RequireStaff)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	stats, err := h.service.Portfolio(r.Context(), actor)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	response.Success(w, newDashboardResponse(stats))
}

func newDashboardResponse(stats *domain.PortfolioStats) DashboardResponse {
	loansByStatus := make(map[string]int, len(stats.LoansByStatus))
	for status, n := range stats.LoansByStatus {
		loansByStatus[string(status)] = n
	}
	byCurrency := make(map[string]CurrencyTotals, len(stats.LoansByCurrency))
	for currency, n := range stats.LoansByCurrency {
		byCurrency[currency] = CurrencyTotals{
			Count:            n,
			PrincipalSum:     stats.PrincipalByCurrency[currency].StringFixed(domain.MoneyScale),
			AveragePrincipal: stats.AveragePrincipal(currency).StringFixed(domain.MoneyScale),
		}
	}
	installmentsByStatus := make(map[string]int, len(stats.InstallmentsByStatus))
	for status, n := range stats.InstallmentsByStatus {
		installmentsByStatus[string(status)] = n
	}
	paid := make(map[string]string, len(stats.PaidByCurrency))
	for currency, sum := range stats.PaidByCurrency {
		paid[currency] = sum.StringFixed(domain.MoneyScale)
	}

	return DashboardResponse{
		Clients: ClientTotals{
			Total:             stats.Clients,
			Active:            stats.ActiveClients,
			Delinquent:        stats.DelinquentClients,
			DelinquentRate:    stats.DelinquentRate().StringFixed(4),
			WithMultipleLoans: stats.ClientsWithMultipleLoans,
		},
		Loans: LoanTotals{
			Total:      stats.Loans,
			ByStatus:   loansByStatus,
			ByCurrency: byCurrency,
		},
		Installments: InstallmentTotals{
			Total:    stats.Installments,
			ByStatus: installmentsByStatus,
			Overdue:  stats.OverdueInstallments,
		},
		Payments: PaymentTotals{
			Total:          stats.Payments,
			PaidByCurrency: paid,
		},
	}
}
