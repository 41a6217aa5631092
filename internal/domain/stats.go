package domain

import (
	"github.com/shopspring/decimal"
)

// PortfolioStats is a point-in-time summary of clients, loans, installments
// and payments. Sums are kept per currency; amounts in different currencies
// are never added together.
type PortfolioStats struct {
	Clients                  int
	ActiveClients            int
	DelinquentClients        int
	ClientsWithMultipleLoans int

	Loans               int
	LoansByStatus       map[LoanStatus]int
	LoansByCurrency     map[string]int
	PrincipalByCurrency map[string]decimal.Decimal

	Installments         int
	InstallmentsByStatus map[InstallmentStatus]int
	// OverdueInstallments counts pending installments due before the report day.
	OverdueInstallments int

	Payments       int
	PaidByCurrency map[string]decimal.Decimal
}

func NewPortfolioStats() *PortfolioStats {
	return &PortfolioStats{
		LoansByStatus:        make(map[LoanStatus]int),
		LoansByCurrency:      make(map[string]int),
		PrincipalByCurrency:  make(map[string]decimal.Decimal),
		InstallmentsByStatus: make(map[InstallmentStatus]int),
		PaidByCurrency:       make(map[string]decimal.Decimal),
	}
}

// DelinquentRate is the share of clients flagged delinquent, rounded to four
// places. It is zero when there are no clients.
func (s *PortfolioStats) DelinquentRate() decimal.Decimal {
	if s.Clients == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(s.DelinquentClients)).
		Div(decimal.NewFromInt(int64(s.Clients))).
		Round(4)
}

// AveragePrincipal is the mean principal of the loans in currency, quantized
// like any other amount.
func (s *PortfolioStats) AveragePrincipal(currency string) decimal.Decimal {
	count := s.LoansByCurrency[currency]
	if count == 0 {
		return decimal.Zero
	}
	return QuantizeMoney(s.PrincipalByCurrency[currency].Div(decimal.NewFromInt(int64(count))))
}
