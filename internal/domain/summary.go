package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MemberFinanceSummary aggregates a member's standing in one response:
// identity, savings, outstanding loans and anything past due.
type MemberFinanceSummary struct {
	Member          Member          `json:"member"`
	TotalSavings    decimal.Decimal `json:"total_savings"`
	OutstandingLoan decimal.Decimal `json:"outstanding_loan"`
	Overdue         []OverdueRecord `json:"overdue,omitempty"`
	AsOf            time.Time       `json:"as_of"`
}
