package domain

import "github.com/shopspring/decimal"

// RateMethod selects how loan interest is computed.
type RateMethod string

const (
	RateFlat RateMethod = "flat"
	// RateDeclining is a declared configuration option with no computation
	// path; the engine rejects configurations that select it.
	RateDeclining RateMethod = "declining"
)

// PenaltyMethod selects how overdue penalties accrue.
type PenaltyMethod string

const (
	PenaltyDaily   PenaltyMethod = "daily"
	PenaltyMonthly PenaltyMethod = "monthly"
)

// InterestConfiguration is the externally owned rate/tenor/penalty snapshot.
// The engine never mutates it; calculators receive it as an argument so they
// stay pure and testable.
type InterestConfiguration struct {
	LoanRateDefault    decimal.Decimal            `json:"loan_rate_default"` // percent per period
	LoanRateByCategory map[string]decimal.Decimal `json:"loan_rate_by_category,omitempty"`
	SavingRate         decimal.Decimal            `json:"saving_rate"`
	RateMethod         RateMethod                 `json:"rate_method"`

	TenorMin     int   `json:"tenor_min"`
	TenorMax     int   `json:"tenor_max"`
	TenorDefault int   `json:"tenor_default"`
	TenorOptions []int `json:"tenor_options,omitempty"`

	PenaltyRate      decimal.Decimal `json:"penalty_rate"` // percent of principal
	PenaltyGraceDays int             `json:"penalty_grace_days"`
	PenaltyMethod    PenaltyMethod   `json:"penalty_method"`

	LoanCategories   []string `json:"loan_categories,omitempty"`
	SavingCategories []string `json:"saving_categories,omitempty"`
}

// ResolveLoanRate returns the per-category override when present, else the
// global default. A missing override is a documented fallback, not an error.
func (c InterestConfiguration) ResolveLoanRate(category string) decimal.Decimal {
	if r, ok := c.LoanRateByCategory[category]; ok {
		return r
	}
	return c.LoanRateDefault
}

// Categories returns the configured category set for the given kind.
func (c InterestConfiguration) Categories(kind TransactionKind) []string {
	switch kind {
	case KindLoan:
		return c.LoanCategories
	case KindSaving:
		return c.SavingCategories
	}
	return nil
}

// HasCategory reports whether category belongs to the configured set for kind.
func (c InterestConfiguration) HasCategory(kind TransactionKind, category string) bool {
	for _, cat := range c.Categories(kind) {
		if cat == category {
			return true
		}
	}
	return false
}

// ValidTenor reports whether tenor satisfies the configured bounds and,
// when an options list is configured, is one of the listed options.
func (c InterestConfiguration) ValidTenor(tenor int) bool {
	if tenor < c.TenorMin || tenor > c.TenorMax {
		return false
	}
	if len(c.TenorOptions) == 0 {
		return true
	}
	for _, opt := range c.TenorOptions {
		if opt == tenor {
			return true
		}
	}
	return false
}
