package domain

import "github.com/shopspring/decimal"

var oneHundred = decimal.NewFromInt(100)

// LoanSummary is the derived repayment picture for a flat-rate loan.
// It is a pure function of principal, category, tenor and configuration,
// never persisted.
type LoanSummary struct {
	InterestRate      decimal.Decimal `json:"interest_rate"` // percent per period
	InterestPerPeriod decimal.Decimal `json:"interest_per_period"`
	TotalInterest     decimal.Decimal `json:"total_interest"`
	TotalPayment      decimal.Decimal `json:"total_payment"`
	InstallmentAmount decimal.Decimal `json:"installment_amount"`
}

// ComputeLoanSummary computes the flat-rate repayment summary.
//
//	interestPerPeriod = principal * rate / 100
//	totalInterest     = interestPerPeriod * tenor
//	totalPayment      = principal + totalInterest
//	installmentAmount = ceil(totalPayment / tenor)
//
// The installment is rounded up so tenor equal installments always fully
// recover principal plus interest; the last-installment surplus of at most
// tenor-1 currency units is accepted. A non-positive tenor yields all zeros
// rather than an error: the function is total over its domain. Callers are
// expected to reject non-positive principals before calling.
func ComputeLoanSummary(principal decimal.Decimal, category string, tenor int, cfg InterestConfiguration) LoanSummary {
	if tenor <= 0 {
		return LoanSummary{}
	}

	rate := cfg.ResolveLoanRate(category)
	tenorDec := decimal.NewFromInt(int64(tenor))

	interestPerPeriod := principal.Mul(rate).Div(oneHundred)
	totalInterest := interestPerPeriod.Mul(tenorDec)
	totalPayment := principal.Add(totalInterest)
	installment := totalPayment.Div(tenorDec).Ceil()

	return LoanSummary{
		InterestRate:      rate,
		InterestPerPeriod: interestPerPeriod,
		TotalInterest:     totalInterest,
		TotalPayment:      totalPayment,
		InstallmentAmount: installment,
	}
}
