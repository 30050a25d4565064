package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// daysPerPenaltyMonth is the divisor for the monthly penalty method.
const daysPerPenaltyMonth = 30

// OverdueRecord describes a loan entry past its due date. Derived on read,
// never persisted.
type OverdueRecord struct {
	LoanEntry     TransactionEntry `json:"loan_entry"`
	DueDate       time.Time        `json:"due_date"`
	DaysOverdue   int              `json:"days_overdue"`
	PenaltyAmount decimal.Decimal  `json:"penalty_amount"`
}

// UpcomingDue describes a loan entry due within a lookahead horizon.
type UpcomingDue struct {
	LoanEntry    TransactionEntry `json:"loan_entry"`
	DueDate      time.Time        `json:"due_date"`
	DaysUntilDue int              `json:"days_until_due"`
}

// DueDate is the date by which a loan is expected fully repaid:
// the loan date plus tenor months.
func DueDate(loanDate time.Time, tenorMonths int) time.Time {
	return loanDate.AddDate(0, tenorMonths, 0)
}

// ComputeOverdue evaluates a loan entry against asOf. It returns nil when the
// loan is not yet past due. Within the grace period the penalty is zero; past
// it, the penalty accrues on the effective days beyond grace:
//
//	daily:   principal * penaltyRate/100 * effectiveDays
//	monthly: principal * penaltyRate/100 * ceil(effectiveDays / 30)
func ComputeOverdue(entry TransactionEntry, tenorMonths int, asOf time.Time, cfg InterestConfiguration) *OverdueRecord {
	due := DueDate(entry.Date, tenorMonths)
	if !asOf.After(due) {
		return nil
	}

	daysOverdue := int(asOf.Sub(due).Hours() / 24)
	rec := &OverdueRecord{
		LoanEntry:     entry,
		DueDate:       due,
		DaysOverdue:   daysOverdue,
		PenaltyAmount: decimal.Zero,
	}

	effectiveDays := daysOverdue - cfg.PenaltyGraceDays
	if effectiveDays <= 0 {
		return rec
	}

	base := entry.Amount.Mul(cfg.PenaltyRate).Div(oneHundred)
	switch cfg.PenaltyMethod {
	case PenaltyMonthly:
		months := (effectiveDays + daysPerPenaltyMonth - 1) / daysPerPenaltyMonth
		rec.PenaltyAmount = base.Mul(decimal.NewFromInt(int64(months)))
	default: // daily
		rec.PenaltyAmount = base.Mul(decimal.NewFromInt(int64(effectiveDays)))
	}
	return rec
}
