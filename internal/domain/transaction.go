package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind classifies ledger entries.
type TransactionKind string

const (
	KindSaving      TransactionKind = "saving"      // simpanan
	KindLoan        TransactionKind = "loan"        // pinjaman
	KindInstallment TransactionKind = "installment" // angsuran
)

// Valid reports whether k is one of the closed set of kinds.
func (k TransactionKind) Valid() bool {
	switch k {
	case KindSaving, KindLoan, KindInstallment:
		return true
	}
	return false
}

// TransactionStatus is the settlement state of a ledger entry.
type TransactionStatus string

const (
	StatusSuccess TransactionStatus = "success"
	StatusPending TransactionStatus = "pending"
	StatusFailed  TransactionStatus = "failed"
)

// TransactionEntry is one row in the append-only ledger.
// Entries with StatusSuccess are immutable except for administrative
// correction; they are created only through the ledger's Append.
type TransactionEntry struct {
	ID       string            `json:"id"`
	MemberID string            `json:"member_id"`
	Kind     TransactionKind   `json:"kind"`
	Category string            `json:"category,omitempty"` // meaningful for saving/loan only
	Amount   decimal.Decimal   `json:"amount"`
	Date     time.Time         `json:"date"`
	Status   TransactionStatus `json:"status"`
	Note     string            `json:"note,omitempty"`

	// LoanEntryID links an installment to the loan entry it repays.
	// Explicit foreign key; never inferred from the note text.
	LoanEntryID string `json:"loan_entry_id,omitempty"`

	// TenorMonths is recorded on loan entries so the overdue calculator
	// can derive the due date without re-reading the application.
	TenorMonths int `json:"tenor_months,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EntryFilter narrows ledger listings. Zero values mean "any".
type EntryFilter struct {
	MemberID string
	Kind     TransactionKind
	Status   TransactionStatus
}

// Matches reports whether the entry satisfies every set filter field.
func (f EntryFilter) Matches(e TransactionEntry) bool {
	if f.MemberID != "" && e.MemberID != f.MemberID {
		return false
	}
	if f.Kind != "" && e.Kind != f.Kind {
		return false
	}
	if f.Status != "" && e.Status != f.Status {
		return false
	}
	return true
}
