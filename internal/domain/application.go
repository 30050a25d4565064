package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ApplicationStatus is the workflow state of a member's request.
// Pending is the only initial state; Approved and Rejected are terminal.
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationApproved ApplicationStatus = "approved"
	ApplicationRejected ApplicationStatus = "rejected"
)

// Terminal reports whether no further transition may leave this state.
func (s ApplicationStatus) Terminal() bool {
	return s == ApplicationApproved || s == ApplicationRejected
}

// LoanApplication is a member's request for a saving or loan transaction.
// It is created once via Submit and mutated only through Approve/Reject.
type LoanApplication struct {
	ID         string            `json:"id"`
	MemberID   string            `json:"member_id"`
	MemberName string            `json:"member_name"` // denormalized at submission
	Kind       TransactionKind   `json:"kind"`        // saving or loan, never installment
	Category   string            `json:"category"`
	Amount     decimal.Decimal   `json:"amount"`
	Date       time.Time         `json:"date"`
	Status     ApplicationStatus `json:"status"`
	Note       string            `json:"note,omitempty"`

	// TenorMonths applies to loan applications only; validated against the
	// configured tenor bounds at submission.
	TenorMonths int `json:"tenor_months,omitempty"`

	// RequiredDocuments is computed from kind+category at submission and
	// checked against the document registry at approval.
	RequiredDocuments []DocumentType `json:"required_documents,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ApplicationFilter narrows application listings. Zero values mean "any".
type ApplicationFilter struct {
	MemberID string
	Kind     TransactionKind
	Status   ApplicationStatus
}

// Matches reports whether the application satisfies every set filter field.
func (f ApplicationFilter) Matches(a LoanApplication) bool {
	if f.MemberID != "" && a.MemberID != f.MemberID {
		return false
	}
	if f.Kind != "" && a.Kind != f.Kind {
		return false
	}
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	return true
}

// SubmitRequest carries the caller's input for a new application.
type SubmitRequest struct {
	MemberID    string          `json:"member_id"`
	Kind        TransactionKind `json:"kind"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
	TenorMonths int             `json:"tenor_months,omitempty"`
	Note        string          `json:"note,omitempty"`
}
