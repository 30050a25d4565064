package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/koperasi-dev/simpan-pinjam-go/internal/domain"
	"github.com/koperasi-dev/simpan-pinjam-go/internal/events"
	"github.com/koperasi-dev/simpan-pinjam-go/internal/infra/observability"
	"github.com/koperasi-dev/simpan-pinjam-go/internal/port"
)

var ledgerTracer = otel.Tracer("service/ledger")

// LedgerService owns the append-only transaction ledger and its derived
// aggregates. Input validation beyond basic shape checks is the caller's
// responsibility (the application workflow for saving/loan entries).
type LedgerService struct {
	store   port.LedgerStore
	events  port.EventPublisher
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewLedgerService creates a ledger service.
func NewLedgerService(store port.LedgerStore, publisher port.EventPublisher, metrics *observability.Metrics, logger *zap.Logger) *LedgerService {
	return &LedgerService{store: store, events: publisher, metrics: metrics, logger: logger}
}

// AppendParams holds the caller-supplied fields of a new ledger entry.
type AppendParams struct {
	MemberID    string
	Kind        domain.TransactionKind
	Category    string
	Amount      decimal.Decimal
	Date        time.Time
	Status      domain.TransactionStatus
	Note        string
	LoanEntryID string
	TenorMonths int
}

// Append assigns an id and timestamps, persists the entry, and returns it.
func (s *LedgerService) Append(ctx context.Context, params AppendParams) (*domain.TransactionEntry, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.Append")
	defer span.End()
	span.SetAttributes(
		attribute.String("member.id", params.MemberID),
		attribute.String("entry.kind", string(params.Kind)),
	)

	if !params.Kind.Valid() {
		return nil, &domain.ErrValidation{Field: "kind", Message: fmt.Sprintf("unknown transaction kind %q", params.Kind)}
	}
	if !params.Amount.IsPositive() {
		return nil, &domain.ErrValidation{Field: "amount", Message: "amount must be positive"}
	}

	now := time.Now().UTC()
	date := params.Date
	if date.IsZero() {
		date = now
	}
	status := params.Status
	if status == "" {
		status = domain.StatusSuccess
	}

	entry := &domain.TransactionEntry{
		ID:          uuid.NewString(),
		MemberID:    params.MemberID,
		Kind:        params.Kind,
		Category:    params.Category,
		Amount:      params.Amount,
		Date:        date,
		Status:      status,
		Note:        params.Note,
		LoanEntryID: params.LoanEntryID,
		TenorMonths: params.TenorMonths,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.AppendEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("append ledger entry: %w", err)
	}

	s.metrics.IncrLedgerEntry(entry.Kind)
	s.logger.Info("ledger entry appended",
		zap.String("entry_id", entry.ID),
		zap.String("member_id", entry.MemberID),
		zap.String("kind", string(entry.Kind)),
		zap.String("amount", entry.Amount.String()),
	)

	// Best-effort event; a broker outage never fails the append.
	if err := s.events.Publish(ctx, events.KeyLedgerAppended, entry); err != nil {
		s.logger.Warn("failed to publish ledger event", zap.Error(err))
	}

	return entry, nil
}

// RecordInstallment appends an installment payment linked to an existing
// loan entry. The installment may not exceed the loan's remaining balance.
func (s *LedgerService) RecordInstallment(ctx context.Context, loanEntryID string, amount decimal.Decimal, date time.Time, note string) (*domain.TransactionEntry, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.RecordInstallment")
	defer span.End()
	span.SetAttributes(attribute.String("loan.entry_id", loanEntryID))

	loan, err := s.store.GetEntry(ctx, loanEntryID)
	if err != nil {
		return nil, err
	}
	if loan.Kind != domain.KindLoan || loan.Status != domain.StatusSuccess {
		return nil, &domain.ErrValidation{Field: "loan_entry_id", Message: "entry is not a settled loan"}
	}
	if !amount.IsPositive() {
		return nil, &domain.ErrValidation{Field: "amount", Message: "amount must be positive"}
	}

	remaining, err := s.RemainingLoanAmount(ctx, loanEntryID)
	if err != nil {
		return nil, err
	}
	if amount.GreaterThan(remaining) {
		return nil, &domain.ErrValidation{
			Field:   "amount",
			Message: fmt.Sprintf("installment %s exceeds remaining balance %s", amount, remaining),
		}
	}

	return s.Append(ctx, AppendParams{
		MemberID:    loan.MemberID,
		Kind:        domain.KindInstallment,
		Amount:      amount,
		Date:        date,
		Status:      domain.StatusSuccess,
		Note:        note,
		LoanEntryID: loan.ID,
	})
}

// Get returns one ledger entry by id.
func (s *LedgerService) Get(ctx context.Context, id string) (*domain.TransactionEntry, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.Get")
	defer span.End()

	return s.store.GetEntry(ctx, id)
}

// List returns ledger entries matching the filter.
func (s *LedgerService) List(ctx context.Context, filter domain.EntryFilter) ([]domain.TransactionEntry, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.List")
	defer span.End()

	return s.store.ListEntries(ctx, filter)
}

// TotalSavings sums successful saving entries for a member.
func (s *LedgerService) TotalSavings(ctx context.Context, memberID string) (decimal.Decimal, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.TotalSavings")
	defer span.End()
	span.SetAttributes(attribute.String("member.id", memberID))

	entries, err := s.store.ListEntries(ctx, domain.EntryFilter{
		MemberID: memberID,
		Kind:     domain.KindSaving,
		Status:   domain.StatusSuccess,
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("list savings: %w", err)
	}

	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Amount)
	}
	return total, nil
}

// OutstandingLoanBalance computes a member's unpaid loan principal:
// successful loans minus installments linked to those loans, floored at zero.
// Only linked installments count, so one loan's repayments never offset
// another member's balance.
func (s *LedgerService) OutstandingLoanBalance(ctx context.Context, memberID string) (decimal.Decimal, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.OutstandingLoanBalance")
	defer span.End()
	span.SetAttributes(attribute.String("member.id", memberID))

	loans, err := s.store.ListEntries(ctx, domain.EntryFilter{
		MemberID: memberID,
		Kind:     domain.KindLoan,
		Status:   domain.StatusSuccess,
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("list loans: %w", err)
	}

	loanIDs := make(map[string]bool, len(loans))
	total := decimal.Zero
	for _, l := range loans {
		loanIDs[l.ID] = true
		total = total.Add(l.Amount)
	}

	installments, err := s.store.ListEntries(ctx, domain.EntryFilter{
		MemberID: memberID,
		Kind:     domain.KindInstallment,
		Status:   domain.StatusSuccess,
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("list installments: %w", err)
	}
	for _, inst := range installments {
		if loanIDs[inst.LoanEntryID] {
			total = total.Sub(inst.Amount)
		}
	}

	if total.IsNegative() {
		return decimal.Zero, nil
	}
	return total, nil
}

// RemainingLoanAmount computes the unpaid balance of one loan entry:
// its principal minus the successful installments linked to it, floored at
// zero.
func (s *LedgerService) RemainingLoanAmount(ctx context.Context, loanEntryID string) (decimal.Decimal, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.RemainingLoanAmount")
	defer span.End()
	span.SetAttributes(attribute.String("loan.entry_id", loanEntryID))

	loan, err := s.store.GetEntry(ctx, loanEntryID)
	if err != nil {
		return decimal.Zero, err
	}
	if loan.Kind != domain.KindLoan {
		return decimal.Zero, &domain.ErrValidation{Field: "loan_entry_id", Message: "entry is not a loan"}
	}

	installments, err := s.store.ListEntries(ctx, domain.EntryFilter{
		Kind:   domain.KindInstallment,
		Status: domain.StatusSuccess,
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("list installments: %w", err)
	}

	remaining := loan.Amount
	for _, inst := range installments {
		if inst.LoanEntryID == loan.ID {
			remaining = remaining.Sub(inst.Amount)
		}
	}

	if remaining.IsNegative() {
		return decimal.Zero, nil
	}
	return remaining, nil
}
