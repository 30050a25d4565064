package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/koperasi-dev/simpan-pinjam-go/internal/domain"
	"github.com/koperasi-dev/simpan-pinjam-go/internal/infra/observability"
	"github.com/koperasi-dev/simpan-pinjam-go/internal/port"
)

var overdueTracer = otel.Tracer("service/overdue")

// OverdueService derives overdue and upcoming-due records from the ledger.
// Everything here is computed on read; nothing is persisted.
type OverdueService struct {
	ledger  *LedgerService
	configs port.ConfigurationProvider
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewOverdueService creates the overdue calculator.
func NewOverdueService(ledger *LedgerService, configs port.ConfigurationProvider, metrics *observability.Metrics, logger *zap.Logger) *OverdueService {
	return &OverdueService{ledger: ledger, configs: configs, metrics: metrics, logger: logger}
}

// ListOverdue scans successful loan entries and returns those past due as of
// asOf, with penalties. memberID narrows the scan to one member; empty scans
// all members. Fully repaid loans are skipped regardless of date.
func (s *OverdueService) ListOverdue(ctx context.Context, memberID string, asOf time.Time) ([]domain.OverdueRecord, error) {
	ctx, span := overdueTracer.Start(ctx, "OverdueService.ListOverdue")
	defer span.End()
	span.SetAttributes(attribute.String("member.id", memberID))

	s.metrics.IncrOverdueScan()

	cfg, err := s.configs.InterestConfiguration(ctx)
	if err != nil {
		return nil, err
	}

	loans, err := s.openLoans(ctx, memberID)
	if err != nil {
		return nil, err
	}

	var records []domain.OverdueRecord
	for _, loan := range loans {
		tenor := loan.TenorMonths
		if tenor <= 0 {
			tenor = cfg.TenorDefault
		}
		if rec := domain.ComputeOverdue(loan, tenor, asOf, cfg); rec != nil {
			records = append(records, *rec)
		}
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].DaysOverdue > records[j].DaysOverdue
	})

	s.logger.Debug("overdue scan complete",
		zap.String("member_id", memberID),
		zap.Int("open_loans", len(loans)),
		zap.Int("overdue", len(records)),
	)
	return records, nil
}

// ListUpcomingDue returns open loans whose due date falls within horizonDays
// of asOf. Loans already past due belong to ListOverdue, not here.
func (s *OverdueService) ListUpcomingDue(ctx context.Context, memberID string, horizonDays int, asOf time.Time) ([]domain.UpcomingDue, error) {
	ctx, span := overdueTracer.Start(ctx, "OverdueService.ListUpcomingDue")
	defer span.End()
	span.SetAttributes(
		attribute.String("member.id", memberID),
		attribute.Int("horizon.days", horizonDays),
	)

	cfg, err := s.configs.InterestConfiguration(ctx)
	if err != nil {
		return nil, err
	}

	loans, err := s.openLoans(ctx, memberID)
	if err != nil {
		return nil, err
	}

	horizon := asOf.AddDate(0, 0, horizonDays)
	var upcoming []domain.UpcomingDue
	for _, loan := range loans {
		tenor := loan.TenorMonths
		if tenor <= 0 {
			tenor = cfg.TenorDefault
		}
		due := domain.DueDate(loan.Date, tenor)
		if due.Before(asOf) || due.After(horizon) {
			continue
		}
		upcoming = append(upcoming, domain.UpcomingDue{
			LoanEntry:    loan,
			DueDate:      due,
			DaysUntilDue: int(due.Sub(asOf).Hours() / 24),
		})
	}

	sort.Slice(upcoming, func(i, j int) bool {
		return upcoming[i].DaysUntilDue < upcoming[j].DaysUntilDue
	})
	return upcoming, nil
}

// openLoans lists successful loan entries that still carry a balance.
func (s *OverdueService) openLoans(ctx context.Context, memberID string) ([]domain.TransactionEntry, error) {
	loans, err := s.ledger.List(ctx, domain.EntryFilter{
		MemberID: memberID,
		Kind:     domain.KindLoan,
		Status:   domain.StatusSuccess,
	})
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}

	// One pass over the installments avoids a per-loan ledger query.
	installments, err := s.ledger.List(ctx, domain.EntryFilter{
		MemberID: memberID,
		Kind:     domain.KindInstallment,
		Status:   domain.StatusSuccess,
	})
	if err != nil {
		return nil, fmt.Errorf("list installments: %w", err)
	}

	repaid := make(map[string]decimal.Decimal, len(installments))
	for _, inst := range installments {
		if inst.LoanEntryID == "" {
			continue
		}
		repaid[inst.LoanEntryID] = repaid[inst.LoanEntryID].Add(inst.Amount)
	}

	open := loans[:0]
	for _, loan := range loans {
		if repaid[loan.ID].GreaterThanOrEqual(loan.Amount) {
			continue
		}
		open = append(open, loan)
	}
	return open, nil
}
