package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/koperasi-dev/simpan-pinjam-go/internal/domain"
	"github.com/koperasi-dev/simpan-pinjam-go/internal/port"
)

var summaryTracer = otel.Tracer("service/summary")

// SummaryService aggregates a member's financial position from the ledger
// and the overdue calculator.
type SummaryService struct {
	members port.MemberDirectory
	ledger  *LedgerService
	overdue *OverdueService
	logger  *zap.Logger
}

// NewSummaryService creates the aggregator.
func NewSummaryService(members port.MemberDirectory, ledger *LedgerService, overdue *OverdueService, logger *zap.Logger) *SummaryService {
	return &SummaryService{members: members, ledger: ledger, overdue: overdue, logger: logger}
}

// MemberSummary fans out to the ledger aggregates and the overdue scan
// concurrently and assembles one view. Any sub-query failure fails the whole
// summary.
func (s *SummaryService) MemberSummary(ctx context.Context, memberID string, asOf time.Time) (*domain.MemberFinanceSummary, error) {
	ctx, span := summaryTracer.Start(ctx, "SummaryService.MemberSummary")
	defer span.End()
	span.SetAttributes(attribute.String("member.id", memberID))

	member, err := s.members.ResolveMember(ctx, memberID)
	if err != nil {
		return nil, err
	}

	summary := &domain.MemberFinanceSummary{Member: *member, AsOf: asOf}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		total, err := s.ledger.TotalSavings(gctx, memberID)
		if err != nil {
			return err
		}
		summary.TotalSavings = total
		return nil
	})
	g.Go(func() error {
		outstanding, err := s.ledger.OutstandingLoanBalance(gctx, memberID)
		if err != nil {
			return err
		}
		summary.OutstandingLoan = outstanding
		return nil
	})
	g.Go(func() error {
		records, err := s.overdue.ListOverdue(gctx, memberID, asOf)
		if err != nil {
			return err
		}
		summary.Overdue = records
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.Debug("member summary assembled",
		zap.String("member_id", memberID),
		zap.String("total_savings", summary.TotalSavings.String()),
		zap.String("outstanding_loan", summary.OutstandingLoan.String()),
		zap.Int("overdue_loans", len(summary.Overdue)),
	)
	return summary, nil
}
