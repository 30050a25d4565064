// Package service provides the business logic layer (use cases) of the
// loan & savings transaction engine.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/koperasi-dev/simpan-pinjam-go/internal/domain"
	"github.com/koperasi-dev/simpan-pinjam-go/internal/events"
	"github.com/koperasi-dev/simpan-pinjam-go/internal/infra/observability"
	"github.com/koperasi-dev/simpan-pinjam-go/internal/port"
)

var appTracer = otel.Tracer("service/applications")

// ApplicationService drives the submit/approve/reject workflow for member
// loan and saving applications.
type ApplicationService struct {
	apps      port.ApplicationStore
	ledger    *LedgerService
	members   port.MemberDirectory
	configs   port.ConfigurationProvider
	documents port.DocumentRegistry
	events    port.EventPublisher
	metrics   *observability.Metrics
	logger    *zap.Logger

	// decisions serializes approve/reject per application id so the
	// check-append-flip sequence runs single-file.
	decisions keyedMutex
}

// NewApplicationService creates the workflow service with all dependencies
// injected.
func NewApplicationService(
	apps port.ApplicationStore,
	ledger *LedgerService,
	members port.MemberDirectory,
	configs port.ConfigurationProvider,
	documents port.DocumentRegistry,
	publisher port.EventPublisher,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *ApplicationService {
	return &ApplicationService{
		apps:      apps,
		ledger:    ledger,
		members:   members,
		configs:   configs,
		documents: documents,
		events:    publisher,
		metrics:   metrics,
		logger:    logger,
	}
}

// Submit validates a member's request and records it as a Pending
// application. No ledger interaction happens here.
func (s *ApplicationService) Submit(ctx context.Context, req domain.SubmitRequest) (*domain.LoanApplication, error) {
	ctx, span := appTracer.Start(ctx, "ApplicationService.Submit")
	defer span.End()
	span.SetAttributes(
		attribute.String("member.id", req.MemberID),
		attribute.String("application.kind", string(req.Kind)),
	)

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("submit", time.Since(start))
	}()

	if req.Kind != domain.KindSaving && req.Kind != domain.KindLoan {
		return nil, &domain.ErrValidation{Field: "kind", Message: fmt.Sprintf("kind must be %q or %q", domain.KindSaving, domain.KindLoan)}
	}
	if !req.Amount.IsPositive() {
		return nil, &domain.ErrValidation{Field: "amount", Message: "amount must be positive"}
	}

	member, err := s.members.ResolveMember(ctx, req.MemberID)
	if err != nil {
		return nil, err
	}

	cfg, err := s.configs.InterestConfiguration(ctx)
	if err != nil {
		return nil, err
	}
	if !cfg.HasCategory(req.Kind, req.Category) {
		return nil, &domain.ErrValidation{Field: "category", Message: fmt.Sprintf("unknown %s category %q", req.Kind, req.Category)}
	}

	tenor := 0
	if req.Kind == domain.KindLoan {
		tenor = req.TenorMonths
		if tenor == 0 {
			tenor = cfg.TenorDefault
		}
		if !cfg.ValidTenor(tenor) {
			return nil, &domain.ErrValidation{Field: "tenor_months", Message: fmt.Sprintf("tenor %d months is not offered", tenor)}
		}
	}

	now := time.Now().UTC()
	date := req.Date
	if date.IsZero() {
		date = now
	}

	app := &domain.LoanApplication{
		ID:                uuid.NewString(),
		MemberID:          member.ID,
		MemberName:        member.Name,
		Kind:              req.Kind,
		Category:          req.Category,
		Amount:            req.Amount,
		Date:              date,
		Status:            domain.ApplicationPending,
		Note:              req.Note,
		TenorMonths:       tenor,
		RequiredDocuments: domain.RequiredDocumentTypes(req.Kind, req.Category),
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.apps.CreateApplication(ctx, app); err != nil {
		return nil, fmt.Errorf("create application: %w", err)
	}

	s.metrics.IncrApplicationSubmitted(app.Kind)
	s.logger.Info("application submitted",
		zap.String("application_id", app.ID),
		zap.String("member_id", app.MemberID),
		zap.String("kind", string(app.Kind)),
		zap.String("category", app.Category),
		zap.String("amount", app.Amount.String()),
	)

	return app, nil
}

// Approve decides a Pending application: checks documents, appends exactly
// one ledger entry, then flips the status. The per-application lock plus the
// store's compare-and-set guarantee a concurrent second Approve observes a
// non-Pending status and fails without double-booking the ledger.
func (s *ApplicationService) Approve(ctx context.Context, applicationID string) (*domain.LoanApplication, error) {
	ctx, span := appTracer.Start(ctx, "ApplicationService.Approve")
	defer span.End()
	span.SetAttributes(attribute.String("application.id", applicationID))

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("approve", time.Since(start))
	}()

	unlock := s.decisions.lock(applicationID)
	defer unlock()

	app, err := s.apps.GetApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app.Status != domain.ApplicationPending {
		return nil, &domain.ErrInvalidStateTransition{
			ApplicationID: app.ID,
			From:          app.Status,
			To:            domain.ApplicationApproved,
		}
	}

	if app.Kind == domain.KindLoan {
		missing, err := s.missingDocuments(ctx, app)
		if err != nil {
			return nil, err
		}
		if len(missing) > 0 {
			return nil, &domain.ErrIncompleteDocuments{ApplicationID: app.ID, Missing: missing}
		}
	}

	note := app.Note
	if app.Kind == domain.KindLoan {
		cfg, err := s.configs.InterestConfiguration(ctx)
		if err != nil {
			return nil, err
		}
		// The summary is informational only; the ledger records principal.
		summary := domain.ComputeLoanSummary(app.Amount, app.Category, app.TenorMonths, cfg)
		note = fmt.Sprintf("angsuran %s x %d bulan, total %s",
			summary.InstallmentAmount, app.TenorMonths, summary.TotalPayment)
		if app.Note != "" {
			note = app.Note + "; " + note
		}
	}

	entry, err := s.ledger.Append(ctx, AppendParams{
		MemberID:    app.MemberID,
		Kind:        app.Kind,
		Category:    app.Category,
		Amount:      app.Amount,
		Date:        app.Date,
		Status:      domain.StatusSuccess,
		Note:        note,
		TenorMonths: app.TenorMonths,
	})
	if err != nil {
		return nil, fmt.Errorf("materialize approval: %w", err)
	}

	if err := s.apps.TransitionStatus(ctx, app.ID, domain.ApplicationPending, domain.ApplicationApproved); err != nil {
		return nil, err
	}

	app.Status = domain.ApplicationApproved
	app.UpdatedAt = time.Now().UTC()

	s.metrics.IncrApplicationDecided(domain.ApplicationApproved)
	s.logger.Info("application approved",
		zap.String("application_id", app.ID),
		zap.String("member_id", app.MemberID),
		zap.String("ledger_entry_id", entry.ID),
	)

	if err := s.events.Publish(ctx, events.KeyApplicationApproved, app); err != nil {
		s.logger.Warn("failed to publish approval event", zap.Error(err))
	}

	return app, nil
}

// Reject decides a Pending application negatively. No ledger interaction.
func (s *ApplicationService) Reject(ctx context.Context, applicationID string) (*domain.LoanApplication, error) {
	ctx, span := appTracer.Start(ctx, "ApplicationService.Reject")
	defer span.End()
	span.SetAttributes(attribute.String("application.id", applicationID))

	unlock := s.decisions.lock(applicationID)
	defer unlock()

	app, err := s.apps.GetApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app.Status != domain.ApplicationPending {
		return nil, &domain.ErrInvalidStateTransition{
			ApplicationID: app.ID,
			From:          app.Status,
			To:            domain.ApplicationRejected,
		}
	}

	if err := s.apps.TransitionStatus(ctx, app.ID, domain.ApplicationPending, domain.ApplicationRejected); err != nil {
		return nil, err
	}

	app.Status = domain.ApplicationRejected
	app.UpdatedAt = time.Now().UTC()

	s.metrics.IncrApplicationDecided(domain.ApplicationRejected)
	s.logger.Info("application rejected",
		zap.String("application_id", app.ID),
		zap.String("member_id", app.MemberID),
	)

	if err := s.events.Publish(ctx, events.KeyApplicationRejected, app); err != nil {
		s.logger.Warn("failed to publish rejection event", zap.Error(err))
	}

	return app, nil
}

// Delete removes the application record regardless of state. Ledger entries
// already created by an approval are historical and stay untouched.
func (s *ApplicationService) Delete(ctx context.Context, applicationID string) error {
	ctx, span := appTracer.Start(ctx, "ApplicationService.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("application.id", applicationID))

	if err := s.apps.DeleteApplication(ctx, applicationID); err != nil {
		return err
	}

	s.logger.Info("application deleted", zap.String("application_id", applicationID))
	return nil
}

// Get returns one application by id.
func (s *ApplicationService) Get(ctx context.Context, applicationID string) (*domain.LoanApplication, error) {
	ctx, span := appTracer.Start(ctx, "ApplicationService.Get")
	defer span.End()

	return s.apps.GetApplication(ctx, applicationID)
}

// List returns applications matching the filter.
func (s *ApplicationService) List(ctx context.Context, filter domain.ApplicationFilter) ([]domain.LoanApplication, error) {
	ctx, span := appTracer.Start(ctx, "ApplicationService.List")
	defer span.End()

	return s.apps.ListApplications(ctx, filter)
}

// missingDocuments returns the required document types the registry has not
// yet seen for this application.
func (s *ApplicationService) missingDocuments(ctx context.Context, app *domain.LoanApplication) ([]domain.DocumentType, error) {
	var missing []domain.DocumentType
	for _, doc := range app.RequiredDocuments {
		ok, err := s.documents.HasDocument(ctx, app.ID, doc)
		if err != nil {
			return nil, err
		}
		if !ok {
			missing = append(missing, doc)
		}
	}
	return missing, nil
}
