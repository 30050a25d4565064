package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/koperasi-dev/simpan-pinjam-go/internal/domain"
	"github.com/koperasi-dev/simpan-pinjam-go/internal/events"
	"github.com/koperasi-dev/simpan-pinjam-go/internal/infra/memstore"
	"github.com/koperasi-dev/simpan-pinjam-go/internal/infra/observability"
	"github.com/koperasi-dev/simpan-pinjam-go/internal/service"
)

// --- Mocks ---

type mockMemberDirectory struct {
	member *domain.Member
	err    error
}

func (m *mockMemberDirectory) ResolveMember(_ context.Context, _ string) (*domain.Member, error) {
	return m.member, m.err
}

type mockConfigProvider struct {
	cfg domain.InterestConfiguration
	err error
}

func (m *mockConfigProvider) InterestConfiguration(_ context.Context) (domain.InterestConfiguration, error) {
	return m.cfg, m.err
}

type mockDocumentRegistry struct {
	mu         sync.Mutex
	registered map[domain.DocumentType]bool
	err        error
}

func (m *mockDocumentRegistry) HasDocument(_ context.Context, _ string, doc domain.DocumentType) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.registered[doc], m.err
}

func allDocuments() map[domain.DocumentType]bool {
	all := make(map[domain.DocumentType]bool)
	for _, d := range domain.RequiredDocumentTypes(domain.KindLoan, "Reguler") {
		all[d] = true
	}
	for _, d := range domain.RequiredDocumentTypes(domain.KindLoan, "Sertifikasi") {
		all[d] = true
	}
	return all
}

func engineConfig() domain.InterestConfiguration {
	return domain.InterestConfiguration{
		LoanRateDefault: decimal.NewFromFloat(1.5),
		LoanRateByCategory: map[string]decimal.Decimal{
			"Sertifikasi": decimal.NewFromFloat(1.2),
		},
		SavingRate:       decimal.NewFromFloat(0.5),
		RateMethod:       domain.RateFlat,
		TenorMin:         6,
		TenorMax:         36,
		TenorDefault:     12,
		TenorOptions:     []int{6, 12, 18, 24, 36},
		PenaltyRate:      decimal.NewFromFloat(0.1),
		PenaltyGraceDays: 3,
		PenaltyMethod:    domain.PenaltyDaily,
		LoanCategories:   []string{"Reguler", "Sertifikasi"},
		SavingCategories: []string{"Pokok", "Wajib", "Sukarela"},
	}
}

type workflowFixture struct {
	apps    *service.ApplicationService
	ledger  *service.LedgerService
	docs    *mockDocumentRegistry
	entries *memstore.LedgerStore
}

func newWorkflowFixture() *workflowFixture {
	store := memstore.NewLedgerStore()
	docs := &mockDocumentRegistry{registered: allDocuments()}
	metrics := observability.NewMetrics()
	ledger := service.NewLedgerService(store, events.NopPublisher{}, metrics, zap.NewNop())
	apps := service.NewApplicationService(
		memstore.NewApplicationStore(),
		ledger,
		&mockMemberDirectory{member: &domain.Member{ID: "m-1", Name: "Budi Santoso"}},
		&mockConfigProvider{cfg: engineConfig()},
		docs,
		events.NopPublisher{},
		metrics,
		zap.NewNop(),
	)
	return &workflowFixture{apps: apps, ledger: ledger, docs: docs, entries: store}
}

func submitLoan(t *testing.T, f *workflowFixture) *domain.LoanApplication {
	t.Helper()
	app, err := f.apps.Submit(context.Background(), domain.SubmitRequest{
		MemberID:    "m-1",
		Kind:        domain.KindLoan,
		Category:    "Reguler",
		Amount:      decimal.NewFromInt(5_000_000),
		TenorMonths: 12,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	return app
}

// --- Tests ---

func TestSubmit_PendingWithRequiredDocuments(t *testing.T) {
	f := newWorkflowFixture()
	app := submitLoan(t, f)

	if app.Status != domain.ApplicationPending {
		t.Errorf("expected status pending, got %s", app.Status)
	}
	if len(app.RequiredDocuments) == 0 {
		t.Error("expected required documents to be populated for a loan")
	}
	entries, err := f.ledger.List(context.Background(), domain.EntryFilter{})
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("submission must not touch the ledger, found %d entries", len(entries))
	}
}

func TestSubmit_UnknownMember(t *testing.T) {
	f := newWorkflowFixture()
	svc := service.NewApplicationService(
		memstore.NewApplicationStore(),
		f.ledger,
		&mockMemberDirectory{err: &domain.ErrNotFound{Resource: "member", ID: "ghost"}},
		&mockConfigProvider{cfg: engineConfig()},
		f.docs,
		events.NopPublisher{},
		observability.NewMetrics(),
		zap.NewNop(),
	)

	_, err := svc.Submit(context.Background(), domain.SubmitRequest{
		MemberID: "ghost",
		Kind:     domain.KindSaving,
		Category: "Pokok",
		Amount:   decimal.NewFromInt(100_000),
	})
	var nf *domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSubmit_InvalidInput(t *testing.T) {
	f := newWorkflowFixture()
	cases := []struct {
		name string
		req  domain.SubmitRequest
	}{
		{"bad kind", domain.SubmitRequest{MemberID: "m-1", Kind: "installment", Category: "Reguler", Amount: decimal.NewFromInt(1000)}},
		{"zero amount", domain.SubmitRequest{MemberID: "m-1", Kind: domain.KindLoan, Category: "Reguler", Amount: decimal.Zero, TenorMonths: 12}},
		{"negative amount", domain.SubmitRequest{MemberID: "m-1", Kind: domain.KindSaving, Category: "Pokok", Amount: decimal.NewFromInt(-5)}},
		{"unknown category", domain.SubmitRequest{MemberID: "m-1", Kind: domain.KindLoan, Category: "Kilat", Amount: decimal.NewFromInt(1000), TenorMonths: 12}},
		{"tenor not offered", domain.SubmitRequest{MemberID: "m-1", Kind: domain.KindLoan, Category: "Reguler", Amount: decimal.NewFromInt(1000), TenorMonths: 7}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.apps.Submit(context.Background(), tc.req)
			var ve *domain.ErrValidation
			if !errors.As(err, &ve) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestApprove_AppendsExactlyOneEntry(t *testing.T) {
	f := newWorkflowFixture()
	app := submitLoan(t, f)

	approved, err := f.apps.Approve(context.Background(), app.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != domain.ApplicationApproved {
		t.Errorf("expected approved, got %s", approved.Status)
	}

	entries, err := f.ledger.List(context.Background(), domain.EntryFilter{MemberID: "m-1"})
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly one ledger entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Kind != domain.KindLoan {
		t.Errorf("expected loan entry, got %s", e.Kind)
	}
	if !e.Amount.Equal(decimal.NewFromInt(5_000_000)) {
		t.Errorf("expected amount 5000000, got %s", e.Amount)
	}
	if e.Status != domain.StatusSuccess {
		t.Errorf("expected success status, got %s", e.Status)
	}
	if e.TenorMonths != 12 {
		t.Errorf("expected tenor 12, got %d", e.TenorMonths)
	}
}

func TestApprove_AlreadyDecided(t *testing.T) {
	f := newWorkflowFixture()
	app := submitLoan(t, f)

	if _, err := f.apps.Approve(context.Background(), app.ID); err != nil {
		t.Fatalf("first approve: %v", err)
	}

	_, err := f.apps.Approve(context.Background(), app.ID)
	var ist *domain.ErrInvalidStateTransition
	if !errors.As(err, &ist) {
		t.Fatalf("expected ErrInvalidStateTransition, got %v", err)
	}

	entries, _ := f.ledger.List(context.Background(), domain.EntryFilter{MemberID: "m-1"})
	if len(entries) != 1 {
		t.Errorf("second approve must not append, got %d entries", len(entries))
	}
}

func TestApprove_ConcurrentSingleWinner(t *testing.T) {
	f := newWorkflowFixture()
	app := submitLoan(t, f)

	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.apps.Approve(context.Background(), app.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	wins := 0
	for err := range errs {
		if err == nil {
			wins++
			continue
		}
		var ist *domain.ErrInvalidStateTransition
		if !errors.As(err, &ist) {
			t.Errorf("unexpected error kind: %v", err)
		}
	}
	if wins != 1 {
		t.Errorf("expected exactly one winner, got %d", wins)
	}

	entries, _ := f.ledger.List(context.Background(), domain.EntryFilter{MemberID: "m-1"})
	if len(entries) != 1 {
		t.Errorf("expected exactly one ledger entry after the race, got %d", len(entries))
	}
}

func TestApprove_IncompleteDocuments(t *testing.T) {
	f := newWorkflowFixture()
	f.docs.registered = map[domain.DocumentType]bool{
		domain.DocumentIdentityCard: true,
	}
	app := submitLoan(t, f)

	_, err := f.apps.Approve(context.Background(), app.ID)
	var incomplete *domain.ErrIncompleteDocuments
	if !errors.As(err, &incomplete) {
		t.Fatalf("expected ErrIncompleteDocuments, got %v", err)
	}
	if len(incomplete.Missing) == 0 {
		t.Error("expected the missing document types to be listed")
	}

	got, err := f.apps.Get(context.Background(), app.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != domain.ApplicationPending {
		t.Errorf("failed approval must leave the application pending, got %s", got.Status)
	}
	entries, _ := f.ledger.List(context.Background(), domain.EntryFilter{})
	if len(entries) != 0 {
		t.Errorf("failed approval must not touch the ledger, got %d entries", len(entries))
	}
}

func TestReject_NoLedgerEntry(t *testing.T) {
	f := newWorkflowFixture()
	app := submitLoan(t, f)

	rejected, err := f.apps.Reject(context.Background(), app.ID)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != domain.ApplicationRejected {
		t.Errorf("expected rejected, got %s", rejected.Status)
	}

	entries, _ := f.ledger.List(context.Background(), domain.EntryFilter{})
	if len(entries) != 0 {
		t.Errorf("rejection must not touch the ledger, got %d entries", len(entries))
	}

	_, err = f.apps.Approve(context.Background(), app.ID)
	var ist *domain.ErrInvalidStateTransition
	if !errors.As(err, &ist) {
		t.Fatalf("expected ErrInvalidStateTransition approving a rejected application, got %v", err)
	}
}

func TestSubmit_ConfigUnavailable(t *testing.T) {
	f := newWorkflowFixture()
	svc := service.NewApplicationService(
		memstore.NewApplicationStore(),
		f.ledger,
		&mockMemberDirectory{member: &domain.Member{ID: "m-1", Name: "Budi Santoso"}},
		&mockConfigProvider{err: &domain.ErrConfigurationUnavailable{Err: errors.New("provider down")}},
		f.docs,
		events.NopPublisher{},
		observability.NewMetrics(),
		zap.NewNop(),
	)

	_, err := svc.Submit(context.Background(), domain.SubmitRequest{
		MemberID:    "m-1",
		Kind:        domain.KindLoan,
		Category:    "Reguler",
		Amount:      decimal.NewFromInt(1_000_000),
		TenorMonths: 12,
	})
	var cfgErr *domain.ErrConfigurationUnavailable
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ErrConfigurationUnavailable, got %v", err)
	}
}

func TestRecordInstallment_ReducesRemaining(t *testing.T) {
	f := newWorkflowFixture()

	loan, err := f.ledger.Append(context.Background(), service.AppendParams{
		MemberID:    "m-1",
		Kind:        domain.KindLoan,
		Category:    "Reguler",
		Amount:      decimal.NewFromInt(1_000_000),
		Status:      domain.StatusSuccess,
		TenorMonths: 12,
	})
	if err != nil {
		t.Fatalf("append loan: %v", err)
	}

	for i := 0; i < 2; i++ {
		if _, err := f.ledger.RecordInstallment(context.Background(), loan.ID, decimal.NewFromInt(100_000), time.Now(), ""); err != nil {
			t.Fatalf("installment %d: %v", i+1, err)
		}
	}

	remaining, err := f.ledger.RemainingLoanAmount(context.Background(), loan.ID)
	if err != nil {
		t.Fatalf("remaining: %v", err)
	}
	if !remaining.Equal(decimal.NewFromInt(800_000)) {
		t.Errorf("expected remaining 800000, got %s", remaining)
	}
}

func TestRecordInstallment_Overpayment(t *testing.T) {
	f := newWorkflowFixture()

	loan, err := f.ledger.Append(context.Background(), service.AppendParams{
		MemberID:    "m-1",
		Kind:        domain.KindLoan,
		Category:    "Reguler",
		Amount:      decimal.NewFromInt(500_000),
		Status:      domain.StatusSuccess,
		TenorMonths: 12,
	})
	if err != nil {
		t.Fatalf("append loan: %v", err)
	}

	_, err = f.ledger.RecordInstallment(context.Background(), loan.ID, decimal.NewFromInt(600_000), time.Now(), "")
	var ve *domain.ErrValidation
	if !errors.As(err, &ve) {
		t.Fatalf("expected ErrValidation for overpayment, got %v", err)
	}
}

func TestOutstandingBalance_OnlyLinkedInstallmentsCount(t *testing.T) {
	f := newWorkflowFixture()
	ctx := context.Background()

	loan, err := f.ledger.Append(ctx, service.AppendParams{
		MemberID:    "m-1",
		Kind:        domain.KindLoan,
		Category:    "Reguler",
		Amount:      decimal.NewFromInt(2_000_000),
		Status:      domain.StatusSuccess,
		TenorMonths: 12,
	})
	if err != nil {
		t.Fatalf("append loan: %v", err)
	}
	if _, err := f.ledger.RecordInstallment(ctx, loan.ID, decimal.NewFromInt(500_000), time.Now(), ""); err != nil {
		t.Fatalf("installment: %v", err)
	}
	// Savings never offset loans.
	if _, err := f.ledger.Append(ctx, service.AppendParams{
		MemberID: "m-1",
		Kind:     domain.KindSaving,
		Category: "Sukarela",
		Amount:   decimal.NewFromInt(300_000),
		Status:   domain.StatusSuccess,
	}); err != nil {
		t.Fatalf("append saving: %v", err)
	}

	outstanding, err := f.ledger.OutstandingLoanBalance(ctx, "m-1")
	if err != nil {
		t.Fatalf("outstanding: %v", err)
	}
	if !outstanding.Equal(decimal.NewFromInt(1_500_000)) {
		t.Errorf("expected outstanding 1500000, got %s", outstanding)
	}

	savings, err := f.ledger.TotalSavings(ctx, "m-1")
	if err != nil {
		t.Fatalf("savings: %v", err)
	}
	if !savings.Equal(decimal.NewFromInt(300_000)) {
		t.Errorf("expected savings 300000, got %s", savings)
	}
}
