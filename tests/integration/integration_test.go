package integration_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/koperasi-dev/simpan-pinjam-go/internal/domain"
	"github.com/koperasi-dev/simpan-pinjam-go/internal/events"
	"github.com/koperasi-dev/simpan-pinjam-go/internal/handler"
	"github.com/koperasi-dev/simpan-pinjam-go/internal/infra/client"
	"github.com/koperasi-dev/simpan-pinjam-go/internal/infra/memstore"
	"github.com/koperasi-dev/simpan-pinjam-go/internal/infra/observability"
	"github.com/koperasi-dev/simpan-pinjam-go/internal/infra/resilience"
	"github.com/koperasi-dev/simpan-pinjam-go/internal/service"
)

// TestIntegration_FullFlow spins up mock external services and drives the
// whole engine over HTTP: submit, approve, repay, aggregate.
func TestIntegration_FullFlow(t *testing.T) {
	// --- Mock member API ---
	memberServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/ghost") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		member := domain.Member{
			ID:    "m-integration-1",
			Name:  "Dewi Lestari",
			Email: "dewi@example.com",
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(member)
	}))
	defer memberServer.Close()

	// --- Mock document API: everything registered ---
	documentServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]bool{"registered": true})
	}))
	defer documentServer.Close()

	// --- Build the engine ---
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	cb := resilience.NewCircuitBreaker("test")
	cfg := resilience.Config{MaxRetries: 1, InitialBackoff: 10 * time.Millisecond, MaxConcurrency: 10}
	httpClient := &http.Client{Timeout: 5 * time.Second}

	members := client.NewMemberClient(httpClient, memberServer.URL, cb, cfg)
	documents := client.NewDocumentClient(httpClient, documentServer.URL, cb, cfg)
	configs := client.NewStaticConfigProvider(domain.InterestConfiguration{
		LoanRateDefault:  decimal.NewFromFloat(1.5),
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
	})

	ledgerSvc := service.NewLedgerService(memstore.NewLedgerStore(), events.NopPublisher{}, metrics, logger)
	appSvc := service.NewApplicationService(memstore.NewApplicationStore(), ledgerSvc, members, configs, documents, events.NopPublisher{}, metrics, logger)
	overdueSvc := service.NewOverdueService(ledgerSvc, configs, metrics, logger)
	summarySvc := service.NewSummaryService(members, ledgerSvc, overdueSvc, logger)

	router := handler.NewRouter(handler.Services{
		Applications: appSvc,
		Ledger:       ledgerSvc,
		Overdue:      overdueSvc,
		Summary:      summarySvc,
	}, metrics, logger)

	post := func(path string, payload any) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if payload != nil {
			json.NewEncoder(&buf).Encode(payload)
		}
		req := httptest.NewRequest(http.MethodPost, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}
	get := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	// --- 1. Submit a saving and a loan application ---
	rec := post("/v1/applications", map[string]any{
		"member_id": "m-integration-1",
		"kind":      "saving",
		"category":  "Wajib",
		"amount":    "200000",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit saving: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var savingApp domain.LoanApplication
	json.Unmarshal(rec.Body.Bytes(), &savingApp)

	rec = post("/v1/applications", map[string]any{
		"member_id":    "m-integration-1",
		"kind":         "loan",
		"category":     "Reguler",
		"amount":       "5000000",
		"tenor_months": 12,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit loan: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var loanApp domain.LoanApplication
	json.Unmarshal(rec.Body.Bytes(), &loanApp)
	if loanApp.MemberName != "Dewi Lestari" {
		t.Errorf("expected member name resolved from the member API, got %q", loanApp.MemberName)
	}

	// --- 2. Approve both ---
	for _, id := range []string{savingApp.ID, loanApp.ID} {
		rec = post(fmt.Sprintf("/v1/applications/%s/approve", id), nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("approve %s: expected 200, got %d: %s", id, rec.Code, rec.Body.String())
		}
	}

	// --- 3. Find the loan ledger entry and pay two installments ---
	rec = get("/v1/ledger/entries?member_id=m-integration-1&kind=loan")
	var loans struct {
		Entries []domain.TransactionEntry `json:"entries"`
	}
	json.Unmarshal(rec.Body.Bytes(), &loans)
	if len(loans.Entries) != 1 {
		t.Fatalf("expected one loan entry, got %d", len(loans.Entries))
	}
	loanID := loans.Entries[0].ID

	for i := 0; i < 2; i++ {
		rec = post("/v1/ledger/installments", map[string]any{
			"loan_entry_id": loanID,
			"amount":        "491667",
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("installment %d: expected 201, got %d: %s", i+1, rec.Code, rec.Body.String())
		}
	}

	// --- 4. Aggregates ---
	rec = get(fmt.Sprintf("/v1/ledger/entries/%s/remaining", loanID))
	var remaining struct {
		Remaining decimal.Decimal `json:"remaining"`
	}
	json.Unmarshal(rec.Body.Bytes(), &remaining)
	want := decimal.NewFromInt(5_000_000).Sub(decimal.NewFromInt(491_667).Mul(decimal.NewFromInt(2)))
	if !remaining.Remaining.Equal(want) {
		t.Errorf("expected remaining %s, got %s", want, remaining.Remaining)
	}

	rec = get("/v1/members/m-integration-1/summary")
	if rec.Code != http.StatusOK {
		t.Fatalf("summary: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var summary domain.MemberFinanceSummary
	json.Unmarshal(rec.Body.Bytes(), &summary)
	if !summary.TotalSavings.Equal(decimal.NewFromInt(200_000)) {
		t.Errorf("expected savings 200000, got %s", summary.TotalSavings)
	}
	if !summary.OutstandingLoan.Equal(want) {
		t.Errorf("expected outstanding %s, got %s", want, summary.OutstandingLoan)
	}
	if len(summary.Overdue) != 0 {
		t.Errorf("fresh loan must not be overdue, got %d records", len(summary.Overdue))
	}

	// --- 5. Unknown member is a 404 end to end ---
	rec = post("/v1/applications", map[string]any{
		"member_id": "ghost",
		"kind":      "saving",
		"category":  "Pokok",
		"amount":    "100000",
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown member, got %d", rec.Code)
	}
}
