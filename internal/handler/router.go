package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/koperasi-dev/simpan-pinjam-go/internal/infra/observability"
	"github.com/koperasi-dev/simpan-pinjam-go/internal/service"
)

var tracer = otel.Tracer("handler")

// Services bundles everything the router serves.
type Services struct {
	Applications *service.ApplicationService
	Ledger       *service.LedgerService
	Overdue      *service.OverdueService
	Summary      *service.SummaryService
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(svcs Services, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler())
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// Application workflow
		r.Post("/applications", submitApplicationHandler(svcs.Applications, logger))
		r.Get("/applications", listApplicationsHandler(svcs.Applications, logger))
		r.Get("/applications/{applicationId}", getApplicationHandler(svcs.Applications, logger))
		r.Post("/applications/{applicationId}/approve", approveApplicationHandler(svcs.Applications, logger))
		r.Post("/applications/{applicationId}/reject", rejectApplicationHandler(svcs.Applications, logger))
		r.Delete("/applications/{applicationId}", deleteApplicationHandler(svcs.Applications, logger))

		// Ledger
		r.Post("/ledger/installments", recordInstallmentHandler(svcs.Ledger, logger))
		r.Get("/ledger/entries", listEntriesHandler(svcs.Ledger, logger))
		r.Get("/ledger/entries/{entryId}", getEntryHandler(svcs.Ledger, logger))
		r.Get("/ledger/entries/{entryId}/remaining", remainingLoanHandler(svcs.Ledger, logger))

		// Member aggregates
		r.Get("/members/{memberId}/savings/total", totalSavingsHandler(svcs.Ledger, logger))
		r.Get("/members/{memberId}/loans/outstanding", outstandingLoanHandler(svcs.Ledger, logger))
		r.Get("/members/{memberId}/summary", memberSummaryHandler(svcs.Summary, logger))

		// Overdue
		r.Get("/overdue", listOverdueHandler(svcs.Overdue, logger))
		r.Get("/overdue/upcoming", listUpcomingDueHandler(svcs.Overdue, logger))

		// Engine metrics snapshot
		r.Get("/metrics/engine", engineMetricsHandler(metrics, logger))
	})

	return r
}

func healthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func engineMetricsHandler(metrics *observability.Metrics, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "GET /v1/metrics/engine")
		defer span.End()

		writeJSON(w, http.StatusOK, metrics.GetEngineSnapshot())
	}
}
