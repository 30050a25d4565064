package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"

	"github.com/koperasi-dev/simpan-pinjam-go/internal/domain"
)

// Metrics holds all Prometheus metrics for the transaction engine.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration       *prometheus.HistogramVec
	externalErrors        *prometheus.CounterVec
	cacheHits             *prometheus.CounterVec
	cacheMisses           *prometheus.CounterVec
	applicationsSubmitted *prometheus.CounterVec
	applicationsDecided   *prometheus.CounterVec
	ledgerEntries         *prometheus.CounterVec
	overdueScans          prometheus.Counter
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "simpanpinjam_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "simpanpinjam_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "simpanpinjam_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "simpanpinjam_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		applicationsSubmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "simpanpinjam_applications_submitted_total",
				Help: "Total applications submitted.",
			},
			[]string{"kind"},
		),
		applicationsDecided: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "simpanpinjam_applications_decided_total",
				Help: "Total terminal application decisions.",
			},
			[]string{"decision"},
		),
		ledgerEntries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "simpanpinjam_ledger_entries_total",
				Help: "Total ledger entries appended.",
			},
			[]string{"kind"},
		),
		overdueScans: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "simpanpinjam_overdue_scans_total",
				Help: "Total overdue/upcoming-due scans executed.",
			},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrApplicationSubmitted counts a submitted application by kind.
func (m *Metrics) IncrApplicationSubmitted(kind domain.TransactionKind) {
	m.applicationsSubmitted.WithLabelValues(string(kind)).Inc()
}

// IncrApplicationDecided counts a terminal decision (approved/rejected).
func (m *Metrics) IncrApplicationDecided(decision domain.ApplicationStatus) {
	m.applicationsDecided.WithLabelValues(string(decision)).Inc()
}

// IncrLedgerEntry counts an appended ledger entry by kind.
func (m *Metrics) IncrLedgerEntry(kind domain.TransactionKind) {
	m.ledgerEntries.WithLabelValues(string(kind)).Inc()
}

// IncrOverdueScan counts one overdue/upcoming-due scan.
func (m *Metrics) IncrOverdueScan() {
	m.overdueScans.Inc()
}

// GetEngineSnapshot returns a snapshot of engine counters suitable for the
// GET /v1/metrics/engine endpoint.
func (m *Metrics) GetEngineSnapshot() *domain.EngineMetrics {
	submitted := getCounterValue(m.applicationsSubmitted, string(domain.KindSaving)) +
		getCounterValue(m.applicationsSubmitted, string(domain.KindLoan))
	approved := getCounterValue(m.applicationsDecided, string(domain.ApplicationApproved))
	rejected := getCounterValue(m.applicationsDecided, string(domain.ApplicationRejected))
	appended := getCounterValue(m.ledgerEntries, string(domain.KindSaving)) +
		getCounterValue(m.ledgerEntries, string(domain.KindLoan)) +
		getCounterValue(m.ledgerEntries, string(domain.KindInstallment))
	scans := getSingleCounterValue(m.overdueScans)
	cacheHits := getCounterValue(m.cacheHits, "config") + getCounterValue(m.cacheHits, "member")
	cacheMisses := getCounterValue(m.cacheMisses, "config") + getCounterValue(m.cacheMisses, "member")

	approvalRate := float64(0)
	if approved+rejected > 0 {
		approvalRate = approved / (approved + rejected)
	}
	cacheHitRate := float64(0)
	if cacheHits+cacheMisses > 0 {
		cacheHitRate = cacheHits / (cacheHits + cacheMisses)
	}

	return &domain.EngineMetrics{
		ApplicationsSubmitted: int64(submitted),
		ApplicationsApproved:  int64(approved),
		ApplicationsRejected:  int64(rejected),
		LedgerEntriesAppended: int64(appended),
		OverdueScans:          int64(scans),
		ApprovalRate:          approvalRate,
		CacheHitRate:          cacheHitRate,
		Period:                "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}

func getSingleCounterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
