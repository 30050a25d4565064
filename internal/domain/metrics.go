package domain

// EngineMetrics is the JSON snapshot served by GET /v1/metrics/engine.
// Values are cumulative since process start.
type EngineMetrics struct {
	ApplicationsSubmitted int64   `json:"applications_submitted"`
	ApplicationsApproved  int64   `json:"applications_approved"`
	ApplicationsRejected  int64   `json:"applications_rejected"`
	LedgerEntriesAppended int64   `json:"ledger_entries_appended"`
	OverdueScans          int64   `json:"overdue_scans"`
	ApprovalRate          float64 `json:"approval_rate"`
	CacheHitRate          float64 `json:"cache_hit_rate"`
	Period                string  `json:"period"`
}
