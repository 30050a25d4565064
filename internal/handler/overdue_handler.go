package handler

import (
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/koperasi-dev/simpan-pinjam-go/internal/domain"
	"github.com/koperasi-dev/simpan-pinjam-go/internal/service"
)

// ============================================================
// Overdue — /v1/overdue
// ============================================================

const defaultUpcomingHorizonDays = 30

func listOverdueHandler(svc *service.OverdueService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/overdue")
		defer span.End()

		memberID := r.URL.Query().Get("member_id")
		span.SetAttributes(attribute.String("member.id", memberID))

		asOf, err := queryDate(r, "as_of")
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		records, err := svc.ListOverdue(ctx, memberID, asOf)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if records == nil {
			records = []domain.OverdueRecord{}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"overdue": records,
			"count":   len(records),
			"as_of":   asOf,
		})
	}
}

func listUpcomingDueHandler(svc *service.OverdueService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/overdue/upcoming")
		defer span.End()

		memberID := r.URL.Query().Get("member_id")
		horizon := queryInt(r, "horizon_days", defaultUpcomingHorizonDays)
		span.SetAttributes(
			attribute.String("member.id", memberID),
			attribute.Int("horizon.days", horizon),
		)

		asOf, err := queryDate(r, "as_of")
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		upcoming, err := svc.ListUpcomingDue(ctx, memberID, horizon, asOf)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if upcoming == nil {
			upcoming = []domain.UpcomingDue{}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"upcoming": upcoming,
			"count":    len(upcoming),
			"as_of":    asOf,
		})
	}
}
