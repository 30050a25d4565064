package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/koperasi-dev/simpan-pinjam-go/internal/domain"
	"github.com/koperasi-dev/simpan-pinjam-go/internal/service"
)

// ============================================================
// Application workflow — /v1/applications
// ============================================================

func submitApplicationHandler(svc *service.ApplicationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/applications")
		defer span.End()

		var req domain.SubmitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.MemberID == "" {
			writeError(w, http.StatusBadRequest, "member_id is required")
			return
		}
		span.SetAttributes(attribute.String("member.id", req.MemberID))

		app, err := svc.Submit(ctx, req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, app)
	}
}

func listApplicationsHandler(svc *service.ApplicationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/applications")
		defer span.End()

		filter := domain.ApplicationFilter{
			MemberID: r.URL.Query().Get("member_id"),
			Kind:     domain.TransactionKind(r.URL.Query().Get("kind")),
			Status:   domain.ApplicationStatus(r.URL.Query().Get("status")),
		}
		apps, err := svc.List(ctx, filter)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if apps == nil {
			apps = []domain.LoanApplication{}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"applications": apps,
			"count":        len(apps),
		})
	}
}

func getApplicationHandler(svc *service.ApplicationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/applications/{applicationId}")
		defer span.End()

		id := chi.URLParam(r, "applicationId")
		span.SetAttributes(attribute.String("application.id", id))

		app, err := svc.Get(ctx, id)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, app)
	}
}

func approveApplicationHandler(svc *service.ApplicationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/applications/{applicationId}/approve")
		defer span.End()

		id := chi.URLParam(r, "applicationId")
		span.SetAttributes(attribute.String("application.id", id))

		app, err := svc.Approve(ctx, id)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, app)
	}
}

func rejectApplicationHandler(svc *service.ApplicationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/applications/{applicationId}/reject")
		defer span.End()

		id := chi.URLParam(r, "applicationId")
		span.SetAttributes(attribute.String("application.id", id))

		app, err := svc.Reject(ctx, id)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, app)
	}
}

func deleteApplicationHandler(svc *service.ApplicationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/applications/{applicationId}")
		defer span.End()

		id := chi.URLParam(r, "applicationId")
		span.SetAttributes(attribute.String("application.id", id))

		if err := svc.Delete(ctx, id); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
