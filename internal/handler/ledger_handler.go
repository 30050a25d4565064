package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/koperasi-dev/simpan-pinjam-go/internal/domain"
	"github.com/koperasi-dev/simpan-pinjam-go/internal/service"
)

// ============================================================
// Ledger — /v1/ledger
// ============================================================

func recordInstallmentHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/ledger/installments")
		defer span.End()

		var req struct {
			LoanEntryID string          `json:"loan_entry_id"`
			Amount      decimal.Decimal `json:"amount"`
			Date        time.Time       `json:"date"`
			Note        string          `json:"note"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.LoanEntryID == "" {
			writeError(w, http.StatusBadRequest, "loan_entry_id is required")
			return
		}
		span.SetAttributes(attribute.String("loan.entry_id", req.LoanEntryID))

		entry, err := svc.RecordInstallment(ctx, req.LoanEntryID, req.Amount, req.Date, req.Note)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, entry)
	}
}

func listEntriesHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/ledger/entries")
		defer span.End()

		filter := domain.EntryFilter{
			MemberID: r.URL.Query().Get("member_id"),
			Kind:     domain.TransactionKind(r.URL.Query().Get("kind")),
			Status:   domain.TransactionStatus(r.URL.Query().Get("status")),
		}
		entries, err := svc.List(ctx, filter)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if entries == nil {
			entries = []domain.TransactionEntry{}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"entries": entries,
			"count":   len(entries),
		})
	}
}

func getEntryHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/ledger/entries/{entryId}")
		defer span.End()

		id := chi.URLParam(r, "entryId")
		span.SetAttributes(attribute.String("entry.id", id))

		entry, err := svc.Get(ctx, id)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, entry)
	}
}

func remainingLoanHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/ledger/entries/{entryId}/remaining")
		defer span.End()

		id := chi.URLParam(r, "entryId")
		span.SetAttributes(attribute.String("entry.id", id))

		remaining, err := svc.RemainingLoanAmount(ctx, id)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"loan_entry_id": id,
			"remaining":     remaining,
		})
	}
}

// ============================================================
// Member aggregates — /v1/members/{memberId}
// ============================================================

func totalSavingsHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/members/{memberId}/savings/total")
		defer span.End()

		memberID := chi.URLParam(r, "memberId")
		span.SetAttributes(attribute.String("member.id", memberID))

		total, err := svc.TotalSavings(ctx, memberID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"member_id":     memberID,
			"total_savings": total,
		})
	}
}

func outstandingLoanHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/members/{memberId}/loans/outstanding")
		defer span.End()

		memberID := chi.URLParam(r, "memberId")
		span.SetAttributes(attribute.String("member.id", memberID))

		outstanding, err := svc.OutstandingLoanBalance(ctx, memberID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"member_id":        memberID,
			"outstanding_loan": outstanding,
		})
	}
}

func memberSummaryHandler(svc *service.SummaryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/members/{memberId}/summary")
		defer span.End()

		memberID := chi.URLParam(r, "memberId")
		span.SetAttributes(attribute.String("member.id", memberID))

		asOf, err := queryDate(r, "as_of")
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		summary, err := svc.MemberSummary(ctx, memberID, asOf)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}
