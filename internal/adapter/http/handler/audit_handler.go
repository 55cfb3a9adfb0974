package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/obligent/obligent/internal/adapter/http/dto"
	"github.com/obligent/obligent/internal/domain"
)

// AuditService defines the behavior needed by AuditHandler.
type AuditService interface {
	ListRecords(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditRecord, error)
}

// AuditHandler serves the admin audit trail queries.
type AuditHandler struct {
	auditUC AuditService
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(auditUC AuditService) *AuditHandler {
	return &AuditHandler{auditUC: auditUC}
}

// List retrieves audit records, newest first.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := domain.AuditFilter{
		IntentID:   r.URL.Query().Get("intent_id"),
		TransferID: r.URL.Query().Get("transfer_id"),
		Action:     r.URL.Query().Get("action"),
		Limit:      parseIntQuery(r, "limit", 50),
		Offset:     parseIntQuery(r, "offset", 0),
	}

	if v := r.URL.Query().Get("start_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid start_date", err.Error())
			return
		}
		filter.StartDate = &t
	}

	if v := r.URL.Query().Get("end_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid end_date", err.Error())
			return
		}
		filter.EndDate = &t
	}

	records, err := h.auditUC.ListRecords(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list audit records", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.AuditRecordsFromDomain(records))
}
