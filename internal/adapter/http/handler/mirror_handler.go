package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/obligent/obligent/internal/adapter/http/dto"
	"github.com/obligent/obligent/internal/domain"
)

// MirrorService defines the behavior needed by MirrorHandler.
type MirrorService interface {
	GetEntry(ctx context.Context, transferID string) (*domain.MirrorEntry, error)
	AccountHistory(ctx context.Context, accountID string, limit int) ([]*domain.MirrorEntry, error)
	Rebuild(ctx context.Context) (int, error)
}

// MirrorHandler serves the eventually consistent narrative reads.
type MirrorHandler struct {
	mirrorUC MirrorService
}

// NewMirrorHandler creates a new MirrorHandler.
func NewMirrorHandler(mirrorUC MirrorService) *MirrorHandler {
	return &MirrorHandler{mirrorUC: mirrorUC}
}

// GetTransfer retrieves the narrative entry for a transfer.
func (h *MirrorHandler) GetTransfer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transfer ID", "")
		return
	}

	entry, err := h.mirrorUC.GetEntry(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "failed to get mirror entry")
		return
	}

	writeJSON(w, http.StatusOK, dto.MirrorEntryFromDomain(entry))
}

// AccountHistory lists an account's mirrored transfers, newest first.
func (h *MirrorHandler) AccountHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	entries, err := h.mirrorUC.AccountHistory(r.Context(), id, parseIntQuery(r, "limit", 50))
	if err != nil {
		writeDomainError(w, err, "failed to read account history")
		return
	}

	writeJSON(w, http.StatusOK, dto.MirrorEntriesFromDomain(entries))
}

// Rebuild replays finalized transfers from the ledger into the
// mirror. Safe to run anytime: the mirror is derived state.
func (h *MirrorHandler) Rebuild(w http.ResponseWriter, r *http.Request) {
	count, err := h.mirrorUC.Rebuild(r.Context())
	if err != nil {
		writeDomainError(w, err, "failed to rebuild mirror")
		return
	}

	writeJSON(w, http.StatusOK, dto.RebuildResponse{Entries: count})
}
