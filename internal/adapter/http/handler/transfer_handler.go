package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/obligent/obligent/internal/adapter/http/dto"
	"github.com/obligent/obligent/internal/domain"
	"github.com/obligent/obligent/internal/usecase"
)

// TransferService defines the behavior needed by TransferHandler.
// Transfers are append-only; there is no write surface here.
type TransferService interface {
	GetTransfer(ctx context.Context, id string) (*domain.Transfer, error)
	ListTransfersByAccount(ctx context.Context, input usecase.ListTransfersByAccountInput) ([]*domain.Transfer, error)
	ListHonoringAttempts(ctx context.Context, transferID string) ([]*domain.HonoringAttempt, error)
}

// TransferHandler handles transfer-related HTTP requests.
type TransferHandler struct {
	transferUC TransferService
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(transferUC TransferService) *TransferHandler {
	return &TransferHandler{transferUC: transferUC}
}

// Get retrieves a transfer by ID. This is the authoritative read: it
// comes straight from PostgreSQL, never from the mirror.
func (h *TransferHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transfer ID", "")
		return
	}

	transfer, err := h.transferUC.GetTransfer(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "failed to get transfer")
		return
	}

	writeJSON(w, http.StatusOK, dto.TransferFromDomain(transfer))
}

// ListByAccount lists transfers touching an account, newest first.
func (h *TransferHandler) ListByAccount(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	transfers, err := h.transferUC.ListTransfersByAccount(r.Context(), usecase.ListTransfersByAccountInput{
		AccountID: accountID,
		Limit:     parseIntQuery(r, "limit", 20),
		Offset:    parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeDomainError(w, err, "failed to list transfers")
		return
	}

	writeJSON(w, http.StatusOK, dto.ListTransfersResponse{
		Transfers: dto.TransfersFromDomain(transfers),
		Total:     int64(len(transfers)),
	})
}

// ListHonoring lists the honoring attempts recorded for a transfer.
func (h *TransferHandler) ListHonoring(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transfer ID", "")
		return
	}

	attempts, err := h.transferUC.ListHonoringAttempts(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "failed to list honoring attempts")
		return
	}

	writeJSON(w, http.StatusOK, dto.HonoringAttemptsFromDomain(attempts))
}
