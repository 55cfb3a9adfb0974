package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/obligent/obligent/internal/adapter/http/dto"
	"github.com/obligent/obligent/internal/domain"
	"github.com/obligent/obligent/internal/usecase"
)

// HonoringService defines the behavior needed by HonoringHandler.
type HonoringService interface {
	RecordCallback(ctx context.Context, input usecase.CallbackInput) (*domain.HonoringAttempt, error)
}

// HonoringHandler receives agents' asynchronous callbacks. Callbacks
// mutate only the attempt row, never transfers or intents.
type HonoringHandler struct {
	honoringUC HonoringService
}

// NewHonoringHandler creates a new HonoringHandler.
func NewHonoringHandler(honoringUC HonoringService) *HonoringHandler {
	return &HonoringHandler{honoringUC: honoringUC}
}

// Callback settles a pending attempt with an agent's terminal verdict.
func (h *HonoringHandler) Callback(w http.ResponseWriter, r *http.Request) {
	var req dto.HonoringCallbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	attempt, err := h.honoringUC.RecordCallback(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, err, "failed to record callback")
		return
	}

	writeJSON(w, http.StatusOK, dto.HonoringAttemptFromDomain(attempt))
}
