package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/obligent/obligent/internal/adapter/http/dto"
	"github.com/obligent/obligent/internal/domain"
	"github.com/obligent/obligent/internal/usecase"
)

// IntentService defines the behavior needed by IntentHandler.
type IntentService interface {
	SubmitIntent(ctx context.Context, input usecase.SubmitIntentInput) (*usecase.SubmitIntentResult, error)
	GetIntent(ctx context.Context, id string) (*usecase.SubmitIntentResult, error)
	CancelIntent(ctx context.Context, id string) (*domain.ObligationIntent, error)
}

// IntentHandler handles obligation intent HTTP requests.
type IntentHandler struct {
	gatewayUC IntentService
}

// NewIntentHandler creates a new IntentHandler.
func NewIntentHandler(gatewayUC IntentService) *IntentHandler {
	return &IntentHandler{gatewayUC: gatewayUC}
}

// Submit accepts an obligation intent and clears it synchronously.
// A PENDING outcome answers 202: the intent is parked and will be
// finished by the reconciler.
func (h *IntentHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req dto.SubmitIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result, err := h.gatewayUC.SubmitIntent(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, err, "failed to submit intent")
		return
	}

	status := http.StatusOK
	if result.Pending {
		status = http.StatusAccepted
	}

	writeJSON(w, status, dto.IntentFromResult(result))
}

// Get retrieves an intent's current status and outcome.
func (h *IntentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing intent ID", "")
		return
	}

	result, err := h.gatewayUC.GetIntent(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "failed to get intent")
		return
	}

	writeJSON(w, http.StatusOK, dto.IntentFromResult(result))
}

// Cancel discards an intent that has not entered clearing.
func (h *IntentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing intent ID", "")
		return
	}

	intent, err := h.gatewayUC.CancelIntent(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "failed to cancel intent")
		return
	}

	writeJSON(w, http.StatusOK, dto.IntentFromResult(&usecase.SubmitIntentResult{Intent: intent}))
}
