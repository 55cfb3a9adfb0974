package dto

import (
	"github.com/obligent/obligent/internal/usecase"
)

// SubmitIntentRequest represents a request to submit an obligation
// intent. Amount is in positive integer minor units.
type SubmitIntentRequest struct {
	ClaimantAccountID string   `json:"claimant_account_id"`
	AmountMinor       int64    `json:"amount_minor"`
	Purpose           string   `json:"purpose"`
	IdempotencyKey    string   `json:"idempotency_key"`
	Attestations      []string `json:"attestations"`
}

// ToUseCaseInput converts to use case input.
func (r *SubmitIntentRequest) ToUseCaseInput() usecase.SubmitIntentInput {
	return usecase.SubmitIntentInput{
		ClaimantAccountID: r.ClaimantAccountID,
		AmountMinor:       r.AmountMinor,
		Purpose:           r.Purpose,
		IdempotencyKey:    r.IdempotencyKey,
		Attestations:      r.Attestations,
	}
}

// CreateAccountRequest represents a request to provision an account.
type CreateAccountRequest struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name"`
	Ledger string `json:"ledger"`
	Class  string `json:"class"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput() usecase.CreateAccountInput {
	return usecase.CreateAccountInput{
		ID:     r.ID,
		Name:   r.Name,
		Ledger: r.Ledger,
		Class:  r.Class,
	}
}

// CreateRouteRequest represents a request to provision a clearing
// route.
type CreateRouteRequest struct {
	Purpose             string `json:"purpose"`
	ObligationAccountID string `json:"obligation_account_id"`
	Direction           string `json:"direction"`
	Description         string `json:"description,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateRouteRequest) ToUseCaseInput() usecase.CreateRouteInput {
	return usecase.CreateRouteInput{
		Purpose:             r.Purpose,
		ObligationAccountID: r.ObligationAccountID,
		Direction:           r.Direction,
		Description:         r.Description,
	}
}

// HonoringCallbackRequest is an agent's asynchronous verdict on an
// attempt.
type HonoringCallbackRequest struct {
	AttemptID string `json:"attempt_id"`
	AgentID   string `json:"agent_id"`
	Status    string `json:"status"`
	Detail    string `json:"detail,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *HonoringCallbackRequest) ToUseCaseInput() usecase.CallbackInput {
	return usecase.CallbackInput{
		AttemptID: r.AttemptID,
		AgentID:   r.AgentID,
		Status:    r.Status,
		Detail:    r.Detail,
	}
}
