package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/obligent/obligent/internal/adapter/http/dto"
	"github.com/obligent/obligent/internal/domain"
	"github.com/obligent/obligent/internal/infrastructure/honoring"
)

// Runs the full honoring chain: a finalized intent is dispatched to an
// agent that defers, and the agent's later callback settles the attempt.
func TestHonoringDeferredCallback(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	e := newEnv(t)

	claimant := e.db.CreateTestAccount(ctx, "acc_claimant", "Claimant Pool", "TRUST", domain.AccountClassAsset, decimal.NewFromInt(1000))
	grocery := e.db.CreateTestAccount(ctx, "acc_grocery", "Grocery Obligations", "TRUST", domain.AccountClassObligation, decimal.Zero)
	e.db.CreateTestRoute(ctx, "GROCERY", grocery.ID)

	var honorReq honoring.HonorRequest
	agent := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&honorReq); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(honoring.HonorResponse{Status: "PENDING", Detail: "queued"})
	}))
	defer agent.Close()

	registry, err := honoring.ParseRegistry("GROCERY=courier|" + agent.URL)
	if err != nil {
		t.Fatalf("failed to parse registry: %v", err)
	}

	dispatcher := honoring.NewDispatcher(
		registry,
		honoring.NewAgentClient(5*time.Second, 0),
		e.honoringRepo,
		e.auditRepo,
		e.idGen,
		zerolog.Nop(),
		nil,
	)

	var resp dto.IntentResponse
	code := e.submitIntent(t, map[string]any{
		"claimant_account_id": claimant.ID,
		"amount_minor":        250,
		"purpose":             "GROCERY",
		"idempotency_key":     "honor-1",
		"attestations":        []string{e.attestationToken(t, claimant.ID, 250, "GROCERY")},
	}, &resp)

	if code != http.StatusOK || resp.Status != "FINALIZED" {
		t.Fatalf("expected a finalized intent, got %d %+v", code, resp)
	}

	events, err := e.outboxRepo.GetUnpublished(ctx, 100)
	if err != nil {
		t.Fatalf("failed to read outbox: %v", err)
	}

	var finalized *domain.OutboxEvent
	for _, ev := range events {
		if ev.EventType == domain.EventTypeIntentFinalized {
			finalized = ev
			break
		}
	}
	if finalized == nil {
		t.Fatalf("no finalized event in the outbox")
	}

	if err := dispatcher.Handle(ctx, finalized); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	if honorReq.TransferID != resp.TransferID || honorReq.Purpose != "GROCERY" {
		t.Fatalf("agent saw the wrong request %+v", honorReq)
	}

	// The deferring agent left the attempt pending.
	attempts, err := e.honoringRepo.ListByTransfer(ctx, resp.TransferID)
	if err != nil {
		t.Fatalf("failed to list attempts: %v", err)
	}
	if len(attempts) != 1 || attempts[0].Status != domain.HonoringStatusPending {
		t.Fatalf("expected one pending attempt, got %+v", attempts)
	}

	// Redelivery of the same event must not re-dispatch.
	if err := dispatcher.Handle(ctx, finalized); err != nil {
		t.Fatalf("redelivery failed: %v", err)
	}
	attempts, err = e.honoringRepo.ListByTransfer(ctx, resp.TransferID)
	if err != nil {
		t.Fatalf("failed to list attempts: %v", err)
	}
	if len(attempts) != 1 {
		t.Fatalf("redelivery duplicated attempts: %+v", attempts)
	}

	// The agent calls back with its verdict.
	var settled dto.HonoringAttemptResponse
	code = e.request(t, http.MethodPost, "/api/v1/honoring/callback", map[string]any{
		"attempt_id": honorReq.AttemptID,
		"agent_id":   "courier",
		"status":     "SUCCEEDED",
		"detail":     "delivered",
	}, &settled)

	if code != http.StatusOK || settled.Status != "SUCCEEDED" {
		t.Fatalf("callback failed: %d %+v", code, settled)
	}

	var listed []*dto.HonoringAttemptResponse
	if code := e.request(t, http.MethodGet, "/api/v1/transfers/"+resp.TransferID+"/honoring", nil, &listed); code != http.StatusOK {
		t.Fatalf("failed to list honoring attempts: %d", code)
	}
	if len(listed) != 1 || listed[0].Status != "SUCCEEDED" {
		t.Fatalf("unexpected honoring history %+v", listed)
	}

	// Settled attempts refuse further verdicts.
	var errResp dto.ErrorResponse
	code = e.request(t, http.MethodPost, "/api/v1/honoring/callback", map[string]any{
		"attempt_id": honorReq.AttemptID,
		"agent_id":   "courier",
		"status":     "FAILED",
	}, &errResp)

	if code != http.StatusConflict {
		t.Fatalf("expected 409 for a settled attempt, got %d", code)
	}
}
