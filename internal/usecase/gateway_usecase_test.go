package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/obligent/obligent/internal/domain"
	"github.com/obligent/obligent/internal/usecase"
	"github.com/obligent/obligent/internal/usecase/mocks"
)

type gatewayFixture struct {
	*clearingFixture
	audit   *mocks.MockAuditRepository
	gateway *usecase.GatewayUseCase
}

func newGatewayFixture() *gatewayFixture {
	cf := newClearingFixture()

	g := &gatewayFixture{
		clearingFixture: cf,
		audit:           mocks.NewMockAuditRepository(),
	}

	g.gateway = usecase.NewGatewayUseCase(
		cf.txManager, cf.intents, cf.routes, cf.attRepo, cf.outbox,
		g.audit, cf.verifier, cf.uc, nil, mocks.NewMockIDGenerator(), nil,
	)

	return g
}

func submitInput() usecase.SubmitIntentInput {
	return usecase.SubmitIntentInput{
		ClaimantAccountID: "acc_claimant",
		AmountMinor:       250,
		Purpose:           "GROCERY",
		IdempotencyKey:    "key-submit-1",
		Attestations:      []string{"token-1"},
	}
}

func TestGatewayUseCase_SubmitIntentFinalizes(t *testing.T) {
	f := newGatewayFixture()
	f.seedLedger()

	result, err := f.gateway.SubmitIntent(context.Background(), submitInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Intent.Status != domain.IntentStatusFinalized {
		t.Fatalf("expected FINALIZED, got %s", result.Intent.Status)
	}

	if result.Transfer == nil {
		t.Fatalf("expected a transfer on the result")
	}

	if result.Transfer.ID != domain.TransferIDFor(result.Intent.ID) {
		t.Fatalf("transfer id %s is not derived from intent %s", result.Transfer.ID, result.Intent.ID)
	}

	records, _ := f.attRepo.ListByIntent(context.Background(), result.Intent.ID)
	if len(records) != 1 || records[0].Result != domain.AttestationVerified {
		t.Fatalf("expected one verified attestation record, got %+v", records)
	}

	wantEvents := []string{
		domain.EventTypeIntentReceived,
		domain.EventTypeIntentAttested,
		domain.EventTypeIntentFinalized,
	}

	events := f.outbox.Events()
	if len(events) != len(wantEvents) {
		t.Fatalf("expected %d events, got %d", len(wantEvents), len(events))
	}

	for i, want := range wantEvents {
		if events[i].EventType != want {
			t.Fatalf("event %d: expected %s, got %s", i, want, events[i].EventType)
		}
	}
}

func TestGatewayUseCase_SubmitIntentValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*usecase.SubmitIntentInput)
		wantErr error
	}{
		{
			name:    "missing claimant",
			mutate:  func(in *usecase.SubmitIntentInput) { in.ClaimantAccountID = "" },
			wantErr: domain.ErrMissingClaimant,
		},
		{
			name:    "missing idempotency key",
			mutate:  func(in *usecase.SubmitIntentInput) { in.IdempotencyKey = "" },
			wantErr: domain.ErrMissingIdempotencyKey,
		},
		{
			name:    "zero amount",
			mutate:  func(in *usecase.SubmitIntentInput) { in.AmountMinor = 0 },
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "negative amount",
			mutate:  func(in *usecase.SubmitIntentInput) { in.AmountMinor = -5 },
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "lowercase purpose",
			mutate:  func(in *usecase.SubmitIntentInput) { in.Purpose = "grocery" },
			wantErr: domain.ErrInvalidPurpose,
		},
		{
			name:    "no attestations",
			mutate:  func(in *usecase.SubmitIntentInput) { in.Attestations = nil },
			wantErr: domain.ErrAttestationMissing,
		},
		{
			name:    "unprovisioned purpose",
			mutate:  func(in *usecase.SubmitIntentInput) { in.Purpose = "UNKNOWN" },
			wantErr: domain.ErrRouteNotFound,
		},
		{
			name:    "unknown claimant",
			mutate:  func(in *usecase.SubmitIntentInput) { in.ClaimantAccountID = "acc_ghost" },
			wantErr: domain.ErrUnknownClaimant,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newGatewayFixture()
			f.seedLedger()

			input := submitInput()
			tt.mutate(&input)

			_, err := f.gateway.SubmitIntent(context.Background(), input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}

			// Rejected submissions never create an intent row, only an
			// audit trail entry.
			records := f.audit.Records()
			if len(records) != 1 || records[0].Action != domain.AuditActionValidationRejected {
				t.Fatalf("expected one validation audit record, got %+v", records)
			}

			if len(f.outbox.Events()) != 0 {
				t.Fatalf("no events must be emitted for rejected input")
			}
		})
	}
}

func TestGatewayUseCase_SubmitIntentReplay(t *testing.T) {
	f := newGatewayFixture()
	f.seedLedger()

	first, err := f.gateway.SubmitIntent(context.Background(), submitInput())
	if err != nil {
		t.Fatalf("first submission failed: %v", err)
	}

	second, err := f.gateway.SubmitIntent(context.Background(), submitInput())
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}

	if !second.Replayed {
		t.Fatalf("expected replayed result")
	}

	if second.Intent.ID != first.Intent.ID {
		t.Fatalf("replay produced a different intent: %s vs %s", second.Intent.ID, first.Intent.ID)
	}

	if second.Transfer == nil || second.Transfer.ID != first.Transfer.ID {
		t.Fatalf("replay produced a different transfer: %+v", second.Transfer)
	}

	// The ledger must have moved exactly once.
	claimant, _ := f.accounts.GetByID(context.Background(), "acc_claimant")
	if !claimant.PostedDebits.Equal(first.Transfer.Amount) {
		t.Fatalf("expected posted debits %s, got %s", first.Transfer.Amount, claimant.PostedDebits)
	}
}

func TestGatewayUseCase_SubmitIntentFingerprintConflict(t *testing.T) {
	f := newGatewayFixture()
	f.seedLedger()

	if _, err := f.gateway.SubmitIntent(context.Background(), submitInput()); err != nil {
		t.Fatalf("first submission failed: %v", err)
	}

	conflicting := submitInput()
	conflicting.AmountMinor = 999

	_, err := f.gateway.SubmitIntent(context.Background(), conflicting)
	if !errors.Is(err, domain.ErrIdempotencyConflict) {
		t.Fatalf("expected idempotency conflict, got %v", err)
	}
}

func TestGatewayUseCase_SubmitIntentAttestationFailure(t *testing.T) {
	f := newGatewayFixture()
	f.seedLedger()

	f.verifier.VerifyFunc = func(ctx context.Context, intent *domain.ObligationIntent, tokens []string) ([]*domain.AttestationRecord, error) {
		records := []*domain.AttestationRecord{{
			IntentID: intent.ID,
			Attestor: "attestor-1",
			Result:   domain.AttestationFailed,
			Detail:   "token expired",
		}}

		return records, domain.ErrAttestationExpired
	}

	result, err := f.gateway.SubmitIntent(context.Background(), submitInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Intent.Status != domain.IntentStatusRejected {
		t.Fatalf("expected REJECTED, got %s", result.Intent.Status)
	}

	if result.Intent.ReasonCode != domain.ReasonAttestationFailed {
		t.Fatalf("expected ATTESTATION_FAILED, got %s", result.Intent.ReasonCode)
	}

	// The rejecting evidence is kept for audit.
	records, _ := f.attRepo.ListByIntent(context.Background(), result.Intent.ID)
	if len(records) != 1 || records[0].Result != domain.AttestationFailed {
		t.Fatalf("expected the rejected record persisted, got %+v", records)
	}

	events := f.outbox.Events()
	if len(events) != 2 || events[1].EventType != domain.EventTypeIntentRejected {
		t.Fatalf("expected received+rejected events, got %+v", events)
	}
}

func TestGatewayUseCase_SubmitIntentInsufficientBalance(t *testing.T) {
	f := newGatewayFixture()
	f.seedLedger()

	input := submitInput()
	input.AmountMinor = 100_000

	result, err := f.gateway.SubmitIntent(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Intent.Status != domain.IntentStatusRejected {
		t.Fatalf("expected REJECTED, got %s", result.Intent.Status)
	}

	if result.Intent.ReasonCode != domain.ReasonLedgerRejected {
		t.Fatalf("expected LEDGER_REJECTED, got %s", result.Intent.ReasonCode)
	}
}

func TestGatewayUseCase_GetIntent(t *testing.T) {
	f := newGatewayFixture()
	f.seedLedger()

	submitted, err := f.gateway.SubmitIntent(context.Background(), submitInput())
	if err != nil {
		t.Fatalf("submission failed: %v", err)
	}

	got, err := f.gateway.GetIntent(context.Background(), submitted.Intent.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.Intent.Status != domain.IntentStatusFinalized {
		t.Fatalf("expected FINALIZED, got %s", got.Intent.Status)
	}

	if got.Transfer == nil || got.Transfer.ID != submitted.Transfer.ID {
		t.Fatalf("expected the finalized transfer on the result, got %+v", got.Transfer)
	}

	if _, err := f.gateway.GetIntent(context.Background(), "int_missing"); !errors.Is(err, domain.ErrIntentNotFound) {
		t.Fatalf("expected intent not found, got %v", err)
	}
}

func TestGatewayUseCase_CancelIntent(t *testing.T) {
	f := newGatewayFixture()
	f.seedLedger()

	intent := attestedIntent(50)
	intent.Status = domain.IntentStatusReceived
	intent.AttestedAt = nil
	f.intents.Seed(intent)

	cancelled, err := f.gateway.CancelIntent(context.Background(), intent.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cancelled.Status != domain.IntentStatusRejected {
		t.Fatalf("expected REJECTED, got %s", cancelled.Status)
	}

	if cancelled.ReasonCode != domain.ReasonCancelled {
		t.Fatalf("expected CANCELLED, got %s", cancelled.ReasonCode)
	}

	events := f.outbox.Events()
	if len(events) != 1 || events[0].EventType != domain.EventTypeIntentRejected {
		t.Fatalf("expected one intent.rejected event, got %+v", events)
	}
}

func TestGatewayUseCase_CancelIntentTooLate(t *testing.T) {
	tests := []struct {
		name   string
		status domain.IntentStatus
	}{
		{name: "clearing has started", status: domain.IntentStatusClearing},
		{name: "already finalized", status: domain.IntentStatusFinalized},
		{name: "already rejected", status: domain.IntentStatusRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newGatewayFixture()
			f.seedLedger()

			intent := attestedIntent(50)
			intent.Status = tt.status
			f.intents.Seed(intent)

			_, err := f.gateway.CancelIntent(context.Background(), intent.ID)
			if !errors.Is(err, domain.ErrIntentTerminal) {
				t.Fatalf("expected intent terminal error, got %v", err)
			}
		})
	}
}
