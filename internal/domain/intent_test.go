package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestIntentStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from IntentStatus
		to   IntentStatus
		want bool
	}{
		{"received to attested", IntentStatusReceived, IntentStatusAttested, true},
		{"attested to clearing", IntentStatusAttested, IntentStatusClearing, true},
		{"clearing to finalized", IntentStatusClearing, IntentStatusFinalized, true},
		{"received to rejected", IntentStatusReceived, IntentStatusRejected, true},
		{"attested to rejected", IntentStatusAttested, IntentStatusRejected, true},
		{"clearing to rejected", IntentStatusClearing, IntentStatusRejected, true},
		{"received skips attestation", IntentStatusReceived, IntentStatusClearing, false},
		{"received skips to finalized", IntentStatusReceived, IntentStatusFinalized, false},
		{"attested skips to finalized", IntentStatusAttested, IntentStatusFinalized, false},
		{"no backward step", IntentStatusClearing, IntentStatusAttested, false},
		{"finalized is terminal", IntentStatusFinalized, IntentStatusRejected, false},
		{"rejected is terminal", IntentStatusRejected, IntentStatusClearing, false},
		{"rejected cannot finalize", IntentStatusRejected, IntentStatusFinalized, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
				t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestIntentStatus_Terminal(t *testing.T) {
	terminal := map[IntentStatus]bool{
		IntentStatusReceived:  false,
		IntentStatusAttested:  false,
		IntentStatusClearing:  false,
		IntentStatusFinalized: true,
		IntentStatusRejected:  true,
	}

	for status, want := range terminal {
		if got := status.Terminal(); got != want {
			t.Errorf("%s.Terminal() = %v, want %v", status, got, want)
		}
	}
}

func TestObligationIntent_Validate(t *testing.T) {
	valid := ObligationIntent{
		IdempotencyKey:    "key-1",
		ClaimantAccountID: "acc_claimant",
		Amount:            decimal.NewFromInt(500),
		Purpose:           "GROCERY",
	}

	t.Run("valid intent", func(t *testing.T) {
		intent := valid
		if err := intent.Validate(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("missing claimant", func(t *testing.T) {
		intent := valid
		intent.ClaimantAccountID = ""
		if !errors.Is(intent.Validate(), ErrMissingClaimant) {
			t.Fatal("expected ErrMissingClaimant")
		}
	})

	t.Run("missing idempotency key", func(t *testing.T) {
		intent := valid
		intent.IdempotencyKey = ""
		if !errors.Is(intent.Validate(), ErrMissingIdempotencyKey) {
			t.Fatal("expected ErrMissingIdempotencyKey")
		}
	})

	t.Run("non-positive amount", func(t *testing.T) {
		intent := valid
		intent.Amount = decimal.Zero
		if !errors.Is(intent.Validate(), ErrInvalidAmount) {
			t.Fatal("expected ErrInvalidAmount")
		}
	})
}

func TestReasonCodeFor(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrMissingClaimant, ReasonValidationError},
		{ErrInvalidPurpose, ReasonValidationError},
		{ErrRouteNotFound, ReasonValidationError},
		{ErrAttestationExpired, ReasonAttestationFailed},
		{ErrPolicyUnsatisfied, ReasonAttestationFailed},
		{ErrInsufficientBalance, ReasonLedgerRejected},
		{ErrAccountNotFound, ReasonLedgerRejected},
		{ErrIdempotencyConflict, ReasonLedgerRejected},
		{ErrLedgerUnavailable, ReasonLedgerUnavailable},
		{errors.New("connection refused"), ReasonLedgerUnavailable},
		{nil, ""},
	}

	for _, tt := range tests {
		if got := ReasonCodeFor(tt.err); got != tt.want {
			t.Errorf("ReasonCodeFor(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
