package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrIntentNotFound      = errors.New("obligation intent not found")
	ErrIntentTerminal      = errors.New("obligation intent is already terminal")
	ErrInvalidTransition   = errors.New("invalid intent status transition")
	ErrIdempotencyConflict = errors.New("idempotency key reused with different parameters")
)

// IntentStatus is the clearing state of an obligation intent.
type IntentStatus string

const (
	IntentStatusReceived  IntentStatus = "RECEIVED"
	IntentStatusAttested  IntentStatus = "ATTESTED"
	IntentStatusClearing  IntentStatus = "CLEARING"
	IntentStatusFinalized IntentStatus = "FINALIZED"
	IntentStatusRejected  IntentStatus = "REJECTED"
)

// Terminal reports whether the status admits no further transitions.
func (s IntentStatus) Terminal() bool {
	return s == IntentStatusFinalized || s == IntentStatusRejected
}

// CanTransitionTo reports whether the state machine allows moving from
// s to next. The machine only moves forward:
// RECEIVED -> ATTESTED -> CLEARING -> FINALIZED, with REJECTED reachable
// from any non-terminal state.
func (s IntentStatus) CanTransitionTo(next IntentStatus) bool {
	if s.Terminal() {
		return false
	}

	switch next {
	case IntentStatusAttested:
		return s == IntentStatusReceived
	case IntentStatusClearing:
		return s == IntentStatusAttested
	case IntentStatusFinalized:
		return s == IntentStatusClearing
	case IntentStatusRejected:
		return true
	default:
		return false
	}
}

// ObligationIntent represents a claimant's request to discharge an
// obligation. One row exists per idempotency key, forever; terminal
// intents are never modified again.
type ObligationIntent struct {
	ID                string
	IdempotencyKey    string
	ClaimantAccountID string
	Amount            decimal.Decimal
	Purpose           string
	Fingerprint       string
	Status            IntentStatus
	ReasonCode        string
	Reason            string
	TransferID        *string
	AttestedAt        *time.Time
	FinalizedAt       *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Validate checks the structural rules an intent must satisfy before
// any attestation or ledger work happens.
func (i *ObligationIntent) Validate() error {
	if i.ClaimantAccountID == "" {
		return ErrMissingClaimant
	}

	if i.IdempotencyKey == "" {
		return ErrMissingIdempotencyKey
	}

	if i.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	return nil
}
