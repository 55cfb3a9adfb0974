package domain

import (
	"errors"
	"time"
)

var (
	ErrAttestationMissing  = errors.New("intent carries no attestation tokens")
	ErrAttestationExpired  = errors.New("attestation has expired")
	ErrAttestationRejected = errors.New("attestation rejected")
	ErrUnknownAttestor     = errors.New("attestor key is not in the keyring")
	ErrAttestorRevoked     = errors.New("attestor key is revoked")
	ErrBindingMismatch     = errors.New("attestation does not bind this intent")
	ErrPolicyUnsatisfied   = errors.New("attestation policy not satisfied")
)

// AttestationResult records how a single token fared.
type AttestationResult string

const (
	AttestationVerified AttestationResult = "verified"
	AttestationFailed   AttestationResult = "rejected"
)

// AttestationRecord is read-only evidence of one verified (or failed)
// attestation token for an intent. Records are never updated.
type AttestationRecord struct {
	ID         string
	IntentID   string
	Attestor   string
	Claims     JSON
	Result     AttestationResult
	Detail     string
	ExpiresAt  *time.Time
	VerifiedAt time.Time
}

// AttestationClaims are the fields a token must bind exactly to the
// intent it vouches for.
type AttestationClaims struct {
	ClaimantAccountID string
	AmountMinor       int64
	Purpose           string
	Attestor          string
	ExpiresAt         time.Time
}
