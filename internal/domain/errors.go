package domain

import "errors"

var (
	// Account errors
	ErrAccountNotFound     = errors.New("account not found")
	ErrAccountExists       = errors.New("account already exists")
	ErrAccountInactive     = errors.New("account is inactive")
	ErrUnknownAccountClass = errors.New("unknown account class")
	ErrInsufficientBalance = errors.New("insufficient posted balance")
	ErrLedgerMismatch      = errors.New("cannot clear across ledger partitions")

	// Transfer errors
	ErrSameAccount      = errors.New("cannot transfer to same account")
	ErrInvalidAmount    = errors.New("amount must be positive")
	ErrTransferNotFound = errors.New("transfer not found")

	// Gateway errors
	ErrMissingClaimant       = errors.New("claimant account is required")
	ErrUnknownClaimant       = errors.New("claimant account is not provisioned")
	ErrMissingIdempotencyKey = errors.New("idempotency key is required")

	// Infrastructure errors
	ErrLedgerUnavailable = errors.New("ledger store unavailable")

	// Admin authentication errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// Reason codes attached to intent outcomes. These six form the public
// failure taxonomy; everything a caller can observe maps onto one.
const (
	ReasonValidationError   = "VALIDATION_ERROR"
	ReasonAttestationFailed = "ATTESTATION_FAILED"
	ReasonLedgerRejected    = "LEDGER_REJECTED"
	ReasonLedgerUnavailable = "LEDGER_UNAVAILABLE"
	ReasonMirrorSyncFailure = "MIRROR_SYNC_FAILURE"
	ReasonHonoringFailure   = "HONORING_FAILURE"
)

// ReasonCancelled marks intents discarded by their caller before
// clearing began. It is not a failure code: nothing went wrong.
const ReasonCancelled = "CANCELLED"

// ReasonCodeFor maps an error to its public reason code. Unclassified
// errors are treated as infrastructure faults: retriable, never a
// terminal rejection.
func ReasonCodeFor(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingClaimant),
		errors.Is(err, ErrUnknownClaimant),
		errors.Is(err, ErrMissingIdempotencyKey),
		errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrInvalidPurpose),
		errors.Is(err, ErrSameAccount),
		errors.Is(err, ErrRouteNotFound),
		errors.Is(err, ErrAttestationMissing):
		return ReasonValidationError
	case errors.Is(err, ErrAttestationExpired),
		errors.Is(err, ErrAttestationRejected),
		errors.Is(err, ErrUnknownAttestor),
		errors.Is(err, ErrAttestorRevoked),
		errors.Is(err, ErrBindingMismatch),
		errors.Is(err, ErrPolicyUnsatisfied):
		return ReasonAttestationFailed
	case errors.Is(err, ErrAccountNotFound),
		errors.Is(err, ErrInsufficientBalance),
		errors.Is(err, ErrAccountInactive),
		errors.Is(err, ErrLedgerMismatch),
		errors.Is(err, ErrIdempotencyConflict),
		errors.Is(err, ErrIntentTerminal),
		errors.Is(err, ErrInvalidTransition):
		return ReasonLedgerRejected
	default:
		return ReasonLedgerUnavailable
	}
}
