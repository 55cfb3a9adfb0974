package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/obligent/obligent/internal/adapter/http/dto"
	"github.com/obligent/obligent/internal/domain"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// writeDomainError writes an error response carrying the public
// reason code for the failure.
func writeDomainError(w http.ResponseWriter, err error, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(mapDomainError(err))
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:      message,
		Message:    err.Error(),
		ReasonCode: domain.ReasonCodeFor(err),
	})
}

// mapDomainError maps domain errors to HTTP status codes. Exactly one
// status per sentinel; unclassified errors are infrastructure faults.
func mapDomainError(err error) int {
	switch {
	// Missing resources
	case errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrIntentNotFound),
		errors.Is(err, domain.ErrTransferNotFound),
		errors.Is(err, domain.ErrAttemptNotFound),
		errors.Is(err, domain.ErrMirrorEntryNotFound):
		return http.StatusNotFound

	// Malformed input
	case errors.Is(err, domain.ErrMissingClaimant),
		errors.Is(err, domain.ErrMissingIdempotencyKey),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrAmountTooLarge),
		errors.Is(err, domain.ErrInvalidPurpose),
		errors.Is(err, domain.ErrInvalidAccountName),
		errors.Is(err, domain.ErrInvalidAccountID),
		errors.Is(err, domain.ErrInvalidLedger),
		errors.Is(err, domain.ErrInvalidIdempotencyKey),
		errors.Is(err, domain.ErrSameAccount),
		errors.Is(err, domain.ErrUnknownDirection),
		errors.Is(err, domain.ErrUnknownAccountClass),
		errors.Is(err, domain.ErrAttestationMissing):
		return http.StatusBadRequest

	// Conflicts with existing state
	case errors.Is(err, domain.ErrIdempotencyConflict),
		errors.Is(err, domain.ErrAccountExists),
		errors.Is(err, domain.ErrRouteExists),
		errors.Is(err, domain.ErrIntentTerminal),
		errors.Is(err, domain.ErrAttemptTerminal),
		errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict

	// Well-formed but unclearable
	case errors.Is(err, domain.ErrRouteNotFound),
		errors.Is(err, domain.ErrUnknownClaimant),
		errors.Is(err, domain.ErrRouteAccountClass),
		errors.Is(err, domain.ErrInsufficientBalance),
		errors.Is(err, domain.ErrAccountInactive),
		errors.Is(err, domain.ErrLedgerMismatch),
		errors.Is(err, domain.ErrAttestationExpired),
		errors.Is(err, domain.ErrAttestationRejected),
		errors.Is(err, domain.ErrUnknownAttestor),
		errors.Is(err, domain.ErrAttestorRevoked),
		errors.Is(err, domain.ErrBindingMismatch),
		errors.Is(err, domain.ErrPolicyUnsatisfied):
		return http.StatusUnprocessableEntity

	case errors.Is(err, domain.ErrLedgerUnavailable):
		return http.StatusServiceUnavailable

	case errors.Is(err, domain.ErrInvalidToken),
		errors.Is(err, domain.ErrExpiredToken),
		errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized

	default:
		return http.StatusInternalServerError
	}
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}
