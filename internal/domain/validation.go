package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrInvalidAccountName    = errors.New("invalid account name")
	ErrInvalidAccountID      = errors.New("invalid account id")
	ErrInvalidLedger         = errors.New("invalid ledger label")
	ErrInvalidPurpose        = errors.New("invalid purpose")
	ErrInvalidIdempotencyKey = errors.New("invalid idempotency key")
	ErrAmountTooLarge        = errors.New("amount exceeds maximum allowed")
)

// Validation constants
const (
	MaxAccountNameLength    = 255
	MinAccountNameLength    = 1
	MaxIdempotencyKeyLength = 128
	MaxAmountMinor          = int64(1_000_000_000_000)
)

var (
	accountIDRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,63}$`)
	purposeRegex   = regexp.MustCompile(`^[A-Z][A-Z0-9_]{0,63}$`)
	ledgerRegex    = regexp.MustCompile(`^[A-Z][A-Z0-9_]{0,31}$`)
	idemKeyRegex   = regexp.MustCompile(`^[!-~]{1,128}$`)
)

// ValidateAccountName validates a human-readable account name.
func ValidateAccountName(name string) error {
	name = strings.TrimSpace(name)

	if len(name) < MinAccountNameLength {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidAccountName)
	}

	if len(name) > MaxAccountNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidAccountName, MaxAccountNameLength)
	}

	return nil
}

// ValidateAccountID validates a caller-supplied account identifier.
func ValidateAccountID(id string) error {
	if !accountIDRegex.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidAccountID, id)
	}

	return nil
}

// ValidateLedger validates a ledger partition label (e.g. TRUST).
func ValidateLedger(label string) error {
	if !ledgerRegex.MatchString(label) {
		return fmt.Errorf("%w: %q", ErrInvalidLedger, label)
	}

	return nil
}

// ValidatePurpose validates a purpose tag (e.g. GROCERY).
func ValidatePurpose(purpose string) error {
	if !purposeRegex.MatchString(purpose) {
		return fmt.Errorf("%w: %q", ErrInvalidPurpose, purpose)
	}

	return nil
}

// ValidateIdempotencyKey validates a caller-supplied idempotency key:
// printable ASCII, at most MaxIdempotencyKeyLength characters.
func ValidateIdempotencyKey(key string) error {
	if !idemKeyRegex.MatchString(key) || len(key) > MaxIdempotencyKeyLength {
		return fmt.Errorf("%w: must be 1-%d printable characters", ErrInvalidIdempotencyKey, MaxIdempotencyKeyLength)
	}

	return nil
}

// ValidateAmountMinor validates a wire amount in integer minor units.
func ValidateAmountMinor(units int64) error {
	if units <= 0 {
		return ErrInvalidAmount
	}

	if units > MaxAmountMinor {
		return fmt.Errorf("%w: maximum is %d minor units", ErrAmountTooLarge, MaxAmountMinor)
	}

	return nil
}

// ValidateAmount validates an internal ledger amount.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	if amount.GreaterThan(decimal.NewFromInt(MaxAmountMinor)) {
		return fmt.Errorf("%w: maximum is %d minor units", ErrAmountTooLarge, MaxAmountMinor)
	}

	return nil
}

// ValidatePagination clamps pagination parameters to sane bounds.
func ValidatePagination(limit, offset int) (int, int) {
	const maxPageSize = 1000
	const defaultPageSize = 50

	if limit <= 0 {
		limit = defaultPageSize
	}

	if limit > maxPageSize {
		limit = maxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
