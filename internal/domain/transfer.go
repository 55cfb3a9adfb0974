package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/shopspring/decimal"
)

// TransferDirection says which way a purpose moves value relative to
// the claimant: outbound debits the claimant, inbound credits it.
type TransferDirection string

const (
	DirectionOutbound TransferDirection = "outbound"
	DirectionInbound  TransferDirection = "inbound"
)

// ParseTransferDirection parses a direction tag, rejecting unknown values.
func ParseTransferDirection(s string) (TransferDirection, error) {
	switch TransferDirection(s) {
	case DirectionOutbound, DirectionInbound:
		return TransferDirection(s), nil
	default:
		return "", ErrUnknownDirection
	}
}

// Transfer represents one posted double-entry movement: a single debit
// and a single credit of the same amount. Transfers are append-only;
// corrections are new transfers in the opposite direction.
type Transfer struct {
	ID              string
	IntentID        string
	DebitAccountID  string
	CreditAccountID string
	Amount          decimal.Decimal
	Purpose         string
	FinalizedAt     time.Time
	CreatedAt       time.Time
}

// TransferIDFor derives the transfer id for an intent. The derivation
// is deterministic so a replayed or recovered clearing attempt always
// targets the same id and create-if-absent can dedupe it.
func TransferIDFor(intentID string) string {
	sum := sha256.Sum256([]byte(intentID))
	return "trf_" + hex.EncodeToString(sum[:16])
}

// Validate validates the structural double-entry rules.
func (t *Transfer) Validate() error {
	if t.DebitAccountID == t.CreditAccountID {
		return ErrSameAccount
	}

	if t.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	return nil
}
