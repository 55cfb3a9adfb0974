package domain

import (
	"errors"
	"fmt"
	"time"
)

var ErrMirrorEntryNotFound = errors.New("mirror entry not found")

// MirrorEntry is the read-optimized projection of a finalized transfer.
// It is derived state: always rebuildable from the ledger, never
// authoritative.
type MirrorEntry struct {
	TransferID      string    `json:"transfer_id"`
	IntentID        string    `json:"intent_id"`
	DebitAccountID  string    `json:"debit_account_id"`
	CreditAccountID string    `json:"credit_account_id"`
	Amount          string    `json:"amount"`
	Purpose         string    `json:"purpose"`
	Narrative       string    `json:"narrative"`
	FinalizedAt     time.Time `json:"finalized_at"`
	MirroredAt      time.Time `json:"mirrored_at"`
}

// MirrorCheckpoint marks the last event folded into the mirror.
type MirrorCheckpoint struct {
	EventID    string    `json:"event_id"`
	MirroredAt time.Time `json:"mirrored_at"`
}

// NarrativeFor renders the human-oriented line shown in mirror reads.
func NarrativeFor(amount, purpose, debitAccountID, creditAccountID string) string {
	return fmt.Sprintf("%s cleared for %s: %s -> %s", amount, purpose, debitAccountID, creditAccountID)
}
