package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrAttemptNotFound = errors.New("honoring attempt not found")
	ErrAttemptTerminal = errors.New("honoring attempt is already terminal")
)

type HonoringStatus string

const (
	HonoringStatusPending   HonoringStatus = "PENDING"
	HonoringStatusSucceeded HonoringStatus = "SUCCEEDED"
	HonoringStatusFailed    HonoringStatus = "FAILED"
	HonoringStatusExhausted HonoringStatus = "EXHAUSTED"
)

// ParseHonoringStatus parses a status reported by a fulfillment agent.
func ParseHonoringStatus(s string) (HonoringStatus, error) {
	switch HonoringStatus(s) {
	case HonoringStatusPending, HonoringStatusSucceeded, HonoringStatusFailed, HonoringStatusExhausted:
		return HonoringStatus(s), nil
	default:
		return "", fmt.Errorf("unknown honoring status %q", s)
	}
}

// Terminal reports whether the attempt can still change.
func (s HonoringStatus) Terminal() bool {
	return s == HonoringStatusSucceeded || s == HonoringStatusFailed || s == HonoringStatusExhausted
}

// HonoringAttempt tracks one agent's fulfillment of a finalized
// transfer. Attempts have no write path back into transfers or
// intents: honoring failure never changes ledger state.
type HonoringAttempt struct {
	ID         string
	TransferID string
	AgentID    string
	Status     HonoringStatus
	RetryCount int
	LastError  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
