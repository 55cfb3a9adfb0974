package domain

import (
	"encoding/json"
	"time"
)

// Event types
const (
	EventTypeIntentReceived  = "intent.received"
	EventTypeIntentAttested  = "intent.attested"
	EventTypeIntentFinalized = "intent.finalized"
	EventTypeIntentRejected  = "intent.rejected"
)

// Aggregate types
const (
	AggregateTypeIntent   = "intent"
	AggregateTypeTransfer = "transfer"
)

// OutboxEvent represents an event recorded in the same transaction as
// the state change it describes, to be delivered by the bus dispatcher.
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// DecodePayload unmarshals the event payload into a typed struct.
func DecodePayload(e *OutboxEvent, v any) error {
	data, err := json.Marshal(e.Payload)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, v)
}

// IntentReceivedEvent payload
type IntentReceivedEvent struct {
	IntentID          string `json:"intent_id"`
	IdempotencyKey    string `json:"idempotency_key"`
	ClaimantAccountID string `json:"claimant_account_id"`
	Amount            string `json:"amount"`
	Purpose           string `json:"purpose"`
	ReceivedAt        string `json:"received_at"`
}

// IntentAttestedEvent payload
type IntentAttestedEvent struct {
	IntentID   string   `json:"intent_id"`
	Attestors  []string `json:"attestors"`
	AttestedAt string   `json:"attested_at"`
}

// IntentFinalizedEvent payload. Carries the full transfer so consumers
// never need a ledger read.
type IntentFinalizedEvent struct {
	IntentID        string `json:"intent_id"`
	TransferID      string `json:"transfer_id"`
	DebitAccountID  string `json:"debit_account_id"`
	CreditAccountID string `json:"credit_account_id"`
	Amount          string `json:"amount"`
	Purpose         string `json:"purpose"`
	FinalizedAt     string `json:"finalized_at"`
}

// IntentRejectedEvent payload
type IntentRejectedEvent struct {
	IntentID   string `json:"intent_id"`
	ReasonCode string `json:"reason_code"`
	Reason     string `json:"reason"`
	RejectedAt string `json:"rejected_at"`
}
