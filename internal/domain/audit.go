package domain

import (
	"encoding/json"
	"time"
)

// AuditRecord is one immutable line of the audit trail. Records are
// append-only: nothing in the system updates or deletes them.
type AuditRecord struct {
	ID         string
	EventID    string // bus event that produced the record; empty for direct appends
	IntentID   string
	TransferID string
	Action     AuditAction
	Status     AuditStatus
	ReasonCode string
	Detail     JSON
	OccurredAt time.Time
	RecordedAt time.Time
}

// JSON is a type alias for JSON data
type JSON map[string]any

// AuditAction represents different types of auditable actions
type AuditAction string

const (
	// Intent lifecycle
	AuditActionIntentReceived  AuditAction = "intent.received"
	AuditActionIntentAttested  AuditAction = "intent.attested"
	AuditActionIntentFinalized AuditAction = "intent.finalized"
	AuditActionIntentRejected  AuditAction = "intent.rejected"
	AuditActionIntentCancelled AuditAction = "intent.cancelled"

	// Failures outside the intent lifecycle
	AuditActionValidationRejected AuditAction = "validation.rejected"
	AuditActionHonoringExhausted  AuditAction = "honoring.exhausted"

	// Provisioning
	AuditActionAccountCreated     AuditAction = "account.created"
	AuditActionAccountDeactivated AuditAction = "account.deactivated"
	AuditActionRouteCreated       AuditAction = "route.created"
)

// AuditStatus represents the status of an audited action
type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailure AuditStatus = "failure"
)

// MarshalState converts a domain object to JSON for audit detail.
func MarshalState(v any) JSON {
	if v == nil {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return JSON{"error": "failed to marshal state"}
	}

	var result JSON
	if err := json.Unmarshal(data, &result); err != nil {
		return JSON{"error": "failed to unmarshal state"}
	}

	return result
}

// AuditFilter defines filters for querying the audit trail
type AuditFilter struct {
	IntentID   string
	TransferID string
	Action     string
	StartDate  *time.Time
	EndDate    *time.Time
	Limit      int
	Offset     int
}
