package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/obligent/obligent/internal/domain"
	"github.com/obligent/obligent/internal/usecase"
)

// IntentResponse represents an intent outcome in API responses.
// Status PENDING is synthesized for intents parked in CLEARING: the
// caller polls GET /intents/{id} until a terminal status appears.
type IntentResponse struct {
	IntentID    string            `json:"intent_id"`
	Status      string            `json:"status"`
	ReasonCode  string            `json:"reason_code,omitempty"`
	Reason      string            `json:"reason,omitempty"`
	TransferID  string            `json:"transfer_id,omitempty"`
	Transfer    *TransferResponse `json:"transfer,omitempty"`
	Replayed    bool              `json:"replayed,omitempty"`
	AttestedAt  *time.Time        `json:"attested_at,omitempty"`
	FinalizedAt *time.Time        `json:"finalized_at,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// IntentFromResult converts a submission result to a response.
func IntentFromResult(result *usecase.SubmitIntentResult) *IntentResponse {
	intent := result.Intent

	resp := &IntentResponse{
		IntentID:    intent.ID,
		Status:      string(intent.Status),
		ReasonCode:  intent.ReasonCode,
		Reason:      intent.Reason,
		Replayed:    result.Replayed,
		AttestedAt:  intent.AttestedAt,
		FinalizedAt: intent.FinalizedAt,
		CreatedAt:   intent.CreatedAt,
	}

	if result.Pending {
		resp.Status = "PENDING"
	}

	if intent.TransferID != nil {
		resp.TransferID = *intent.TransferID
	}

	if result.Transfer != nil {
		resp.Transfer = TransferFromDomain(result.Transfer)
	}

	return resp
}

// AccountResponse represents an account in API responses. Balance is
// derived from the posted accumulators, never stored.
type AccountResponse struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Ledger         string          `json:"ledger"`
	Class          string          `json:"class"`
	PostedDebits   decimal.Decimal `json:"posted_debits"`
	PostedCredits  decimal.Decimal `json:"posted_credits"`
	PendingDebits  decimal.Decimal `json:"pending_debits"`
	PendingCredits decimal.Decimal `json:"pending_credits"`
	Balance        decimal.Decimal `json:"balance"`
	Active         bool            `json:"active"`
	Version        int64           `json:"version"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:             a.ID,
		Name:           a.Name,
		Ledger:         a.Ledger,
		Class:          string(a.Class),
		PostedDebits:   a.PostedDebits,
		PostedCredits:  a.PostedCredits,
		PendingDebits:  a.PendingDebits,
		PendingCredits: a.PendingCredits,
		Balance:        a.Balance(),
		Active:         a.Active,
		Version:        a.Version,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// ListAccountsResponse wraps an account listing.
type ListAccountsResponse struct {
	Accounts []*AccountResponse `json:"accounts"`
	Total    int64              `json:"total"`
}

// TransferResponse represents a transfer in API responses.
type TransferResponse struct {
	ID              string          `json:"id"`
	IntentID        string          `json:"intent_id"`
	DebitAccountID  string          `json:"debit_account_id"`
	CreditAccountID string          `json:"credit_account_id"`
	Amount          decimal.Decimal `json:"amount"`
	Purpose         string          `json:"purpose"`
	FinalizedAt     time.Time       `json:"finalized_at"`
	CreatedAt       time.Time       `json:"created_at"`
}

// TransferFromDomain converts domain transfer to response.
func TransferFromDomain(t *domain.Transfer) *TransferResponse {
	return &TransferResponse{
		ID:              t.ID,
		IntentID:        t.IntentID,
		DebitAccountID:  t.DebitAccountID,
		CreditAccountID: t.CreditAccountID,
		Amount:          t.Amount,
		Purpose:         t.Purpose,
		FinalizedAt:     t.FinalizedAt,
		CreatedAt:       t.CreatedAt,
	}
}

// TransfersFromDomain converts domain transfers to responses.
func TransfersFromDomain(transfers []*domain.Transfer) []*TransferResponse {
	result := make([]*TransferResponse, len(transfers))
	for i, t := range transfers {
		result[i] = TransferFromDomain(t)
	}
	return result
}

// ListTransfersResponse wraps a transfer listing.
type ListTransfersResponse struct {
	Transfers []*TransferResponse `json:"transfers"`
	Total     int64               `json:"total"`
}

// RouteResponse represents a clearing route in API responses.
type RouteResponse struct {
	Purpose             string    `json:"purpose"`
	ObligationAccountID string    `json:"obligation_account_id"`
	Direction           string    `json:"direction"`
	Description         string    `json:"description,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
}

// RouteFromDomain converts domain route to response.
func RouteFromDomain(r *domain.ClearingRoute) *RouteResponse {
	return &RouteResponse{
		Purpose:             r.Purpose,
		ObligationAccountID: r.ObligationAccountID,
		Direction:           string(r.Direction),
		Description:         r.Description,
		CreatedAt:           r.CreatedAt,
	}
}

// RoutesFromDomain converts domain routes to responses.
func RoutesFromDomain(routes []*domain.ClearingRoute) []*RouteResponse {
	result := make([]*RouteResponse, len(routes))
	for i, r := range routes {
		result[i] = RouteFromDomain(r)
	}
	return result
}

// MirrorEntryResponse represents a narrative mirror entry. Mirror
// reads are eventually consistent and labeled as such.
type MirrorEntryResponse struct {
	TransferID      string    `json:"transfer_id"`
	IntentID        string    `json:"intent_id"`
	DebitAccountID  string    `json:"debit_account_id"`
	CreditAccountID string    `json:"credit_account_id"`
	Amount          string    `json:"amount"`
	Purpose         string    `json:"purpose"`
	Narrative       string    `json:"narrative"`
	FinalizedAt     time.Time `json:"finalized_at"`
	MirroredAt      time.Time `json:"mirrored_at"`
	Consistency     string    `json:"consistency"`
}

// MirrorEntryFromDomain converts a mirror entry to response.
func MirrorEntryFromDomain(e *domain.MirrorEntry) *MirrorEntryResponse {
	return &MirrorEntryResponse{
		TransferID:      e.TransferID,
		IntentID:        e.IntentID,
		DebitAccountID:  e.DebitAccountID,
		CreditAccountID: e.CreditAccountID,
		Amount:          e.Amount,
		Purpose:         e.Purpose,
		Narrative:       e.Narrative,
		FinalizedAt:     e.FinalizedAt,
		MirroredAt:      e.MirroredAt,
		Consistency:     "eventual",
	}
}

// MirrorEntriesFromDomain converts mirror entries to responses.
func MirrorEntriesFromDomain(entries []*domain.MirrorEntry) []*MirrorEntryResponse {
	result := make([]*MirrorEntryResponse, len(entries))
	for i, e := range entries {
		result[i] = MirrorEntryFromDomain(e)
	}
	return result
}

// HonoringAttemptResponse represents a honoring attempt.
type HonoringAttemptResponse struct {
	ID         string    `json:"id"`
	TransferID string    `json:"transfer_id"`
	AgentID    string    `json:"agent_id"`
	Status     string    `json:"status"`
	RetryCount int       `json:"retry_count"`
	LastError  string    `json:"last_error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// HonoringAttemptFromDomain converts an attempt to response.
func HonoringAttemptFromDomain(a *domain.HonoringAttempt) *HonoringAttemptResponse {
	return &HonoringAttemptResponse{
		ID:         a.ID,
		TransferID: a.TransferID,
		AgentID:    a.AgentID,
		Status:     string(a.Status),
		RetryCount: a.RetryCount,
		LastError:  a.LastError,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}

// HonoringAttemptsFromDomain converts attempts to responses.
func HonoringAttemptsFromDomain(attempts []*domain.HonoringAttempt) []*HonoringAttemptResponse {
	result := make([]*HonoringAttemptResponse, len(attempts))
	for i, a := range attempts {
		result[i] = HonoringAttemptFromDomain(a)
	}
	return result
}

// AuditRecordResponse represents one audit trail line.
type AuditRecordResponse struct {
	ID         string      `json:"id"`
	EventID    string      `json:"event_id,omitempty"`
	IntentID   string      `json:"intent_id,omitempty"`
	TransferID string      `json:"transfer_id,omitempty"`
	Action     string      `json:"action"`
	Status     string      `json:"status"`
	ReasonCode string      `json:"reason_code,omitempty"`
	Detail     domain.JSON `json:"detail,omitempty"`
	OccurredAt time.Time   `json:"occurred_at"`
	RecordedAt time.Time   `json:"recorded_at"`
}

// AuditRecordFromDomain converts an audit record to response.
func AuditRecordFromDomain(r *domain.AuditRecord) *AuditRecordResponse {
	return &AuditRecordResponse{
		ID:         r.ID,
		EventID:    r.EventID,
		IntentID:   r.IntentID,
		TransferID: r.TransferID,
		Action:     string(r.Action),
		Status:     string(r.Status),
		ReasonCode: r.ReasonCode,
		Detail:     r.Detail,
		OccurredAt: r.OccurredAt,
		RecordedAt: r.RecordedAt,
	}
}

// AuditRecordsFromDomain converts audit records to responses.
func AuditRecordsFromDomain(records []*domain.AuditRecord) []*AuditRecordResponse {
	result := make([]*AuditRecordResponse, len(records))
	for i, r := range records {
		result[i] = AuditRecordFromDomain(r)
	}
	return result
}

// ConsistencyResponse represents a ledger conservation check.
type ConsistencyResponse struct {
	PostedDebits  decimal.Decimal `json:"posted_debits"`
	PostedCredits decimal.Decimal `json:"posted_credits"`
	TransferTotal decimal.Decimal `json:"transfer_total"`
	Drift         decimal.Decimal `json:"drift"`
	Consistent    bool            `json:"consistent"`
	CheckedAt     time.Time       `json:"checked_at"`
}

// ConsistencyFromReport converts a consistency report to response.
func ConsistencyFromReport(r *usecase.ConsistencyReport) *ConsistencyResponse {
	return &ConsistencyResponse{
		PostedDebits:  r.PostedDebits,
		PostedCredits: r.PostedCredits,
		TransferTotal: r.TransferTotal,
		Drift:         r.Drift,
		Consistent:    r.Consistent,
		CheckedAt:     r.CheckedAt,
	}
}

// RebuildResponse reports a mirror rebuild.
type RebuildResponse struct {
	Entries int `json:"entries"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message,omitempty"`
	ReasonCode string `json:"reason_code,omitempty"`
}
