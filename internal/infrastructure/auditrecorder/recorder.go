package auditrecorder

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/obligent/obligent/internal/domain"
	"github.com/obligent/obligent/internal/usecase"
)

// Recorder appends one audit record per intent state transition. It is
// a bus subscriber; the unique event id on the record makes appends
// idempotent under redelivery.
type Recorder struct {
	auditRepo usecase.AuditRepository
	logger    zerolog.Logger
}

// NewRecorder creates a new Recorder.
func NewRecorder(auditRepo usecase.AuditRepository, logger zerolog.Logger) *Recorder {
	return &Recorder{
		auditRepo: auditRepo,
		logger:    logger.With().Str("component", "auditrecorder").Logger(),
	}
}

func (r *Recorder) Name() string { return "audit" }

// Handle appends the record for one event.
func (r *Recorder) Handle(ctx context.Context, event *domain.OutboxEvent) error {
	record := r.recordFor(event)
	if record == nil {
		return nil
	}

	return r.auditRepo.Create(ctx, record)
}

func (r *Recorder) recordFor(event *domain.OutboxEvent) *domain.AuditRecord {
	record := &domain.AuditRecord{
		EventID:    event.ID,
		Status:     domain.AuditStatusSuccess,
		Detail:     event.Payload,
		OccurredAt: event.CreatedAt,
	}

	switch event.EventType {
	case domain.EventTypeIntentReceived:
		var payload domain.IntentReceivedEvent
		if err := domain.DecodePayload(event, &payload); err != nil {
			return nil
		}

		record.Action = domain.AuditActionIntentReceived
		record.IntentID = payload.IntentID
	case domain.EventTypeIntentAttested:
		var payload domain.IntentAttestedEvent
		if err := domain.DecodePayload(event, &payload); err != nil {
			return nil
		}

		record.Action = domain.AuditActionIntentAttested
		record.IntentID = payload.IntentID
	case domain.EventTypeIntentFinalized:
		var payload domain.IntentFinalizedEvent
		if err := domain.DecodePayload(event, &payload); err != nil {
			return nil
		}

		record.Action = domain.AuditActionIntentFinalized
		record.IntentID = payload.IntentID
		record.TransferID = payload.TransferID
	case domain.EventTypeIntentRejected:
		var payload domain.IntentRejectedEvent
		if err := domain.DecodePayload(event, &payload); err != nil {
			return nil
		}

		record.Action = domain.AuditActionIntentRejected
		record.IntentID = payload.IntentID
		record.Status = domain.AuditStatusFailure
		record.ReasonCode = payload.ReasonCode

		// A caller-initiated cancel is not a failure.
		if payload.ReasonCode == domain.ReasonCancelled {
			record.Action = domain.AuditActionIntentCancelled
			record.Status = domain.AuditStatusSuccess
		}
	default:
		r.logger.Debug().Str("event_type", event.EventType).Msg("no audit mapping for event type")

		return nil
	}

	return record
}
