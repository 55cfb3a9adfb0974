package auditrecorder

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/obligent/obligent/internal/domain"
	"github.com/obligent/obligent/internal/usecase/mocks"
)

func TestRecorderMapsLifecycleEvents(t *testing.T) {
	tests := []struct {
		name       string
		event      *domain.OutboxEvent
		wantAction domain.AuditAction
		wantStatus domain.AuditStatus
		wantReason string
	}{
		{
			name: "received",
			event: &domain.OutboxEvent{
				ID:        "evt_1",
				EventType: domain.EventTypeIntentReceived,
				Payload:   map[string]any{"intent_id": "int_1"},
			},
			wantAction: domain.AuditActionIntentReceived,
			wantStatus: domain.AuditStatusSuccess,
		},
		{
			name: "attested",
			event: &domain.OutboxEvent{
				ID:        "evt_2",
				EventType: domain.EventTypeIntentAttested,
				Payload:   map[string]any{"intent_id": "int_1", "attestors": []string{"a"}},
			},
			wantAction: domain.AuditActionIntentAttested,
			wantStatus: domain.AuditStatusSuccess,
		},
		{
			name: "finalized",
			event: &domain.OutboxEvent{
				ID:        "evt_3",
				EventType: domain.EventTypeIntentFinalized,
				Payload:   map[string]any{"intent_id": "int_1", "transfer_id": "trf_1"},
			},
			wantAction: domain.AuditActionIntentFinalized,
			wantStatus: domain.AuditStatusSuccess,
		},
		{
			name: "rejected",
			event: &domain.OutboxEvent{
				ID:        "evt_4",
				EventType: domain.EventTypeIntentRejected,
				Payload:   map[string]any{"intent_id": "int_1", "reason_code": domain.ReasonLedgerRejected},
			},
			wantAction: domain.AuditActionIntentRejected,
			wantStatus: domain.AuditStatusFailure,
			wantReason: domain.ReasonLedgerRejected,
		},
		{
			name: "cancelled is not a failure",
			event: &domain.OutboxEvent{
				ID:        "evt_5",
				EventType: domain.EventTypeIntentRejected,
				Payload:   map[string]any{"intent_id": "int_1", "reason_code": domain.ReasonCancelled},
			},
			wantAction: domain.AuditActionIntentCancelled,
			wantStatus: domain.AuditStatusSuccess,
			wantReason: domain.ReasonCancelled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auditRepo := mocks.NewMockAuditRepository()
			r := NewRecorder(auditRepo, zerolog.Nop())

			tt.event.CreatedAt = time.Now().UTC()

			if err := r.Handle(context.Background(), tt.event); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			records := auditRepo.Records()
			if len(records) != 1 {
				t.Fatalf("expected 1 record, got %d", len(records))
			}

			record := records[0]
			if record.Action != tt.wantAction {
				t.Fatalf("expected action %s, got %s", tt.wantAction, record.Action)
			}

			if record.Status != tt.wantStatus {
				t.Fatalf("expected status %s, got %s", tt.wantStatus, record.Status)
			}

			if record.ReasonCode != tt.wantReason {
				t.Fatalf("expected reason %q, got %q", tt.wantReason, record.ReasonCode)
			}

			if record.EventID != tt.event.ID {
				t.Fatalf("record must carry the event id for dedupe, got %q", record.EventID)
			}

			if record.IntentID != "int_1" {
				t.Fatalf("expected intent id on the record, got %q", record.IntentID)
			}
		})
	}
}

func TestRecorderIdempotentUnderRedelivery(t *testing.T) {
	auditRepo := mocks.NewMockAuditRepository()
	r := NewRecorder(auditRepo, zerolog.Nop())

	event := &domain.OutboxEvent{
		ID:        "evt_1",
		EventType: domain.EventTypeIntentReceived,
		Payload:   map[string]any{"intent_id": "int_1"},
		CreatedAt: time.Now().UTC(),
	}

	if err := r.Handle(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := r.Handle(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if records := auditRepo.Records(); len(records) != 1 {
		t.Fatalf("redelivery must not duplicate the record, got %d", len(records))
	}
}

func TestRecorderIgnoresUnknownEventTypes(t *testing.T) {
	auditRepo := mocks.NewMockAuditRepository()
	r := NewRecorder(auditRepo, zerolog.Nop())

	event := &domain.OutboxEvent{ID: "evt_1", EventType: "account.created", CreatedAt: time.Now().UTC()}

	if err := r.Handle(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if records := auditRepo.Records(); len(records) != 0 {
		t.Fatalf("expected no record for unmapped event, got %+v", records)
	}
}
