package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/obligent/obligent/internal/domain"
	"github.com/obligent/obligent/internal/usecase"
	"github.com/obligent/obligent/internal/usecase/mocks"
)

func TestAuditUseCase_ListRecords(t *testing.T) {
	audit := mocks.NewMockAuditRepository()
	uc := usecase.NewAuditUseCase(audit)

	now := time.Now().UTC()
	_ = audit.Create(context.Background(), &domain.AuditRecord{IntentID: "int_1", Action: domain.AuditActionValidationRejected, Status: domain.AuditStatusFailure, OccurredAt: now})
	_ = audit.Create(context.Background(), &domain.AuditRecord{IntentID: "int_2", TransferID: "trf_1", Action: domain.AuditActionAccountCreated, Status: domain.AuditStatusSuccess, OccurredAt: now})

	all, err := uc.ListRecords(context.Background(), domain.AuditFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(all) != 2 {
		t.Fatalf("expected 2 records, got %d", len(all))
	}

	byIntent, err := uc.ListRecords(context.Background(), domain.AuditFilter{IntentID: "int_1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(byIntent) != 1 || byIntent[0].IntentID != "int_1" {
		t.Fatalf("expected only int_1 records, got %+v", byIntent)
	}

	byTransfer, err := uc.ListRecords(context.Background(), domain.AuditFilter{TransferID: "trf_1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(byTransfer) != 1 || byTransfer[0].TransferID != "trf_1" {
		t.Fatalf("expected only trf_1 records, got %+v", byTransfer)
	}
}

func TestAuditUseCase_BusDeliveredRecordsDedupe(t *testing.T) {
	audit := mocks.NewMockAuditRepository()
	uc := usecase.NewAuditUseCase(audit)

	record := &domain.AuditRecord{EventID: "evt_1", IntentID: "int_1", Action: domain.AuditActionIntentReceived, Status: domain.AuditStatusSuccess}

	_ = audit.Create(context.Background(), record)
	_ = audit.Create(context.Background(), record)

	all, err := uc.ListRecords(context.Background(), domain.AuditFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(all) != 1 {
		t.Fatalf("redelivered event must not duplicate the record, got %d", len(all))
	}
}
