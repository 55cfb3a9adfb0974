package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/obligent/obligent/internal/domain"
	"github.com/obligent/obligent/internal/usecase"
	"github.com/obligent/obligent/internal/usecase/mocks"
)

func pendingAttempt() *domain.HonoringAttempt {
	return &domain.HonoringAttempt{
		ID:         "hon_1",
		TransferID: "trf_1",
		AgentID:    "agent-1",
		Status:     domain.HonoringStatusPending,
	}
}

func TestHonoringUseCase_RecordCallback(t *testing.T) {
	honoring := mocks.NewMockHonoringRepository()
	uc := usecase.NewHonoringUseCase(honoring, mocks.NewMockAuditRepository(), nil)

	honoring.Seed(pendingAttempt())

	attempt, err := uc.RecordCallback(context.Background(), usecase.CallbackInput{
		AttemptID: "hon_1",
		AgentID:   "agent-1",
		Status:    "SUCCEEDED",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if attempt.Status != domain.HonoringStatusSucceeded {
		t.Fatalf("expected SUCCEEDED, got %s", attempt.Status)
	}
}

func TestHonoringUseCase_RecordCallbackRejections(t *testing.T) {
	tests := []struct {
		name    string
		seed    func(*domain.HonoringAttempt)
		input   usecase.CallbackInput
		wantErr error
	}{
		{
			name:    "unknown status",
			input:   usecase.CallbackInput{AttemptID: "hon_1", AgentID: "agent-1", Status: "DONE"},
			wantErr: nil,
		},
		{
			name:    "pending is not a verdict",
			input:   usecase.CallbackInput{AttemptID: "hon_1", AgentID: "agent-1", Status: "PENDING"},
			wantErr: nil,
		},
		{
			name:    "missing attempt",
			input:   usecase.CallbackInput{AttemptID: "hon_missing", AgentID: "agent-1", Status: "SUCCEEDED"},
			wantErr: domain.ErrAttemptNotFound,
		},
		{
			name:    "wrong agent",
			input:   usecase.CallbackInput{AttemptID: "hon_1", AgentID: "agent-2", Status: "SUCCEEDED"},
			wantErr: domain.ErrAttemptNotFound,
		},
		{
			name:    "already terminal",
			seed:    func(a *domain.HonoringAttempt) { a.Status = domain.HonoringStatusSucceeded },
			input:   usecase.CallbackInput{AttemptID: "hon_1", AgentID: "agent-1", Status: "FAILED"},
			wantErr: domain.ErrAttemptTerminal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			honoring := mocks.NewMockHonoringRepository()
			uc := usecase.NewHonoringUseCase(honoring, mocks.NewMockAuditRepository(), nil)

			attempt := pendingAttempt()
			if tt.seed != nil {
				tt.seed(attempt)
			}
			honoring.Seed(attempt)

			_, err := uc.RecordCallback(context.Background(), tt.input)
			if err == nil {
				t.Fatalf("expected an error")
			}

			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestHonoringUseCase_ListAttempts(t *testing.T) {
	honoring := mocks.NewMockHonoringRepository()
	uc := usecase.NewHonoringUseCase(honoring, mocks.NewMockAuditRepository(), nil)

	honoring.Seed(pendingAttempt())
	honoring.Seed(&domain.HonoringAttempt{ID: "hon_2", TransferID: "trf_2", AgentID: "agent-1", Status: domain.HonoringStatusPending})

	attempts, err := uc.ListAttempts(context.Background(), "trf_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(attempts) != 1 || attempts[0].ID != "hon_1" {
		t.Fatalf("expected only trf_1 attempts, got %+v", attempts)
	}
}
