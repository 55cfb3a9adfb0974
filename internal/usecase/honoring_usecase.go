package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/obligent/obligent/internal/domain"
	"github.com/obligent/obligent/internal/infrastructure/metrics"
)

// HonoringUseCase handles fulfillment-agent callbacks. Callbacks mutate
// only the honoring attempt they name; they carry no authority over the
// transfer or intent they fulfil.
type HonoringUseCase struct {
	honoringRepo HonoringRepository
	auditRepo    AuditRepository
	metrics      *metrics.Metrics
}

// NewHonoringUseCase creates a new HonoringUseCase.
func NewHonoringUseCase(honoringRepo HonoringRepository, auditRepo AuditRepository, metrics *metrics.Metrics) *HonoringUseCase {
	return &HonoringUseCase{
		honoringRepo: honoringRepo,
		auditRepo:    auditRepo,
		metrics:      metrics,
	}
}

// CallbackInput is an agent's asynchronous report on an attempt.
type CallbackInput struct {
	AttemptID string
	AgentID   string
	Status    string
	Detail    string
}

// RecordCallback settles a pending attempt with the agent's terminal
// verdict. Terminal attempts reject further updates.
func (uc *HonoringUseCase) RecordCallback(ctx context.Context, input CallbackInput) (*domain.HonoringAttempt, error) {
	status, err := domain.ParseHonoringStatus(input.Status)
	if err != nil {
		return nil, err
	}

	if status != domain.HonoringStatusSucceeded && status != domain.HonoringStatusFailed {
		return nil, fmt.Errorf("callback status must be SUCCEEDED or FAILED, got %s", status)
	}

	attempt, err := uc.honoringRepo.GetByID(ctx, input.AttemptID)
	if err != nil {
		return nil, err
	}

	if attempt.AgentID != input.AgentID {
		return nil, fmt.Errorf("%w: attempt belongs to agent %s", domain.ErrAttemptNotFound, attempt.AgentID)
	}

	if attempt.Status.Terminal() {
		return nil, domain.ErrAttemptTerminal
	}

	now := time.Now().UTC()
	if err := uc.honoringRepo.UpdateStatus(ctx, attempt.ID, status, attempt.RetryCount, input.Detail, now); err != nil {
		return nil, err
	}

	attempt.Status = status
	attempt.LastError = input.Detail
	attempt.UpdatedAt = now

	if uc.metrics != nil {
		uc.metrics.HonoringAttempts.WithLabelValues(string(status)).Inc()
	}

	return attempt, nil
}

// ListAttempts lists the honoring attempts recorded for a transfer.
func (uc *HonoringUseCase) ListAttempts(ctx context.Context, transferID string) ([]*domain.HonoringAttempt, error) {
	return uc.honoringRepo.ListByTransfer(ctx, transferID)
}
