package honoring

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/obligent/obligent/internal/domain"
	"github.com/obligent/obligent/internal/infrastructure/metrics"
	"github.com/obligent/obligent/internal/usecase"
)

// agentCaller is the slice of AgentClient the dispatcher needs.
type agentCaller interface {
	Honor(ctx context.Context, agent Agent, req HonorRequest) (domain.HonoringStatus, string, int, error)
}

// Dispatcher drives downstream fulfillment for finalized transfers. It
// is a bus subscriber on intent.finalized; nothing it does can touch
// transfers or intents.
type Dispatcher struct {
	registry     *Registry
	client       agentCaller
	honoringRepo usecase.HonoringRepository
	auditRepo    usecase.AuditRepository
	idGen        usecase.IDGenerator
	logger       zerolog.Logger
	metrics      *metrics.Metrics
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(
	registry *Registry,
	client agentCaller,
	honoringRepo usecase.HonoringRepository,
	auditRepo usecase.AuditRepository,
	idGen usecase.IDGenerator,
	logger zerolog.Logger,
	m *metrics.Metrics,
) *Dispatcher {
	return &Dispatcher{
		registry:     registry,
		client:       client,
		honoringRepo: honoringRepo,
		auditRepo:    auditRepo,
		idGen:        idGen,
		logger:       logger.With().Str("component", "honoring").Logger(),
		metrics:      m,
	}
}

func (d *Dispatcher) Name() string { return "honoring" }

// Handle runs the agent failover chain for a finalized intent.
// Transfers that already carry attempts are skipped: that is the
// at-least-once dedupe for redelivered events.
func (d *Dispatcher) Handle(ctx context.Context, event *domain.OutboxEvent) error {
	if event.EventType != domain.EventTypeIntentFinalized {
		return nil
	}

	var payload domain.IntentFinalizedEvent
	if err := domain.DecodePayload(event, &payload); err != nil {
		d.logger.Error().Err(err).Str("event_id", event.ID).Msg("undecodable finalized event, skipping")

		return nil
	}

	agents := d.registry.AgentsFor(payload.Purpose)
	if len(agents) == 0 {
		return nil
	}

	existing, err := d.honoringRepo.ListByTransfer(ctx, payload.TransferID)
	if err != nil {
		return err
	}

	if len(existing) > 0 {
		return nil
	}

	return d.failover(ctx, payload, agents)
}

// failover tries each agent in order until one acknowledges or defers.
func (d *Dispatcher) failover(ctx context.Context, payload domain.IntentFinalizedEvent, agents []Agent) error {
	for i, agent := range agents {
		last := i == len(agents)-1

		attempt := &domain.HonoringAttempt{
			ID:         "hon_" + d.idGen.Generate(),
			TransferID: payload.TransferID,
			AgentID:    agent.Name,
			Status:     domain.HonoringStatusPending,
			CreatedAt:  time.Now().UTC(),
			UpdatedAt:  time.Now().UTC(),
		}

		created, err := d.honoringRepo.CreateIfAbsent(ctx, attempt)
		if err != nil {
			return err
		}

		if !created {
			// A concurrent delivery beat us to this agent.
			continue
		}

		status, detail, tries, callErr := d.client.Honor(ctx, agent, HonorRequest{
			AttemptID:       attempt.ID,
			TransferID:      payload.TransferID,
			DebitAccountID:  payload.DebitAccountID,
			CreditAccountID: payload.CreditAccountID,
			Amount:          payload.Amount,
			Purpose:         payload.Purpose,
		})

		// The first call is the attempt itself; anything beyond it was
		// a retry.
		if tries > 0 {
			attempt.RetryCount = tries - 1
		}

		switch {
		case callErr == nil && status == domain.HonoringStatusSucceeded:
			if err := d.settle(ctx, attempt, domain.HonoringStatusSucceeded, detail); err != nil {
				return err
			}

			return nil
		case callErr == nil && status == domain.HonoringStatusPending:
			// The agent accepted the work and will call back.
			d.logger.Info().
				Str("transfer_id", payload.TransferID).
				Str("agent", agent.Name).
				Msg("agent deferred, awaiting callback")

			return nil
		default:
			reason := detail
			if callErr != nil {
				reason = callErr.Error()
			}

			final := domain.HonoringStatusFailed
			if last {
				final = domain.HonoringStatusExhausted
			}

			if err := d.settle(ctx, attempt, final, reason); err != nil {
				return err
			}

			d.logger.Warn().
				Str("transfer_id", payload.TransferID).
				Str("agent", agent.Name).
				Str("error", reason).
				Msg("honoring agent failed")
		}
	}

	d.auditExhausted(ctx, payload)

	return nil
}

func (d *Dispatcher) settle(ctx context.Context, attempt *domain.HonoringAttempt, status domain.HonoringStatus, lastError string) error {
	err := d.honoringRepo.UpdateStatus(ctx, attempt.ID, status, attempt.RetryCount, lastError, time.Now().UTC())
	if err != nil {
		return err
	}

	if d.metrics != nil {
		d.metrics.HonoringAttempts.WithLabelValues(string(status)).Inc()
	}

	return nil
}

// auditExhausted records that every agent failed. The transfer stays
// FINALIZED; this is bookkeeping, not a reversal.
func (d *Dispatcher) auditExhausted(ctx context.Context, payload domain.IntentFinalizedEvent) {
	record := &domain.AuditRecord{
		IntentID:   payload.IntentID,
		TransferID: payload.TransferID,
		Action:     domain.AuditActionHonoringExhausted,
		Status:     domain.AuditStatusFailure,
		ReasonCode: domain.ReasonHonoringFailure,
		Detail:     domain.MarshalState(payload),
		OccurredAt: time.Now().UTC(),
	}

	if err := d.auditRepo.Create(ctx, record); err != nil {
		d.logger.Error().Err(err).Str("transfer_id", payload.TransferID).Msg("failed to audit honoring exhaustion")
	}
}
