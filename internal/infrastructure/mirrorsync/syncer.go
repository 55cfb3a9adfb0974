package mirrorsync

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/obligent/obligent/internal/domain"
	"github.com/obligent/obligent/internal/infrastructure/metrics"
	"github.com/obligent/obligent/internal/usecase"
)

// Syncer folds finalized intents into the narrative mirror. It is a
// bus subscriber: redelivered events overwrite with identical state,
// so at-least-once delivery is harmless here.
type Syncer struct {
	store   usecase.MirrorStore
	logger  zerolog.Logger
	metrics *metrics.Metrics

	initialInterval time.Duration
	maxInterval     time.Duration
	maxElapsed      time.Duration
}

// NewSyncer creates a new Syncer.
func NewSyncer(store usecase.MirrorStore, logger zerolog.Logger, m *metrics.Metrics) *Syncer {
	return &Syncer{
		store:           store,
		logger:          logger.With().Str("component", "mirrorsync").Logger(),
		metrics:         m,
		initialInterval: 100 * time.Millisecond,
		maxInterval:     2 * time.Second,
		maxElapsed:      15 * time.Second,
	}
}

func (s *Syncer) Name() string { return "mirror-sync" }

// Handle writes the narrative entry for a finalized intent. Transient
// Redis failures are retried here; a persistent failure surfaces so
// the bus redelivers next tick. Clearing is never blocked either way.
func (s *Syncer) Handle(ctx context.Context, event *domain.OutboxEvent) error {
	if event.EventType != domain.EventTypeIntentFinalized {
		return nil
	}

	var payload domain.IntentFinalizedEvent
	if err := domain.DecodePayload(event, &payload); err != nil {
		// Malformed payloads never heal on redelivery; log and move on.
		s.logger.Error().Err(err).Str("event_id", event.ID).Msg("undecodable finalized event, skipping")

		return nil
	}

	finalizedAt, err := time.Parse(time.RFC3339Nano, payload.FinalizedAt)
	if err != nil {
		finalizedAt = event.CreatedAt
	}

	entry := &domain.MirrorEntry{
		TransferID:      payload.TransferID,
		IntentID:        payload.IntentID,
		DebitAccountID:  payload.DebitAccountID,
		CreditAccountID: payload.CreditAccountID,
		Amount:          payload.Amount,
		Purpose:         payload.Purpose,
		Narrative:       domain.NarrativeFor(payload.Amount, payload.Purpose, payload.DebitAccountID, payload.CreditAccountID),
		FinalizedAt:     finalizedAt,
		MirroredAt:      time.Now().UTC(),
	}

	if err := s.write(ctx, event, entry); err != nil {
		if s.metrics != nil {
			s.metrics.MirrorSyncFailures.Inc()
		}

		s.logger.Error().Err(err).
			Str("transfer_id", entry.TransferID).
			Str("reason_code", domain.ReasonMirrorSyncFailure).
			Msg("mirror write failed, event will be redelivered")

		return err
	}

	if s.metrics != nil {
		s.metrics.MirrorLagSeconds.Set(time.Since(event.CreatedAt).Seconds())
	}

	return nil
}

func (s *Syncer) write(ctx context.Context, event *domain.OutboxEvent, entry *domain.MirrorEntry) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.initialInterval
	b.MaxInterval = s.maxInterval
	b.MaxElapsedTime = s.maxElapsed

	attempt := 0

	return backoff.Retry(func() error {
		if attempt > 0 && s.metrics != nil {
			s.metrics.MirrorSyncRetries.Inc()
		}
		attempt++

		if err := s.store.PutEntry(ctx, entry); err != nil {
			return err
		}

		return s.store.SetCheckpoint(ctx, domain.MirrorCheckpoint{
			EventID:    event.ID,
			MirroredAt: entry.MirroredAt,
		})
	}, backoff.WithContext(b, ctx))
}
