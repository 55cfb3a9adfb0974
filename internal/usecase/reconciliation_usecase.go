package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/obligent/obligent/internal/infrastructure/metrics"
)

// ReconciliationUseCase finishes what infrastructure faults interrupted
// and proves the ledger still balances. It is the only component that
// re-drives intents parked in CLEARING, and it always queries for the
// deterministic transfer id before permitting a second submission.
type ReconciliationUseCase struct {
	intentRepo IntentRepository
	ledgerRepo LedgerRepository
	outboxRepo OutboxRepository
	clearing   *ClearingUseCase
	logger     zerolog.Logger
	metrics    *metrics.Metrics
}

// NewReconciliationUseCase creates a new ReconciliationUseCase.
func NewReconciliationUseCase(
	intentRepo IntentRepository,
	ledgerRepo LedgerRepository,
	outboxRepo OutboxRepository,
	clearing *ClearingUseCase,
	logger zerolog.Logger,
	metrics *metrics.Metrics,
) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		intentRepo: intentRepo,
		ledgerRepo: ledgerRepo,
		outboxRepo: outboxRepo,
		clearing:   clearing,
		logger:     logger,
		metrics:    metrics,
	}
}

// RecoverStuckIntents drives intents parked in CLEARING for longer than
// the grace period to a terminal state. Returns how many reached one.
func (uc *ReconciliationUseCase) RecoverStuckIntents(ctx context.Context, grace time.Duration, limit int) (int, error) {
	cutoff := time.Now().UTC().Add(-grace)

	stuck, err := uc.intentRepo.ListStuckClearing(ctx, cutoff, limit)
	if err != nil {
		return 0, err
	}

	recovered := 0

	for _, intent := range stuck {
		outcome, err := uc.clearing.Clear(ctx, intent)
		if err != nil {
			uc.logger.Error().Err(err).Str("intent_id", intent.ID).Msg("recovery attempt failed")
			continue
		}

		if outcome.Pending {
			uc.logger.Warn().Str("intent_id", intent.ID).Msg("intent still pending after recovery attempt")
			continue
		}

		recovered++

		if uc.metrics != nil {
			uc.metrics.IntentsRecovered.WithLabelValues(string(outcome.Intent.Status)).Inc()
		}

		uc.logger.Info().
			Str("intent_id", intent.ID).
			Str("status", string(outcome.Intent.Status)).
			Msg("recovered parked intent")
	}

	return recovered, nil
}

// ConsistencyReport is the outcome of a ledger-wide conservation check.
type ConsistencyReport struct {
	PostedDebits  decimal.Decimal
	PostedCredits decimal.Decimal
	TransferTotal decimal.Decimal
	Drift         decimal.Decimal
	Consistent    bool
	CheckedAt     time.Time
}

// CheckConsistency verifies conservation: posted debits equal posted
// credits across all accounts, and both equal the sum of finalized
// transfer amounts. It reports drift without mutating anything.
func (uc *ReconciliationUseCase) CheckConsistency(ctx context.Context) (*ConsistencyReport, error) {
	postedDebits, postedCredits, transferTotal, err := uc.ledgerRepo.CheckConsistency(ctx)
	if err != nil {
		return nil, err
	}

	drift := postedDebits.Sub(postedCredits)
	report := &ConsistencyReport{
		PostedDebits:  postedDebits,
		PostedCredits: postedCredits,
		TransferTotal: transferTotal,
		Drift:         drift,
		Consistent:    drift.IsZero() && postedDebits.Equal(transferTotal),
		CheckedAt:     time.Now().UTC(),
	}

	if uc.metrics != nil {
		driftF, _ := drift.Abs().Float64()
		uc.metrics.ConsistencyDrift.Set(driftF)
	}

	if !report.Consistent {
		uc.logger.Error().
			Str("posted_debits", postedDebits.String()).
			Str("posted_credits", postedCredits.String()).
			Str("transfer_total", transferTotal.String()).
			Msg("ledger conservation violated")
	}

	return report, nil
}

// CleanupOutbox removes published events older than the retention
// window.
func (uc *ReconciliationUseCase) CleanupOutbox(ctx context.Context, retention time.Duration) error {
	return uc.outboxRepo.DeletePublished(ctx, time.Now().UTC().Add(-retention))
}
