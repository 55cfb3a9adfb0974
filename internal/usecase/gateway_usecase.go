package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/obligent/obligent/internal/domain"
	"github.com/obligent/obligent/internal/infrastructure/metrics"
)

// GatewayUseCase is the single entry point for obligation intents. It
// validates, deduplicates on the idempotency key, runs attestation
// verification, and hands attested intents to the clearing core -- all
// synchronously, so the caller leaves with FINALIZED, REJECTED or
// PENDING.
type GatewayUseCase struct {
	txManager       TransactionManager
	intentRepo      IntentRepository
	routeRepo       RouteRepository
	attestationRepo AttestationRepository
	outboxRepo      OutboxRepository
	auditRepo       AuditRepository
	verifier        AttestationVerifier
	clearing        *ClearingUseCase
	cache           Cache
	idGen           IDGenerator
	metrics         *metrics.Metrics
}

// NewGatewayUseCase creates a new GatewayUseCase.
func NewGatewayUseCase(
	txManager TransactionManager,
	intentRepo IntentRepository,
	routeRepo RouteRepository,
	attestationRepo AttestationRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	verifier AttestationVerifier,
	clearing *ClearingUseCase,
	cache Cache,
	idGen IDGenerator,
	metrics *metrics.Metrics,
) *GatewayUseCase {
	return &GatewayUseCase{
		txManager:       txManager,
		intentRepo:      intentRepo,
		routeRepo:       routeRepo,
		attestationRepo: attestationRepo,
		outboxRepo:      outboxRepo,
		auditRepo:       auditRepo,
		verifier:        verifier,
		clearing:        clearing,
		cache:           cache,
		idGen:           idGen,
		metrics:         metrics,
	}
}

// SubmitIntentInput represents a caller's obligation intent.
type SubmitIntentInput struct {
	ClaimantAccountID string
	AmountMinor       int64
	Purpose           string
	IdempotencyKey    string
	Attestations      []string
}

// SubmitIntentResult is the synchronous outcome of a submission.
type SubmitIntentResult struct {
	Intent   *domain.ObligationIntent
	Transfer *domain.Transfer
	Replayed bool
	Pending  bool
}

// SubmitIntent accepts, attests and clears an obligation intent.
// Resubmitting the same idempotency key replays the original outcome;
// the same key with different parameters is a conflict that leaves the
// stored intent untouched.
func (uc *GatewayUseCase) SubmitIntent(ctx context.Context, input SubmitIntentInput) (*SubmitIntentResult, error) {
	if err := uc.validateInput(ctx, input); err != nil {
		uc.auditValidationFailure(ctx, input, err)

		return nil, err
	}

	fingerprint := fingerprintOf(input)

	if result, err, hit := uc.cachedOutcome(ctx, input, fingerprint); hit {
		return result, err
	}

	if uc.metrics != nil {
		uc.metrics.IntentsSubmitted.Inc()
	}

	intent, created, err := uc.registerIntent(ctx, input, fingerprint)
	if err != nil {
		return nil, err
	}

	if !created {
		return uc.replay(ctx, intent, input, fingerprint)
	}

	return uc.runPipeline(ctx, intent, input.Attestations)
}

// GetIntent returns the current state of an intent plus its transfer
// when one exists.
func (uc *GatewayUseCase) GetIntent(ctx context.Context, id string) (*SubmitIntentResult, error) {
	intent, err := uc.intentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	result := &SubmitIntentResult{
		Intent:  intent,
		Pending: intent.Status == domain.IntentStatusClearing,
	}

	if intent.Status == domain.IntentStatusFinalized {
		transfer, terr := uc.clearing.transferRepo.GetByID(ctx, domain.TransferIDFor(intent.ID))
		if terr == nil {
			result.Transfer = transfer
		}
	}

	return result, nil
}

// CancelIntent discards an intent that has not begun clearing. The
// intent settles as REJECTED with a CANCELLED reason; once clearing
// has started only a counter-obligation can offset it.
func (uc *GatewayUseCase) CancelIntent(ctx context.Context, id string) (*domain.ObligationIntent, error) {
	intent, err := uc.intentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if intent.Status.Terminal() {
		return nil, domain.ErrIntentTerminal
	}

	if intent.Status == domain.IntentStatusClearing {
		return nil, fmt.Errorf("%w: clearing has started", domain.ErrIntentTerminal)
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	now := time.Now().UTC()

	next := *intent
	next.Status = domain.IntentStatusRejected
	next.ReasonCode = domain.ReasonCancelled
	next.Reason = "cancelled by caller"
	next.UpdatedAt = now

	if err := uc.intentRepo.TransitionTx(txCtx, tx, &next, intent.Status); err != nil {
		return nil, err
	}

	event := &domain.OutboxEvent{
		ID:            "evt_" + uc.idGen.Generate(),
		AggregateID:   next.ID,
		AggregateType: domain.AggregateTypeIntent,
		EventType:     domain.EventTypeIntentRejected,
		Payload: domain.MarshalState(domain.IntentRejectedEvent{
			IntentID:   next.ID,
			ReasonCode: next.ReasonCode,
			Reason:     next.Reason,
			RejectedAt: now.Format(time.RFC3339Nano),
		}),
		CreatedAt: now,
		Published: false,
	}

	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	uc.cacheTerminal(ctx, next.IdempotencyKey, next.ID)

	return &next, nil
}

func (uc *GatewayUseCase) validateInput(ctx context.Context, input SubmitIntentInput) error {
	if input.ClaimantAccountID == "" {
		return domain.ErrMissingClaimant
	}

	if err := domain.ValidateAccountID(input.ClaimantAccountID); err != nil {
		return err
	}

	if input.IdempotencyKey == "" {
		return domain.ErrMissingIdempotencyKey
	}

	if err := domain.ValidateIdempotencyKey(input.IdempotencyKey); err != nil {
		return err
	}

	if err := domain.ValidateAmountMinor(input.AmountMinor); err != nil {
		return err
	}

	if err := domain.ValidatePurpose(input.Purpose); err != nil {
		return err
	}

	if len(input.Attestations) == 0 {
		return domain.ErrAttestationMissing
	}

	// A claimant that resolves to no account, or a purpose with no
	// route, can never clear; reject both before an intent row exists.
	// The ledger transaction re-checks under row locks.
	if _, err := uc.clearing.accountRepo.GetByID(ctx, input.ClaimantAccountID); err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return fmt.Errorf("%w: %s", domain.ErrUnknownClaimant, input.ClaimantAccountID)
		}

		return err
	}

	if _, err := uc.routeRepo.GetByPurpose(ctx, input.Purpose); err != nil {
		return err
	}

	return nil
}

// cachedOutcome short-circuits replays of keys whose terminal outcome
// is cached. The fingerprint is still enforced: a conflicting reuse of
// a known key must fail even on the fast path.
func (uc *GatewayUseCase) cachedOutcome(ctx context.Context, input SubmitIntentInput, fingerprint string) (*SubmitIntentResult, error, bool) {
	if uc.cache == nil {
		return nil, nil, false
	}

	cached, err := uc.cache.Get(ctx, outcomeCachePrefix+input.IdempotencyKey)
	if err != nil || len(cached) == 0 {
		return nil, nil, false
	}

	intent, err := uc.intentRepo.GetByID(ctx, string(cached))
	if err != nil {
		return nil, nil, false
	}

	if intent.Fingerprint != fingerprint {
		if uc.metrics != nil {
			uc.metrics.IdempotencyConflicts.Inc()
		}

		return nil, domain.ErrIdempotencyConflict, true
	}

	if uc.metrics != nil {
		uc.metrics.IdempotentReplays.Inc()
	}

	result := &SubmitIntentResult{Intent: intent, Replayed: true}
	if intent.Status == domain.IntentStatusFinalized {
		if transfer, terr := uc.clearing.transferRepo.GetByID(ctx, domain.TransferIDFor(intent.ID)); terr == nil {
			result.Transfer = transfer
		}
	}

	return result, nil, true
}

// registerIntent inserts the RECEIVED intent row and its lifecycle
// event atomically. created reports whether this call won the
// idempotency key.
func (uc *GatewayUseCase) registerIntent(ctx context.Context, input SubmitIntentInput, fingerprint string) (*domain.ObligationIntent, bool, error) {
	now := time.Now().UTC()

	intent := &domain.ObligationIntent{
		ID:                "int_" + uc.idGen.Generate(),
		IdempotencyKey:    input.IdempotencyKey,
		ClaimantAccountID: input.ClaimantAccountID,
		Amount:            decimal.NewFromInt(input.AmountMinor),
		Purpose:           input.Purpose,
		Fingerprint:       fingerprint,
		Status:            domain.IntentStatusReceived,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := intent.Validate(); err != nil {
		return nil, false, err
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", domain.ErrLedgerUnavailable, err)
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	created, err := uc.intentRepo.CreateIfAbsent(txCtx, tx, intent)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", domain.ErrLedgerUnavailable, err)
	}

	if !created {
		existing, gerr := uc.intentRepo.GetByIdempotencyKey(ctx, input.IdempotencyKey)
		if gerr != nil {
			return nil, false, fmt.Errorf("%w: %v", domain.ErrLedgerUnavailable, gerr)
		}

		return existing, false, nil
	}

	event := &domain.OutboxEvent{
		ID:            "evt_" + uc.idGen.Generate(),
		AggregateID:   intent.ID,
		AggregateType: domain.AggregateTypeIntent,
		EventType:     domain.EventTypeIntentReceived,
		Payload: domain.MarshalState(domain.IntentReceivedEvent{
			IntentID:          intent.ID,
			IdempotencyKey:    intent.IdempotencyKey,
			ClaimantAccountID: intent.ClaimantAccountID,
			Amount:            intent.Amount.String(),
			Purpose:           intent.Purpose,
			ReceivedAt:        now.Format(time.RFC3339Nano),
		}),
		CreatedAt: now,
		Published: false,
	}

	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, false, fmt.Errorf("%w: %v", domain.ErrLedgerUnavailable, err)
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, false, fmt.Errorf("%w: %v", domain.ErrLedgerUnavailable, err)
	}

	return intent, true, nil
}

// replay resolves a resubmitted idempotency key: conflicting
// parameters fail, matching ones return or re-drive the stored intent.
func (uc *GatewayUseCase) replay(ctx context.Context, intent *domain.ObligationIntent, input SubmitIntentInput, fingerprint string) (*SubmitIntentResult, error) {
	if intent.Fingerprint != fingerprint {
		if uc.metrics != nil {
			uc.metrics.IdempotencyConflicts.Inc()
		}

		return nil, domain.ErrIdempotencyConflict
	}

	if uc.metrics != nil {
		uc.metrics.IdempotentReplays.Inc()
	}

	switch intent.Status {
	case domain.IntentStatusFinalized, domain.IntentStatusRejected:
		uc.cacheTerminal(ctx, intent.IdempotencyKey, intent.ID)

		result := &SubmitIntentResult{Intent: intent, Replayed: true}
		if intent.Status == domain.IntentStatusFinalized {
			if transfer, terr := uc.clearing.transferRepo.GetByID(ctx, domain.TransferIDFor(intent.ID)); terr == nil {
				result.Transfer = transfer
			}
		}

		return result, nil
	case domain.IntentStatusReceived:
		// The original submission never reached attestation; this
		// request's tokens drive the pipeline for it.
		result, err := uc.runPipeline(ctx, intent, input.Attestations)
		if err != nil {
			return nil, err
		}

		result.Replayed = true

		return result, nil
	default:
		// ATTESTED or CLEARING: re-drive clearing toward a terminal
		// state.
		outcome, err := uc.clearing.Clear(ctx, intent)
		if err != nil {
			return nil, err
		}

		return uc.finishOutcome(ctx, outcome, true), nil
	}
}

// runPipeline verifies attestation evidence and clears the intent.
func (uc *GatewayUseCase) runPipeline(ctx context.Context, intent *domain.ObligationIntent, tokens []string) (*SubmitIntentResult, error) {
	records, verr := uc.verifier.Verify(ctx, intent, tokens)

	if verr != nil {
		if rejected, err := uc.settleAttestation(ctx, intent, records, verr); err == nil {
			uc.cacheTerminal(ctx, rejected.IdempotencyKey, rejected.ID)

			if uc.metrics != nil {
				uc.metrics.AttestationFailures.WithLabelValues(attestationFailureLabel(verr)).Inc()
				uc.metrics.IntentOutcomes.WithLabelValues(string(domain.IntentStatusRejected)).Inc()
			}

			return &SubmitIntentResult{Intent: rejected}, nil
		}

		return &SubmitIntentResult{Intent: intent, Pending: true}, nil
	}

	if _, err := uc.settleAttestation(ctx, intent, records, nil); err != nil {
		return &SubmitIntentResult{Intent: intent, Pending: true}, nil
	}

	outcome, err := uc.clearing.Clear(ctx, intent)
	if err != nil {
		return nil, err
	}

	return uc.finishOutcome(ctx, outcome, false), nil
}

// settleAttestation persists the per-token evidence and the verdict
// transition in one transaction: RECEIVED->ATTESTED on success,
// RECEIVED->REJECTED on failure.
func (uc *GatewayUseCase) settleAttestation(ctx context.Context, intent *domain.ObligationIntent, records []*domain.AttestationRecord, verr error) (*domain.ObligationIntent, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	for _, record := range records {
		if record.ID == "" {
			record.ID = "att_" + uc.idGen.Generate()
		}
		record.IntentID = intent.ID

		if err := uc.attestationRepo.CreateTx(txCtx, tx, record); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	next := *intent

	var event *domain.OutboxEvent

	if verr == nil {
		next.Status = domain.IntentStatusAttested
		next.AttestedAt = &now
		next.UpdatedAt = now

		attestors := make([]string, 0, len(records))
		for _, r := range records {
			if r.Result == domain.AttestationVerified {
				attestors = append(attestors, r.Attestor)
			}
		}

		event = &domain.OutboxEvent{
			ID:            "evt_" + uc.idGen.Generate(),
			AggregateID:   next.ID,
			AggregateType: domain.AggregateTypeIntent,
			EventType:     domain.EventTypeIntentAttested,
			Payload: domain.MarshalState(domain.IntentAttestedEvent{
				IntentID:   next.ID,
				Attestors:  attestors,
				AttestedAt: now.Format(time.RFC3339Nano),
			}),
			CreatedAt: now,
			Published: false,
		}
	} else {
		next.Status = domain.IntentStatusRejected
		next.ReasonCode = domain.ReasonCodeFor(verr)
		next.Reason = verr.Error()
		next.UpdatedAt = now

		event = &domain.OutboxEvent{
			ID:            "evt_" + uc.idGen.Generate(),
			AggregateID:   next.ID,
			AggregateType: domain.AggregateTypeIntent,
			EventType:     domain.EventTypeIntentRejected,
			Payload: domain.MarshalState(domain.IntentRejectedEvent{
				IntentID:   next.ID,
				ReasonCode: next.ReasonCode,
				Reason:     next.Reason,
				RejectedAt: now.Format(time.RFC3339Nano),
			}),
			CreatedAt: now,
			Published: false,
		}
	}

	if err := uc.intentRepo.TransitionTx(txCtx, tx, &next, domain.IntentStatusReceived); err != nil {
		return nil, err
	}

	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	*intent = next

	return intent, nil
}

func (uc *GatewayUseCase) finishOutcome(ctx context.Context, outcome *ClearOutcome, replayed bool) *SubmitIntentResult {
	if !outcome.Pending && outcome.Intent.Status.Terminal() {
		uc.cacheTerminal(ctx, outcome.Intent.IdempotencyKey, outcome.Intent.ID)

		if uc.metrics != nil && !replayed {
			uc.metrics.IntentOutcomes.WithLabelValues(string(outcome.Intent.Status)).Inc()
		}
	}

	return &SubmitIntentResult{
		Intent:   outcome.Intent,
		Transfer: outcome.Transfer,
		Replayed: replayed,
		Pending:  outcome.Pending,
	}
}

// cacheTerminal caches the idempotency key -> intent id edge for
// terminal outcomes only; PENDING must always re-resolve.
func (uc *GatewayUseCase) cacheTerminal(ctx context.Context, key, intentID string) {
	if uc.cache == nil {
		return
	}

	_ = uc.cache.Set(ctx, outcomeCachePrefix+key, []byte(intentID), OutcomeCacheTTL)
}

func (uc *GatewayUseCase) auditValidationFailure(ctx context.Context, input SubmitIntentInput, cause error) {
	if uc.auditRepo == nil {
		return
	}

	record := &domain.AuditRecord{
		EventID:    "",
		Action:     domain.AuditActionValidationRejected,
		Status:     domain.AuditStatusFailure,
		ReasonCode: domain.ReasonCodeFor(cause),
		Detail: domain.JSON{
			"claimant_account_id": input.ClaimantAccountID,
			"amount":              input.AmountMinor,
			"purpose":             input.Purpose,
			"idempotency_key":     input.IdempotencyKey,
			"error":               cause.Error(),
		},
		OccurredAt: time.Now().UTC(),
	}

	_ = uc.auditRepo.Create(ctx, record)
}

// fingerprintOf hashes the economic content of a submission. Two
// requests with the same idempotency key must agree on it; attestation
// tokens are deliberately excluded so evidence can be refreshed on
// replay.
func fingerprintOf(input SubmitIntentInput) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%s", input.ClaimantAccountID, input.AmountMinor, input.Purpose)))

	return hex.EncodeToString(sum[:])
}

func attestationFailureLabel(err error) string {
	switch {
	case errors.Is(err, domain.ErrAttestationExpired):
		return "expired"
	case errors.Is(err, domain.ErrUnknownAttestor):
		return "unknown_key"
	case errors.Is(err, domain.ErrAttestorRevoked):
		return "revoked_key"
	case errors.Is(err, domain.ErrBindingMismatch):
		return "binding_mismatch"
	case errors.Is(err, domain.ErrPolicyUnsatisfied):
		return "policy_unsatisfied"
	default:
		return "bad_signature"
	}
}
