package usecase

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/obligent/obligent/internal/domain"
	"github.com/obligent/obligent/internal/infrastructure/metrics"
)

// ClearingUseCase drives attested intents through the ledger: it marks
// them CLEARING, submits the double-entry transfer atomically, and
// settles the terminal status. Infrastructure faults park the intent in
// CLEARING for the reconciler; they never produce partial ledger state.
type ClearingUseCase struct {
	txManager       TransactionManager
	accountRepo     AccountRepository
	intentRepo      IntentRepository
	transferRepo    TransferRepository
	routeRepo       RouteRepository
	attestationRepo AttestationRepository
	outboxRepo      OutboxRepository
	verifier        AttestationVerifier
	idGen           IDGenerator
	metrics         *metrics.Metrics
}

// NewClearingUseCase creates a new ClearingUseCase.
func NewClearingUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	intentRepo IntentRepository,
	transferRepo TransferRepository,
	routeRepo RouteRepository,
	attestationRepo AttestationRepository,
	outboxRepo OutboxRepository,
	verifier AttestationVerifier,
	idGen IDGenerator,
	metrics *metrics.Metrics,
) *ClearingUseCase {
	return &ClearingUseCase{
		txManager:       txManager,
		accountRepo:     accountRepo,
		intentRepo:      intentRepo,
		transferRepo:    transferRepo,
		routeRepo:       routeRepo,
		attestationRepo: attestationRepo,
		outboxRepo:      outboxRepo,
		verifier:        verifier,
		idGen:           idGen,
		metrics:         metrics,
	}
}

// ClearOutcome reports how a clearing attempt ended. Pending means an
// infrastructure fault interrupted submission: the intent stays
// CLEARING and the reconciler will finish it.
type ClearOutcome struct {
	Intent   *domain.ObligationIntent
	Transfer *domain.Transfer
	Pending  bool
}

// Clear takes an intent from ATTESTED (or a parked CLEARING) to a
// terminal status. It is safe to call concurrently and repeatedly for
// the same intent: guarded transitions ensure one winner, and the
// deterministic transfer id ensures at most one posted transfer.
func (uc *ClearingUseCase) Clear(ctx context.Context, intent *domain.ObligationIntent) (*ClearOutcome, error) {
	if uc.metrics != nil {
		start := time.Now()
		defer func() {
			uc.metrics.ClearingDuration.Observe(time.Since(start).Seconds())
		}()
	}

	route, err := uc.routeRepo.GetByPurpose(ctx, intent.Purpose)
	if err != nil {
		if errors.Is(err, domain.ErrRouteNotFound) {
			return uc.reject(ctx, intent, err)
		}

		return uc.pendingOutcome(intent), nil
	}

	if intent.Status == domain.IntentStatusAttested {
		if err := uc.markClearing(ctx, intent, route); err != nil {
			switch {
			case errors.Is(err, domain.ErrInvalidTransition):
				// Another submitter won the transition; continue from
				// whatever state it left behind.
				fresh, gerr := uc.intentRepo.GetByID(ctx, intent.ID)
				if gerr != nil {
					return uc.pendingOutcome(intent), nil
				}
				*intent = *fresh
			case isTerminalRejection(err):
				return uc.reject(ctx, intent, err)
			default:
				return uc.pendingOutcome(intent), nil
			}
		}
	}

	switch intent.Status {
	case domain.IntentStatusFinalized:
		transfer, terr := uc.transferRepo.GetByID(ctx, domain.TransferIDFor(intent.ID))
		if terr != nil {
			transfer = nil
		}

		return &ClearOutcome{Intent: intent, Transfer: transfer}, nil
	case domain.IntentStatusRejected:
		return &ClearOutcome{Intent: intent}, nil
	case domain.IntentStatusClearing:
		// A prior attempt may already have posted the transfer. The
		// deterministic id is checked before any second submission so
		// a recovered intent can never double-post.
		transfer, terr := uc.transferRepo.GetByID(ctx, domain.TransferIDFor(intent.ID))
		if terr == nil {
			return uc.finishFinalized(ctx, intent, transfer)
		}

		if !errors.Is(terr, domain.ErrTransferNotFound) {
			return uc.pendingOutcome(intent), nil
		}

		return uc.submit(ctx, intent, route)
	default:
		return nil, domain.ErrInvalidTransition
	}
}

// markClearing durably records that clearing has begun: the guarded
// ATTESTED->CLEARING transition and the pending accumulator bumps
// commit together.
func (uc *ClearingUseCase) markClearing(ctx context.Context, intent *domain.ObligationIntent, route *domain.ClearingRoute) error {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	now := time.Now().UTC()

	next := *intent
	next.Status = domain.IntentStatusClearing
	next.UpdatedAt = now

	if err := uc.intentRepo.TransitionTx(txCtx, tx, &next, domain.IntentStatusAttested); err != nil {
		return err
	}

	debitID, creditID := route.Resolve(intent.ClaimantAccountID)

	// Touch account rows in sorted order so concurrent clearings cannot
	// deadlock.
	type pendingDelta struct {
		id     string
		debit  decimal.Decimal
		credit decimal.Decimal
	}

	deltas := []pendingDelta{
		{id: debitID, debit: intent.Amount, credit: decimal.Zero},
		{id: creditID, debit: decimal.Zero, credit: intent.Amount},
	}
	sort.Slice(deltas, func(i, j int) bool { return deltas[i].id < deltas[j].id })

	for _, d := range deltas {
		if err := uc.accountRepo.ApplyPending(txCtx, tx, d.id, d.debit, d.credit, now); err != nil {
			return err
		}
	}

	if err := tx.Commit(txCtx); err != nil {
		return err
	}

	*intent = next

	return nil
}

// submit runs the ledger transaction: transfer row, both posted
// accumulators, the CLEARING->FINALIZED transition and the outbox event
// commit atomically or not at all.
func (uc *ClearingUseCase) submit(ctx context.Context, intent *domain.ObligationIntent, route *domain.ClearingRoute) (*ClearOutcome, error) {
	// Attestation expiry is re-checked at the moment of actual ledger
	// submission: evidence that lapsed while the intent was parked must
	// not clear.
	records, err := uc.attestationRepo.ListByIntent(ctx, intent.ID)
	if err != nil {
		return uc.pendingOutcome(intent), nil
	}

	if err := uc.verifier.Recheck(ctx, intent, records); err != nil {
		return uc.reject(ctx, intent, err)
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return uc.pendingOutcome(intent), nil
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	debitID, creditID := route.Resolve(intent.ClaimantAccountID)

	ids := []string{debitID, creditID}
	sort.Strings(ids)

	accounts, err := uc.accountRepo.GetByIDsForUpdate(txCtx, tx, ids)
	if err != nil {
		return uc.pendingOutcome(intent), nil
	}

	if len(accounts) != len(ids) {
		return uc.reject(ctx, intent, domain.ErrAccountNotFound)
	}

	byID := make(map[string]*domain.Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}

	debit, credit := byID[debitID], byID[creditID]

	if debit.Ledger != credit.Ledger {
		return uc.reject(ctx, intent, domain.ErrLedgerMismatch)
	}

	if err := debit.ValidateDebit(intent.Amount); err != nil {
		return uc.reject(ctx, intent, err)
	}

	if err := credit.ValidateCredit(intent.Amount); err != nil {
		return uc.reject(ctx, intent, err)
	}

	now := time.Now().UTC()
	transfer := &domain.Transfer{
		ID:              domain.TransferIDFor(intent.ID),
		IntentID:        intent.ID,
		DebitAccountID:  debitID,
		CreditAccountID: creditID,
		Amount:          intent.Amount,
		Purpose:         intent.Purpose,
		FinalizedAt:     now,
		CreatedAt:       now,
	}

	if err := transfer.Validate(); err != nil {
		return uc.reject(ctx, intent, err)
	}

	created, err := uc.transferRepo.CreateIfAbsent(txCtx, tx, transfer)
	if err != nil {
		return uc.pendingOutcome(intent), nil
	}

	if created {
		if err := uc.accountRepo.ApplyPosted(txCtx, tx, debitID, intent.Amount, decimal.Zero, now); err != nil {
			return uc.pendingOutcome(intent), nil
		}

		if err := uc.accountRepo.ApplyPosted(txCtx, tx, creditID, decimal.Zero, intent.Amount, now); err != nil {
			return uc.pendingOutcome(intent), nil
		}
	}

	next := *intent
	next.Status = domain.IntentStatusFinalized
	next.TransferID = &transfer.ID
	next.FinalizedAt = &now
	next.UpdatedAt = now

	if err := uc.intentRepo.TransitionTx(txCtx, tx, &next, domain.IntentStatusClearing); err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			// A concurrent attempt finished first.
			fresh, gerr := uc.intentRepo.GetByID(ctx, intent.ID)
			if gerr == nil && fresh.Status.Terminal() {
				*intent = *fresh
				existing, _ := uc.transferRepo.GetByID(ctx, transfer.ID)

				return &ClearOutcome{Intent: intent, Transfer: existing}, nil
			}
		}

		return uc.pendingOutcome(intent), nil
	}

	event := &domain.OutboxEvent{
		ID:            "evt_" + uc.idGen.Generate(),
		AggregateID:   next.ID,
		AggregateType: domain.AggregateTypeIntent,
		EventType:     domain.EventTypeIntentFinalized,
		Payload: domain.MarshalState(domain.IntentFinalizedEvent{
			IntentID:        next.ID,
			TransferID:      transfer.ID,
			DebitAccountID:  transfer.DebitAccountID,
			CreditAccountID: transfer.CreditAccountID,
			Amount:          transfer.Amount.String(),
			Purpose:         transfer.Purpose,
			FinalizedAt:     now.Format(time.RFC3339Nano),
		}),
		CreatedAt: now,
		Published: false,
	}

	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return uc.pendingOutcome(intent), nil
	}

	if err := tx.Commit(txCtx); err != nil {
		return uc.pendingOutcome(intent), nil
	}

	*intent = next

	if uc.metrics != nil {
		uc.metrics.TransfersFinalized.Inc()
		amountF, _ := transfer.Amount.Float64()
		uc.metrics.TransferAmount.Observe(amountF)
	}

	return &ClearOutcome{Intent: intent, Transfer: transfer}, nil
}

// finishFinalized completes the bookkeeping for an intent whose
// transfer already exists: only the status flip and the outbox event
// are missing.
func (uc *ClearingUseCase) finishFinalized(ctx context.Context, intent *domain.ObligationIntent, transfer *domain.Transfer) (*ClearOutcome, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return uc.pendingOutcome(intent), nil
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	now := time.Now().UTC()

	next := *intent
	next.Status = domain.IntentStatusFinalized
	next.TransferID = &transfer.ID
	next.FinalizedAt = &transfer.FinalizedAt
	next.UpdatedAt = now

	if err := uc.intentRepo.TransitionTx(txCtx, tx, &next, domain.IntentStatusClearing); err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			fresh, gerr := uc.intentRepo.GetByID(ctx, intent.ID)
			if gerr == nil {
				*intent = *fresh

				return &ClearOutcome{Intent: intent, Transfer: transfer}, nil
			}
		}

		return uc.pendingOutcome(intent), nil
	}

	event := &domain.OutboxEvent{
		ID:            "evt_" + uc.idGen.Generate(),
		AggregateID:   next.ID,
		AggregateType: domain.AggregateTypeIntent,
		EventType:     domain.EventTypeIntentFinalized,
		Payload: domain.MarshalState(domain.IntentFinalizedEvent{
			IntentID:        next.ID,
			TransferID:      transfer.ID,
			DebitAccountID:  transfer.DebitAccountID,
			CreditAccountID: transfer.CreditAccountID,
			Amount:          transfer.Amount.String(),
			Purpose:         transfer.Purpose,
			FinalizedAt:     transfer.FinalizedAt.Format(time.RFC3339Nano),
		}),
		CreatedAt: now,
		Published: false,
	}

	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return uc.pendingOutcome(intent), nil
	}

	if err := tx.Commit(txCtx); err != nil {
		return uc.pendingOutcome(intent), nil
	}

	*intent = next

	return &ClearOutcome{Intent: intent, Transfer: transfer}, nil
}

// reject settles the intent as REJECTED with the cause's reason code.
// Rejection is terminal; if the rejection transaction itself fails the
// intent is left for the reconciler instead.
func (uc *ClearingUseCase) reject(ctx context.Context, intent *domain.ObligationIntent, cause error) (*ClearOutcome, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return uc.pendingOutcome(intent), nil
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	now := time.Now().UTC()

	next := *intent
	next.Status = domain.IntentStatusRejected
	next.ReasonCode = domain.ReasonCodeFor(cause)
	next.Reason = cause.Error()
	next.UpdatedAt = now

	if err := uc.intentRepo.TransitionTx(txCtx, tx, &next, intent.Status); err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			// Only a terminal state observed on refetch is a settled
			// outcome; anything else stays with the reconciler.
			fresh, gerr := uc.intentRepo.GetByID(ctx, intent.ID)
			if gerr == nil && fresh.Status.Terminal() {
				*intent = *fresh

				return &ClearOutcome{Intent: intent}, nil
			}
		}

		return uc.pendingOutcome(intent), nil
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
		return uc.pendingOutcome(intent), nil
	}

	if err := tx.Commit(txCtx); err != nil {
		return uc.pendingOutcome(intent), nil
	}

	*intent = next

	return &ClearOutcome{Intent: intent}, nil
}

func (uc *ClearingUseCase) pendingOutcome(intent *domain.ObligationIntent) *ClearOutcome {
	if uc.metrics != nil {
		uc.metrics.IntentOutcomes.WithLabelValues("PENDING").Inc()
	}

	return &ClearOutcome{Intent: intent, Pending: true}
}

// isTerminalRejection separates business rejections, which settle the
// intent, from infrastructure faults, which park it.
func isTerminalRejection(err error) bool {
	switch domain.ReasonCodeFor(err) {
	case "", domain.ReasonLedgerUnavailable:
		return false
	default:
		return true
	}
}
