package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/obligent/obligent/internal/domain"
)

// MirrorUseCase serves the eventually consistent mirror reads and
// rebuilds the projection from the authoritative ledger. The mirror is
// derived state: loss or lag is always recoverable from PostgreSQL.
type MirrorUseCase struct {
	mirrorStore  MirrorStore
	transferRepo TransferRepository
	logger       zerolog.Logger
}

// NewMirrorUseCase creates a new MirrorUseCase.
func NewMirrorUseCase(mirrorStore MirrorStore, transferRepo TransferRepository, logger zerolog.Logger) *MirrorUseCase {
	return &MirrorUseCase{
		mirrorStore:  mirrorStore,
		transferRepo: transferRepo,
		logger:       logger,
	}
}

// GetEntry reads one mirrored transfer.
func (uc *MirrorUseCase) GetEntry(ctx context.Context, transferID string) (*domain.MirrorEntry, error) {
	return uc.mirrorStore.GetEntry(ctx, transferID)
}

// AccountHistory reads an account's mirrored transfer history, newest
// first.
func (uc *MirrorUseCase) AccountHistory(ctx context.Context, accountID string, limit int) ([]*domain.MirrorEntry, error) {
	limit, _ = domain.ValidatePagination(limit, 0)

	return uc.mirrorStore.AccountHistory(ctx, accountID, limit)
}

// Rebuild replays finalized transfers from the ledger into the mirror.
// Safe to run at any time; entries are keyed by transfer id so a replay
// overwrites with identical content.
func (uc *MirrorUseCase) Rebuild(ctx context.Context) (int, error) {
	const batchSize = 500

	rebuilt := 0
	offset := 0

	for {
		transfers, err := uc.transferRepo.ListFinalized(ctx, batchSize, offset)
		if err != nil {
			return rebuilt, err
		}

		if len(transfers) == 0 {
			break
		}

		for _, t := range transfers {
			entry := &domain.MirrorEntry{
				TransferID:      t.ID,
				IntentID:        t.IntentID,
				DebitAccountID:  t.DebitAccountID,
				CreditAccountID: t.CreditAccountID,
				Amount:          t.Amount.String(),
				Purpose:         t.Purpose,
				Narrative:       domain.NarrativeFor(t.Amount.String(), t.Purpose, t.DebitAccountID, t.CreditAccountID),
				FinalizedAt:     t.FinalizedAt,
				MirroredAt:      time.Now().UTC(),
			}

			if err := uc.mirrorStore.PutEntry(ctx, entry); err != nil {
				return rebuilt, err
			}

			rebuilt++
		}

		offset += len(transfers)
	}

	uc.logger.Info().Int("entries", rebuilt).Msg("mirror rebuilt from ledger")

	return rebuilt, nil
}
