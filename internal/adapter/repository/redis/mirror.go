package redis

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/obligent/obligent/internal/domain"
)

const (
	mirrorTransferPrefix = "mirror:transfer:"
	mirrorAccountPrefix  = "mirror:account:"
	mirrorCheckpointKey  = "mirror:checkpoint"
)

// MirrorStore implements usecase.MirrorStore on Redis. Entries are
// keyed by transfer id; per-account histories are sorted sets scored
// by finalization time so reads come back newest first.
type MirrorStore struct {
	client *redis.Client
}

// NewMirrorStore creates a new MirrorStore.
func NewMirrorStore(client *redis.Client) *MirrorStore {
	return &MirrorStore{client: client}
}

// PutEntry upserts a mirror entry and indexes it under both accounts.
// Writing the same transfer twice overwrites with identical state, so
// redelivered finality events are harmless.
func (s *MirrorStore) PutEntry(ctx context.Context, entry *domain.MirrorEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	score := float64(entry.FinalizedAt.UnixMilli())

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, mirrorTransferPrefix+entry.TransferID, payload, 0)
	pipe.ZAdd(ctx, mirrorAccountPrefix+entry.DebitAccountID, redis.Z{Score: score, Member: entry.TransferID})
	pipe.ZAdd(ctx, mirrorAccountPrefix+entry.CreditAccountID, redis.Z{Score: score, Member: entry.TransferID})

	_, err = pipe.Exec(ctx)

	return err
}

// GetEntry retrieves the mirror entry for a transfer.
func (s *MirrorStore) GetEntry(ctx context.Context, transferID string) (*domain.MirrorEntry, error) {
	payload, err := s.client.Get(ctx, mirrorTransferPrefix+transferID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrMirrorEntryNotFound
		}

		return nil, err
	}

	var entry domain.MirrorEntry
	if err := json.Unmarshal(payload, &entry); err != nil {
		return nil, err
	}

	return &entry, nil
}

// AccountHistory lists an account's mirrored transfers, newest first.
// Entries whose transfer key has gone missing are skipped rather than
// failing the whole read; the mirror is rebuildable.
func (s *MirrorStore) AccountHistory(ctx context.Context, accountID string, limit int) ([]*domain.MirrorEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	ids, err := s.client.ZRevRange(ctx, mirrorAccountPrefix+accountID, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]*domain.MirrorEntry, 0, len(ids))

	for _, id := range ids {
		entry, err := s.GetEntry(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrMirrorEntryNotFound) {
				continue
			}

			return nil, err
		}

		entries = append(entries, entry)
	}

	return entries, nil
}

// SetCheckpoint records the last event folded into the mirror.
func (s *MirrorStore) SetCheckpoint(ctx context.Context, cp domain.MirrorCheckpoint) error {
	payload, err := json.Marshal(cp)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, mirrorCheckpointKey, payload, 0).Err()
}

// GetCheckpoint retrieves the mirror checkpoint, nil if never set.
func (s *MirrorStore) GetCheckpoint(ctx context.Context) (*domain.MirrorCheckpoint, error) {
	payload, err := s.client.Get(ctx, mirrorCheckpointKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}

		return nil, err
	}

	var cp domain.MirrorCheckpoint
	if err := json.Unmarshal(payload, &cp); err != nil {
		return nil, err
	}

	return &cp, nil
}
