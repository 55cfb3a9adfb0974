package usecase

import (
	"context"

	"github.com/obligent/obligent/internal/domain"
)

// TransferUseCase serves authoritative transfer reads. Transfers are
// written only by the clearing core; there is no mutation path here.
type TransferUseCase struct {
	transferRepo TransferRepository
	honoringRepo HonoringRepository
}

// NewTransferUseCase creates a new TransferUseCase.
func NewTransferUseCase(transferRepo TransferRepository, honoringRepo HonoringRepository) *TransferUseCase {
	return &TransferUseCase{
		transferRepo: transferRepo,
		honoringRepo: honoringRepo,
	}
}

// GetTransfer retrieves a transfer by ID.
func (uc *TransferUseCase) GetTransfer(ctx context.Context, id string) (*domain.Transfer, error) {
	return uc.transferRepo.GetByID(ctx, id)
}

// ListTransfersByAccountInput represents input for listing transfers.
type ListTransfersByAccountInput struct {
	AccountID string
	Limit     int
	Offset    int
}

// ListTransfersByAccount lists transfers touching an account, newest
// first.
func (uc *TransferUseCase) ListTransfersByAccount(ctx context.Context, input ListTransfersByAccountInput) ([]*domain.Transfer, error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)

	return uc.transferRepo.ListByAccount(ctx, input.AccountID, limit, offset)
}

// ListHonoringAttempts lists the honoring attempts for a transfer.
func (uc *TransferUseCase) ListHonoringAttempts(ctx context.Context, transferID string) ([]*domain.HonoringAttempt, error) {
	if _, err := uc.transferRepo.GetByID(ctx, transferID); err != nil {
		return nil, err
	}

	return uc.honoringRepo.ListByTransfer(ctx, transferID)
}
