package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/obligent/obligent/internal/domain"
)

// AccountUseCase handles ledger account provisioning and reads.
type AccountUseCase struct {
	accountRepo AccountRepository
	auditRepo   AuditRepository
	idGen       IDGenerator
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(accountRepo AccountRepository, auditRepo AuditRepository, idGen IDGenerator) *AccountUseCase {
	return &AccountUseCase{
		accountRepo: accountRepo,
		auditRepo:   auditRepo,
		idGen:       idGen,
	}
}

// CreateAccountInput represents input for provisioning an account.
type CreateAccountInput struct {
	ID     string
	Name   string
	Ledger string
	Class  string
}

// CreateAccount provisions a new account with zeroed accumulators.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	if err := domain.ValidateAccountName(input.Name); err != nil {
		return nil, err
	}

	class, err := domain.ParseAccountClass(input.Class)
	if err != nil {
		return nil, err
	}

	ledger := strings.ToUpper(strings.TrimSpace(input.Ledger))
	if err := domain.ValidateLedger(ledger); err != nil {
		return nil, err
	}

	id := input.ID
	if id == "" {
		id = "acc_" + uc.idGen.Generate()
	}

	if err := domain.ValidateAccountID(id); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	account := &domain.Account{
		ID:             id,
		Name:           strings.TrimSpace(input.Name),
		Ledger:         ledger,
		Class:          class,
		PostedDebits:   decimal.Zero,
		PostedCredits:  decimal.Zero,
		PendingDebits:  decimal.Zero,
		PendingCredits: decimal.Zero,
		Active:         true,
		Version:        0,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := uc.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	uc.audit(ctx, domain.AuditActionAccountCreated, domain.MarshalState(account))

	return account, nil
}

// GetAccount retrieves an account by ID.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return uc.accountRepo.GetByID(ctx, id)
}

// DeactivateAccount retires an account. Accounts are never deleted:
// posted history must stay resolvable forever.
func (uc *AccountUseCase) DeactivateAccount(ctx context.Context, id string) (*domain.Account, error) {
	account, err := uc.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !account.Active {
		return account, nil
	}

	now := time.Now().UTC()
	if err := uc.accountRepo.Deactivate(ctx, id, now); err != nil {
		return nil, err
	}

	account.Active = false
	account.UpdatedAt = now

	uc.audit(ctx, domain.AuditActionAccountDeactivated, domain.JSON{"account_id": account.ID})

	return account, nil
}

// ListAccountsInput represents input for listing accounts.
type ListAccountsInput struct {
	Limit  int
	Offset int
}

// ListAccounts lists accounts with pagination.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, input ListAccountsInput) ([]*domain.Account, error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)

	return uc.accountRepo.List(ctx, limit, offset)
}

func (uc *AccountUseCase) audit(ctx context.Context, action domain.AuditAction, detail domain.JSON) {
	if uc.auditRepo == nil {
		return
	}

	_ = uc.auditRepo.Create(ctx, &domain.AuditRecord{
		Action:     action,
		Status:     domain.AuditStatusSuccess,
		Detail:     detail,
		OccurredAt: time.Now().UTC(),
	})
}
