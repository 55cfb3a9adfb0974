package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/obligent/obligent/internal/domain"
	"github.com/obligent/obligent/internal/usecase"
	"github.com/obligent/obligent/internal/usecase/mocks"
)

func newAccountUseCase() (*usecase.AccountUseCase, *mocks.MockAccountRepository, *mocks.MockAuditRepository) {
	accounts := mocks.NewMockAccountRepository()
	audit := mocks.NewMockAuditRepository()
	uc := usecase.NewAccountUseCase(accounts, audit, mocks.NewMockIDGenerator())

	return uc, accounts, audit
}

func TestAccountUseCase_CreateAccount(t *testing.T) {
	uc, _, audit := newAccountUseCase()

	account, err := uc.CreateAccount(context.Background(), usecase.CreateAccountInput{
		Name:   "Claimant Wallet",
		Ledger: "trust",
		Class:  "asset",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.HasPrefix(account.ID, "acc_") {
		t.Fatalf("expected generated acc_ id, got %s", account.ID)
	}

	if account.Ledger != "TRUST" {
		t.Fatalf("expected ledger uppercased, got %s", account.Ledger)
	}

	if account.Class != domain.AccountClassAsset {
		t.Fatalf("expected asset class, got %s", account.Class)
	}

	if !account.Active {
		t.Fatalf("new accounts must start active")
	}

	if !account.PostedDebits.IsZero() || !account.PostedCredits.IsZero() {
		t.Fatalf("accumulators must start at zero")
	}

	records := audit.Records()
	if len(records) != 1 || records[0].Action != domain.AuditActionAccountCreated {
		t.Fatalf("expected account.created audit record, got %+v", records)
	}
}

func TestAccountUseCase_CreateAccountValidation(t *testing.T) {
	tests := []struct {
		name    string
		input   usecase.CreateAccountInput
		wantErr error
	}{
		{
			name:    "empty name",
			input:   usecase.CreateAccountInput{Name: "", Ledger: "TRUST", Class: "asset"},
			wantErr: domain.ErrInvalidAccountName,
		},
		{
			name:    "unknown class",
			input:   usecase.CreateAccountInput{Name: "Wallet", Ledger: "TRUST", Class: "savings"},
			wantErr: domain.ErrUnknownAccountClass,
		},
		{
			name:    "bad ledger label",
			input:   usecase.CreateAccountInput{Name: "Wallet", Ledger: "9TRUST", Class: "asset"},
			wantErr: domain.ErrInvalidLedger,
		},
		{
			name:    "bad explicit id",
			input:   usecase.CreateAccountInput{ID: "-bad", Name: "Wallet", Ledger: "TRUST", Class: "asset"},
			wantErr: domain.ErrInvalidAccountID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, _, _ := newAccountUseCase()

			if _, err := uc.CreateAccount(context.Background(), tt.input); !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestAccountUseCase_CreateAccountDuplicate(t *testing.T) {
	uc, accounts, _ := newAccountUseCase()

	accounts.Seed(&domain.Account{ID: "acc_dup", Name: "existing", Ledger: "TRUST", Class: domain.AccountClassAsset, Active: true})

	_, err := uc.CreateAccount(context.Background(), usecase.CreateAccountInput{
		ID:     "acc_dup",
		Name:   "another",
		Ledger: "TRUST",
		Class:  "asset",
	})
	if !errors.Is(err, domain.ErrAccountExists) {
		t.Fatalf("expected account exists, got %v", err)
	}
}

func TestAccountUseCase_DeactivateAccount(t *testing.T) {
	uc, accounts, audit := newAccountUseCase()

	accounts.Seed(&domain.Account{ID: "acc_1", Name: "wallet", Ledger: "TRUST", Class: domain.AccountClassAsset, Active: true})

	account, err := uc.DeactivateAccount(context.Background(), "acc_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if account.Active {
		t.Fatalf("expected account inactive")
	}

	// Deactivating again is a no-op, not an error.
	if _, err := uc.DeactivateAccount(context.Background(), "acc_1"); err != nil {
		t.Fatalf("repeat deactivation must be idempotent: %v", err)
	}

	records := audit.Records()
	if len(records) != 1 || records[0].Action != domain.AuditActionAccountDeactivated {
		t.Fatalf("expected a single account.deactivated record, got %+v", records)
	}

	if _, err := uc.DeactivateAccount(context.Background(), "acc_missing"); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected account not found, got %v", err)
	}
}

func TestAccountUseCase_ListAccounts(t *testing.T) {
	uc, accounts, _ := newAccountUseCase()

	accounts.Seed(&domain.Account{ID: "acc_1", Name: "a", Ledger: "TRUST", Class: domain.AccountClassAsset, Active: true})
	accounts.Seed(&domain.Account{ID: "acc_2", Name: "b", Ledger: "TRUST", Class: domain.AccountClassObligation, Active: true})

	listed, err := uc.ListAccounts(context.Background(), usecase.ListAccountsInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(listed) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(listed))
	}
}
