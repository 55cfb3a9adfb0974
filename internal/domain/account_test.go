package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestAccount_ValidateDebit(t *testing.T) {
	tests := []struct {
		name        string
		class       AccountClass
		credits     decimal.Decimal
		debits      decimal.Decimal
		active      bool
		debitAmount decimal.Decimal
		wantErr     error
	}{
		{
			name:        "asset account - debit within balance",
			class:       AccountClassAsset,
			credits:     decimal.NewFromInt(100),
			debits:      decimal.Zero,
			active:      true,
			debitAmount: decimal.NewFromInt(50),
			wantErr:     nil,
		},
		{
			name:        "asset account - debit exact balance",
			class:       AccountClassAsset,
			credits:     decimal.NewFromInt(100),
			debits:      decimal.Zero,
			active:      true,
			debitAmount: decimal.NewFromInt(100),
			wantErr:     nil,
		},
		{
			name:        "asset account - debit more than balance",
			class:       AccountClassAsset,
			credits:     decimal.NewFromInt(100),
			debits:      decimal.Zero,
			active:      true,
			debitAmount: decimal.NewFromInt(150),
			wantErr:     ErrInsufficientBalance,
		},
		{
			name:        "balance already consumed by earlier debits",
			class:       AccountClassObligation,
			credits:     decimal.NewFromInt(100),
			debits:      decimal.NewFromInt(80),
			active:      true,
			debitAmount: decimal.NewFromInt(30),
			wantErr:     ErrInsufficientBalance,
		},
		{
			name:        "external account - unbounded debit",
			class:       AccountClassExternal,
			credits:     decimal.Zero,
			debits:      decimal.Zero,
			active:      true,
			debitAmount: decimal.NewFromInt(1000),
			wantErr:     nil,
		},
		{
			name:        "inactive account rejects debit",
			class:       AccountClassExternal,
			credits:     decimal.NewFromInt(1000),
			debits:      decimal.Zero,
			active:      false,
			debitAmount: decimal.NewFromInt(10),
			wantErr:     ErrAccountInactive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := &Account{
				Class:         tt.class,
				PostedCredits: tt.credits,
				PostedDebits:  tt.debits,
				Active:        tt.active,
			}

			err := acc.ValidateDebit(tt.debitAmount)

			if tt.wantErr == nil && err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestAccount_ValidateCredit(t *testing.T) {
	t.Run("active account accepts credit", func(t *testing.T) {
		acc := &Account{Class: AccountClassObligation, Active: true}
		if err := acc.ValidateCredit(decimal.NewFromInt(100)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("inactive account rejects credit", func(t *testing.T) {
		acc := &Account{Class: AccountClassObligation, Active: false}
		if !errors.Is(acc.ValidateCredit(decimal.NewFromInt(100)), ErrAccountInactive) {
			t.Fatal("expected ErrAccountInactive")
		}
	})
}

func TestAccount_DerivedBalances(t *testing.T) {
	acc := &Account{
		PostedDebits:   decimal.NewFromInt(30),
		PostedCredits:  decimal.NewFromInt(100),
		PendingDebits:  decimal.NewFromInt(50),
		PendingCredits: decimal.NewFromInt(10),
	}

	if got := acc.Balance(); !got.Equal(decimal.NewFromInt(70)) {
		t.Errorf("Balance() = %s, want 70", got)
	}

	if got := acc.PendingBalance(); !got.Equal(decimal.NewFromInt(-40)) {
		t.Errorf("PendingBalance() = %s, want -40", got)
	}
}

func TestAccount_ApplyOnlyIncreasesAccumulators(t *testing.T) {
	acc := &Account{
		PostedDebits:  decimal.NewFromInt(10),
		PostedCredits: decimal.NewFromInt(20),
	}

	acc.ApplyDebit(decimal.NewFromInt(5))
	acc.ApplyCredit(decimal.NewFromInt(7))

	if !acc.PostedDebits.Equal(decimal.NewFromInt(15)) {
		t.Errorf("PostedDebits = %s, want 15", acc.PostedDebits)
	}

	if !acc.PostedCredits.Equal(decimal.NewFromInt(27)) {
		t.Errorf("PostedCredits = %s, want 27", acc.PostedCredits)
	}
}

func TestParseAccountClass(t *testing.T) {
	for _, valid := range []string{"asset", "liability", "obligation", "external"} {
		if _, err := ParseAccountClass(valid); err != nil {
			t.Errorf("ParseAccountClass(%q) unexpected error: %v", valid, err)
		}
	}

	if _, err := ParseAccountClass("equity"); !errors.Is(err, ErrUnknownAccountClass) {
		t.Errorf("expected ErrUnknownAccountClass, got %v", err)
	}
}

func TestAccountClass_AllowsOverdraft(t *testing.T) {
	overdraft := map[AccountClass]bool{
		AccountClassAsset:      false,
		AccountClassLiability:  false,
		AccountClassObligation: false,
		AccountClassExternal:   true,
	}

	for class, want := range overdraft {
		if got := class.AllowsOverdraft(); got != want {
			t.Errorf("%s.AllowsOverdraft() = %v, want %v", class, got, want)
		}
	}
}
