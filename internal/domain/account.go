package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// AccountClass classifies a ledger account. The set is closed: every
// switch over it handles all four values and rejects anything else.
type AccountClass string

const (
	AccountClassAsset      AccountClass = "asset"
	AccountClassLiability  AccountClass = "liability"
	AccountClassObligation AccountClass = "obligation"
	AccountClassExternal   AccountClass = "external"
)

// ParseAccountClass parses a class tag, rejecting unknown values.
func ParseAccountClass(s string) (AccountClass, error) {
	switch AccountClass(s) {
	case AccountClassAsset, AccountClassLiability, AccountClassObligation, AccountClassExternal:
		return AccountClass(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAccountClass, s)
	}
}

// AllowsOverdraft reports whether a debit may push the posted balance
// below zero. Only external counterparty accounts absorb unbounded debit.
func (c AccountClass) AllowsOverdraft() bool {
	switch c {
	case AccountClassAsset, AccountClassLiability, AccountClassObligation:
		return false
	case AccountClassExternal:
		return true
	default:
		return false
	}
}

// Account represents a ledger account. There is no stored balance:
// the four accumulators only ever increase, and every balance figure
// is derived from them.
type Account struct {
	ID             string
	Name           string
	Ledger         string
	Class          AccountClass
	PostedDebits   decimal.Decimal
	PostedCredits  decimal.Decimal
	PendingDebits  decimal.Decimal
	PendingCredits decimal.Decimal
	Active         bool
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Balance derives the posted balance: postedCredits - postedDebits.
func (a *Account) Balance() decimal.Decimal {
	return a.PostedCredits.Sub(a.PostedDebits)
}

// PendingBalance derives the net amount that has entered clearing
// against this account: pendingCredits - pendingDebits.
func (a *Account) PendingBalance() decimal.Decimal {
	return a.PendingCredits.Sub(a.PendingDebits)
}

// ValidateDebit checks whether the account can absorb a posted debit of
// amount. Inactive accounts reject all new activity; non-external
// classes reject debits that would push the posted balance negative.
func (a *Account) ValidateDebit(amount decimal.Decimal) error {
	if !a.Active {
		return ErrAccountInactive
	}

	if !a.Class.AllowsOverdraft() && a.Balance().Sub(amount).IsNegative() {
		return ErrInsufficientBalance
	}

	return nil
}

// ValidateCredit checks whether the account can receive a posted credit.
func (a *Account) ValidateCredit(amount decimal.Decimal) error {
	if !a.Active {
		return ErrAccountInactive
	}

	return nil
}

// ApplyDebit bumps the posted debit accumulator.
func (a *Account) ApplyDebit(amount decimal.Decimal) {
	a.PostedDebits = a.PostedDebits.Add(amount)
}

// ApplyCredit bumps the posted credit accumulator.
func (a *Account) ApplyCredit(amount decimal.Decimal) {
	a.PostedCredits = a.PostedCredits.Add(amount)
}
