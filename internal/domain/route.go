package domain

import (
	"errors"
	"time"
)

var (
	ErrRouteNotFound     = errors.New("no clearing route for purpose")
	ErrRouteExists       = errors.New("clearing route already provisioned")
	ErrRouteAccountClass = errors.New("route account must be an obligation account")
	ErrUnknownDirection  = errors.New("unknown transfer direction")
)

// ClearingRoute binds a purpose to the obligation account that absorbs
// it and the direction value moves relative to the claimant.
type ClearingRoute struct {
	Purpose             string
	ObligationAccountID string
	Direction           TransferDirection
	Description         string
	CreatedAt           time.Time
}

// Resolve returns the debit/credit account pair for an intent cleared
// through this route.
func (r *ClearingRoute) Resolve(claimantAccountID string) (debitID, creditID string) {
	if r.Direction == DirectionInbound {
		return r.ObligationAccountID, claimantAccountID
	}

	return claimantAccountID, r.ObligationAccountID
}
