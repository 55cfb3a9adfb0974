package attestation

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"

	"github.com/obligent/obligent/internal/domain"
)

// tokenClaims are the claims an attestation token must carry. sub
// names the claimant account, amt the amount in minor units, pur the
// purpose; iss identifies the attestor and must match the signing kid.
type tokenClaims struct {
	Amount  int64  `json:"amt"`
	Purpose string `json:"pur"`
	jwt.RegisteredClaims
}

// Verifier implements usecase.AttestationVerifier over EdDSA tokens.
// Verification is pure with respect to the ledger: it reads nothing
// but the keyring and the intent passed in.
type Verifier struct {
	keyring Keyring
	policy  Policy
	now     func() time.Time
}

// NewVerifier creates a new Verifier.
func NewVerifier(keyring Keyring, policy Policy) *Verifier {
	return &Verifier{
		keyring: keyring,
		policy:  policy,
		now:     time.Now,
	}
}

// Verify checks every token against the intent and the keyring,
// returning per-token evidence alongside the policy verdict. Evidence
// is returned even when the verdict is a failure so the gateway can
// persist it.
func (v *Verifier) Verify(_ context.Context, intent *domain.ObligationIntent, tokens []string) ([]*domain.AttestationRecord, error) {
	if len(tokens) == 0 {
		return nil, domain.ErrAttestationMissing
	}

	records := make([]*domain.AttestationRecord, 0, len(tokens))

	var firstErr error

	for _, token := range tokens {
		record, err := v.verifyToken(intent, token)
		records = append(records, record)

		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if err := v.policy.Evaluate(records); err != nil {
		// Report the most specific cause: a token-level failure beats
		// the generic policy verdict.
		if firstErr != nil {
			return records, firstErr
		}

		return records, err
	}

	return records, nil
}

// Recheck re-applies the policy over previously recorded evidence,
// honoring expiry at the time of the call. An attestation that expired
// between the verdict and ledger submission stops counting here.
func (v *Verifier) Recheck(_ context.Context, _ *domain.ObligationIntent, records []*domain.AttestationRecord) error {
	now := v.now()

	live := make([]*domain.AttestationRecord, 0, len(records))
	expired := false

	for _, record := range records {
		if record.Result == domain.AttestationVerified &&
			record.ExpiresAt != nil && !record.ExpiresAt.After(now) {
			expired = true
			continue
		}

		live = append(live, record)
	}

	if err := v.policy.Evaluate(live); err != nil {
		if expired {
			return domain.ErrAttestationExpired
		}

		return err
	}

	return nil
}

// verifyToken checks one token and builds its evidence record. The
// record is always returned; err carries the classified failure.
func (v *Verifier) verifyToken(intent *domain.ObligationIntent, token string) (*domain.AttestationRecord, error) {
	record := &domain.AttestationRecord{
		IntentID:   intent.ID,
		Result:     domain.AttestationFailed,
		VerifiedAt: v.now(),
	}

	claims := &tokenClaims{}

	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, domain.ErrAttestationRejected
		}

		kid, _ := t.Header["kid"].(string)
		record.Attestor = kid

		key, err := v.keyring.Lookup(kid)
		if err != nil {
			return nil, err
		}

		return key.PublicKey, nil
	}, jwt.WithValidMethods([]string{"EdDSA"}))

	if claims.ExpiresAt != nil {
		t := claims.ExpiresAt.Time
		record.ExpiresAt = &t
	}

	if err != nil {
		verr := classifyTokenError(err)
		record.Detail = verr.Error()

		return record, verr
	}

	if !parsed.Valid {
		record.Detail = domain.ErrAttestationRejected.Error()

		return record, domain.ErrAttestationRejected
	}

	record.Claims = domain.JSON{
		"sub": claims.Subject,
		"amt": claims.Amount,
		"pur": claims.Purpose,
		"iss": claims.Issuer,
	}

	if claims.Subject != intent.ClaimantAccountID ||
		claims.Purpose != intent.Purpose ||
		!decimal.NewFromInt(claims.Amount).Equal(intent.Amount) {
		record.Detail = domain.ErrBindingMismatch.Error()

		return record, domain.ErrBindingMismatch
	}

	record.Result = domain.AttestationVerified

	return record, nil
}

// classifyTokenError maps jwt and keyring failures onto the domain
// attestation sentinels.
func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return domain.ErrAttestationExpired
	case errors.Is(err, domain.ErrUnknownAttestor):
		return domain.ErrUnknownAttestor
	case errors.Is(err, domain.ErrAttestorRevoked):
		return domain.ErrAttestorRevoked
	default:
		return domain.ErrAttestationRejected
	}
}
