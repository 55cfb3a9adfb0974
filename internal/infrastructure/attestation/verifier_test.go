package attestation

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"

	"github.com/obligent/obligent/internal/domain"
)

type signer struct {
	kid  string
	priv ed25519.PrivateKey
}

func newSigner(t *testing.T, ring Keyring, kid string) signer {
	t.Helper()

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	ring[kid] = Key{Attestor: kid, PublicKey: pub}

	return signer{kid: kid, priv: priv}
}

func (s signer) token(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	token.Header["kid"] = s.kid

	signed, err := token.SignedString(s.priv)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	return signed
}

func testIntent() *domain.ObligationIntent {
	return &domain.ObligationIntent{
		ID:                "int_1",
		ClaimantAccountID: "acc_claimant",
		Amount:            decimal.NewFromInt(250),
		Purpose:           "GROCERY",
	}
}

func boundClaims(exp time.Time) jwt.MapClaims {
	return jwt.MapClaims{
		"sub": "acc_claimant",
		"amt": 250,
		"pur": "GROCERY",
		"iss": "attestor-a",
		"exp": exp.Unix(),
	}
}

func TestVerifierVerify(t *testing.T) {
	ring := Keyring{}
	s := newSigner(t, ring, "attestor-a")
	v := NewVerifier(ring, SinglePolicy{})

	token := s.token(t, boundClaims(time.Now().Add(time.Hour)))

	records, err := v.Verify(context.Background(), testIntent(), []string{token})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	if records[0].Result != domain.AttestationVerified {
		t.Fatalf("expected verified, got %s", records[0].Result)
	}

	if records[0].Attestor != "attestor-a" {
		t.Fatalf("expected attestor-a, got %s", records[0].Attestor)
	}

	if records[0].ExpiresAt == nil {
		t.Fatalf("expected expiry captured on the record")
	}
}

func TestVerifierVerifyFailures(t *testing.T) {
	ring := Keyring{}
	s := newSigner(t, ring, "attestor-a")
	revoked := newSigner(t, ring, "attestor-r")
	if key, ok := ring["attestor-r"]; ok {
		key.Revoked = true
		ring["attestor-r"] = key
	}

	stranger := signer{kid: "attestor-x"}
	_, strangerPriv, _ := ed25519.GenerateKey(rand.Reader)
	stranger.priv = strangerPriv

	tests := []struct {
		name    string
		token   func(t *testing.T) string
		wantErr error
	}{
		{
			name: "expired token",
			token: func(t *testing.T) string {
				return s.token(t, boundClaims(time.Now().Add(-time.Hour)))
			},
			wantErr: domain.ErrAttestationExpired,
		},
		{
			name: "unknown attestor",
			token: func(t *testing.T) string {
				return stranger.token(t, boundClaims(time.Now().Add(time.Hour)))
			},
			wantErr: domain.ErrUnknownAttestor,
		},
		{
			name: "revoked attestor",
			token: func(t *testing.T) string {
				return revoked.token(t, boundClaims(time.Now().Add(time.Hour)))
			},
			wantErr: domain.ErrAttestorRevoked,
		},
		{
			name: "amount mismatch",
			token: func(t *testing.T) string {
				claims := boundClaims(time.Now().Add(time.Hour))
				claims["amt"] = 999
				return s.token(t, claims)
			},
			wantErr: domain.ErrBindingMismatch,
		},
		{
			name: "claimant mismatch",
			token: func(t *testing.T) string {
				claims := boundClaims(time.Now().Add(time.Hour))
				claims["sub"] = "acc_other"
				return s.token(t, claims)
			},
			wantErr: domain.ErrBindingMismatch,
		},
		{
			name: "hmac signing method refused",
			token: func(t *testing.T) string {
				token := jwt.NewWithClaims(jwt.SigningMethodHS256, boundClaims(time.Now().Add(time.Hour)))
				token.Header["kid"] = "attestor-a"
				signed, err := token.SignedString([]byte("secret"))
				if err != nil {
					t.Fatalf("sign token: %v", err)
				}
				return signed
			},
			wantErr: domain.ErrAttestationRejected,
		},
		{
			name: "garbage token",
			token: func(t *testing.T) string {
				return "not-a-token"
			},
			wantErr: domain.ErrAttestationRejected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewVerifier(ring, SinglePolicy{})

			records, err := v.Verify(context.Background(), testIntent(), []string{tt.token(t)})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}

			// Evidence is returned even for failures so it can be
			// persisted.
			if len(records) != 1 || records[0].Result != domain.AttestationFailed {
				t.Fatalf("expected one failed record, got %+v", records)
			}

			if records[0].Detail == "" {
				t.Fatalf("expected failure detail on the record")
			}
		})
	}
}

func TestVerifierThresholdPolicy(t *testing.T) {
	ring := Keyring{}
	a := newSigner(t, ring, "attestor-a")
	b := newSigner(t, ring, "attestor-b")
	v := NewVerifier(ring, ThresholdPolicy{N: 2})

	intent := testIntent()
	exp := time.Now().Add(time.Hour)

	claimsA := boundClaims(exp)
	claimsB := boundClaims(exp)
	claimsB["iss"] = "attestor-b"

	records, err := v.Verify(context.Background(), intent, []string{a.token(t, claimsA), b.token(t, claimsB)})
	if err != nil {
		t.Fatalf("two distinct attestors must satisfy threshold 2: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	// Two tokens from the same attestor count once.
	_, err = v.Verify(context.Background(), intent, []string{a.token(t, claimsA), a.token(t, claimsA)})
	if !errors.Is(err, domain.ErrPolicyUnsatisfied) {
		t.Fatalf("expected policy unsatisfied, got %v", err)
	}
}

func TestVerifierRecheck(t *testing.T) {
	v := NewVerifier(Keyring{}, SinglePolicy{})

	future := time.Now().Add(time.Hour)
	past := time.Now().Add(-time.Minute)

	live := &domain.AttestationRecord{Attestor: "a", Result: domain.AttestationVerified, ExpiresAt: &future}
	stale := &domain.AttestationRecord{Attestor: "a", Result: domain.AttestationVerified, ExpiresAt: &past}

	if err := v.Recheck(context.Background(), nil, []*domain.AttestationRecord{live}); err != nil {
		t.Fatalf("live evidence must pass: %v", err)
	}

	err := v.Recheck(context.Background(), nil, []*domain.AttestationRecord{stale})
	if !errors.Is(err, domain.ErrAttestationExpired) {
		t.Fatalf("expected expiry at recheck, got %v", err)
	}

	// A second live attestation keeps the policy satisfied even when
	// one expired.
	if err := v.Recheck(context.Background(), nil, []*domain.AttestationRecord{stale, live}); err != nil {
		t.Fatalf("surviving evidence must carry the policy: %v", err)
	}
}
