package attestation

import (
	"errors"
	"testing"

	"github.com/obligent/obligent/internal/domain"
)

func verified(attestor string) *domain.AttestationRecord {
	return &domain.AttestationRecord{Attestor: attestor, Result: domain.AttestationVerified}
}

func rejected(attestor string) *domain.AttestationRecord {
	return &domain.AttestationRecord{Attestor: attestor, Result: domain.AttestationFailed}
}

func TestPolicyEvaluate(t *testing.T) {
	tests := []struct {
		name    string
		policy  Policy
		records []*domain.AttestationRecord
		wantOK  bool
	}{
		{
			name:    "single accepts one verified",
			policy:  SinglePolicy{},
			records: []*domain.AttestationRecord{verified("a")},
			wantOK:  true,
		},
		{
			name:    "single rejects all-failed evidence",
			policy:  SinglePolicy{},
			records: []*domain.AttestationRecord{rejected("a"), rejected("b")},
			wantOK:  false,
		},
		{
			name:    "threshold counts distinct attestors",
			policy:  ThresholdPolicy{N: 2},
			records: []*domain.AttestationRecord{verified("a"), verified("b")},
			wantOK:  true,
		},
		{
			name:    "threshold ignores duplicate attestors",
			policy:  ThresholdPolicy{N: 2},
			records: []*domain.AttestationRecord{verified("a"), verified("a")},
			wantOK:  false,
		},
		{
			name:    "anyof accepts a named attestor",
			policy:  AnyOfPolicy{Attestors: map[string]struct{}{"a": {}}},
			records: []*domain.AttestationRecord{verified("a"), verified("b")},
			wantOK:  true,
		},
		{
			name:    "anyof rejects unnamed attestors",
			policy:  AnyOfPolicy{Attestors: map[string]struct{}{"c": {}}},
			records: []*domain.AttestationRecord{verified("a"), verified("b")},
			wantOK:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.policy.Evaluate(tt.records)

			if tt.wantOK && err != nil {
				t.Fatalf("expected policy satisfied, got %v", err)
			}

			if !tt.wantOK && !errors.Is(err, domain.ErrPolicyUnsatisfied) {
				t.Fatalf("expected policy unsatisfied, got %v", err)
			}
		})
	}
}

func TestParsePolicy(t *testing.T) {
	if _, err := ParsePolicy("", 0); err != nil {
		t.Fatalf("empty spec must default to single: %v", err)
	}

	if _, err := ParsePolicy("single", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p, err := ParsePolicy("threshold", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tp, ok := p.(ThresholdPolicy); !ok || tp.N != 3 {
		t.Fatalf("expected ThresholdPolicy{N: 3}, got %+v", p)
	}

	if _, err := ParsePolicy("threshold", 0); err == nil {
		t.Fatalf("threshold without a positive N must fail")
	}

	p, err = ParsePolicy("anyof:a|b", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ap, ok := p.(AnyOfPolicy); !ok || len(ap.Attestors) != 2 {
		t.Fatalf("expected AnyOfPolicy with 2 attestors, got %+v", p)
	}

	if _, err := ParsePolicy("anyof:", 0); err == nil {
		t.Fatalf("anyof with no attestors must fail")
	}

	if _, err := ParsePolicy("quorum", 0); err == nil {
		t.Fatalf("unknown policy must fail")
	}
}
