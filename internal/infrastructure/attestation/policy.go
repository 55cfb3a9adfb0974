package attestation

import (
	"fmt"
	"strings"

	"github.com/obligent/obligent/internal/domain"
)

// Policy decides whether the verified evidence for an intent is
// sufficient. Policies only read evidence; they never verify tokens.
type Policy interface {
	Evaluate(records []*domain.AttestationRecord) error
}

// SinglePolicy accepts an intent vouched for by at least one verified
// attestation.
type SinglePolicy struct{}

func (SinglePolicy) Evaluate(records []*domain.AttestationRecord) error {
	if countVerified(records, nil) >= 1 {
		return nil
	}

	return domain.ErrPolicyUnsatisfied
}

// AnyOfPolicy accepts an intent vouched for by at least one verified
// attestation from a named set of attestors.
type AnyOfPolicy struct {
	Attestors map[string]struct{}
}

func (p AnyOfPolicy) Evaluate(records []*domain.AttestationRecord) error {
	if countVerified(records, p.Attestors) >= 1 {
		return nil
	}

	return domain.ErrPolicyUnsatisfied
}

// ThresholdPolicy requires verified attestations from at least N
// distinct attestors.
type ThresholdPolicy struct {
	N int
}

func (p ThresholdPolicy) Evaluate(records []*domain.AttestationRecord) error {
	if countVerified(records, nil) >= p.N {
		return nil
	}

	return domain.ErrPolicyUnsatisfied
}

// countVerified counts distinct attestors with verified evidence,
// optionally restricted to an allow set.
func countVerified(records []*domain.AttestationRecord, allowed map[string]struct{}) int {
	seen := map[string]struct{}{}

	for _, r := range records {
		if r.Result != domain.AttestationVerified {
			continue
		}

		if allowed != nil {
			if _, ok := allowed[r.Attestor]; !ok {
				continue
			}
		}

		seen[r.Attestor] = struct{}{}
	}

	return len(seen)
}

// ParsePolicy builds a policy from its configuration form: "single",
// "threshold" (with the configured threshold), or "anyof:kid1|kid2".
func ParsePolicy(spec string, threshold int) (Policy, error) {
	spec = strings.TrimSpace(spec)

	switch {
	case spec == "" || spec == "single":
		return SinglePolicy{}, nil
	case spec == "threshold":
		if threshold < 1 {
			return nil, fmt.Errorf("attestation threshold must be positive, got %d", threshold)
		}

		return ThresholdPolicy{N: threshold}, nil
	case strings.HasPrefix(spec, "anyof:"):
		attestors := map[string]struct{}{}

		for _, kid := range strings.Split(strings.TrimPrefix(spec, "anyof:"), "|") {
			if kid = strings.TrimSpace(kid); kid != "" {
				attestors[kid] = struct{}{}
			}
		}

		if len(attestors) == 0 {
			return nil, fmt.Errorf("anyof policy names no attestors")
		}

		return AnyOfPolicy{Attestors: attestors}, nil
	default:
		return nil, fmt.Errorf("unknown attestation policy %q", spec)
	}
}
