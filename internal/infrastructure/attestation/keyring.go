package attestation

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/obligent/obligent/internal/domain"
)

// Key is one allow-listed attestor verification key.
type Key struct {
	Attestor  string
	PublicKey ed25519.PublicKey
	Revoked   bool
}

// Keyring holds the attestor keys the verifier trusts, indexed by kid.
type Keyring map[string]Key

// ParseKeyring builds a keyring from its configuration form:
// comma-separated kid:base64(ed25519 public key) entries. A kid
// suffixed with "!" is loaded revoked, so signatures made with it stop
// counting without redeploying the remaining keys.
func ParseKeyring(spec string) (Keyring, error) {
	ring := Keyring{}

	if strings.TrimSpace(spec) == "" {
		return ring, nil
	}

	for _, entry := range strings.Split(spec, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		kid, encoded, ok := strings.Cut(entry, ":")
		if !ok {
			return nil, fmt.Errorf("malformed attestor key entry %q", entry)
		}

		revoked := strings.HasSuffix(kid, "!")
		kid = strings.TrimSuffix(kid, "!")

		raw, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("decode attestor key %q: %w", kid, err)
		}

		if len(raw) != ed25519.PublicKeySize {
			return nil, fmt.Errorf("attestor key %q: expected %d bytes, got %d", kid, ed25519.PublicKeySize, len(raw))
		}

		ring[kid] = Key{
			Attestor:  kid,
			PublicKey: ed25519.PublicKey(raw),
			Revoked:   revoked,
		}
	}

	return ring, nil
}

// Lookup resolves a kid to its verification key.
func (k Keyring) Lookup(kid string) (Key, error) {
	key, ok := k[kid]
	if !ok {
		return Key{}, domain.ErrUnknownAttestor
	}

	if key.Revoked {
		return Key{}, domain.ErrAttestorRevoked
	}

	return key, nil
}
