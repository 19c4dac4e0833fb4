// Package stealth implements the Amora stealth address protocol over the
// STARK curve. A recipient publishes a meta-address (spending and viewing
// public keys); senders derive unlinkable one-time account addresses from it,
// and the recipient discovers payments by scanning announcement events with
// the viewing key.
package stealth

import (
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/joaoolucas/amora-sdk/crypto"
)

var (
	// ErrInvalidKey is returned by NewKeyPair when the private scalar cannot
	// be normalized; it wraps the underlying crypto error.
	ErrInvalidKey = errors.New("stealth: invalid key")

	// ErrInvalidAnnouncement is returned when an announcement carries a zero
	// stealth address or ephemeral public key.
	ErrInvalidAnnouncement = errors.New("stealth: invalid announcement")
)

// KeyPair is a normalized STARK keypair: Public is the x-coordinate of
// Private*G, and the y-coordinate of that point is even.
type KeyPair struct {
	Private *big.Int
	Public  *big.Int
}

// NewKeyPair builds a keypair from a raw private scalar. The scalar is
// parity-normalized on import; skipping this step would break x-only
// round-trips for every payment derived from the key.
func NewKeyPair(priv *big.Int) (*KeyPair, error) {
	norm, err := crypto.NormalizeParity(priv)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	pub, err := crypto.DerivePub(norm)
	if err != nil {
		return nil, err
	}
	return &KeyPair{Private: norm, Public: pub}, nil
}

// StealthKeys is a recipient's long-lived key material: a spending pair that
// authorizes transfers and a viewing pair that only detects them.
type StealthKeys struct {
	Spending *KeyPair
	Viewing  *KeyPair
}

// GenerateKeys samples a fresh spending and viewing pair with independent
// entropy. A nil reader uses the platform CSPRNG.
func GenerateKeys(rnd io.Reader) (*StealthKeys, error) {
	spendPriv, err := crypto.RandomScalar(rnd)
	if err != nil {
		return nil, err
	}
	spending, err := NewKeyPair(spendPriv)
	if err != nil {
		return nil, err
	}

	viewPriv, err := crypto.RandomScalar(rnd)
	if err != nil {
		return nil, err
	}
	viewing, err := NewKeyPair(viewPriv)
	if err != nil {
		return nil, err
	}

	return &StealthKeys{Spending: spending, Viewing: viewing}, nil
}

// MetaAddress is the public half of a recipient's stealth keys, published
// once and immutable afterwards.
type MetaAddress struct {
	Chain          string
	SpendingPubKey *big.Int
	ViewingPubKey  *big.Int
}

// MetaAddress returns the public meta-address for the given chain tag.
func (k *StealthKeys) MetaAddress(chain string) *MetaAddress {
	return &MetaAddress{
		Chain:          chain,
		SpendingPubKey: new(big.Int).Set(k.Spending.Public),
		ViewingPubKey:  new(big.Int).Set(k.Viewing.Public),
	}
}

// ViewingKeyExport is a watch-only capability: the viewing private key plus
// the spending public key. It can detect payments but not spend them.
type ViewingKeyExport struct {
	Chain             string
	ViewingPrivateKey *big.Int
	SpendingPubKey    *big.Int
}

// ViewingKey exports the watch-only capability for the given chain tag.
func (k *StealthKeys) ViewingKey(chain string) *ViewingKeyExport {
	return &ViewingKeyExport{
		Chain:             chain,
		ViewingPrivateKey: new(big.Int).Set(k.Viewing.Private),
		SpendingPubKey:    new(big.Int).Set(k.Spending.Public),
	}
}
