// address.go derives one-time stealth addresses on the sender side and
// reconstructs them on the recipient side. Derivation follows the
// dual-key construction: an ECDH secret against the viewing key selects the
// payment, and the spending key shifted by the hashed secret owns it.
package stealth

import (
	"io"
	"math/big"

	"github.com/joaoolucas/amora-sdk/crypto"
)

// StealthAddress is the sender-side derivation result: everything needed to
// pay the one-time account and announce it on-chain.
type StealthAddress struct {
	// Address is the counterfactual account contract address.
	Address *big.Int
	// PubKey is the one-time public key the account is constructed from.
	PubKey *big.Int
	// EphemeralPub is the sender's single-use public key, published in the
	// announcement so the recipient can recompute the shared secret.
	EphemeralPub *big.Int
	// ViewTag is the scanner pre-filter byte.
	ViewTag byte
}

// GenerateStealthAddress derives a fresh one-time address for the recipient
// behind the meta-address. Each call samples a new ephemeral key; reusing an
// ephemeral would produce colliding addresses and link the payments.
func GenerateStealthAddress(rnd io.Reader, meta *MetaAddress, classHash *big.Int) (*StealthAddress, error) {
	r, err := crypto.RandomScalar(rnd)
	if err != nil {
		return nil, err
	}
	ephemeralPub, err := crypto.DerivePub(r)
	if err != nil {
		return nil, err
	}

	viewPoint, err := crypto.RecoverPoint(meta.ViewingPubKey)
	if err != nil {
		return nil, err
	}
	shared, err := crypto.MulPoint(r, viewPoint)
	if err != nil {
		return nil, err
	}
	secret := shared.X

	stealthPub, err := computeStealthPubKey(meta.SpendingPubKey, secret)
	if err != nil {
		return nil, err
	}

	return &StealthAddress{
		Address:      AccountAddress(stealthPub, classHash),
		PubKey:       stealthPub,
		EphemeralPub: ephemeralPub,
		ViewTag:      crypto.ViewTag(secret),
	}, nil
}

// computeStealthPubKey returns x(K_spend + H(s)*G). The sum's y-coordinate
// may be odd; only the x travels on the wire, and x is invariant under point
// negation, so the recipient lands on the same value.
func computeStealthPubKey(spendingPub, secret *big.Int) (*big.Int, error) {
	spendPoint, err := crypto.RecoverPoint(spendingPub)
	if err != nil {
		return nil, err
	}
	tweak := hashedSecretScalar(secret)
	tweakPoint, err := crypto.MulBase(tweak)
	if err != nil {
		return nil, err
	}
	sum, err := crypto.AddPoints(spendPoint, tweakPoint)
	if err != nil {
		return nil, err
	}
	return sum.X, nil
}

// hashedSecretScalar reduces poseidon(s) into the scalar group.
func hashedSecretScalar(secret *big.Int) *big.Int {
	h := crypto.PoseidonHash(secret)
	return h.Mod(h, crypto.CurveOrder())
}

// DeriveSpendingKey computes the one-time private key
// (k_spend + H(s)) mod N for a detected payment.
func DeriveSpendingKey(spendingPriv, secret *big.Int) *big.Int {
	p := new(big.Int).Add(spendingPriv, hashedSecretScalar(secret))
	return p.Mod(p, crypto.CurveOrder())
}

// AccountAddress computes the counterfactual account address for a stealth
// public key: the key doubles as the deployment salt and is the only
// constructor argument, so the address is a function of the key alone.
func AccountAddress(pubKey, classHash *big.Int) *big.Int {
	return crypto.ContractAddress(classHash, pubKey, []*big.Int{pubKey})
}

// CheckAnnouncement runs the recipient-side match pipeline for a single
// announcement: shared secret, view-tag gate, then full address
// reconstruction. A nil result means the announcement is not addressed to
// these keys; errors indicate malformed announcements, never a miss.
func CheckAnnouncement(ann *Announcement, viewingPriv, spendingPub, classHash *big.Int) (*WatchOnlyPayment, error) {
	if ann.StealthAddress == nil || ann.StealthAddress.Sign() == 0 ||
		ann.EphemeralPub == nil || ann.EphemeralPub.Sign() == 0 {
		return nil, ErrInvalidAnnouncement
	}

	ephPoint, err := crypto.RecoverPoint(ann.EphemeralPub)
	if err != nil {
		return nil, err
	}
	shared, err := crypto.MulPoint(viewingPriv, ephPoint)
	if err != nil {
		return nil, err
	}
	secret := shared.X

	if crypto.ViewTag(secret) != ann.ViewTag {
		return nil, nil
	}

	stealthPub, err := computeStealthPubKey(spendingPub, secret)
	if err != nil {
		return nil, err
	}

	// A view tag collides for ~1/256 of foreign announcements; the
	// reconstructed address is the authoritative check.
	if AccountAddress(stealthPub, classHash).Cmp(ann.StealthAddress) != 0 {
		return nil, nil
	}

	return &WatchOnlyPayment{
		Announcement:  *ann,
		SharedSecret:  secret,
		StealthPubKey: stealthPub,
	}, nil
}
