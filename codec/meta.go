// meta.go encodes and parses the two key-material strings a recipient
// shares: the public meta-address ("st:...") and the watch-only viewing key
// export ("vk:...").
package codec

import (
	"fmt"
	"strings"

	"github.com/joaoolucas/amora-sdk/stealth"
)

const (
	metaAddressPrefix = "st"
	viewingKeyPrefix  = "vk"
)

// EncodeMetaAddress renders a meta-address as
// "st:<chain>:<spending_pub>:<viewing_pub>".
func EncodeMetaAddress(m *stealth.MetaAddress) (string, error) {
	if !knownChains[m.Chain] {
		return "", fmt.Errorf("%w: unknown chain %q", ErrInvalidFormat, m.Chain)
	}
	return strings.Join([]string{
		metaAddressPrefix,
		m.Chain,
		EncodeFelt(m.SpendingPubKey),
		EncodeFelt(m.ViewingPubKey),
	}, ":"), nil
}

// ParseMetaAddress parses a "st:<chain>:<hex>:<hex>" string. The chain tag
// must be known and both felts must be below 2^252.
func ParseMetaAddress(s string) (*stealth.MetaAddress, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 4 {
		return nil, fmt.Errorf("%w: expected 4 colon-separated parts, got %d", ErrInvalidFormat, len(parts))
	}
	if parts[0] != metaAddressPrefix {
		return nil, fmt.Errorf("%w: expected %q prefix", ErrInvalidFormat, metaAddressPrefix)
	}
	if !knownChains[parts[1]] {
		return nil, fmt.Errorf("%w: unknown chain %q", ErrInvalidFormat, parts[1])
	}
	spending, err := ParseFelt(parts[2])
	if err != nil {
		return nil, err
	}
	viewing, err := ParseFelt(parts[3])
	if err != nil {
		return nil, err
	}
	return &stealth.MetaAddress{
		Chain:          parts[1],
		SpendingPubKey: spending,
		ViewingPubKey:  viewing,
	}, nil
}

// EncodeViewingKey renders a watch-only export as
// "vk:<chain>:<viewing_priv>:<spending_pub>".
func EncodeViewingKey(v *stealth.ViewingKeyExport) (string, error) {
	if !knownChains[v.Chain] {
		return "", fmt.Errorf("%w: unknown chain %q", ErrInvalidFormat, v.Chain)
	}
	return strings.Join([]string{
		viewingKeyPrefix,
		v.Chain,
		EncodeFelt(v.ViewingPrivateKey),
		EncodeFelt(v.SpendingPubKey),
	}, ":"), nil
}

// ParseViewingKey parses a "vk:<chain>:<hex>:<hex>" string. Both values
// must be strictly positive.
func ParseViewingKey(s string) (*stealth.ViewingKeyExport, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 4 {
		return nil, fmt.Errorf("%w: expected 4 colon-separated parts, got %d", ErrInvalidFormat, len(parts))
	}
	if parts[0] != viewingKeyPrefix {
		return nil, fmt.Errorf("%w: expected %q prefix", ErrInvalidFormat, viewingKeyPrefix)
	}
	if !knownChains[parts[1]] {
		return nil, fmt.Errorf("%w: unknown chain %q", ErrInvalidFormat, parts[1])
	}
	priv, err := ParseFelt(parts[2])
	if err != nil {
		return nil, err
	}
	pub, err := ParseFelt(parts[3])
	if err != nil {
		return nil, err
	}
	if priv.Sign() == 0 || pub.Sign() == 0 {
		return nil, fmt.Errorf("%w: viewing key values must be nonzero", ErrInvalidFormat)
	}
	return &stealth.ViewingKeyExport{
		Chain:             parts[1],
		ViewingPrivateKey: priv,
		SpendingPubKey:    pub,
	}, nil
}
