// Package codec implements the textual encodings the Amora protocol depends
// on for interoperability: felt hex values, meta-address and viewing-key
// strings, payment-link URIs, and the memo felt packing.
package codec

import (
	"errors"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// SchemeIDStark identifies the STARK-curve stealth scheme: the ASCII bytes
// "STARK" as an integer.
const SchemeIDStark = 0x535441524B

var (
	// ErrInvalidFormat is returned for malformed strings: wrong prefix,
	// wrong field count, invalid hex, bad URI shape, empty memo payloads.
	ErrInvalidFormat = errors.New("codec: invalid format")

	// ErrOutOfRange is returned when a wire value does not fit the felt
	// bound of 2^252.
	ErrOutOfRange = errors.New("codec: value out of felt range")
)

// feltBound is the exclusive upper bound for wire-level felt values.
var feltBound = new(big.Int).Lsh(big.NewInt(1), 252)

// knownChains are the chain tags accepted in meta-address and viewing-key
// strings.
var knownChains = map[string]bool{
	"starknet":         true,
	"starknet-sepolia": true,
	"starknet-devnet":  true,
}

// ParseFelt parses a 0x-prefixed hex felt. Leading zero digits are
// accepted; the integer value must be below 2^252.
func ParseFelt(s string) (*big.Int, error) {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return nil, ErrInvalidFormat
	}
	digits := s[2:]
	if digits == "" {
		return nil, ErrInvalidFormat
	}
	v, ok := new(big.Int).SetString(digits, 16)
	if !ok || v.Sign() < 0 {
		return nil, ErrInvalidFormat
	}
	if v.Cmp(feltBound) >= 0 {
		return nil, ErrOutOfRange
	}
	return v, nil
}

// EncodeFelt renders a felt in canonical 0x hex: lower case, no leading
// zero digits.
func EncodeFelt(v *big.Int) string {
	return hexutil.EncodeBig(v)
}

// CanonicalHex reduces a hex address string to its canonical form: lower
// case, leading zero digits stripped, 0x prefix. Two addresses are equal iff
// their canonical forms are equal.
func CanonicalHex(s string) (string, error) {
	v, err := ParseFelt(strings.ToLower(s))
	if err != nil {
		return "", err
	}
	return hexutil.EncodeBig(v), nil
}
