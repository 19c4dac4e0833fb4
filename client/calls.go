// calls.go builds the typed call records for every on-chain operation the
// client drives: registry reads and writes, token transfers, and balance
// views. u256 arguments follow the chain's two-felt low/high convention.
package client

import (
	"math/big"

	"github.com/holiman/uint256"

	"github.com/joaoolucas/amora-sdk/stealth"
)

// u128Mask isolates the low 128 bits of an amount.
var u128Mask = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

// splitAmount splits a u256 amount into its low and high 128-bit felts.
func splitAmount(amount *uint256.Int) (low, high *big.Int) {
	v := amount.ToBig()
	low = new(big.Int).And(v, u128Mask)
	high = new(big.Int).Rsh(v, 128)
	return low, high
}

// joinAmount reassembles a u256 amount from its low and high felts.
func joinAmount(low, high *big.Int) *uint256.Int {
	v := new(big.Int).Lsh(high, 128)
	v.Add(v, low)
	out, _ := uint256.FromBig(v)
	return out
}

// registerKeysCall builds the registry call publishing a meta-address.
func registerKeysCall(registry *big.Int, keys *stealth.StealthKeys) Call {
	return Call{
		To:     registry,
		Method: "register_keys",
		Calldata: []*big.Int{
			new(big.Int).Set(keys.Spending.Public),
			new(big.Int).Set(keys.Viewing.Public),
		},
	}
}

// getMetaAddressCall builds the registry lookup for a registrant.
func getMetaAddressCall(registry, registrant *big.Int) Call {
	return Call{
		To:       registry,
		Method:   "get_meta_address",
		Calldata: []*big.Int{registrant},
	}
}

// isRegisteredCall builds the registry membership check.
func isRegisteredCall(registry, registrant *big.Int) Call {
	return Call{
		To:       registry,
		Method:   "is_registered",
		Calldata: []*big.Int{registrant},
	}
}

// transferCall builds an ERC-20 transfer of a u256 amount.
func transferCall(token, recipient *big.Int, amount *uint256.Int) Call {
	low, high := splitAmount(amount)
	return Call{
		To:       token,
		Method:   "transfer",
		Calldata: []*big.Int{recipient, low, high},
	}
}

// balanceOfCall builds the token balance view.
func balanceOfCall(token, owner *big.Int) Call {
	return Call{
		To:       token,
		Method:   "balanceOf",
		Calldata: []*big.Int{owner},
	}
}

// announceCall builds the registry announcement. Metadata is length-prefixed
// in the calldata per the chain's array convention.
func announceCall(registry *big.Int, sa *stealth.StealthAddress, metadata []*big.Int) Call {
	calldata := make([]*big.Int, 0, 4+len(metadata))
	calldata = append(calldata,
		sa.Address,
		sa.EphemeralPub,
		big.NewInt(int64(sa.ViewTag)),
		big.NewInt(int64(len(metadata))),
	)
	calldata = append(calldata, metadata...)
	return Call{To: registry, Method: "announce", Calldata: calldata}
}

// sendMetadata assembles the announcement metadata prefix
// [token, amount_low, amount_high] followed by any extra felts.
func sendMetadata(token *big.Int, amount *uint256.Int, extra []*big.Int) []*big.Int {
	low, high := splitAmount(amount)
	metadata := make([]*big.Int, 0, 3+len(extra))
	metadata = append(metadata, token, low, high)
	metadata = append(metadata, extra...)
	return metadata
}
