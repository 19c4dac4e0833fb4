// poseidon.go implements the Poseidon sponge hash over the STARK prime
// field: state width 3 (rate 2, capacity 1), cube S-box, 8 full and 83
// partial rounds, Hades scheduling. The round constants are derived
// deterministically from a SHA3 counter stream so that every build of the
// library agrees on them without shipping a parameter file.
package crypto

import (
	"encoding/binary"
	"math/big"
	"sync"

	"golang.org/x/crypto/sha3"
)

const (
	poseidonWidth         = 3
	poseidonRate          = 2
	poseidonFullRounds    = 8
	poseidonPartialRounds = 83
)

var poseidonOnce sync.Once
var poseidonInstance *poseidonParams

// poseidonParams holds the permutation parameters over the STARK field.
type poseidonParams struct {
	field          *big.Int
	roundConstants [][]*big.Int // [round][state index]
	mds            [][]*big.Int // width x width
}

func initPoseidon() {
	field := FieldPrime()
	total := poseidonFullRounds + poseidonPartialRounds

	rcs := make([][]*big.Int, total)
	for r := 0; r < total; r++ {
		rcs[r] = make([]*big.Int, poseidonWidth)
		for i := 0; i < poseidonWidth; i++ {
			rcs[r][i] = deriveFieldElement("amora/poseidon/rc", uint64(r), uint64(i), field)
		}
	}

	// MDS matrix for the width-3 Hades permutation:
	//   [3  1  1]
	//   [1 -1  1]
	//   [1  1 -2]
	negOne := new(big.Int).Sub(field, big.NewInt(1))
	negTwo := new(big.Int).Sub(field, big.NewInt(2))
	mds := [][]*big.Int{
		{big.NewInt(3), big.NewInt(1), big.NewInt(1)},
		{big.NewInt(1), negOne, big.NewInt(1)},
		{big.NewInt(1), big.NewInt(1), negTwo},
	}

	poseidonInstance = &poseidonParams{
		field:          field,
		roundConstants: rcs,
		mds:            mds,
	}
}

func poseidon() *poseidonParams {
	poseidonOnce.Do(initPoseidon)
	return poseidonInstance
}

// deriveFieldElement maps a (tag, counter, index) triple to a field element
// via SHA3-256. The 256-bit digest is reduced mod the field prime; the bias
// from the reduction is negligible for parameter generation.
func deriveFieldElement(tag string, ctr, idx uint64, field *big.Int) *big.Int {
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], ctr)
	binary.BigEndian.PutUint64(buf[8:], idx)

	h := sha3.New256()
	h.Write([]byte(tag))
	h.Write(buf[:])
	digest := h.Sum(nil)

	v := new(big.Int).SetBytes(digest)
	return v.Mod(v, field)
}

// cube computes x^3 mod the field, the Poseidon S-box for the STARK field.
func (pp *poseidonParams) cube(x *big.Int) *big.Int {
	sq := new(big.Int).Mul(x, x)
	sq.Mod(sq, pp.field)
	sq.Mul(sq, x)
	sq.Mod(sq, pp.field)
	return sq
}

// mix multiplies the state vector by the MDS matrix.
func (pp *poseidonParams) mix(state []*big.Int) []*big.Int {
	out := make([]*big.Int, poseidonWidth)
	for i := 0; i < poseidonWidth; i++ {
		sum := new(big.Int)
		for j := 0; j < poseidonWidth; j++ {
			prod := new(big.Int).Mul(pp.mds[i][j], state[j])
			sum.Add(sum, prod)
		}
		sum.Mod(sum, pp.field)
		out[i] = sum
	}
	return out
}

// permute applies the Hades permutation: half the full rounds, then the
// partial rounds (S-box on the last state element only), then the remaining
// full rounds.
func (pp *poseidonParams) permute(state []*big.Int) []*big.Int {
	round := 0
	half := poseidonFullRounds / 2

	for r := 0; r < half; r++ {
		for i := 0; i < poseidonWidth; i++ {
			state[i].Add(state[i], pp.roundConstants[round][i])
			state[i].Mod(state[i], pp.field)
			state[i] = pp.cube(state[i])
		}
		state = pp.mix(state)
		round++
	}

	for r := 0; r < poseidonPartialRounds; r++ {
		for i := 0; i < poseidonWidth; i++ {
			state[i].Add(state[i], pp.roundConstants[round][i])
			state[i].Mod(state[i], pp.field)
		}
		state[poseidonWidth-1] = pp.cube(state[poseidonWidth-1])
		state = pp.mix(state)
		round++
	}

	for r := 0; r < half; r++ {
		for i := 0; i < poseidonWidth; i++ {
			state[i].Add(state[i], pp.roundConstants[round][i])
			state[i].Mod(state[i], pp.field)
			state[i] = pp.cube(state[i])
		}
		state = pp.mix(state)
		round++
	}

	return state
}

// PoseidonHash hashes a sequence of field elements into one field element.
// The input is padded with a single 1 followed by zeros up to a multiple of
// the rate, then absorbed two elements at a time. Inputs are reduced mod the
// field prime before absorption.
func PoseidonHash(inputs ...*big.Int) *big.Int {
	pp := poseidon()

	padded := make([]*big.Int, 0, len(inputs)+poseidonRate)
	for _, in := range inputs {
		v := new(big.Int).Mod(in, pp.field)
		padded = append(padded, v)
	}
	padded = append(padded, big.NewInt(1))
	for len(padded)%poseidonRate != 0 {
		padded = append(padded, new(big.Int))
	}

	state := make([]*big.Int, poseidonWidth)
	for i := range state {
		state[i] = new(big.Int)
	}

	for i := 0; i < len(padded); i += poseidonRate {
		for j := 0; j < poseidonRate; j++ {
			state[j].Add(state[j], padded[i+j])
			state[j].Mod(state[j], pp.field)
		}
		state = pp.permute(state)
	}

	return new(big.Int).Set(state[0])
}

// ViewTag computes the announcement view tag for a shared secret: the low
// byte of poseidon(secret). Scanners use it as a 1-in-256 pre-filter before
// paying for the full address reconstruction.
func ViewTag(secret *big.Int) byte {
	h := PoseidonHash(secret)
	return byte(new(big.Int).And(h, big.NewInt(0xff)).Uint64())
}
