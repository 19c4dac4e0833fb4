package crypto

// Tests for the Poseidon sponge: determinism, input sensitivity, padding
// behavior, and the view tag.

import (
	"math/big"
	"testing"
)

func TestPoseidonDeterministic(t *testing.T) {
	a := PoseidonHash(big.NewInt(42))
	b := PoseidonHash(big.NewInt(42))
	if a.Cmp(b) != 0 {
		t.Error("same input hashed to different values")
	}
}

func TestPoseidonOutputInField(t *testing.T) {
	h := PoseidonHash(big.NewInt(1), big.NewInt(2), big.NewInt(3))
	if h.Sign() < 0 || h.Cmp(FieldPrime()) >= 0 {
		t.Error("hash output outside the field")
	}
}

func TestPoseidonInputSensitivity(t *testing.T) {
	base := PoseidonHash(big.NewInt(1), big.NewInt(2))
	cases := [][]*big.Int{
		{big.NewInt(1), big.NewInt(3)},
		{big.NewInt(2), big.NewInt(2)},
		{big.NewInt(2), big.NewInt(1)},
		{big.NewInt(1), big.NewInt(2), big.NewInt(0)},
		{big.NewInt(1)},
	}
	for i, in := range cases {
		if PoseidonHash(in...).Cmp(base) == 0 {
			t.Errorf("case %d collided with base input", i)
		}
	}
}

func TestPoseidonPaddingDistinguishesEmptyAndZero(t *testing.T) {
	empty := PoseidonHash()
	zero := PoseidonHash(new(big.Int))
	if empty.Cmp(zero) == 0 {
		t.Error("hash([]) == hash([0]); padding is broken")
	}
}

func TestPoseidonReducesLargeInputs(t *testing.T) {
	// An input >= p must hash identically to its reduction.
	big1 := new(big.Int).Add(FieldPrime(), big.NewInt(7))
	if PoseidonHash(big1).Cmp(PoseidonHash(big.NewInt(7))) != 0 {
		t.Error("input was not reduced mod p before absorption")
	}
}

func TestViewTagIsLowByte(t *testing.T) {
	for _, v := range []int64{0, 1, 255, 256, 123456789} {
		s := big.NewInt(v)
		h := PoseidonHash(s)
		want := byte(new(big.Int).And(h, big.NewInt(0xff)).Uint64())
		if got := ViewTag(s); got != want {
			t.Errorf("ViewTag(%d) = %d, want low byte %d", v, got, want)
		}
	}
}
