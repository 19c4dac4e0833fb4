// Package crypto implements the cryptographic core of the Amora stealth
// address protocol: arithmetic on the STARK curve, the Poseidon sponge hash
// over the STARK prime field, and the Pedersen chain hash used for contract
// address computation.
//
// starkcurve.go implements the STARK curve y^2 = x^3 + x + b over the field
// of prime order p = 2^251 + 17*2^192 + 1. Public keys are transmitted as
// x-coordinates only; the even-y root is the canonical one, and private keys
// are normalized so that k*G has an even y-coordinate.
package crypto

import (
	"crypto/rand"
	"errors"
	"io"
	"math/big"
	"sync"
)

var (
	// ErrNotOnCurve is returned when an x-coordinate has no matching point
	// on the curve (x^3 + a*x + b is not a quadratic residue).
	ErrNotOnCurve = errors.New("crypto: x-coordinate is not on the stark curve")

	// ErrZeroPoint is returned when an operation produces or receives the
	// point at infinity.
	ErrZeroPoint = errors.New("crypto: point at infinity")

	// ErrScalarRange is returned when a scalar is outside [1, N-1].
	ErrScalarRange = errors.New("crypto: scalar out of range")
)

var curveOnce sync.Once
var curveInstance *starkCurve

// starkCurve holds the STARK curve parameters: y^2 = x^3 + a*x + b mod p.
type starkCurve struct {
	p, n   *big.Int // field prime, base point order
	a, b   *big.Int // curve coefficients (a = 1)
	gx, gy *big.Int // base point
}

func initStarkCurve() {
	p, _ := new(big.Int).SetString("3618502788666131213697322783095070105623107215331596699973092056135872020481", 10)
	n, _ := new(big.Int).SetString("3618502788666131213697322783095070105526743751716087489154079457884512865583", 10)
	b, _ := new(big.Int).SetString("3141592653589793238462643383279502884197169399375105820974944592307816406665", 10)
	gx, _ := new(big.Int).SetString("874739451078007766457464989774322083649278607533249481151382481072868806602", 10)
	gy, _ := new(big.Int).SetString("152666792071518830868575557812948353041420400780739481342941381225525861407", 10)

	curveInstance = &starkCurve{
		p:  p,
		n:  n,
		a:  big.NewInt(1),
		b:  b,
		gx: gx,
		gy: gy,
	}
}

func stark() *starkCurve {
	curveOnce.Do(initStarkCurve)
	return curveInstance
}

// FieldPrime returns the STARK field prime p = 2^251 + 17*2^192 + 1.
func FieldPrime() *big.Int {
	return new(big.Int).Set(stark().p)
}

// CurveOrder returns the order N of the curve base point.
func CurveOrder() *big.Int {
	return new(big.Int).Set(stark().n)
}

// Generator returns the standard STARK curve base point G.
func Generator() *Point {
	c := stark()
	return &Point{X: new(big.Int).Set(c.gx), Y: new(big.Int).Set(c.gy)}
}

// Point is an affine point on the STARK curve. The point at infinity is
// represented as (0, 0).
type Point struct {
	X, Y *big.Int
}

// IsInfinity reports whether the point is the group identity.
func (pt *Point) IsInfinity() bool {
	return pt.X.Sign() == 0 && pt.Y.Sign() == 0
}

// isOnCurve checks y^2 == x^3 + a*x + b (mod p). The point at infinity is
// considered on the curve.
func (c *starkCurve) isOnCurve(x, y *big.Int) bool {
	if x.Sign() == 0 && y.Sign() == 0 {
		return true
	}
	if x.Sign() < 0 || y.Sign() < 0 || x.Cmp(c.p) >= 0 || y.Cmp(c.p) >= 0 {
		return false
	}

	// y^2 mod p
	left := new(big.Int).Mul(y, y)
	left.Mod(left, c.p)

	// x^3 + a*x + b mod p
	right := new(big.Int).Mul(x, x)
	right.Mod(right, c.p)
	right.Mul(right, x)
	right.Mod(right, c.p)
	ax := new(big.Int).Mul(c.a, x)
	right.Add(right, ax)
	right.Add(right, c.b)
	right.Mod(right, c.p)

	return left.Cmp(right) == 0
}

// add returns the sum of two affine points.
func (c *starkCurve) add(x1, y1, x2, y2 *big.Int) (*big.Int, *big.Int) {
	if x1.Sign() == 0 && y1.Sign() == 0 {
		return new(big.Int).Set(x2), new(big.Int).Set(y2)
	}
	if x2.Sign() == 0 && y2.Sign() == 0 {
		return new(big.Int).Set(x1), new(big.Int).Set(y1)
	}

	if x1.Cmp(x2) == 0 && y1.Cmp(y2) == 0 {
		return c.double(x1, y1)
	}

	// P + (-P) = infinity.
	if x1.Cmp(x2) == 0 {
		return new(big.Int), new(big.Int)
	}

	// slope = (y2 - y1) / (x2 - x1) mod p
	dy := new(big.Int).Sub(y2, y1)
	dy.Mod(dy, c.p)
	dx := new(big.Int).Sub(x2, x1)
	dx.Mod(dx, c.p)
	dxInv := new(big.Int).ModInverse(dx, c.p)
	if dxInv == nil {
		return new(big.Int), new(big.Int)
	}
	slope := new(big.Int).Mul(dy, dxInv)
	slope.Mod(slope, c.p)

	// x3 = slope^2 - x1 - x2 mod p
	x3 := new(big.Int).Mul(slope, slope)
	x3.Sub(x3, x1)
	x3.Sub(x3, x2)
	x3.Mod(x3, c.p)

	// y3 = slope*(x1 - x3) - y1 mod p
	y3 := new(big.Int).Sub(x1, x3)
	y3.Mul(y3, slope)
	y3.Sub(y3, y1)
	y3.Mod(y3, c.p)

	return x3, y3
}

// double returns 2*(x, y).
func (c *starkCurve) double(x1, y1 *big.Int) (*big.Int, *big.Int) {
	if y1.Sign() == 0 {
		return new(big.Int), new(big.Int)
	}

	// slope = (3*x1^2 + a) / (2*y1) mod p
	x1sq := new(big.Int).Mul(x1, x1)
	x1sq.Mod(x1sq, c.p)
	num := new(big.Int).Mul(big.NewInt(3), x1sq)
	num.Add(num, c.a)
	num.Mod(num, c.p)

	den := new(big.Int).Lsh(y1, 1)
	den.Mod(den, c.p)
	denInv := new(big.Int).ModInverse(den, c.p)
	if denInv == nil {
		return new(big.Int), new(big.Int)
	}
	slope := new(big.Int).Mul(num, denInv)
	slope.Mod(slope, c.p)

	// x3 = slope^2 - 2*x1 mod p
	x3 := new(big.Int).Mul(slope, slope)
	x3.Sub(x3, x1)
	x3.Sub(x3, x1)
	x3.Mod(x3, c.p)

	// y3 = slope*(x1 - x3) - y1 mod p
	y3 := new(big.Int).Sub(x1, x3)
	y3.Mul(y3, slope)
	y3.Sub(y3, y1)
	y3.Mod(y3, c.p)

	return x3, y3
}

// scalarMult returns k*(x, y) using double-and-add.
func (c *starkCurve) scalarMult(x, y, k *big.Int) (*big.Int, *big.Int) {
	rx, ry := new(big.Int), new(big.Int)
	for i := k.BitLen() - 1; i >= 0; i-- {
		rx, ry = c.double(rx, ry)
		if k.Bit(i) == 1 {
			rx, ry = c.add(rx, ry, x, y)
		}
	}
	return rx, ry
}

// checkScalar validates that k is in [1, N-1].
func (c *starkCurve) checkScalar(k *big.Int) error {
	if k == nil || k.Sign() <= 0 || k.Cmp(c.n) >= 0 {
		return ErrScalarRange
	}
	return nil
}

// MulBase computes k*G.
func MulBase(k *big.Int) (*Point, error) {
	c := stark()
	if err := c.checkScalar(k); err != nil {
		return nil, err
	}
	x, y := c.scalarMult(c.gx, c.gy, k)
	if x.Sign() == 0 && y.Sign() == 0 {
		return nil, ErrZeroPoint
	}
	return &Point{X: x, Y: y}, nil
}

// MulPoint computes k*P for an arbitrary curve point P.
func MulPoint(k *big.Int, pt *Point) (*Point, error) {
	c := stark()
	if err := c.checkScalar(k); err != nil {
		return nil, err
	}
	if pt == nil || pt.IsInfinity() {
		return nil, ErrZeroPoint
	}
	if !c.isOnCurve(pt.X, pt.Y) {
		return nil, ErrNotOnCurve
	}
	x, y := c.scalarMult(pt.X, pt.Y, k)
	if x.Sign() == 0 && y.Sign() == 0 {
		return nil, ErrZeroPoint
	}
	return &Point{X: x, Y: y}, nil
}

// AddPoints computes P + Q.
func AddPoints(p, q *Point) (*Point, error) {
	c := stark()
	if p == nil || q == nil {
		return nil, ErrZeroPoint
	}
	if !c.isOnCurve(p.X, p.Y) || !c.isOnCurve(q.X, q.Y) {
		return nil, ErrNotOnCurve
	}
	x, y := c.add(p.X, p.Y, q.X, q.Y)
	if x.Sign() == 0 && y.Sign() == 0 {
		return nil, ErrZeroPoint
	}
	return &Point{X: x, Y: y}, nil
}

// RecoverPoint reconstructs the canonical curve point for a public-key
// x-coordinate. Of the two roots of y^2 = x^3 + a*x + b, the even one is
// selected; both sides of the protocol rely on agreeing on this choice.
func RecoverPoint(x *big.Int) (*Point, error) {
	c := stark()
	if x == nil || x.Sign() <= 0 || x.Cmp(c.p) >= 0 {
		return nil, ErrNotOnCurve
	}

	// y^2 = x^3 + a*x + b mod p
	ysq := new(big.Int).Mul(x, x)
	ysq.Mod(ysq, c.p)
	ysq.Mul(ysq, x)
	ysq.Mod(ysq, c.p)
	ax := new(big.Int).Mul(c.a, x)
	ysq.Add(ysq, ax)
	ysq.Add(ysq, c.b)
	ysq.Mod(ysq, c.p)

	y := new(big.Int).ModSqrt(ysq, c.p)
	if y == nil {
		return nil, ErrNotOnCurve
	}
	if y.Bit(0) == 1 {
		y.Sub(c.p, y)
	}
	return &Point{X: x, Y: y}, nil
}

// DerivePub returns the x-coordinate of k*G, the wire form of a public key.
func DerivePub(k *big.Int) (*big.Int, error) {
	pt, err := MulBase(k)
	if err != nil {
		return nil, err
	}
	return pt.X, nil
}

// NormalizeParity maps k to the equivalent scalar whose public point has an
// even y-coordinate: if y(k*G) is odd the result is N-k, otherwise k. The
// operation is idempotent, and every private key handled by this library is
// kept in normalized form so that x-only public keys round-trip through
// RecoverPoint.
func NormalizeParity(k *big.Int) (*big.Int, error) {
	c := stark()
	if err := c.checkScalar(k); err != nil {
		return nil, err
	}
	pt, err := MulBase(k)
	if err != nil {
		return nil, err
	}
	if pt.Y.Bit(0) == 1 {
		return new(big.Int).Sub(c.n, k), nil
	}
	return new(big.Int).Set(k), nil
}

// RandomScalar samples a uniform scalar in [1, N-1] from the given entropy
// source and normalizes its parity. A nil reader falls back to the platform
// CSPRNG.
func RandomScalar(rnd io.Reader) (*big.Int, error) {
	c := stark()
	if rnd == nil {
		rnd = rand.Reader
	}
	max := new(big.Int).Sub(c.n, big.NewInt(1))
	k, err := rand.Int(rnd, max)
	if err != nil {
		return nil, err
	}
	k.Add(k, big.NewInt(1))
	return NormalizeParity(k)
}
