// pedersen.go implements the Pedersen chain hash and the deployment address
// formula for counterfactual stealth accounts. The hash maps each 252-bit
// input to curve points via a low-248-bit / high-bit split over two constant
// points per input, sums them onto a shift point, and outputs the
// x-coordinate. The shift and base points are the chain's published Pedersen
// constants; the deployer computes addresses with the same table, so the
// hash must match it bit for bit.
package crypto

import (
	"math/big"
	"sync"
)

// contractAddressPrefix is the ASCII tag "STARKNET_CONTRACT_ADDRESS" as a
// field element, the first input of the deployment address hash chain.
const contractAddressPrefix = "STARKNET_CONTRACT_ADDRESS"

var pedersenOnce sync.Once
var pedersenInstance *pedersenParams

// pedersenParams holds the shift point and the four hash base points.
type pedersenParams struct {
	field     *big.Int
	lowMask   *big.Int // 2^248 - 1
	addrBound *big.Int // 2^251 - 256
	shift     *Point
	bases     [4]*Point // a_low, a_high, b_low, b_high
}

// pedersenConstants are the published constant points of the chain's
// Pedersen hash: the shift point followed by the base points for the low
// 248 bits and high bits of each of the two inputs.
var pedersenConstants = [5][2]string{
	{
		"2089986280348253421170679821480865132823066470938446095505822317253594081284",
		"1713931329540660377023406109199410414810705867260802078187082345529207694986",
	},
	{
		"996781205833008774514500082376783249102396023663454813447423147977397232763",
		"1668503676786377725805489344771023921079126552019160156920634619255970485781",
	},
	{
		"2251563274489750535117886426533222435294046428347329203627021249169616184184",
		"1798716007562728905295480679789526322175868328062420237419143593021674992973",
	},
	{
		"2138414695194151160943305727036575959195309218611738193261179310511854807447",
		"113410276730064486255102093846540133784865286929052426931474106396135072156",
	},
	{
		"2379962749567351885752724891227938183011949129833673362440656643086021394946",
		"776496453633298175483985398648758586525933812536653089401905292063708816422",
	},
}

func initPedersen() {
	field := FieldPrime()

	lowMask := new(big.Int).Lsh(big.NewInt(1), 248)
	lowMask.Sub(lowMask, big.NewInt(1))

	addrBound := new(big.Int).Lsh(big.NewInt(1), 251)
	addrBound.Sub(addrBound, big.NewInt(256))

	points := make([]*Point, len(pedersenConstants))
	for i, c := range pedersenConstants {
		x, _ := new(big.Int).SetString(c[0], 10)
		y, _ := new(big.Int).SetString(c[1], 10)
		points[i] = &Point{X: x, Y: y}
	}

	pp := &pedersenParams{
		field:     field,
		lowMask:   lowMask,
		addrBound: addrBound,
		shift:     points[0],
	}
	copy(pp.bases[:], points[1:])
	pedersenInstance = pp
}

func pedersen() *pedersenParams {
	pedersenOnce.Do(initPedersen)
	return pedersenInstance
}

// PedersenHash computes the two-input Pedersen hash over the STARK curve.
// Inputs must be field elements; values are reduced mod p.
func PedersenHash(a, b *big.Int) *big.Int {
	pp := pedersen()
	c := stark()

	av := new(big.Int).Mod(a, pp.field)
	bv := new(big.Int).Mod(b, pp.field)

	accX := new(big.Int).Set(pp.shift.X)
	accY := new(big.Int).Set(pp.shift.Y)

	chunks := [4]*big.Int{
		new(big.Int).And(av, pp.lowMask),
		new(big.Int).Rsh(av, 248),
		new(big.Int).And(bv, pp.lowMask),
		new(big.Int).Rsh(bv, 248),
	}
	for i, chunk := range chunks {
		if chunk.Sign() == 0 {
			continue
		}
		px, py := c.scalarMult(pp.bases[i].X, pp.bases[i].Y, chunk)
		accX, accY = c.add(accX, accY, px, py)
	}

	return accX
}

// HashOnElements computes the chained Pedersen hash of a sequence:
// h(...h(h(0, e0), e1)..., len). The trailing length absorption makes the
// hash injective across sequence lengths.
func HashOnElements(elems []*big.Int) *big.Int {
	h := new(big.Int)
	for _, e := range elems {
		h = PedersenHash(h, e)
	}
	return PedersenHash(h, big.NewInt(int64(len(elems))))
}

// ContractAddress computes the deployment address of a counterfactual
// contract: the chained Pedersen hash of the address tag, the deployer
// (zero), the salt, the class hash, and the hash of the constructor
// calldata, reduced mod 2^251 - 256.
func ContractAddress(classHash, salt *big.Int, constructorCalldata []*big.Int) *big.Int {
	pp := pedersen()

	prefix := new(big.Int).SetBytes([]byte(contractAddressPrefix))
	addr := HashOnElements([]*big.Int{
		prefix,
		new(big.Int), // deployer, zero for counterfactual deployment
		salt,
		classHash,
		HashOnElements(constructorCalldata),
	})
	return addr.Mod(addr, pp.addrBound)
}
