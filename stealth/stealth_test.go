package stealth

// Tests for key generation, stealth address derivation, announcement
// matching, and the scanning pipelines. Entropy is a deterministic
// counter-hash stream so every run derives the same keys.

import (
	"encoding/binary"
	"math/big"
	"testing"

	"golang.org/x/crypto/sha3"

	"github.com/joaoolucas/amora-sdk/crypto"
)

type ctrReader struct {
	seed []byte
	ctr  uint64
	buf  []byte
}

func newCtrReader(seed string) *ctrReader {
	return &ctrReader{seed: []byte(seed)}
}

func (r *ctrReader) Read(p []byte) (int, error) {
	for len(r.buf) < len(p) {
		var ctr [8]byte
		binary.BigEndian.PutUint64(ctr[:], r.ctr)
		r.ctr++
		h := sha3.New256()
		h.Write(r.seed)
		h.Write(ctr[:])
		r.buf = append(r.buf, h.Sum(nil)...)
	}
	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}

var testClassHash = big.NewInt(0x0123456789abcdef)

// announce turns a sender-side derivation into the event-shaped record a
// scanner consumes.
func announce(sa *StealthAddress, meta []*big.Int) Announcement {
	return Announcement{
		StealthAddress: sa.Address,
		Caller:         big.NewInt(0xca11e4),
		EphemeralPub:   sa.EphemeralPub,
		ViewTag:        sa.ViewTag,
		Metadata:       meta,
	}
}

// ---------------------------------------------------------------------------
// Keys
// ---------------------------------------------------------------------------

func TestGenerateKeysNormalized(t *testing.T) {
	keys, err := GenerateKeys(newCtrReader("keys"))
	if err != nil {
		t.Fatal(err)
	}
	for name, kp := range map[string]*KeyPair{"spending": keys.Spending, "viewing": keys.Viewing} {
		pt, err := crypto.MulBase(kp.Private)
		if err != nil {
			t.Fatal(err)
		}
		if pt.X.Cmp(kp.Public) != 0 {
			t.Errorf("%s: public key != x(priv*G)", name)
		}
		if pt.Y.Bit(0) != 0 {
			t.Errorf("%s: private key not parity-normalized", name)
		}
	}
	if keys.Spending.Private.Cmp(keys.Viewing.Private) == 0 {
		t.Error("spending and viewing keys share entropy")
	}
}

func TestNewKeyPairNormalizesOnImport(t *testing.T) {
	// Import a raw scalar whose public point has odd y; the pair must come
	// back normalized.
	raw := big.NewInt(1) // y(G) is odd on the STARK curve
	kp, err := NewKeyPair(raw)
	if err != nil {
		t.Fatal(err)
	}
	pt, err := crypto.MulBase(kp.Private)
	if err != nil {
		t.Fatal(err)
	}
	if pt.Y.Bit(0) != 0 {
		t.Error("imported key not normalized")
	}
	if pt.X.Cmp(kp.Public) != 0 {
		t.Error("public key mismatch after normalization")
	}
}

func TestNewKeyPairRejectsZero(t *testing.T) {
	if _, err := NewKeyPair(new(big.Int)); err == nil {
		t.Error("NewKeyPair(0) succeeded")
	}
}

// ---------------------------------------------------------------------------
// Stealth derivation round-trip
// ---------------------------------------------------------------------------

func TestStealthSharedSecretSymmetry(t *testing.T) {
	rnd := newCtrReader("secret")
	keys, err := GenerateKeys(rnd)
	if err != nil {
		t.Fatal(err)
	}

	r, err := crypto.RandomScalar(rnd)
	if err != nil {
		t.Fatal(err)
	}
	ephPub, err := crypto.DerivePub(r)
	if err != nil {
		t.Fatal(err)
	}

	// Sender: r * K_view.
	viewPoint, err := crypto.RecoverPoint(keys.Viewing.Public)
	if err != nil {
		t.Fatal(err)
	}
	sSender, err := crypto.MulPoint(r, viewPoint)
	if err != nil {
		t.Fatal(err)
	}

	// Recipient: k_view * R.
	ephPoint, err := crypto.RecoverPoint(ephPub)
	if err != nil {
		t.Fatal(err)
	}
	sRecipient, err := crypto.MulPoint(keys.Viewing.Private, ephPoint)
	if err != nil {
		t.Fatal(err)
	}

	if sSender.X.Cmp(sRecipient.X) != 0 {
		t.Error("sender and recipient derived different shared secrets")
	}
}

func TestSpendingKeyDerivesStealthPubKey(t *testing.T) {
	rnd := newCtrReader("roundtrip")
	keys, err := GenerateKeys(rnd)
	if err != nil {
		t.Fatal(err)
	}
	meta := keys.MetaAddress("starknet")

	sa, err := GenerateStealthAddress(rnd, meta, testClassHash)
	if err != nil {
		t.Fatal(err)
	}

	// Recipient recomputes the secret and the spending key.
	ephPoint, err := crypto.RecoverPoint(sa.EphemeralPub)
	if err != nil {
		t.Fatal(err)
	}
	shared, err := crypto.MulPoint(keys.Viewing.Private, ephPoint)
	if err != nil {
		t.Fatal(err)
	}
	priv := DeriveSpendingKey(keys.Spending.Private, shared.X)

	// x(p*G) must equal the stealth public key even when p*G has odd y.
	pub, err := crypto.DerivePub(priv)
	if err != nil {
		t.Fatal(err)
	}
	if pub.Cmp(sa.PubKey) != 0 {
		t.Error("derived spending key does not own the stealth public key")
	}
}

func TestGenerateStealthAddressUnlinkable(t *testing.T) {
	rnd := newCtrReader("unlink")
	keys, err := GenerateKeys(rnd)
	if err != nil {
		t.Fatal(err)
	}
	meta := keys.MetaAddress("starknet")

	sa1, err := GenerateStealthAddress(rnd, meta, testClassHash)
	if err != nil {
		t.Fatal(err)
	}
	sa2, err := GenerateStealthAddress(rnd, meta, testClassHash)
	if err != nil {
		t.Fatal(err)
	}
	if sa1.Address.Cmp(sa2.Address) == 0 {
		t.Error("two derivations produced the same stealth address")
	}
	if sa1.EphemeralPub.Cmp(sa2.EphemeralPub) == 0 {
		t.Error("two derivations reused the ephemeral key")
	}
}

// ---------------------------------------------------------------------------
// Announcement matching
// ---------------------------------------------------------------------------

func TestCheckAnnouncementMatch(t *testing.T) {
	rnd := newCtrReader("match")
	keys, err := GenerateKeys(rnd)
	if err != nil {
		t.Fatal(err)
	}
	sa, err := GenerateStealthAddress(rnd, keys.MetaAddress("starknet"), testClassHash)
	if err != nil {
		t.Fatal(err)
	}
	ann := announce(sa, nil)

	match, err := CheckAnnouncement(&ann, keys.Viewing.Private, keys.Spending.Public, testClassHash)
	if err != nil {
		t.Fatal(err)
	}
	if match == nil {
		t.Fatal("own announcement did not match")
	}
	if match.StealthPubKey.Cmp(sa.PubKey) != 0 {
		t.Error("reconstructed stealth pubkey mismatch")
	}
}

func TestCheckAnnouncementRejectsInvalid(t *testing.T) {
	rnd := newCtrReader("invalid")
	keys, err := GenerateKeys(rnd)
	if err != nil {
		t.Fatal(err)
	}

	zero := Announcement{StealthAddress: new(big.Int), EphemeralPub: big.NewInt(5)}
	if _, err := CheckAnnouncement(&zero, keys.Viewing.Private, keys.Spending.Public, testClassHash); err != ErrInvalidAnnouncement {
		t.Errorf("zero stealth address: error = %v, want ErrInvalidAnnouncement", err)
	}

	// An ephemeral x that is not on the curve is an error, not a miss.
	// Probe upward from a fixed start until RecoverPoint rejects one.
	notOnCurve := big.NewInt(2)
	for {
		if _, err := crypto.RecoverPoint(notOnCurve); err != nil {
			break
		}
		notOnCurve.Add(notOnCurve, big.NewInt(1))
	}
	bad := Announcement{StealthAddress: big.NewInt(1), EphemeralPub: notOnCurve, ViewTag: 0}
	if _, err := CheckAnnouncement(&bad, keys.Viewing.Private, keys.Spending.Public, testClassHash); err != crypto.ErrNotOnCurve {
		t.Errorf("off-curve ephemeral: error = %v, want ErrNotOnCurve", err)
	}
}

// ---------------------------------------------------------------------------
// Scanning pipelines
// ---------------------------------------------------------------------------

func TestScanFindsOnlyOwnPayments(t *testing.T) {
	rnd := newCtrReader("scan")
	keysA, err := GenerateKeys(rnd)
	if err != nil {
		t.Fatal(err)
	}
	keysB, err := GenerateKeys(rnd)
	if err != nil {
		t.Fatal(err)
	}
	keysC, err := GenerateKeys(rnd)
	if err != nil {
		t.Fatal(err)
	}

	var anns []Announcement
	for _, keys := range []*StealthKeys{keysA, keysB, keysC} {
		meta := keys.MetaAddress("starknet")
		for i := 0; i < 5; i++ {
			sa, err := GenerateStealthAddress(rnd, meta, testClassHash)
			if err != nil {
				t.Fatal(err)
			}
			anns = append(anns, announce(sa, nil))
		}
	}

	found, err := ScanAnnouncements(anns, keysA, testClassHash)
	if err != nil {
		t.Fatal(err)
	}
	if len(found) != 5 {
		t.Fatalf("scan found %d payments, want 5", len(found))
	}
	for _, p := range found {
		pub, err := crypto.DerivePub(p.StealthPrivateKey)
		if err != nil {
			t.Fatal(err)
		}
		if pub.Cmp(p.StealthPubKey) != 0 {
			t.Error("spending key does not match stealth pubkey")
		}
		if AccountAddress(p.StealthPubKey, testClassHash).Cmp(p.Announcement.StealthAddress) != 0 {
			t.Error("reconstructed address does not match announcement")
		}
	}

	// The first five announcements belong to A; order must be preserved.
	for i, p := range found {
		if p.Announcement.StealthAddress.Cmp(anns[i].StealthAddress) != 0 {
			t.Error("scan results out of input order")
			break
		}
	}
}

func TestScanWrongRecipientFindsNothing(t *testing.T) {
	rnd := newCtrReader("wrong")
	keysA, err := GenerateKeys(rnd)
	if err != nil {
		t.Fatal(err)
	}
	keysB, err := GenerateKeys(rnd)
	if err != nil {
		t.Fatal(err)
	}

	var anns []Announcement
	for i := 0; i < 8; i++ {
		sa, err := GenerateStealthAddress(rnd, keysB.MetaAddress("starknet"), testClassHash)
		if err != nil {
			t.Fatal(err)
		}
		anns = append(anns, announce(sa, nil))
	}

	found, err := ScanAnnouncements(anns, keysA, testClassHash)
	if err != nil {
		t.Fatal(err)
	}
	if len(found) != 0 {
		t.Errorf("scan with wrong keys found %d payments", len(found))
	}
}

func TestWatchOnlyScanMatchesFullScan(t *testing.T) {
	rnd := newCtrReader("watch")
	keys, err := GenerateKeys(rnd)
	if err != nil {
		t.Fatal(err)
	}
	other, err := GenerateKeys(rnd)
	if err != nil {
		t.Fatal(err)
	}

	var anns []Announcement
	for i := 0; i < 6; i++ {
		target := keys
		if i%2 == 1 {
			target = other
		}
		sa, err := GenerateStealthAddress(rnd, target.MetaAddress("starknet"), testClassHash)
		if err != nil {
			t.Fatal(err)
		}
		anns = append(anns, announce(sa, nil))
	}

	full, err := ScanAnnouncements(anns, keys, testClassHash)
	if err != nil {
		t.Fatal(err)
	}
	watch, err := ScanWithViewingKey(anns, keys.ViewingKey("starknet"), testClassHash)
	if err != nil {
		t.Fatal(err)
	}

	if len(full) != len(watch) {
		t.Fatalf("full scan found %d, watch-only found %d", len(full), len(watch))
	}
	for i := range full {
		if full[i].StealthPubKey.Cmp(watch[i].StealthPubKey) != 0 {
			t.Error("watch-only match set diverges from full scan")
		}
		if full[i].SharedSecret.Cmp(watch[i].SharedSecret) != 0 {
			t.Error("watch-only shared secret diverges from full scan")
		}
	}
}

// ---------------------------------------------------------------------------
// View tag effectiveness
// ---------------------------------------------------------------------------

func TestViewTagFilterRate(t *testing.T) {
	n := 10000
	if testing.Short() {
		n = 1000
	}

	rnd := newCtrReader("tagrate")
	keysA, err := GenerateKeys(rnd)
	if err != nil {
		t.Fatal(err)
	}

	// Foreign announcements: fresh ephemeral keys, uniformly cycling view
	// tags, and addresses that are not derived from A's keys. Building them
	// without the full sender pipeline keeps the 10k-iteration run cheap.
	anns := make([]Announcement, 0, n)
	for i := 0; i < n; i++ {
		ephPub, err := crypto.DerivePub(big.NewInt(int64(i) + 2))
		if err != nil {
			t.Fatal(err)
		}
		anns = append(anns, Announcement{
			StealthAddress: big.NewInt(int64(i) + 1),
			EphemeralPub:   ephPub,
			ViewTag:        byte(i),
		})
	}

	// Count raw tag hits against A's viewing key.
	hits := 0
	for i := range anns {
		ephPoint, err := crypto.RecoverPoint(anns[i].EphemeralPub)
		if err != nil {
			t.Fatal(err)
		}
		shared, err := crypto.MulPoint(keysA.Viewing.Private, ephPoint)
		if err != nil {
			t.Fatal(err)
		}
		if crypto.ViewTag(shared.X) == anns[i].ViewTag {
			hits++
		}
	}

	// Expected rate 1/256; allow a wide band so the test is not flaky.
	lo, hi := float64(n)/256*0.5, float64(n)/256*1.5
	if f := float64(hits); f < lo || f > hi {
		t.Errorf("view tag hit count %d outside [%.1f, %.1f]", hits, lo, hi)
	}

	// Every tag collision must still fail the address check.
	found, err := ScanAnnouncements(anns, keysA, testClassHash)
	if err != nil {
		t.Fatal(err)
	}
	if len(found) != 0 {
		t.Errorf("%d false matches slipped past the address check", len(found))
	}
}
