// scanner.go runs the announcement scanning pipelines. Both variants are
// pure functions over a finite announcement sequence and preserve input
// order; the full scan additionally derives the one-time spending key for
// every match.
package stealth

import "math/big"

// Announcement is one on-chain payment announcement as parsed from the
// registry event stream. Metadata is opaque to the scanner; by convention it
// carries [token, amount_low, amount_high, memo...].
type Announcement struct {
	StealthAddress *big.Int
	Caller         *big.Int
	EphemeralPub   *big.Int
	ViewTag        byte
	Metadata       []*big.Int
	BlockNumber    uint64
	TxHash         *big.Int
}

// WatchOnlyPayment is a detected payment without spending capability.
type WatchOnlyPayment struct {
	Announcement  Announcement
	SharedSecret  *big.Int
	StealthPubKey *big.Int
}

// StealthPayment is a detected payment together with the derived one-time
// spending key.
type StealthPayment struct {
	Announcement      Announcement
	SharedSecret      *big.Int
	StealthPubKey     *big.Int
	StealthPrivateKey *big.Int
}

// ScanAnnouncements filters the announcements addressed to keys and derives
// the spending key for each match. Roughly 255 of 256 foreign announcements
// are rejected by the view tag after a single scalar multiplication; only
// tag hits pay for the address reconstruction.
func ScanAnnouncements(anns []Announcement, keys *StealthKeys, classHash *big.Int) ([]*StealthPayment, error) {
	var found []*StealthPayment
	for i := range anns {
		match, err := CheckAnnouncement(&anns[i], keys.Viewing.Private, keys.Spending.Public, classHash)
		if err != nil {
			return nil, err
		}
		if match == nil {
			continue
		}
		found = append(found, &StealthPayment{
			Announcement:      match.Announcement,
			SharedSecret:      match.SharedSecret,
			StealthPubKey:     match.StealthPubKey,
			StealthPrivateKey: DeriveSpendingKey(keys.Spending.Private, match.SharedSecret),
		})
	}
	return found, nil
}

// ScanWithViewingKey is the watch-only variant: the same pipeline driven by
// an exported viewing key, detecting payments without the ability to spend.
func ScanWithViewingKey(anns []Announcement, vk *ViewingKeyExport, classHash *big.Int) ([]*WatchOnlyPayment, error) {
	var found []*WatchOnlyPayment
	for i := range anns {
		match, err := CheckAnnouncement(&anns[i], vk.ViewingPrivateKey, vk.SpendingPubKey, classHash)
		if err != nil {
			return nil, err
		}
		if match != nil {
			found = append(found, match)
		}
	}
	return found, nil
}
