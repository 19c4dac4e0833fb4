// events.go fetches announcement events from the registry and parses them
// into scanner inputs. Malformed events are skipped and logged, never fatal
// to the batch.
package client

import (
	"context"
	"math/big"

	"github.com/holiman/uint256"

	"github.com/joaoolucas/amora-sdk/stealth"
)

// eventWindow bounds the block span of a single GetEvents request; larger
// ranges are paged sequentially so result order follows block order.
const eventWindow = 5000

// announcementDataMinLen is the minimum number of data felts of a parseable
// announcement event: stealth address, caller, ephemeral pub, view tag.
const announcementDataMinLen = 4

// FetchAnnouncements pages through the registry's announcement events in
// the inclusive block range and parses them. Events that do not parse are
// skipped.
func (c *Client) FetchAnnouncements(ctx context.Context, fromBlock, toBlock uint64) ([]stealth.Announcement, error) {
	if c.chain == nil {
		return nil, ErrNoChainClient
	}

	var anns []stealth.Announcement
	for start := fromBlock; start <= toBlock; {
		end := start + eventWindow - 1
		if end > toBlock || end < start {
			end = toBlock
		}
		events, err := c.chain.GetEvents(ctx, c.registry, start, end)
		if err != nil {
			return nil, chainErr("get_events", err)
		}
		for i := range events {
			ann, ok := parseAnnouncement(&events[i])
			if !ok {
				c.log.Warn("skipping malformed announcement event",
					"block", events[i].BlockNumber, "fields", len(events[i].Data))
				continue
			}
			anns = append(anns, ann)
		}
		if end == toBlock {
			break
		}
		start = end + 1
	}
	return anns, nil
}

// parseAnnouncement decodes one event data record:
// [stealth_address, caller, ephemeral_pub, view_tag, metadata_len, metadata...].
// A metadata length running past the record is truncated at the data end.
func parseAnnouncement(ev *Event) (stealth.Announcement, bool) {
	if len(ev.Data) < announcementDataMinLen {
		return stealth.Announcement{}, false
	}
	tag := ev.Data[3]
	if !tag.IsUint64() || tag.Uint64() > 0xff {
		return stealth.Announcement{}, false
	}

	var metadata []*big.Int
	if len(ev.Data) > announcementDataMinLen {
		declared := ev.Data[4]
		n := len(ev.Data) - 5
		if declared.IsInt64() && int(declared.Int64()) < n {
			n = int(declared.Int64())
		}
		if n > 0 {
			metadata = ev.Data[5 : 5+n]
		}
	}

	return stealth.Announcement{
		StealthAddress: ev.Data[0],
		Caller:         ev.Data[1],
		EphemeralPub:   ev.Data[2],
		ViewTag:        byte(tag.Uint64()),
		Metadata:       metadata,
		BlockNumber:    ev.BlockNumber,
		TxHash:         ev.TxHash,
	}, true
}

// Scan fetches the block range and runs the full scanning pipeline for the
// given keys, preserving announcement order.
func (c *Client) Scan(ctx context.Context, keys *stealth.StealthKeys, fromBlock, toBlock uint64) ([]*stealth.StealthPayment, error) {
	anns, err := c.FetchAnnouncements(ctx, fromBlock, toBlock)
	if err != nil {
		return nil, err
	}
	found, err := stealth.ScanAnnouncements(anns, keys, c.classHash)
	if err != nil {
		return nil, err
	}
	c.log.Info("scan complete", "from", fromBlock, "to", toBlock,
		"announcements", len(anns), "matches", len(found))
	return found, nil
}

// ScanWatchOnly is the viewing-key-only variant of Scan.
func (c *Client) ScanWatchOnly(ctx context.Context, vk *stealth.ViewingKeyExport, fromBlock, toBlock uint64) ([]*stealth.WatchOnlyPayment, error) {
	anns, err := c.FetchAnnouncements(ctx, fromBlock, toBlock)
	if err != nil {
		return nil, err
	}
	return stealth.ScanWithViewingKey(anns, vk, c.classHash)
}

// SumReceived totals the amounts of detected payments for one token from
// the conventional [token, amount_low, amount_high, ...] metadata prefix.
// Payments with foreign tokens or short metadata are ignored.
func SumReceived(payments []*stealth.StealthPayment, token *big.Int) *uint256.Int {
	total := uint256.NewInt(0)
	for _, p := range payments {
		md := p.Announcement.Metadata
		if len(md) < 3 || md[0].Cmp(token) != 0 {
			continue
		}
		total.Add(total, joinAmount(md[1], md[2]))
	}
	return total
}
