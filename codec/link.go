// link.go implements the "amora://pay" payment-link URI: a meta-address
// plus optional token, amount, and memo fields.
package codec

import (
	"fmt"
	"math/big"
	"net/url"
	"strings"

	"github.com/holiman/uint256"

	"github.com/joaoolucas/amora-sdk/stealth"
)

const (
	linkScheme = "amora"
	linkHost   = "pay"
)

// PaymentLink is a parsed payment request. Token, Amount, and Memo are
// optional; a nil Token or Amount means the field was absent.
type PaymentLink struct {
	Meta   *stealth.MetaAddress
	Token  *big.Int
	Amount *uint256.Int
	Memo   string
}

// EncodePaymentLink renders a payment link as
// "amora://pay?meta=...[&token=...][&amount=...][&memo=...]".
func EncodePaymentLink(l *PaymentLink) (string, error) {
	meta, err := EncodeMetaAddress(l.Meta)
	if err != nil {
		return "", err
	}

	params := []string{"meta=" + url.QueryEscape(meta)}
	if l.Token != nil {
		params = append(params, "token="+url.QueryEscape(EncodeFelt(l.Token)))
	}
	if l.Amount != nil {
		params = append(params, "amount="+url.QueryEscape(l.Amount.Dec()))
	}
	if l.Memo != "" {
		params = append(params, "memo="+url.QueryEscape(l.Memo))
	}

	u := url.URL{Scheme: linkScheme, Host: linkHost, RawQuery: strings.Join(params, "&")}
	return u.String(), nil
}

// ParsePaymentLink parses a payment-link URI. The scheme, host, and meta
// parameter are required; everything else is optional.
func ParsePaymentLink(s string) (*PaymentLink, error) {
	u, err := url.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if u.Scheme != linkScheme || u.Host != linkHost {
		return nil, fmt.Errorf("%w: expected %s://%s", ErrInvalidFormat, linkScheme, linkHost)
	}
	q := u.Query()

	metaStr := q.Get("meta")
	if metaStr == "" {
		return nil, fmt.Errorf("%w: missing meta parameter", ErrInvalidFormat)
	}
	meta, err := ParseMetaAddress(metaStr)
	if err != nil {
		return nil, err
	}

	link := &PaymentLink{Meta: meta, Memo: q.Get("memo")}

	if tok := q.Get("token"); tok != "" {
		link.Token, err = ParseFelt(tok)
		if err != nil {
			return nil, err
		}
	}
	if amt := q.Get("amount"); amt != "" {
		link.Amount, err = uint256.FromDecimal(amt)
		if err != nil {
			return nil, fmt.Errorf("%w: bad amount: %v", ErrInvalidFormat, err)
		}
	}
	return link, nil
}
