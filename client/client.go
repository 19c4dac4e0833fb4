// client.go implements the orchestrating client: registry registration and
// lookup, stealth address generation, payment call building, and batch
// sends.
package client

import (
	"context"
	"crypto/rand"
	"io"
	"math/big"

	"github.com/holiman/uint256"

	"github.com/joaoolucas/amora-sdk/codec"
	"github.com/joaoolucas/amora-sdk/log"
	"github.com/joaoolucas/amora-sdk/stealth"
)

// Config enumerates everything the client needs. Chain, RegistryAddress,
// and AccountClassHash come from the deployment; Rand and Log default to
// the platform CSPRNG and the package default logger.
type Config struct {
	Chain            ChainClient
	RegistryAddress  *big.Int
	AccountClassHash *big.Int

	// ChainTag is the tag used in encoded meta-addresses. Defaults to
	// "starknet".
	ChainTag string

	// Rand is the entropy source for ephemeral keys. Defaults to the
	// platform CSPRNG.
	Rand io.Reader

	// Log overrides the default logger.
	Log *log.Logger
}

// Client drives the stealth protocol against a chain backend.
type Client struct {
	chain     ChainClient
	registry  *big.Int
	classHash *big.Int
	chainTag  string
	rand      io.Reader
	log       *log.Logger
}

// New creates a client from the given configuration.
func New(cfg Config) *Client {
	rnd := cfg.Rand
	if rnd == nil {
		rnd = rand.Reader
	}
	logger := cfg.Log
	if logger == nil {
		logger = log.Default()
	}
	tag := cfg.ChainTag
	if tag == "" {
		tag = "starknet"
	}
	return &Client{
		chain:     cfg.Chain,
		registry:  cfg.RegistryAddress,
		classHash: cfg.AccountClassHash,
		chainTag:  tag,
		rand:      rnd,
		log:       logger.Scope("client"),
	}
}

// Register publishes the meta-address of the given keys through the
// registry, submitted from account.
func (c *Client) Register(ctx context.Context, account *big.Int, keys *stealth.StealthKeys) (*big.Int, error) {
	if c.chain == nil {
		return nil, ErrNoChainClient
	}
	txHash, err := c.chain.Execute(ctx, account, []Call{registerKeysCall(c.registry, keys)})
	if err != nil {
		return nil, chainErr("register", err)
	}
	c.log.Info("registered meta-address", log.Felt("account", account), log.Felt("tx", txHash))
	return txHash, nil
}

// MetaAddress fetches a registrant's published meta-address. A nil result
// with nil error means the registrant has not registered.
func (c *Client) MetaAddress(ctx context.Context, registrant *big.Int) (*stealth.MetaAddress, error) {
	if c.chain == nil {
		return nil, ErrNoChainClient
	}
	res, err := c.chain.Call(ctx, getMetaAddressCall(c.registry, registrant))
	if err != nil {
		return nil, chainErr("get_meta_address", err)
	}
	if len(res) < 2 || res[0].Sign() == 0 || res[1].Sign() == 0 {
		return nil, nil
	}
	return &stealth.MetaAddress{
		Chain:          c.chainTag,
		SpendingPubKey: res[0],
		ViewingPubKey:  res[1],
	}, nil
}

// IsRegistered reports whether the registrant has published a meta-address.
func (c *Client) IsRegistered(ctx context.Context, registrant *big.Int) (bool, error) {
	if c.chain == nil {
		return false, ErrNoChainClient
	}
	res, err := c.chain.Call(ctx, isRegisteredCall(c.registry, registrant))
	if err != nil {
		return false, chainErr("is_registered", err)
	}
	return len(res) > 0 && res[0].Sign() != 0, nil
}

// GenerateStealthAddress derives a fresh one-time address for the
// meta-address. Pure; no chain interaction.
func (c *Client) GenerateStealthAddress(meta *stealth.MetaAddress) (*stealth.StealthAddress, error) {
	return stealth.GenerateStealthAddress(c.rand, meta, c.classHash)
}

// BuildSendCalls produces the two calls of one stealth payment: the token
// transfer to the one-time address and the registry announcement. The
// announcement metadata is [token, amount_low, amount_high, extra...].
func (c *Client) BuildSendCalls(token *big.Int, amount *uint256.Int, sa *stealth.StealthAddress, extra []*big.Int) []Call {
	return []Call{
		transferCall(token, sa.Address, amount),
		announceCall(c.registry, sa, sendMetadata(token, amount, extra)),
	}
}

// Payment describes one outgoing stealth payment in a batch.
type Payment struct {
	Meta   *stealth.MetaAddress
	Token  *big.Int
	Amount *uint256.Int
	Extra  []*big.Int
}

// Send derives a stealth address for a single payment and submits its
// transfer and announcement as one transaction.
func (c *Client) Send(ctx context.Context, account *big.Int, p Payment) (*stealth.StealthAddress, *big.Int, error) {
	if c.chain == nil {
		return nil, nil, ErrNoChainClient
	}
	sa, err := c.GenerateStealthAddress(p.Meta)
	if err != nil {
		return nil, nil, err
	}
	txHash, err := c.chain.Execute(ctx, account, c.BuildSendCalls(p.Token, p.Amount, sa, p.Extra))
	if err != nil {
		return nil, nil, chainErr("send", err)
	}
	c.log.Info("sent stealth payment", log.Felt("stealth", sa.Address), log.Felt("tx", txHash))
	return sa, txHash, nil
}

// BatchSend derives a stealth address per payment and submits all transfer
// and announcement calls as a single multicall, preserving payment order.
func (c *Client) BatchSend(ctx context.Context, account *big.Int, payments []Payment) ([]*stealth.StealthAddress, *big.Int, error) {
	if c.chain == nil {
		return nil, nil, ErrNoChainClient
	}
	addrs := make([]*stealth.StealthAddress, 0, len(payments))
	calls := make([]Call, 0, 2*len(payments))
	for _, p := range payments {
		sa, err := c.GenerateStealthAddress(p.Meta)
		if err != nil {
			return nil, nil, err
		}
		addrs = append(addrs, sa)
		calls = append(calls, c.BuildSendCalls(p.Token, p.Amount, sa, p.Extra)...)
	}
	txHash, err := c.chain.Execute(ctx, account, calls)
	if err != nil {
		return nil, nil, chainErr("batch_send", err)
	}
	c.log.Info("sent stealth batch", "payments", len(payments), log.Felt("tx", txHash))
	return addrs, txHash, nil
}

// PaymentRequestLink encodes a payment request against the meta-address as
// an "amora://pay" URI.
func (c *Client) PaymentRequestLink(meta *stealth.MetaAddress, token *big.Int, amount *uint256.Int, memo string) (string, error) {
	return codec.EncodePaymentLink(&codec.PaymentLink{
		Meta:   meta,
		Token:  token,
		Amount: amount,
		Memo:   memo,
	})
}
