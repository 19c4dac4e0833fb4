// withdraw.go drives spending from a detected stealth payment: deploy the
// one-time account if it does not exist yet, then transfer out. Calls are
// strictly sequential; each must complete before the next is issued.
package client

import (
	"context"
	"math/big"

	"github.com/holiman/uint256"

	"github.com/joaoolucas/amora-sdk/crypto"
	"github.com/joaoolucas/amora-sdk/log"
	"github.com/joaoolucas/amora-sdk/stealth"
)

// DeployAndWithdraw transfers token funds from the stealth account of a
// detected payment to destination. A nil amount withdraws the full balance.
// If the account is not deployed yet it is counterfactually deployed first,
// with the stealth public key as both salt and constructor argument.
func (c *Client) DeployAndWithdraw(ctx context.Context, p *stealth.StealthPayment, destination, token *big.Int, amount *uint256.Int) (*big.Int, error) {
	if c.chain == nil {
		return nil, ErrNoChainClient
	}
	if c.classHash == nil || c.classHash.Sign() == 0 {
		return nil, ErrNotImplemented
	}

	pub, err := crypto.DerivePub(p.StealthPrivateKey)
	if err != nil {
		return nil, err
	}
	addr := stealth.AccountAddress(pub, c.classHash)

	deployed, err := c.chain.IsDeployed(ctx, addr)
	if err != nil {
		return nil, chainErr("is_deployed", err)
	}
	if !deployed {
		deployTx, err := c.chain.DeployAccount(ctx, c.classHash, pub, []*big.Int{pub})
		if err != nil {
			return nil, chainErr("deploy_account", err)
		}
		c.log.Info("deployed stealth account", log.Felt("address", addr), log.Felt("tx", deployTx))
	}

	if amount == nil {
		amount, err = c.balanceOf(ctx, token, addr)
		if err != nil {
			return nil, err
		}
	}

	txHash, err := c.chain.Execute(ctx, addr, []Call{transferCall(token, destination, amount)})
	if err != nil {
		return nil, chainErr("withdraw", err)
	}
	c.log.Info("withdrew from stealth account",
		log.Felt("address", addr), "amount", amount.Dec(), log.Felt("tx", txHash))
	return txHash, nil
}

// balanceOf reads a token balance as a u256 from its low/high felt pair.
func (c *Client) balanceOf(ctx context.Context, token, owner *big.Int) (*uint256.Int, error) {
	res, err := c.chain.Call(ctx, balanceOfCall(token, owner))
	if err != nil {
		return nil, chainErr("balanceOf", err)
	}
	if len(res) < 2 {
		return nil, chainErr("balanceOf", errShortBalance)
	}
	return joinAmount(res[0], res[1]), nil
}
