// Package client binds the Amora stealth protocol core to a chain backend.
// It stays a thin orchestrator: all I/O goes through the injected
// ChainClient, all cryptography through the crypto and stealth packages.
//
// chain.go defines the neutral call/event records and the abstract chain
// backend the client consumes.
package client

import (
	"context"
	"errors"
	"fmt"
	"math/big"
)

var (
	// ErrNoChainClient is returned when an I/O method is used on a client
	// configured without a backend.
	ErrNoChainClient = errors.New("client: no chain client configured")

	// ErrNotImplemented is returned by the withdrawal path when no account
	// class hash is configured.
	ErrNotImplemented = errors.New("client: account class hash not configured")

	// errShortBalance is returned when a balance view yields fewer than the
	// two felts of a u256.
	errShortBalance = errors.New("short balanceOf result")
)

// Call is a neutral invocation record: target contract, entry point name,
// and felt calldata. The chain client maps the entry point name to its
// selector.
type Call struct {
	To       *big.Int
	Method   string
	Calldata []*big.Int
}

// Event is one emitted event record as returned by the chain client, in
// block order.
type Event struct {
	FromAddress *big.Int
	Keys        []*big.Int
	Data        []*big.Int
	BlockNumber uint64
	TxHash      *big.Int
}

// ChainClient abstracts the chain backend. Implementations own transports,
// retries, and signing; the client issues sequential calls and never holds
// state across them.
type ChainClient interface {
	// Call executes a read-only contract call and returns the result felts.
	Call(ctx context.Context, call Call) ([]*big.Int, error)

	// GetEvents returns the events emitted by the given contract in the
	// inclusive block range, preserving block and intra-block order.
	GetEvents(ctx context.Context, address *big.Int, fromBlock, toBlock uint64) ([]Event, error)

	// Execute submits a multicall from the given account and returns the
	// transaction hash.
	Execute(ctx context.Context, account *big.Int, calls []Call) (*big.Int, error)

	// IsDeployed reports whether a contract exists at the address.
	IsDeployed(ctx context.Context, address *big.Int) (bool, error)

	// DeployAccount counterfactually deploys an account contract and
	// returns the transaction hash.
	DeployAccount(ctx context.Context, classHash, salt *big.Int, constructorCalldata []*big.Int) (*big.Int, error)
}

// ChainError wraps a failure from the chain client with the operation that
// produced it.
type ChainError struct {
	Op  string
	Err error
}

func (e *ChainError) Error() string {
	return fmt.Sprintf("client: %s: %v", e.Op, e.Err)
}

func (e *ChainError) Unwrap() error {
	return e.Err
}

func chainErr(op string, err error) error {
	return &ChainError{Op: op, Err: err}
}
