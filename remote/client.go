// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package remote fetches state from an archive node over json-rpc.
//
// The client neither caches nor retries. Every failure is returned as a
// state.RemoteError keeping the original cause.
package remote

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/vechain/forkstate/log"
	"github.com/vechain/forkstate/state"
)

// Client is a json-rpc client of an archive node. It is safe for concurrent use.
type Client struct {
	rpc    *rpc.Client
	logger log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger, which defaults to discarding.
func WithLogger(l log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// Dial connects to the node at url, over http, websocket or ipc.
func Dial(ctx context.Context, url string, opts ...Option) (*Client, error) {
	rc, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, state.NewRemoteError("dial", err)
	}
	return New(rc, opts...), nil
}

// New wraps an established rpc client.
func New(rc *rpc.Client, opts ...Option) *Client {
	c := &Client{rpc: rc}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = log.OrDiscard(c.logger).New("pkg", "remote")
	return c
}

// Close closes the underlying connection.
func (c *Client) Close() {
	c.rpc.Close()
}

func (c *Client) observe(method string, start time.Time, err error) {
	elapsed := time.Since(start)
	status := "ok"
	if err != nil {
		status = "error"
	}
	metricCallCount().AddWithLabel(1, map[string]string{"method": method, "status": status})
	metricCallDuration().ObserveWithLabels(elapsed.Milliseconds(), map[string]string{"method": method})
	c.logger.Trace("rpc call", "method", method, "elapsed", elapsed, "err", err)
}

func (c *Client) call(ctx context.Context, result any, method string, args ...any) error {
	start := time.Now()
	err := c.rpc.CallContext(ctx, result, method, args...)
	c.observe(method, start, err)
	if err != nil {
		return state.NewRemoteError(method, err)
	}
	return nil
}

func (c *Client) batch(ctx context.Context, elems []rpc.BatchElem) error {
	start := time.Now()
	err := c.rpc.BatchCallContext(ctx, elems)
	c.observe("batch", start, err)
	if err != nil {
		return state.NewRemoteError("batch", err)
	}
	for _, e := range elems {
		if e.Error != nil {
			return state.NewRemoteError(e.Method, e.Error)
		}
	}
	return nil
}

// GetAccountData fetches nonce, balance and code in a single batch.
func (c *Client) GetAccountData(ctx context.Context, addr common.Address, ref BlockRef) (*AccountData, error) {
	var (
		nonce   hexutil.Uint64
		balance hexutil.Big
		code    hexutil.Bytes
		block   = ref.String()
	)
	if err := c.batch(ctx, []rpc.BatchElem{
		{Method: "eth_getTransactionCount", Args: []any{addr, block}, Result: &nonce},
		{Method: "eth_getBalance", Args: []any{addr, block}, Result: &balance},
		{Method: "eth_getCode", Args: []any{addr, block}, Result: &code},
	}); err != nil {
		return nil, err
	}
	bal, overflow := uint256.FromBig((*big.Int)(&balance))
	if overflow {
		return nil, state.NewRemoteError("eth_getBalance", errors.Errorf("balance overflows 256 bits: %v", balance.String()))
	}
	return &AccountData{
		Nonce:    uint64(nonce),
		Balance:  bal,
		Code:     code,
		CodeHash: crypto.Keccak256Hash(code),
	}, nil
}

// GetProof fetches the proof of an account and the given slots.
func (c *Client) GetProof(ctx context.Context, addr common.Address, slots [][]byte, ref BlockRef) (*AccountResult, error) {
	keys := make([]string, 0, len(slots))
	for _, slot := range slots {
		if err := state.ValidateStorageKey(slot); err != nil {
			return nil, err
		}
		keys = append(keys, hexutil.Encode(slot))
	}
	var res *AccountResult
	if err := c.call(ctx, &res, "eth_getProof", addr, keys, ref.String()); err != nil {
		return nil, err
	}
	if res == nil {
		return nil, state.NewRemoteError("eth_getProof", ethereum.NotFound)
	}
	metricProofNodes().Observe(int64(len(res.AccountProof)))
	return res, nil
}

// GetStorageAt fetches the raw 32 byte value of a slot.
func (c *Client) GetStorageAt(ctx context.Context, addr common.Address, slot []byte, ref BlockRef) ([]byte, error) {
	if err := state.ValidateStorageKey(slot); err != nil {
		return nil, err
	}
	var res hexutil.Bytes
	if err := c.call(ctx, &res, "eth_getStorageAt", addr, hexutil.Encode(slot), ref.String()); err != nil {
		return nil, err
	}
	return common.LeftPadBytes(res, common.HashLength), nil
}

// GetCode fetches the code of an account.
func (c *Client) GetCode(ctx context.Context, addr common.Address, ref BlockRef) ([]byte, error) {
	var res hexutil.Bytes
	if err := c.call(ctx, &res, "eth_getCode", addr, ref.String()); err != nil {
		return nil, err
	}
	return res, nil
}

// GetBalance fetches the balance of an account.
func (c *Client) GetBalance(ctx context.Context, addr common.Address, ref BlockRef) (*uint256.Int, error) {
	var res hexutil.Big
	if err := c.call(ctx, &res, "eth_getBalance", addr, ref.String()); err != nil {
		return nil, err
	}
	bal, overflow := uint256.FromBig((*big.Int)(&res))
	if overflow {
		return nil, state.NewRemoteError("eth_getBalance", errors.Errorf("balance overflows 256 bits: %v", res.String()))
	}
	return bal, nil
}

// GetNonce fetches the nonce of an account.
func (c *Client) GetNonce(ctx context.Context, addr common.Address, ref BlockRef) (uint64, error) {
	var res hexutil.Uint64
	if err := c.call(ctx, &res, "eth_getTransactionCount", addr, ref.String()); err != nil {
		return 0, err
	}
	return uint64(res), nil
}

// BlockByRef fetches a block, with transaction hashes only.
func (c *Client) BlockByRef(ctx context.Context, ref BlockRef) (*Block, error) {
	var (
		blk    *Block
		method = "eth_getBlockByNumber"
	)
	if ref.IsHash() {
		method = "eth_getBlockByHash"
	}
	if err := c.call(ctx, &blk, method, ref.String(), false); err != nil {
		return nil, err
	}
	if blk == nil {
		return nil, state.NewRemoteError(method, ethereum.NotFound)
	}
	return blk, nil
}

// HeaderByRef fetches a block header.
func (c *Client) HeaderByRef(ctx context.Context, ref BlockRef) (*types.Header, error) {
	blk, err := c.BlockByRef(ctx, ref)
	if err != nil {
		return nil, err
	}
	return blk.Header, nil
}

// UncleHeaders fetches the first count uncles of the given block in one batch.
func (c *Client) UncleHeaders(ctx context.Context, blockHash common.Hash, count int) ([]*types.Header, error) {
	if count == 0 {
		return nil, nil
	}
	const method = "eth_getUncleByBlockHashAndIndex"
	uncles := make([]*types.Header, count)
	elems := make([]rpc.BatchElem, count)
	for i := range elems {
		elems[i] = rpc.BatchElem{
			Method: method,
			Args:   []any{blockHash, hexutil.Uint(i)},
			Result: &uncles[i],
		}
	}
	if err := c.batch(ctx, elems); err != nil {
		return nil, err
	}
	for _, u := range uncles {
		if u == nil {
			return nil, state.NewRemoteError(method, ethereum.NotFound)
		}
	}
	return uncles, nil
}

// TransactionByHash fetches a transaction and the block containing it.
func (c *Client) TransactionByHash(ctx context.Context, hash common.Hash) (*Transaction, error) {
	var tx *Transaction
	if err := c.call(ctx, &tx, "eth_getTransactionByHash", hash); err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, state.NewRemoteError("eth_getTransactionByHash", ethereum.NotFound)
	}
	return tx, nil
}
