// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package simulator replays existing transactions on top of the remote state
// of their parent block.
package simulator

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github.com/vechain/forkstate/cache"
	"github.com/vechain/forkstate/log"
	"github.com/vechain/forkstate/nodedb"
	"github.com/vechain/forkstate/remote"
	"github.com/vechain/forkstate/state"
	"github.com/vechain/forkstate/unverified"
	"github.com/vechain/forkstate/verified"
)

// Fetcher is the part of the remote client the simulator depends on.
type Fetcher interface {
	verified.Fetcher
	unverified.Fetcher
	TransactionByHash(ctx context.Context, hash common.Hash) (*remote.Transaction, error)
	BlockByRef(ctx context.Context, ref remote.BlockRef) (*remote.Block, error)
	UncleHeaders(ctx context.Context, blockHash common.Hash, count int) ([]*types.Header, error)
}

// Env is everything an executor needs to run a transaction.
type Env struct {
	Header *types.Header
	Uncles []*types.Header
	Tx     *types.Transaction
	From   common.Address
	State  state.Store

	SkipBalance      bool
	SkipNonce        bool
	ReportAccessList bool
}

// Result is the outcome of executing a transaction. Err reports a reverted
// or failed execution, as opposed to a failure to execute.
type Result struct {
	GasUsed    uint64
	ReturnData []byte
	Err        error
	AccessList types.AccessList
	Logs       []*types.Log
}

// Executor runs a transaction against a state.
type Executor interface {
	ExecuteTx(ctx context.Context, env *Env) (*Result, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, env *Env) (*Result, error)

// ExecuteTx implements Executor.
func (f ExecutorFunc) ExecuteTx(ctx context.Context, env *Env) (*Result, error) {
	return f(ctx, env)
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithUnverified makes the simulator trust the remote node instead of verifying proofs.
func WithUnverified() Option {
	return func(s *Simulator) { s.unverified = true }
}

// WithLogger sets the logger, which defaults to discarding.
func WithLogger(l log.Logger) Option {
	return func(s *Simulator) { s.logger = l }
}

// WithArena makes verified stores share the given node arena.
func WithArena(a *nodedb.Arena) Option {
	return func(s *Simulator) { s.arena = a }
}

// Simulator replays transactions.
type Simulator struct {
	fetcher    Fetcher
	executor   Executor
	unverified bool
	logger     log.Logger
	arena      *nodedb.Arena
	codes      *cache.LRU[common.Hash, []byte]
}

const codeCacheSize = 4096

// New creates a simulator.
func New(fetcher Fetcher, executor Executor, opts ...Option) *Simulator {
	s := &Simulator{
		fetcher:  fetcher,
		executor: executor,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = log.OrDiscard(s.logger).New("pkg", "simulator")
	if s.arena == nil {
		s.arena = nodedb.New()
	}
	// one code cache for the stores of every block
	s.codes, _ = cache.NewLRU[common.Hash, []byte]("simulator_code", codeCacheSize)
	return s
}

// Prepare fetches the transaction and its block, and builds the environment
// to replay it: a store pinned to the parent block, the header and uncles of
// the block.
func (s *Simulator) Prepare(ctx context.Context, txHash common.Hash) (*Env, error) {
	rtx, err := s.fetcher.TransactionByHash(ctx, txHash)
	if err != nil {
		return nil, err
	}
	if rtx.BlockNumber == nil {
		return nil, state.NewInvalidArgumentError("transaction %v is pending", txHash)
	}
	if *rtx.BlockNumber == 0 {
		return nil, state.NewInvalidArgumentError("transaction %v is in the genesis block", txHash)
	}

	ref := remote.NumberRef(*rtx.BlockNumber)
	if rtx.BlockHash != nil {
		ref = remote.HashRef(*rtx.BlockHash)
	}
	blk, err := s.fetcher.BlockByRef(ctx, ref)
	if err != nil {
		return nil, err
	}
	uncles, err := s.fetcher.UncleHeaders(ctx, blk.Hash, len(blk.Uncles))
	if err != nil {
		return nil, err
	}

	from := rtx.From
	sender, err := types.Sender(types.LatestSignerForChainID(rtx.Tx.ChainId()), rtx.Tx)
	if err != nil {
		return nil, state.NewRemoteError("eth_getTransactionByHash",
			errors.Wrapf(err, "recover sender of %v", txHash))
	}
	if sender != from {
		return nil, state.NewRemoteError("eth_getTransactionByHash",
			errors.Errorf("sender %v does not match the signature of %v", from, sender))
	}

	parent := remote.HashRef(blk.Header.ParentHash)
	st, err := s.newStore(ctx, parent, from, rtx.Tx, blk.Header.Coinbase)
	if err != nil {
		return nil, err
	}
	return &Env{
		Header:           blk.Header,
		Uncles:           uncles,
		Tx:               rtx.Tx,
		From:             from,
		State:            st,
		SkipBalance:      true,
		SkipNonce:        true,
		ReportAccessList: true,
	}, nil
}

func (s *Simulator) newStore(ctx context.Context, ref remote.BlockRef, from common.Address, tx *types.Transaction, coinbase common.Address) (state.Store, error) {
	if s.unverified {
		return unverified.New(s.fetcher, ref, unverified.WithLogger(s.logger)), nil
	}
	st := verified.New(s.fetcher, ref, verified.WithLogger(s.logger), verified.WithArena(s.arena), verified.WithCodeCache(s.codes))

	reqs := []verified.Request{{Address: from}, {Address: coinbase}}
	if to := tx.To(); to != nil {
		reqs = append(reqs, verified.Request{Address: *to})
	}
	for _, tuple := range tx.AccessList() {
		keys := make([][]byte, len(tuple.StorageKeys))
		for i, k := range tuple.StorageKeys {
			keys[i] = k.Bytes()
		}
		reqs = append(reqs, verified.Request{Address: tuple.Address, Keys: keys})
	}
	if err := st.Prefetch(ctx, reqs...); err != nil {
		return nil, err
	}
	return st, nil
}

// SimulateExistingTx replays an already mined transaction on the state of
// its parent block.
func (s *Simulator) SimulateExistingTx(ctx context.Context, txHash common.Hash) (*Result, error) {
	start := time.Now()
	env, err := s.Prepare(ctx, txHash)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("prepared", "tx", txHash, "block", env.Header.Number, "elapsed", time.Since(start))

	res, err := s.executor.ExecuteTx(ctx, env)
	if err != nil {
		return nil, err
	}
	s.logger.Info("simulated", "tx", txHash, "gas", res.GasUsed, "failed", res.Err != nil, "elapsed", time.Since(start))
	return res, nil
}
