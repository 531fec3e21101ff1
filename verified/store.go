// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package verified implements a state store that trusts nothing from the
// remote node but proofs which hash-link to the state root of its block.
//
// Verified proof nodes and locally written nodes live in one arena; the
// store itself only holds a root into it. Checkpoints are saved roots and a
// copy is a new root holder over the same arena.
package verified

import (
	"context"
	"maps"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/vechain/forkstate/cache"
	"github.com/vechain/forkstate/log"
	"github.com/vechain/forkstate/nodedb"
	"github.com/vechain/forkstate/remote"
	"github.com/vechain/forkstate/state"
)

const (
	defaultConcurrency   = 8
	defaultCodeCacheSize = 1024
)

// Fetcher is the part of the remote client the store depends on.
type Fetcher interface {
	GetProof(ctx context.Context, addr common.Address, slots [][]byte, ref remote.BlockRef) (*remote.AccountResult, error)
	GetCode(ctx context.Context, addr common.Address, ref remote.BlockRef) ([]byte, error)
	HeaderByRef(ctx context.Context, ref remote.BlockRef) (*types.Header, error)
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger, which defaults to discarding.
func WithLogger(l log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithArena makes the store share an existing node arena.
func WithArena(a *nodedb.Arena) Option {
	return func(s *Store) { s.arena = a }
}

// WithCodeCache makes the store share a cache of code by code hash.
func WithCodeCache(c *cache.LRU[common.Hash, []byte]) Option {
	return func(s *Store) { s.codeCache = c }
}

// WithConcurrency bounds the number of proofs fetched in parallel by Prefetch.
func WithConcurrency(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// Store is a proof verified state.Store. It serves one writer at a time.
type Store struct {
	fetcher     Fetcher
	ref         remote.BlockRef
	logger      log.Logger
	arena       *nodedb.Arena
	codeCache   *cache.LRU[common.Hash, []byte]
	concurrency int

	anchor *types.Header
	// zero until the anchor is resolved
	root   common.Hash
	roots  []common.Hash
	codes  map[common.Hash][]byte
	ledger *ledger
}

var _ state.Store = (*Store)(nil)

// New creates a store reading the state of the block ref refers to.
// Nothing is fetched until first use.
func New(fetcher Fetcher, ref remote.BlockRef, opts ...Option) *Store {
	s := &Store{
		fetcher:     fetcher,
		ref:         ref,
		concurrency: defaultConcurrency,
		codes:       make(map[common.Hash][]byte),
		ledger:      newLedger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.arena == nil {
		s.arena = nodedb.New()
	}
	if s.codeCache == nil {
		s.codeCache, _ = cache.NewLRU[common.Hash, []byte]("code", defaultCodeCacheSize)
	}
	s.logger = log.OrDiscard(s.logger).New("pkg", "verified")
	return s
}

// ensureAnchor resolves the block header on first use and pins the block
// reference to its number, so that a tag does not drift between calls.
func (s *Store) ensureAnchor(ctx context.Context) error {
	if s.anchor == nil {
		header, err := s.fetcher.HeaderByRef(ctx, s.ref)
		if err != nil {
			return err
		}
		s.anchor = header
		s.arena.AddStateRoot(header.Root)
		if !s.ref.IsHash() {
			s.ref = remote.NumberRef(header.Number.Uint64())
		}
		s.logger.Debug("anchored", "block", s.ref, "root", header.Root)
	}
	if s.root == (common.Hash{}) {
		s.root = s.anchor.Root
	}
	return nil
}

// Anchor returns the header of the block the store reads from.
func (s *Store) Anchor(ctx context.Context) (*types.Header, error) {
	if err := s.ensureAnchor(ctx); err != nil {
		return nil, err
	}
	return s.anchor, nil
}

// BlockRef returns the block reference, pinned to a number once anchored.
func (s *Store) BlockRef() remote.BlockRef {
	return s.ref
}

// Arena returns the node arena of the store.
func (s *Store) Arena() *nodedb.Arena {
	return s.arena
}

// SetBlockRef switches the store to another block, dropping every local
// change, open checkpoint and cached fetch. The arena is kept.
func (s *Store) SetBlockRef(ref remote.BlockRef) {
	s.ref = ref
	s.anchor = nil
	s.ClearCache()
}

// ClearCache drops every local change, open checkpoint and cached fetch,
// keeping the block.
func (s *Store) ClearCache() {
	s.root = common.Hash{}
	s.roots = nil
	s.codes = make(map[common.Hash][]byte)
	s.ledger = newLedger()
}

// GetStateRoot returns the root of the local state.
func (s *Store) GetStateRoot(ctx context.Context) (common.Hash, error) {
	if err := s.ensureAnchor(ctx); err != nil {
		return common.Hash{}, err
	}
	return s.root, nil
}

// SetStateRoot moves the store to a state root produced by a store sharing
// the arena, or back to the root of its block. Hashes of other trie nodes
// are rejected.
func (s *Store) SetStateRoot(ctx context.Context, root common.Hash) error {
	if err := s.ensureAnchor(ctx); err != nil {
		return err
	}
	if root != s.anchor.Root && !s.arena.IsStateRoot(root) {
		return state.NewInvalidArgumentError("state root %v is not available", root)
	}
	s.root = root
	return nil
}

// HasStateRoot reports whether root is a known account trie root whose
// root node is locally available. It never fetches.
func (s *Store) HasStateRoot(root common.Hash) bool {
	return s.arena.IsStateRoot(root) && s.arena.Has(root)
}

// Checkpoint saves the current root.
func (s *Store) Checkpoint() {
	s.roots = append(s.roots, s.root)
	s.logger.Trace("checkpoint", "depth", len(s.roots))
}

// Commit keeps the changes made since the last checkpoint and discards it.
func (s *Store) Commit() {
	if len(s.roots) == 0 {
		panic("verified: commit without checkpoint")
	}
	s.roots = s.roots[:len(s.roots)-1]
	s.logger.Trace("commit", "depth", len(s.roots))
}

// Revert restores the root saved by the last checkpoint and discards it.
func (s *Store) Revert() {
	if len(s.roots) == 0 {
		panic("verified: revert without checkpoint")
	}
	s.root = s.roots[len(s.roots)-1]
	s.roots = s.roots[:len(s.roots)-1]
	s.logger.Trace("revert", "depth", len(s.roots))
}

// Copy returns an isolated store over the same arena.
func (s *Store) Copy() state.Store {
	return &Store{
		fetcher:     s.fetcher,
		ref:         s.ref,
		logger:      s.logger,
		arena:       s.arena,
		codeCache:   s.codeCache,
		concurrency: s.concurrency,
		anchor:      s.anchor,
		root:        s.root,
		roots:       append([]common.Hash(nil), s.roots...),
		codes:       maps.Clone(s.codes),
		ledger:      s.ledger.copy(),
	}
}

func hashAddr(addr common.Address) []byte {
	return crypto.Keccak256(addr[:])
}
