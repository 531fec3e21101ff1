// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package unverified implements a state store that trusts the remote node.
//
// Remote values are kept in a flat cache shared by copies. Local writes go
// to a stacked map on top of it, which provides checkpoints. No state root is
// computed, so the store reports the root of its block.
package unverified

import (
	"context"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/vechain/forkstate/cache"
	"github.com/vechain/forkstate/log"
	"github.com/vechain/forkstate/remote"
	"github.com/vechain/forkstate/stackedmap"
	"github.com/vechain/forkstate/state"
)

// Fetcher is the part of the remote client the store depends on.
type Fetcher interface {
	GetAccountData(ctx context.Context, addr common.Address, ref remote.BlockRef) (*remote.AccountData, error)
	GetStorageAt(ctx context.Context, addr common.Address, slot []byte, ref remote.BlockRef) ([]byte, error)
	GetCode(ctx context.Context, addr common.Address, ref remote.BlockRef) ([]byte, error)
	HeaderByRef(ctx context.Context, ref remote.BlockRef) (*types.Header, error)
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger, which defaults to discarding.
func WithLogger(l log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Store is a state.Store caching whatever the remote node serves.
type Store struct {
	fetcher Fetcher
	ref     remote.BlockRef
	logger  log.Logger
	anchor  *types.Header
	flat    *cache.Flat
	journal *stackedmap.StackedMap[string, []byte]
}

var _ state.Store = (*Store)(nil)

// New creates a store reading the state of the block ref refers to.
func New(fetcher Fetcher, ref remote.BlockRef, opts ...Option) *Store {
	s := &Store{
		fetcher: fetcher,
		ref:     ref,
		flat:    cache.NewFlat("remote"),
		journal: newJournal(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = log.OrDiscard(s.logger).New("pkg", "unverified")
	return s
}

func newJournal() *stackedmap.StackedMap[string, []byte] {
	return stackedmap.New[string, []byte](noSource)
}

func noSource(string) ([]byte, bool, error) {
	return nil, false, nil
}

func accountKey(addr common.Address) string {
	return addr.Hex() + ":account"
}

func codeKey(hash common.Hash) string {
	return "codehash:" + hash.Hex()
}

func storagePrefix(addr common.Address) string {
	return addr.Hex() + ":storage:"
}

func storageKey(addr common.Address, key []byte) string {
	return storagePrefix(addr) + hexutil.Encode(key)
}

// localStoragePrefix tells apart local writes made before and after a storage clear.
func localStoragePrefix(addr common.Address, gen uint64) string {
	return fmt.Sprintf("%s:storage:%d:", addr.Hex(), gen)
}

func localStorageKey(addr common.Address, gen uint64, key []byte) string {
	return localStoragePrefix(addr, gen) + hexutil.Encode(key)
}

func generationKey(addr common.Address) string {
	return addr.Hex() + ":generation"
}

func (s *Store) ensureAnchor(ctx context.Context) error {
	if s.anchor != nil {
		return nil
	}
	header, err := s.fetcher.HeaderByRef(ctx, s.ref)
	if err != nil {
		return err
	}
	s.anchor = header
	if !s.ref.IsHash() {
		s.ref = remote.NumberRef(header.Number.Uint64())
	}
	s.logger.Debug("anchored", "block", s.ref, "root", header.Root)
	return nil
}

// BlockRef returns the block reference, pinned to a number once anchored.
func (s *Store) BlockRef() remote.BlockRef {
	return s.ref
}

// SetBlockRef switches the store to another block, dropping every cached
// value and local change.
func (s *Store) SetBlockRef(ref remote.BlockRef) {
	s.ref = ref
	s.anchor = nil
	// copies stay on the old block with the old cache
	s.flat = cache.NewFlat("remote")
	s.dropChanges()
}

// ClearCache drops every cached value and local change, keeping the block.
// The cache is shared, so copies refetch too.
func (s *Store) ClearCache() {
	s.flat.Reset()
	s.dropChanges()
}

// dropChanges discards every local change and open checkpoint.
func (s *Store) dropChanges() {
	s.journal.PopTo(0)
	s.journal.Push()
}

// generation returns how many times the storage of addr was cleared locally.
func (s *Store) generation(addr common.Address) uint64 {
	v, ok, _ := s.journal.Get(generationKey(addr))
	if !ok {
		return 0
	}
	return binary.BigEndian.Uint64(v)
}

func (s *Store) bumpGeneration(addr common.Address) {
	s.journal.Put(generationKey(addr), binary.BigEndian.AppendUint64(nil, s.generation(addr)+1))
}

// GetAccount returns the account at addr. Its storage root is not tracked.
func (s *Store) GetAccount(ctx context.Context, addr common.Address) (*state.Account, error) {
	key := accountKey(addr)
	if enc, ok, _ := s.journal.Get(key); ok {
		return state.DecodeAccount(enc)
	}
	if enc, ok := s.flat.Get([]byte(key)); ok {
		return state.DecodeAccount(enc)
	}

	if err := s.ensureAnchor(ctx); err != nil {
		return nil, err
	}
	metricFetches().AddWithLabel(1, map[string]string{"kind": "account"})
	data, err := s.fetcher.GetAccountData(ctx, addr, s.ref)
	if err != nil {
		return nil, err
	}
	acc := state.NewEmptyAccount()
	acc.Nonce = data.Nonce
	if data.Balance != nil {
		acc.Balance = new(uint256.Int).Set(data.Balance)
	}
	acc.CodeHash = data.CodeHash.Bytes()

	enc, err := state.EncodeAccount(acc)
	if err != nil {
		return nil, err
	}
	s.flat.Set([]byte(key), enc)
	s.flat.Set([]byte(codeKey(data.CodeHash)), data.Code)
	s.logger.Debug("fetched account", "addr", addr, "nonce", acc.Nonce)
	return acc, nil
}

// PutAccount writes the account at addr.
func (s *Store) PutAccount(_ context.Context, addr common.Address, acc *state.Account) error {
	enc, err := state.EncodeAccount(acc)
	if err != nil {
		return err
	}
	s.journal.Put(accountKey(addr), enc)
	return nil
}

// DeleteAccount resets the account at addr to the empty account and drops its storage.
func (s *Store) DeleteAccount(ctx context.Context, addr common.Address) error {
	if err := s.PutAccount(ctx, addr, state.NewEmptyAccount()); err != nil {
		return err
	}
	s.bumpGeneration(addr)
	return nil
}

// AccountExists reports whether the account has a nonce, a balance or code.
func (s *Store) AccountExists(ctx context.Context, addr common.Address) (bool, error) {
	acc, err := s.GetAccount(ctx, addr)
	if err != nil {
		return false, err
	}
	return !state.IsEmptyAccount(acc), nil
}

// GetContractCode returns the code of the account at addr.
func (s *Store) GetContractCode(ctx context.Context, addr common.Address) ([]byte, error) {
	acc, err := s.GetAccount(ctx, addr)
	if err != nil {
		return nil, err
	}
	codeHash := common.BytesToHash(acc.CodeHash)
	if codeHash == types.EmptyCodeHash {
		return []byte{}, nil
	}
	key := codeKey(codeHash)
	if code, ok, _ := s.journal.Get(key); ok {
		return code, nil
	}
	if code, ok := s.flat.Get([]byte(key)); ok {
		return code, nil
	}

	if err := s.ensureAnchor(ctx); err != nil {
		return nil, err
	}
	metricFetches().AddWithLabel(1, map[string]string{"kind": "code"})
	code, err := s.fetcher.GetCode(ctx, addr, s.ref)
	if err != nil {
		return nil, err
	}
	s.flat.Set([]byte(key), code)
	return code, nil
}

// PutContractCode sets the code of the account at addr.
func (s *Store) PutContractCode(ctx context.Context, addr common.Address, code []byte) error {
	acc, err := s.GetAccount(ctx, addr)
	if err != nil {
		return err
	}
	codeHash := crypto.Keccak256Hash(code)
	s.journal.Put(codeKey(codeHash), common.CopyBytes(code))
	acc.CodeHash = codeHash.Bytes()
	return s.PutAccount(ctx, addr, acc)
}

// GetContractStorage returns the value of the slot, with leading zeros stripped.
func (s *Store) GetContractStorage(ctx context.Context, addr common.Address, key []byte) ([]byte, error) {
	if err := state.ValidateStorageKey(key); err != nil {
		return nil, err
	}
	gen := s.generation(addr)
	if v, ok, _ := s.journal.Get(localStorageKey(addr, gen, key)); ok {
		return v, nil
	}
	if gen > 0 {
		return []byte{}, nil
	}
	ck := []byte(storageKey(addr, key))
	if v, ok := s.flat.Get(ck); ok {
		return v, nil
	}

	if err := s.ensureAnchor(ctx); err != nil {
		return nil, err
	}
	metricFetches().AddWithLabel(1, map[string]string{"kind": "storage"})
	raw, err := s.fetcher.GetStorageAt(ctx, addr, key, s.ref)
	if err != nil {
		return nil, err
	}
	v := common.CopyBytes(common.TrimLeftZeroes(raw))
	if v == nil {
		v = []byte{}
	}
	s.flat.Set(ck, v)
	return v, nil
}

// PutContractStorage writes the slot.
func (s *Store) PutContractStorage(_ context.Context, addr common.Address, key, value []byte) error {
	if err := state.ValidateStorageKey(key); err != nil {
		return err
	}
	if err := state.ValidateStorageValue(value); err != nil {
		return err
	}
	v := common.CopyBytes(common.TrimLeftZeroes(value))
	if v == nil {
		v = []byte{}
	}
	s.journal.Put(localStorageKey(addr, s.generation(addr), key), v)
	return nil
}

// ClearContractStorage drops every slot of the account at addr.
func (s *Store) ClearContractStorage(_ context.Context, addr common.Address) error {
	s.bumpGeneration(addr)
	return nil
}

// DumpStorage returns the non-zero slots of the account at addr known so far,
// keyed by hashed key.
func (s *Store) DumpStorage(_ context.Context, addr common.Address) (state.StorageDump, error) {
	values := make(map[string][]byte)
	gen := s.generation(addr)
	if gen == 0 {
		prefix := storagePrefix(addr)
		s.flat.Iterate([]byte(prefix), func(k, v []byte) bool {
			values[string(k[len(prefix):])] = v
			return true
		})
	}
	local := localStoragePrefix(addr, gen)
	s.journal.Journal(func(k string, v []byte) bool {
		if hexKey, ok := strings.CutPrefix(k, local); ok {
			values[hexKey] = v
		}
		return true
	})

	dump := make(state.StorageDump)
	for hexKey, v := range values {
		if len(v) == 0 {
			continue
		}
		key, err := hexutil.Decode(hexKey)
		if err != nil {
			return nil, err
		}
		dump[hexutil.Encode(crypto.Keccak256(key))] = hexutil.Encode(state.EncodeStorageValue(v))
	}
	return dump, nil
}

// GetStateRoot returns the state root of the block. Local changes are not reflected.
func (s *Store) GetStateRoot(ctx context.Context) (common.Hash, error) {
	if err := s.ensureAnchor(ctx); err != nil {
		return common.Hash{}, err
	}
	return s.anchor.Root, nil
}

// SetStateRoot only accepts the state root of the block.
func (s *Store) SetStateRoot(ctx context.Context, root common.Hash) error {
	if err := s.ensureAnchor(ctx); err != nil {
		return err
	}
	if root != s.anchor.Root {
		return state.NewInvalidArgumentError("state root %v is not available", root)
	}
	return nil
}

// HasStateRoot reports whether root is the state root of the block.
func (s *Store) HasStateRoot(root common.Hash) bool {
	return s.anchor != nil && s.anchor.Root == root
}

// Checkpoint opens a new level of local changes.
func (s *Store) Checkpoint() {
	s.journal.Push()
}

// Commit folds the changes since the last checkpoint into the level below.
func (s *Store) Commit() {
	if s.journal.Depth() <= 1 {
		panic("unverified: commit without checkpoint")
	}
	s.journal.Merge()
}

// Revert drops the changes since the last checkpoint.
func (s *Store) Revert() {
	if s.journal.Depth() <= 1 {
		panic("unverified: revert without checkpoint")
	}
	s.journal.Pop()
}

// Copy returns an isolated store sharing the cache of remote values.
func (s *Store) Copy() state.Store {
	return &Store{
		fetcher: s.fetcher,
		ref:     s.ref,
		logger:  s.logger,
		anchor:  s.anchor,
		flat:    s.flat,
		journal: s.journal.Copy(noSource),
	}
}

// GetProof is not supported, as nothing is verified.
func (s *Store) GetProof(context.Context, common.Address, [][]byte) (*state.AccountProof, error) {
	return nil, state.ErrNotSupported
}
