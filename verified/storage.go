// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package verified

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/trie"
	"github.com/pkg/errors"
	"github.com/vechain/forkstate/state"
)

func (s *Store) openStorage(addr common.Address, root common.Hash) (*trie.Trie, error) {
	return s.arena.OpenStorageTrie(crypto.Keccak256Hash(addr[:]), root)
}

// ensureSlot fetches the slot unless it is already known.
func (s *Store) ensureSlot(ctx context.Context, addr common.Address, key []byte) error {
	if s.ledger.hasSlot(addr, key) {
		return nil
	}
	return s.fetch(ctx, "storage", addr, [][]byte{key})
}

// GetContractStorage returns the value of the slot, with leading zeros stripped.
func (s *Store) GetContractStorage(ctx context.Context, addr common.Address, key []byte) ([]byte, error) {
	if err := state.ValidateStorageKey(key); err != nil {
		return nil, err
	}
	if err := s.ensureSlot(ctx, addr, key); err != nil {
		return nil, err
	}
	acc, err := s.GetAccount(ctx, addr)
	if err != nil {
		return nil, err
	}

	var enc []byte
	err = s.withNodes(ctx, addr, [][]byte{key}, func() error {
		tr, err := s.openStorage(addr, acc.Root)
		if err != nil {
			return err
		}
		enc, err = tr.Get(crypto.Keccak256(key))
		return err
	})
	if err != nil {
		return nil, err
	}
	return state.DecodeStorageValue(enc)
}

// PutContractStorage writes the slot. A zero value is kept in the trie as
// the RLP empty string.
func (s *Store) PutContractStorage(ctx context.Context, addr common.Address, key, value []byte) error {
	if err := state.ValidateStorageKey(key); err != nil {
		return err
	}
	if err := state.ValidateStorageValue(value); err != nil {
		return err
	}
	if err := s.ensureSlot(ctx, addr, key); err != nil {
		return err
	}
	acc, err := s.GetAccount(ctx, addr)
	if err != nil {
		return err
	}

	var root common.Hash
	err = s.withNodes(ctx, addr, [][]byte{key}, func() error {
		tr, err := s.openStorage(addr, acc.Root)
		if err != nil {
			return err
		}
		if err := tr.Update(crypto.Keccak256(key), state.EncodeStorageValue(value)); err != nil {
			return err
		}
		r, set := tr.Commit(false)
		if err := s.arena.Commit(set); err != nil {
			return err
		}
		root = r
		return nil
	})
	if err != nil {
		return err
	}
	acc.Root = root
	if err := s.PutAccount(ctx, addr, acc); err != nil {
		return err
	}
	s.ledger.markSlot(addr, key)
	return nil
}

// ClearContractStorage drops every slot of the account at addr.
func (s *Store) ClearContractStorage(ctx context.Context, addr common.Address) error {
	acc, err := s.GetAccount(ctx, addr)
	if err != nil {
		return err
	}
	acc.Root = types.EmptyRootHash
	if err := s.PutAccount(ctx, addr, acc); err != nil {
		return err
	}
	s.ledger.markCleared(addr)
	return nil
}

// DumpStorage returns the locally available slots of the account at addr,
// keyed by hashed key. Subtrees never fetched are skipped.
func (s *Store) DumpStorage(ctx context.Context, addr common.Address) (state.StorageDump, error) {
	acc, err := s.GetAccount(ctx, addr)
	if err != nil {
		return nil, err
	}
	dump := make(state.StorageDump)
	var missing *trie.MissingNodeError
	tr, err := s.openStorage(addr, acc.Root)
	if err != nil {
		// no slot fetched yet, nothing materialized
		if errors.As(err, &missing) {
			return dump, nil
		}
		return nil, err
	}

	nit, err := tr.NodeIterator(nil)
	if err != nil {
		return nil, err
	}
	it := trie.NewIterator(nit)
	for it.Next() {
		dump[hexutil.Encode(it.Key)] = hexutil.Encode(it.Value)
	}
	if it.Err == nil {
		return dump, nil
	}
	if !errors.As(it.Err, &missing) {
		return nil, it.Err
	}

	// partially fetched trie, fall back to the slots known so far
	for _, slot := range s.ledger.knownSlots(addr) {
		hashed := crypto.Keccak256(slot[:])
		enc, err := tr.Get(hashed)
		if err != nil {
			if errors.As(err, &missing) {
				continue
			}
			return nil, err
		}
		if len(enc) > 0 {
			dump[hexutil.Encode(hashed)] = hexutil.Encode(enc)
		}
	}
	return dump, nil
}
