// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package verified

import (
	"bytes"
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/vechain/forkstate/nodedb"
	"github.com/vechain/forkstate/state"
)

// readAccount reads the account from the local state trie. A nil account
// with no error means the leaf is absent.
func (s *Store) readAccount(addr common.Address) (*state.Account, error) {
	tr, err := s.arena.OpenStateTrie(s.root)
	if err != nil {
		return nil, err
	}
	enc, err := tr.Get(hashAddr(addr))
	if err != nil {
		return nil, err
	}
	if len(enc) == 0 {
		return nil, nil
	}
	return state.DecodeAccount(enc)
}

// writeAccount inserts the account into the local state trie and moves the root.
func (s *Store) writeAccount(addr common.Address, acc *state.Account) error {
	enc, err := state.EncodeAccount(acc)
	if err != nil {
		return err
	}
	tr, err := s.arena.OpenStateTrie(s.root)
	if err != nil {
		return err
	}
	if err := tr.Update(hashAddr(addr), enc); err != nil {
		return err
	}
	root, set := tr.Commit(false)
	if err := s.arena.Commit(set); err != nil {
		return err
	}
	s.arena.AddStateRoot(root)
	s.root = root
	return nil
}

// GetAccount returns the account at addr, or an empty account when there is none.
func (s *Store) GetAccount(ctx context.Context, addr common.Address) (*state.Account, error) {
	var acc *state.Account
	err := s.withNodes(ctx, addr, nil, func() (err error) {
		acc, err = s.readAccount(addr)
		return
	})
	if err != nil {
		return nil, err
	}
	if acc == nil && !s.ledger.hasAccount(addr) {
		if err := s.fetch(ctx, "account", addr, nil); err != nil {
			return nil, err
		}
		if acc, err = s.readAccount(addr); err != nil {
			return nil, err
		}
	}
	if acc == nil {
		return state.NewEmptyAccount(), nil
	}
	return acc, nil
}

// PutAccount writes the account at addr.
func (s *Store) PutAccount(ctx context.Context, addr common.Address, acc *state.Account) error {
	err := s.withNodes(ctx, addr, nil, func() error {
		return s.writeAccount(addr, acc)
	})
	if err != nil {
		return err
	}
	s.ledger.markAccount(addr)
	return nil
}

// DeleteAccount resets the account at addr to the empty account.
// The leaf is kept, so the trie never has to collapse unresolved siblings.
func (s *Store) DeleteAccount(ctx context.Context, addr common.Address) error {
	if err := s.PutAccount(ctx, addr, state.NewEmptyAccount()); err != nil {
		return err
	}
	s.ledger.markCleared(addr)
	return nil
}

// AccountExists reports whether the account exists in the block the store
// reads from. Local changes are not considered and the arena is not touched.
func (s *Store) AccountExists(ctx context.Context, addr common.Address) (bool, error) {
	if err := s.ensureAnchor(ctx); err != nil {
		return false, err
	}
	metricFetches().AddWithLabel(1, map[string]string{"reason": "exists"})
	res, err := s.fetcher.GetProof(ctx, addr, nil, s.ref)
	if err != nil {
		return false, err
	}
	leaf, err := nodedb.VerifyProof(s.anchor.Root, hashAddr(addr), res.AccountNodes())
	if err != nil {
		metricProofFailures().Add(1)
		return false, state.NewProofError(errors.Wrapf(err, "account %v", addr))
	}
	return leaf != nil, nil
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
	if code, ok := s.codes[codeHash]; ok {
		return code, nil
	}
	return s.codeCache.GetOrLoad(codeHash, func(h common.Hash) ([]byte, error) {
		code, err := s.fetcher.GetCode(ctx, addr, s.ref)
		if err != nil {
			return nil, err
		}
		if got := crypto.Keccak256(code); !bytes.Equal(got, h[:]) {
			metricProofFailures().Add(1)
			return nil, state.NewProofError(errors.Errorf("code of %v hashes to %x, want %v", addr, got, h))
		}
		return code, nil
	})
}

// PutContractCode sets the code of the account at addr.
func (s *Store) PutContractCode(ctx context.Context, addr common.Address, code []byte) error {
	acc, err := s.GetAccount(ctx, addr)
	if err != nil {
		return err
	}
	codeHash := crypto.Keccak256Hash(code)
	s.codes[codeHash] = common.CopyBytes(code)
	acc.CodeHash = codeHash.Bytes()
	return s.PutAccount(ctx, addr, acc)
}
