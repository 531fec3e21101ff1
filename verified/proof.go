// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package verified

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/vechain/forkstate/nodedb"
	"github.com/vechain/forkstate/state"
)

// GetProof builds the EIP-1186 proof of the account and slots from the local
// state, so local changes are reflected.
func (s *Store) GetProof(ctx context.Context, addr common.Address, keys [][]byte) (*state.AccountProof, error) {
	if err := s.Prefetch(ctx, Request{Address: addr, Keys: keys}); err != nil {
		return nil, err
	}
	acc, err := s.GetAccount(ctx, addr)
	if err != nil {
		return nil, err
	}

	var accProof nodedb.ProofList
	err = s.withNodes(ctx, addr, nil, func() error {
		tr, err := s.arena.OpenStateTrie(s.root)
		if err != nil {
			return err
		}
		accProof, err = nodedb.Prove(tr, hashAddr(addr))
		return err
	})
	if err != nil {
		return nil, err
	}

	out := &state.AccountProof{
		Address:      addr,
		AccountProof: toHexList(accProof),
		Balance:      (*hexutil.Big)(acc.Balance.ToBig()),
		CodeHash:     common.BytesToHash(acc.CodeHash),
		Nonce:        hexutil.Uint64(acc.Nonce),
		StorageHash:  acc.Root,
		StorageProof: make([]state.StorageProof, 0, len(keys)),
	}
	for _, key := range keys {
		var (
			enc   []byte
			proof nodedb.ProofList
		)
		err := s.withNodes(ctx, addr, [][]byte{key}, func() error {
			tr, err := s.openStorage(addr, acc.Root)
			if err != nil {
				return err
			}
			hashed := crypto.Keccak256(key)
			if enc, err = tr.Get(hashed); err != nil {
				return err
			}
			proof, err = nodedb.Prove(tr, hashed)
			return err
		})
		if err != nil {
			return nil, err
		}
		value, err := state.DecodeStorageValue(enc)
		if err != nil {
			return nil, err
		}
		out.StorageProof = append(out.StorageProof, state.StorageProof{
			Key:   hexutil.Encode(key),
			Value: (*hexutil.Big)(new(big.Int).SetBytes(value)),
			Proof: toHexList(proof),
		})
	}
	return out, nil
}

func toHexList(nodes [][]byte) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = hexutil.Encode(n)
	}
	return out
}
