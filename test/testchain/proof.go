// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package testchain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/vechain/forkstate/nodedb"
	"github.com/vechain/forkstate/remote"
	"github.com/vechain/forkstate/state"
)

// Account reads the account of addr in the state with the given root.
// Absent accounts read as empty.
func (c *Chain) Account(root common.Hash, addr common.Address) (*state.Account, error) {
	st, err := c.arena.OpenStateTrie(root)
	if err != nil {
		return nil, err
	}
	enc, err := st.Get(crypto.Keccak256(addr[:]))
	if err != nil {
		return nil, err
	}
	if len(enc) == 0 {
		return state.NewEmptyAccount(), nil
	}
	return state.DecodeAccount(enc)
}

// Storage reads a slot of addr in the state with the given root, leading zeros stripped.
func (c *Chain) Storage(root common.Hash, addr common.Address, slot common.Hash) ([]byte, error) {
	acc, err := c.Account(root, addr)
	if err != nil {
		return nil, err
	}
	str, err := c.arena.OpenStorageTrie(crypto.Keccak256Hash(addr[:]), acc.Root)
	if err != nil {
		return nil, err
	}
	enc, err := str.Get(crypto.Keccak256(slot[:]))
	if err != nil {
		return nil, err
	}
	return state.DecodeStorageValue(enc)
}

// Proof builds the eth_getProof response of addr and slots in the state with the given root.
func (c *Chain) Proof(root common.Hash, addr common.Address, slots []common.Hash) (*remote.AccountResult, error) {
	st, err := c.arena.OpenStateTrie(root)
	if err != nil {
		return nil, err
	}
	addrKey := crypto.Keccak256(addr[:])
	accountProof, err := nodedb.Prove(st, addrKey)
	if err != nil {
		return nil, err
	}
	acc, err := c.Account(root, addr)
	if err != nil {
		return nil, err
	}

	res := &remote.AccountResult{
		Address:      addr,
		AccountProof: toHexBytes(accountProof),
		Balance:      (*hexutil.Big)(acc.Balance.ToBig()),
		CodeHash:     common.BytesToHash(acc.CodeHash),
		Nonce:        hexutil.Uint64(acc.Nonce),
		StorageHash:  acc.Root,
		StorageProof: make([]remote.StorageResult, 0, len(slots)),
	}

	str, err := c.arena.OpenStorageTrie(common.BytesToHash(addrKey), acc.Root)
	if err != nil {
		return nil, err
	}
	for _, slot := range slots {
		key := crypto.Keccak256(slot[:])
		proof, err := nodedb.Prove(str, key)
		if err != nil {
			return nil, err
		}
		enc, err := str.Get(key)
		if err != nil {
			return nil, err
		}
		value, err := state.DecodeStorageValue(enc)
		if err != nil {
			return nil, err
		}
		res.StorageProof = append(res.StorageProof, remote.StorageResult{
			Key:   slot.Hex(),
			Value: (*hexutil.Big)(new(big.Int).SetBytes(value)),
			Proof: toHexBytes(proof),
		})
	}
	return res, nil
}

func toHexBytes(nodes [][]byte) []hexutil.Bytes {
	out := make([]hexutil.Bytes, len(nodes))
	for i, n := range nodes {
		out[i] = n
	}
	return out
}
