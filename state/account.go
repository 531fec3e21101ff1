// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
)

// Account is the consensus representation of an account, stored RLP encoded
// in the state trie.
type Account = types.StateAccount

// NewEmptyAccount returns an account with no nonce, balance, code or storage.
func NewEmptyAccount() *Account {
	return types.NewEmptyStateAccount()
}

// IsEmptyAccount reports whether the account has zero nonce, zero balance and no code.
// Storage is not considered.
func IsEmptyAccount(a *Account) bool {
	if a == nil {
		return true
	}
	return a.Nonce == 0 &&
		(a.Balance == nil || a.Balance.IsZero()) &&
		(len(a.CodeHash) == 0 || bytes.Equal(a.CodeHash, types.EmptyCodeHash[:]))
}

// CopyAccount deep copies an account, filling nil fields with their empty values.
func CopyAccount(a *Account) *Account {
	cpy := NewEmptyAccount()
	if a == nil {
		return cpy
	}
	cpy.Nonce = a.Nonce
	if a.Balance != nil {
		cpy.Balance = new(uint256.Int).Set(a.Balance)
	}
	if a.Root != (common.Hash{}) {
		cpy.Root = a.Root
	}
	if len(a.CodeHash) > 0 {
		cpy.CodeHash = common.CopyBytes(a.CodeHash)
	}
	return cpy
}

// EncodeAccount returns the trie encoding of the account.
func EncodeAccount(a *Account) ([]byte, error) {
	return rlp.EncodeToBytes(CopyAccount(a))
}

// DecodeAccount decodes an account from its trie encoding.
func DecodeAccount(data []byte) (*Account, error) {
	var a Account
	if err := rlp.DecodeBytes(data, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// EncodeStorageValue strips leading zeros and RLP encodes the value.
// A zero value encodes as the RLP empty string.
func EncodeStorageValue(value []byte) []byte {
	enc, _ := rlp.EncodeToBytes(common.TrimLeftZeroes(value))
	return enc
}

// DecodeStorageValue reverses EncodeStorageValue. Empty input decodes to an empty value.
func DecodeStorageValue(enc []byte) ([]byte, error) {
	if len(enc) == 0 {
		return []byte{}, nil
	}
	_, content, _, err := rlp.Split(enc)
	if err != nil {
		return nil, err
	}
	return common.CopyBytes(content), nil
}
