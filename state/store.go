// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Store is the state provider contract of the EVM engine.
//
// Storage keys are exactly 32 bytes and values at most 32 bytes. Values are
// returned with leading zeros stripped; a zero value reads as empty.
// Checkpoint, Commit and Revert must be strictly paired: Commit or Revert
// without an open checkpoint panics.
type Store interface {
	GetAccount(ctx context.Context, addr common.Address) (*Account, error)
	PutAccount(ctx context.Context, addr common.Address, account *Account) error
	DeleteAccount(ctx context.Context, addr common.Address) error
	AccountExists(ctx context.Context, addr common.Address) (bool, error)

	GetContractCode(ctx context.Context, addr common.Address) ([]byte, error)
	PutContractCode(ctx context.Context, addr common.Address, code []byte) error

	GetContractStorage(ctx context.Context, addr common.Address, key []byte) ([]byte, error)
	PutContractStorage(ctx context.Context, addr common.Address, key, value []byte) error
	ClearContractStorage(ctx context.Context, addr common.Address) error
	DumpStorage(ctx context.Context, addr common.Address) (StorageDump, error)

	GetStateRoot(ctx context.Context) (common.Hash, error)
	SetStateRoot(ctx context.Context, root common.Hash) error
	HasStateRoot(root common.Hash) bool

	Checkpoint()
	Commit()
	Revert()

	Copy() Store
	GetProof(ctx context.Context, addr common.Address, keys [][]byte) (*AccountProof, error)
}

// StorageDump maps hex encoded hashed storage keys to hex encoded RLP values.
type StorageDump map[string]string

// AccountProof is the EIP-1186 proof of an account and some of its slots.
type AccountProof struct {
	Address      common.Address `json:"address"`
	AccountProof []string       `json:"accountProof"`
	Balance      *hexutil.Big   `json:"balance"`
	CodeHash     common.Hash    `json:"codeHash"`
	Nonce        hexutil.Uint64 `json:"nonce"`
	StorageHash  common.Hash    `json:"storageHash"`
	StorageProof []StorageProof `json:"storageProof"`
}

// StorageProof is the EIP-1186 proof of one slot.
type StorageProof struct {
	Key   string       `json:"key"`
	Value *hexutil.Big `json:"value"`
	Proof []string     `json:"proof"`
}

// ValidateStorageKey rejects keys that are not 32 bytes.
func ValidateStorageKey(key []byte) error {
	if len(key) != common.HashLength {
		return NewInvalidArgumentError("storage key must be %d bytes, got %d", common.HashLength, len(key))
	}
	return nil
}

// ValidateStorageValue rejects values longer than 32 bytes.
func ValidateStorageValue(value []byte) error {
	if len(value) > common.HashLength {
		return NewInvalidArgumentError("storage value must be at most %d bytes, got %d", common.HashLength, len(value))
	}
	return nil
}
