// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package remote

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
)

// AccountData is the unverified account information served by the remote node.
type AccountData struct {
	Nonce    uint64
	Balance  *uint256.Int
	Code     []byte
	CodeHash common.Hash
}

// AccountResult is the eth_getProof response.
type AccountResult struct {
	Address      common.Address  `json:"address"`
	AccountProof []hexutil.Bytes `json:"accountProof"`
	Balance      *hexutil.Big    `json:"balance"`
	CodeHash     common.Hash     `json:"codeHash"`
	Nonce        hexutil.Uint64  `json:"nonce"`
	StorageHash  common.Hash     `json:"storageHash"`
	StorageProof []StorageResult `json:"storageProof"`
}

// StorageResult is the proof of one slot in an eth_getProof response.
type StorageResult struct {
	Key   string          `json:"key"`
	Value *hexutil.Big    `json:"value"`
	Proof []hexutil.Bytes `json:"proof"`
}

// AccountNodes returns the account proof nodes.
func (r *AccountResult) AccountNodes() [][]byte {
	return toBlobs(r.AccountProof)
}

// StorageProofFor returns the proof of the given slot.
func (r *AccountResult) StorageProofFor(slot []byte) (*StorageResult, bool) {
	want := common.BytesToHash(slot)
	for i := range r.StorageProof {
		if common.HexToHash(r.StorageProof[i].Key) == want {
			return &r.StorageProof[i], true
		}
	}
	return nil, false
}

// Nodes returns the storage proof nodes.
func (r *StorageResult) Nodes() [][]byte {
	return toBlobs(r.Proof)
}

func toBlobs(nodes []hexutil.Bytes) [][]byte {
	out := make([][]byte, len(nodes))
	for i, n := range nodes {
		out[i] = n
	}
	return out
}

// Block is a block fetched without hydrated transactions.
type Block struct {
	Header       *types.Header
	Hash         common.Hash
	Uncles       []common.Hash
	Transactions []common.Hash
}

// UnmarshalJSON decodes the header fields and the block extras.
func (b *Block) UnmarshalJSON(input []byte) error {
	var head types.Header
	if err := json.Unmarshal(input, &head); err != nil {
		return err
	}
	var extra struct {
		Hash         common.Hash   `json:"hash"`
		Uncles       []common.Hash `json:"uncles"`
		Transactions []common.Hash `json:"transactions"`
	}
	if err := json.Unmarshal(input, &extra); err != nil {
		return err
	}
	b.Header = &head
	b.Hash = extra.Hash
	b.Uncles = extra.Uncles
	b.Transactions = extra.Transactions
	return nil
}

// Transaction is a transaction with the location and sender reported by the remote node.
type Transaction struct {
	Tx          *types.Transaction
	BlockNumber *uint64
	BlockHash   *common.Hash
	From        common.Address
}

// UnmarshalJSON decodes the signed transaction and its extra fields.
func (t *Transaction) UnmarshalJSON(input []byte) error {
	var tx types.Transaction
	if err := json.Unmarshal(input, &tx); err != nil {
		return err
	}
	var extra struct {
		BlockNumber *hexutil.Uint64 `json:"blockNumber"`
		BlockHash   *common.Hash    `json:"blockHash"`
		From        common.Address  `json:"from"`
	}
	if err := json.Unmarshal(input, &extra); err != nil {
		return err
	}
	t.Tx = &tx
	if extra.BlockNumber != nil {
		n := uint64(*extra.BlockNumber)
		t.BlockNumber = &n
	}
	t.BlockHash = extra.BlockHash
	t.From = extra.From
	return nil
}
