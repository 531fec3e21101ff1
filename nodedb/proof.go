// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package nodedb

import (
	"bytes"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/ethereum/go-ethereum/trie"
	"github.com/pkg/errors"
)

var emptyNode, _ = rlp.EncodeToBytes([]byte{})

// VerifyProof checks that proof hash-links key to root, and returns the leaf
// value. A nil value with no error proves the key absent.
func VerifyProof(root common.Hash, key []byte, proof [][]byte) ([]byte, error) {
	if root == types.EmptyRootHash {
		for _, n := range proof {
			if !bytes.Equal(n, emptyNode) {
				return nil, errors.New("unexpected node in proof of empty trie")
			}
		}
		return nil, nil
	}
	db := memorydb.New()
	for _, n := range proof {
		if err := db.Put(crypto.Keccak256(n), n); err != nil {
			return nil, err
		}
	}
	return trie.VerifyProof(root, key, db)
}

// ProofList collects the nodes written by trie.Prove, root first.
type ProofList [][]byte

// Put implements ethdb.KeyValueWriter.
func (l *ProofList) Put(_ []byte, value []byte) error {
	*l = append(*l, common.CopyBytes(value))
	return nil
}

// Delete implements ethdb.KeyValueWriter.
func (l *ProofList) Delete([]byte) error {
	panic("not supported")
}

// Prove builds the proof of key in tr.
func Prove(tr *trie.Trie, key []byte) (ProofList, error) {
	var proof ProofList
	if err := tr.Prove(key, &proof); err != nil {
		return nil, err
	}
	return proof, nil
}
