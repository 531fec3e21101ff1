// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package nodedb implements the in-memory trie node arena.
//
// The arena maps keccak256(blob) to blob. Nodes are only ever added, so a
// root hash fully identifies a state snapshot and any number of stores may
// share one arena, each holding its own root.
package nodedb

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/ethereum/go-ethereum/trie"
	"github.com/ethereum/go-ethereum/trie/trienode"
	"github.com/ethereum/go-ethereum/triedb/database"
)

// Arena is a content addressed, append-only trie node store.
// It is safe for concurrent use, and every batch of nodes becomes visible at once.
type Arena struct {
	db    *memorydb.Database
	roots *memorydb.Database // account trie roots
}

var (
	_ database.NodeDatabase = (*Arena)(nil)
	_ database.NodeReader   = (*Arena)(nil)
)

// New creates an empty arena.
func New() *Arena {
	return &Arena{db: memorydb.New(), roots: memorydb.New()}
}

// AddStateRoot records root as the root of an account trie. Only recorded
// roots may serve as the state root of a store.
func (a *Arena) AddStateRoot(root common.Hash) {
	_ = a.roots.Put(root[:], nil)
}

// IsStateRoot reports whether root was recorded as an account trie root.
func (a *Arena) IsStateRoot(root common.Hash) bool {
	ok, _ := a.roots.Has(root[:])
	return ok
}

// NodeReader implements database.NodeDatabase. Nodes are addressed by hash
// only, so every state root shares the same reader.
func (a *Arena) NodeReader(common.Hash) (database.NodeReader, error) {
	return a, nil
}

// Node implements database.NodeReader. A missing node yields no blob and
// no error, which the trie reports as a MissingNodeError.
func (a *Arena) Node(_ common.Hash, _ []byte, hash common.Hash) ([]byte, error) {
	blob, err := a.db.Get(hash[:])
	if err != nil {
		return nil, nil
	}
	return blob, nil
}

// Has reports whether the node with the given hash is present.
// The empty root is always present.
func (a *Arena) Has(hash common.Hash) bool {
	if hash == types.EmptyRootHash {
		return true
	}
	ok, _ := a.db.Has(hash[:])
	return ok
}

// Len returns the number of nodes.
func (a *Arena) Len() int {
	return a.db.Len()
}

// Ingest stores the given node blobs keyed by their hash, all or nothing.
// Callers verify blobs before ingesting them. It returns the number of
// nodes that were not present before.
func (a *Arena) Ingest(blobs [][]byte) (int, error) {
	batch := a.db.NewBatch()
	added := 0
	for _, blob := range blobs {
		hash := crypto.Keccak256(blob)
		if ok, _ := a.db.Has(hash); ok {
			continue
		}
		if err := batch.Put(hash, blob); err != nil {
			return 0, err
		}
		added++
	}
	if err := batch.Write(); err != nil {
		return 0, err
	}
	metricArenaNodes().Set(int64(a.db.Len()))
	metricIngestedNodes().Add(int64(added))
	return added, nil
}

// Commit stores the dirty nodes collected by a trie commit. Deletion
// markers are ignored: nodes of previous roots stay reachable.
func (a *Arena) Commit(set *trienode.NodeSet) error {
	if set == nil {
		return nil
	}
	batch := a.db.NewBatch()
	for _, n := range set.Nodes {
		if n.IsDeleted() {
			continue
		}
		if err := batch.Put(n.Hash[:], n.Blob); err != nil {
			return err
		}
	}
	if err := batch.Write(); err != nil {
		return err
	}
	metricArenaNodes().Set(int64(a.db.Len()))
	return nil
}

// OpenStateTrie opens the account trie at root.
func (a *Arena) OpenStateTrie(root common.Hash) (*trie.Trie, error) {
	return trie.New(trie.TrieID(root), a)
}

// OpenStorageTrie opens the storage trie of the account with the given
// hashed address at root.
func (a *Arena) OpenStorageTrie(addrHash, root common.Hash) (*trie.Trie, error) {
	// the arena serves every state root alike, so the storage root doubles
	// as the state root of the trie id
	return trie.New(trie.StorageTrieID(root, addrHash, root), a)
}
