// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cache

import (
	"sync/atomic"

	"github.com/ethereum/go-ethereum/ethdb/memorydb"
)

// Flat is an unbounded key/value cache with no eviction and no TTL.
// Entries live until Reset or until the owner drops the cache. It is safe
// for concurrent use.
type Flat struct {
	db    atomic.Pointer[memorydb.Database]
	stats *Stats
}

// NewFlat creates an empty flat cache.
func NewFlat(name string) *Flat {
	f := &Flat{stats: NewStats(name)}
	f.db.Store(memorydb.New())
	return f
}

// Get returns a copy of the value stored under key.
func (f *Flat) Get(key []byte) ([]byte, bool) {
	v, err := f.db.Load().Get(key)
	if err != nil {
		f.stats.Miss()
		return nil, false
	}
	f.stats.Hit()
	return v, true
}

// Set stores a copy of value under key.
func (f *Flat) Set(key, value []byte) {
	// memorydb only fails once closed, and Reset never closes a live db
	_ = f.db.Load().Put(key, value)
}

// Iterate calls fn for every entry whose key has the given prefix, in key
// order, until fn returns false.
func (f *Flat) Iterate(prefix []byte, fn func(key, value []byte) bool) {
	it := f.db.Load().NewIterator(prefix, nil)
	defer it.Release()
	for it.Next() {
		if !fn(it.Key(), it.Value()) {
			return
		}
	}
}

// Len returns the number of entries.
func (f *Flat) Len() int {
	return f.db.Load().Len()
}

// Reset drops every entry.
func (f *Flat) Reset() {
	f.db.Store(memorydb.New())
}

// Stats returns the hit/miss counters.
func (f *Flat) Stats() *Stats {
	return f.stats
}
