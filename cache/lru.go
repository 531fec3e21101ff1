// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cache

import lru "github.com/hashicorp/golang-lru"

// LRU is a typed, bounded cache over golang-lru. It is safe for concurrent use.
// The stores use it for contract code keyed by code hash, which is immutable
// and may be shared across blocks.
type LRU[K comparable, V any] struct {
	cache *lru.Cache
	stats *Stats
}

// NewLRU creates an LRU holding at most maxSize entries.
// maxSize should be > 0, or an error returned.
func NewLRU[K comparable, V any](name string, maxSize int) (*LRU[K, V], error) {
	c, err := lru.New(maxSize)
	if err != nil {
		return nil, err
	}
	return &LRU[K, V]{cache: c, stats: NewStats(name)}, nil
}

// Get returns the value cached under key.
func (l *LRU[K, V]) Get(key K) (V, bool) {
	if v, ok := l.cache.Get(key); ok {
		l.stats.Hit()
		return v.(V), true
	}
	l.stats.Miss()
	var zero V
	return zero, false
}

// Add caches value under key.
func (l *LRU[K, V]) Add(key K, value V) {
	l.cache.Add(key, value)
}

// Len returns the number of cached entries.
func (l *LRU[K, V]) Len() int {
	return l.cache.Len()
}

// Stats returns the hit/miss counters.
func (l *LRU[K, V]) Stats() *Stats {
	return l.stats
}

// GetOrLoad first tries the cache, and calls loader on a miss.
// Values are cached only when loader succeeds.
func (l *LRU[K, V]) GetOrLoad(key K, loader func(K) (V, error)) (V, error) {
	if v, ok := l.Get(key); ok {
		return v, nil
	}
	v, err := loader(key)
	if err != nil {
		return v, err
	}
	l.cache.Add(key, v)
	return v, nil
}
