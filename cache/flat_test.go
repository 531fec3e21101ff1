// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cache_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vechain/forkstate/cache"
)

func TestFlat(t *testing.T) {
	assert := assert.New(t)
	f := cache.NewFlat("test")

	_, ok := f.Get([]byte("missing"))
	assert.False(ok)

	val := []byte{1, 2, 3}
	f.Set([]byte("a:account"), val)
	val[0] = 9 // the cache holds its own copy

	got, ok := f.Get([]byte("a:account"))
	assert.True(ok)
	assert.Equal([]byte{1, 2, 3}, got)

	// an empty value is still a hit
	f.Set([]byte("a:storage:1"), nil)
	got, ok = f.Get([]byte("a:storage:1"))
	assert.True(ok)
	assert.Empty(got)

	_, hit, miss := f.Stats().Stats()
	assert.Equal(int64(2), hit)
	assert.Equal(int64(1), miss)

	assert.Equal(2, f.Len())
	f.Reset()
	assert.Equal(0, f.Len())
	_, ok = f.Get([]byte("a:account"))
	assert.False(ok)
}

func TestFlatIterate(t *testing.T) {
	f := cache.NewFlat("test")
	f.Set([]byte("a:storage:2"), []byte{2})
	f.Set([]byte("a:storage:1"), []byte{1})
	f.Set([]byte("b:storage:1"), []byte{3})

	var keys []string
	f.Iterate([]byte("a:storage:"), func(k, v []byte) bool {
		keys = append(keys, string(k))
		return true
	})
	assert.Equal(t, []string{"a:storage:1", "a:storage:2"}, keys)

	n := 0
	f.Iterate(nil, func(k, v []byte) bool {
		n++
		return false
	})
	assert.Equal(t, 1, n)
}
