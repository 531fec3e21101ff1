// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cache_test

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vechain/forkstate/cache"
)

func TestLRUGetOrLoad(t *testing.T) {
	_, err := cache.NewLRU[common.Hash, []byte]("code", 0)
	assert.Error(t, err)

	c, err := cache.NewLRU[common.Hash, []byte]("code", 2)
	require.NoError(t, err)

	loads := 0
	loader := func(h common.Hash) ([]byte, error) {
		loads++
		return h.Bytes()[:1], nil
	}

	h1 := common.HexToHash("0x01")
	v, err := c.GetOrLoad(h1, loader)
	require.NoError(t, err)
	assert.Equal(t, []byte{0}, v)

	_, err = c.GetOrLoad(h1, loader)
	require.NoError(t, err)
	assert.Equal(t, 1, loads)

	boom := errors.New("boom")
	_, err = c.GetOrLoad(common.HexToHash("0x02"), func(common.Hash) ([]byte, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, c.Len())

	c.Add(common.HexToHash("0x02"), []byte{2})
	c.Add(common.HexToHash("0x03"), []byte{3})
	_, ok := c.Get(h1)
	assert.False(t, ok, "oldest entry evicted")
}
