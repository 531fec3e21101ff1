// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	fuzz "github.com/google/gofuzz"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyAccount(t *testing.T) {
	a := NewEmptyAccount()
	assert.True(t, IsEmptyAccount(a))
	assert.True(t, IsEmptyAccount(nil))
	assert.Equal(t, types.EmptyRootHash, a.Root)
	assert.Equal(t, types.EmptyCodeHash.Bytes(), a.CodeHash)

	a.Nonce = 1
	assert.False(t, IsEmptyAccount(a))
}

func TestAccountCodec(t *testing.T) {
	f := fuzz.New().NilChance(0)
	for range 50 {
		var (
			nonce   uint64
			balance [4]uint64
			root    [32]byte
			code    [32]byte
		)
		f.Fuzz(&nonce)
		f.Fuzz(&balance)
		f.Fuzz(&root)
		f.Fuzz(&code)

		bal := uint256.Int(balance)
		in := &Account{
			Nonce:    nonce,
			Balance:  &bal,
			Root:     common.Hash(root),
			CodeHash: code[:],
		}
		enc, err := EncodeAccount(in)
		require.NoError(t, err)
		out, err := DecodeAccount(enc)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	}
}

func TestCopyAccount(t *testing.T) {
	a := &Account{Nonce: 3, Balance: uint256.NewInt(10)}
	cpy := CopyAccount(a)
	assert.Equal(t, types.EmptyRootHash, cpy.Root)
	assert.Equal(t, types.EmptyCodeHash.Bytes(), cpy.CodeHash)

	cpy.Balance.AddUint64(cpy.Balance, 1)
	assert.Equal(t, uint64(10), a.Balance.Uint64())
}

func TestStorageValueCodec(t *testing.T) {
	tests := []struct {
		in   []byte
		want []byte
	}{
		{nil, []byte{}},
		{make([]byte, 32), []byte{}},
		{[]byte{0, 0, 1}, []byte{1}},
		{[]byte{0x7f}, []byte{0x7f}},
		{[]byte{0x80}, []byte{0x80}},
		{common.HexToHash("0x0102").Bytes(), []byte{1, 2}},
	}
	for _, tt := range tests {
		got, err := DecodeStorageValue(EncodeStorageValue(tt.in))
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)

		// stripping is idempotent
		again, err := DecodeStorageValue(EncodeStorageValue(got))
		require.NoError(t, err)
		assert.Equal(t, got, again)
	}
	assert.Equal(t, []byte{0x80}, EncodeStorageValue(nil))

	got, err := DecodeStorageValue(nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{}, got)
}
