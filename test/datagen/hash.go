// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package datagen

import (
	"crypto/rand"

	"github.com/ethereum/go-ethereum/common"
)

func RandomHash() common.Hash {
	var h common.Hash
	rand.Read(h[:])
	return h
}

func RandAddress() common.Address {
	var a common.Address
	rand.Read(a[:])
	return a
}

// RandSlot returns a random 32 byte storage key.
func RandSlot() []byte {
	return RandomHash().Bytes()
}

// RandValue returns a random storage value of 1 to 32 bytes, without leading zeros.
func RandValue() []byte {
	v := make([]byte, RandIntN(32)+1)
	rand.Read(v)
	if v[0] == 0 {
		v[0] = 1
	}
	return v
}
