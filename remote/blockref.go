// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package remote

import (
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/vechain/forkstate/state"
)

type refKind uint8

const (
	kindTag refKind = iota
	kindNumber
	kindHash
)

// BlockRef identifies the block whose state is queried: a number, a hash,
// or one of the tags latest, earliest and pending. The zero value is latest.
type BlockRef struct {
	kind   refKind
	tag    string
	number uint64
	hash   common.Hash
}

var (
	Latest   = BlockRef{kind: kindTag, tag: "latest"}
	Earliest = BlockRef{kind: kindTag, tag: "earliest"}
	Pending  = BlockRef{kind: kindTag, tag: "pending"}
)

// NumberRef refers to a block by number.
func NumberRef(n uint64) BlockRef {
	return BlockRef{kind: kindNumber, number: n}
}

// HashRef refers to a block by hash.
func HashRef(h common.Hash) BlockRef {
	return BlockRef{kind: kindHash, hash: h}
}

// ParseBlockRef accepts a decimal or 0x-prefixed hex number, a 66 character
// block hash, or a tag.
func ParseBlockRef(s string) (BlockRef, error) {
	switch s = strings.TrimSpace(s); s {
	case "", "latest":
		return Latest, nil
	case "earliest":
		return Earliest, nil
	case "pending":
		return Pending, nil
	}
	if has0xPrefix(s) {
		if len(s) == 2+2*common.HashLength {
			b, err := hexutil.Decode(s)
			if err != nil {
				return BlockRef{}, state.NewInvalidArgumentError("block hash %q: %v", s, err)
			}
			return HashRef(common.BytesToHash(b)), nil
		}
		n, err := strconv.ParseUint(s[2:], 16, 64)
		if err != nil {
			return BlockRef{}, state.NewInvalidArgumentError("block number %q: %v", s, err)
		}
		return NumberRef(n), nil
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return BlockRef{}, state.NewInvalidArgumentError("block reference %q", s)
	}
	return NumberRef(n), nil
}

func has0xPrefix(s string) bool {
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

// IsHash reports whether the ref is a block hash.
func (r BlockRef) IsHash() bool { return r.kind == kindHash }

// Hash returns the block hash of a hash ref.
func (r BlockRef) Hash() (common.Hash, bool) { return r.hash, r.kind == kindHash }

// Number returns the block number of a number ref.
func (r BlockRef) Number() (uint64, bool) { return r.number, r.kind == kindNumber }

// String returns the form used as json-rpc argument.
func (r BlockRef) String() string {
	switch r.kind {
	case kindNumber:
		return hexutil.EncodeUint64(r.number)
	case kindHash:
		return r.hash.Hex()
	default:
		if r.tag == "" {
			return "latest"
		}
		return r.tag
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r BlockRef) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *BlockRef) UnmarshalText(text []byte) error {
	ref, err := ParseBlockRef(string(text))
	if err != nil {
		return err
	}
	*r = ref
	return nil
}
