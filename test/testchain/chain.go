// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package testchain builds an in-memory archive chain: blocks whose world
// state is committed to a complete node arena, so that genuine proofs can be
// served for any block.
package testchain

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/trie"
	"github.com/holiman/uint256"
	"github.com/vechain/forkstate/nodedb"
	"github.com/vechain/forkstate/state"
)

// ChainID is the chain id transactions are signed for.
var ChainID = big.NewInt(1337)

// Block is a minted block.
type Block struct {
	Header *types.Header
	Uncles []*types.Header
	Txs    types.Transactions
}

// Hash returns the block hash.
func (b *Block) Hash() common.Hash { return b.Header.Hash() }

// Number returns the block number.
func (b *Block) Number() uint64 { return b.Header.Number.Uint64() }

// TxRecord locates an included transaction.
type TxRecord struct {
	Tx    *types.Transaction
	From  common.Address
	Block *Block
	Index int
}

type account struct {
	nonce   uint64
	balance *uint256.Int
	code    []byte
	storage map[common.Hash]common.Hash
}

// Chain is an in-memory chain. World state edits apply to the next minted block.
type Chain struct {
	mu      sync.RWMutex
	arena   *nodedb.Arena
	codes   map[common.Hash][]byte
	world   map[common.Address]*account
	pending types.Transactions
	blocks  []*Block
	byHash  map[common.Hash]*Block
	txs     map[common.Hash]*TxRecord
}

// New creates a chain holding an empty genesis block.
func New() *Chain {
	c := &Chain{
		arena:  nodedb.New(),
		codes:  make(map[common.Hash][]byte),
		world:  make(map[common.Address]*account),
		byHash: make(map[common.Hash]*Block),
		txs:    make(map[common.Hash]*TxRecord),
	}
	c.Mint()
	return c
}

// Signer returns the signer of the chain.
func Signer() types.Signer {
	return types.LatestSignerForChainID(ChainID)
}

// NewKey generates an account key.
func NewKey() *ecdsa.PrivateKey {
	key, err := crypto.GenerateKey()
	if err != nil {
		panic(err)
	}
	return key
}

func (c *Chain) account(addr common.Address) *account {
	acc, ok := c.world[addr]
	if !ok {
		acc = &account{balance: new(uint256.Int), storage: make(map[common.Hash]common.Hash)}
		c.world[addr] = acc
	}
	return acc
}

// SetBalance sets the balance of addr.
func (c *Chain) SetBalance(addr common.Address, balance *uint256.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.account(addr).balance = new(uint256.Int).Set(balance)
}

// SetNonce sets the nonce of addr.
func (c *Chain) SetNonce(addr common.Address, nonce uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.account(addr).nonce = nonce
}

// SetCode sets the code of addr.
func (c *Chain) SetCode(addr common.Address, code []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.account(addr).code = common.CopyBytes(code)
}

// SetStorage sets a slot of addr. A zero value removes the slot.
func (c *Chain) SetStorage(addr common.Address, slot, value common.Hash) {
	c.mu.Lock()
	defer c.mu.Unlock()
	acc := c.account(addr)
	if value == (common.Hash{}) {
		delete(acc.storage, slot)
		return
	}
	acc.storage[slot] = value
}

// AddTransaction queues a signed transaction for the next block.
func (c *Chain) AddTransaction(tx *types.Transaction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = append(c.pending, tx)
}

// Mint commits the world state and queued transactions into a new block.
func (c *Chain) Mint() *Block {
	return c.MintWithUncles(0)
}

// MintWithUncles mints a block referencing n uncles.
func (c *Chain) MintWithUncles(n int) *Block {
	c.mu.Lock()
	defer c.mu.Unlock()

	root, err := c.commitWorld()
	if err != nil {
		panic(fmt.Sprintf("commit world state: %v", err))
	}

	number := uint64(len(c.blocks))
	header := &types.Header{
		UncleHash:   types.EmptyUncleHash,
		Root:        root,
		TxHash:      types.DeriveSha(c.pending, trie.NewStackTrie(nil)),
		ReceiptHash: types.EmptyReceiptsHash,
		Difficulty:  big.NewInt(1),
		Number:      new(big.Int).SetUint64(number),
		GasLimit:    30_000_000,
		Time:        1_700_000_000 + number*12,
		Extra:       []byte("forkstate"),
	}
	blk := &Block{Header: header, Txs: c.pending}
	if number > 0 {
		parent := c.blocks[number-1]
		header.ParentHash = parent.Hash()
		for i := range n {
			blk.Uncles = append(blk.Uncles, &types.Header{
				ParentHash:  parent.Header.ParentHash,
				UncleHash:   types.EmptyUncleHash,
				Root:        parent.Header.Root,
				TxHash:      types.EmptyTxsHash,
				ReceiptHash: types.EmptyReceiptsHash,
				Difficulty:  big.NewInt(1),
				Number:      new(big.Int).SetUint64(number - 1),
				GasLimit:    30_000_000,
				Time:        parent.Header.Time + 1,
				Extra:       []byte{'u', 'n', 'c', 'l', 'e', byte(i)},
			})
		}
		if len(blk.Uncles) > 0 {
			header.UncleHash = types.CalcUncleHash(blk.Uncles)
		}
	}

	c.blocks = append(c.blocks, blk)
	c.byHash[blk.Hash()] = blk
	signer := Signer()
	for i, tx := range c.pending {
		from, err := types.Sender(signer, tx)
		if err != nil {
			panic(fmt.Sprintf("recover sender: %v", err))
		}
		c.txs[tx.Hash()] = &TxRecord{Tx: tx, From: from, Block: blk, Index: i}
	}
	c.pending = nil
	return blk
}

func (c *Chain) commitWorld() (common.Hash, error) {
	st, err := c.arena.OpenStateTrie(types.EmptyRootHash)
	if err != nil {
		return common.Hash{}, err
	}
	for addr, acc := range c.world {
		addrHash := crypto.Keccak256Hash(addr[:])
		storageRoot := types.EmptyRootHash
		if len(acc.storage) > 0 {
			str, err := c.arena.OpenStorageTrie(addrHash, types.EmptyRootHash)
			if err != nil {
				return common.Hash{}, err
			}
			for slot, value := range acc.storage {
				if err := str.Update(crypto.Keccak256(slot[:]), state.EncodeStorageValue(value[:])); err != nil {
					return common.Hash{}, err
				}
			}
			root, set := str.Commit(false)
			if err := c.arena.Commit(set); err != nil {
				return common.Hash{}, err
			}
			storageRoot = root
		}
		codeHash := crypto.Keccak256Hash(acc.code)
		c.codes[codeHash] = acc.code

		enc, err := state.EncodeAccount(&state.Account{
			Nonce:    acc.nonce,
			Balance:  acc.balance,
			Root:     storageRoot,
			CodeHash: codeHash.Bytes(),
		})
		if err != nil {
			return common.Hash{}, err
		}
		if err := st.Update(addrHash[:], enc); err != nil {
			return common.Hash{}, err
		}
	}
	root, set := st.Commit(false)
	return root, c.arena.Commit(set)
}

// Head returns the latest block.
func (c *Chain) Head() *Block {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.blocks[len(c.blocks)-1]
}

// BlockByNumber returns the block with the given number.
func (c *Chain) BlockByNumber(n uint64) (*Block, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if n >= uint64(len(c.blocks)) {
		return nil, false
	}
	return c.blocks[n], true
}

// BlockByHash returns the block with the given hash.
func (c *Chain) BlockByHash(h common.Hash) (*Block, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	blk, ok := c.byHash[h]
	return blk, ok
}

// Transaction returns the record of an included transaction.
func (c *Chain) Transaction(h common.Hash) (*TxRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.txs[h]
	return rec, ok
}

// Code returns the code with the given hash.
func (c *Chain) Code(h common.Hash) []byte {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.codes[h]
}

// Arena returns the complete node arena of the chain.
func (c *Chain) Arena() *nodedb.Arena {
	return c.arena
}
