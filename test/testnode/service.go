// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package testnode

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/vechain/forkstate/remote"
	"github.com/vechain/forkstate/test/testchain"
)

// ethService implements the eth_ namespace.
type ethService struct {
	n *Node
}

func (s *ethService) block(ref rpc.BlockNumberOrHash) (*testchain.Block, error) {
	if hash, ok := ref.Hash(); ok {
		if blk, ok := s.n.chain.BlockByHash(hash); ok {
			return blk, nil
		}
		return nil, fmt.Errorf("block %v not found", hash)
	}
	num, _ := ref.Number()
	return s.blockByNumber(num)
}

func (s *ethService) blockByNumber(num rpc.BlockNumber) (*testchain.Block, error) {
	switch {
	case num == rpc.EarliestBlockNumber:
		num = 0
	case num < 0:
		return s.n.chain.Head(), nil
	}
	if blk, ok := s.n.chain.BlockByNumber(uint64(num)); ok {
		return blk, nil
	}
	return nil, fmt.Errorf("block %d not found", num)
}

func (s *ethService) GetProof(_ context.Context, addr common.Address, keys []string, ref rpc.BlockNumberOrHash) (*remote.AccountResult, error) {
	if err := s.n.enter("eth_getProof"); err != nil {
		return nil, err
	}
	blk, err := s.block(ref)
	if err != nil {
		return nil, err
	}
	slots := make([]common.Hash, 0, len(keys))
	for _, k := range keys {
		slots = append(slots, common.HexToHash(k))
	}
	res, err := s.n.chain.Proof(blk.Header.Root, addr, slots)
	if err != nil {
		return nil, err
	}
	if s.n.tamperAccountProof.Load() {
		res.AccountProof = tamper(res.AccountProof)
	}
	if s.n.tamperStorageProof.Load() {
		for i := range res.StorageProof {
			res.StorageProof[i].Proof = tamper(res.StorageProof[i].Proof)
		}
	}
	return res, nil
}

func tamper(nodes []hexutil.Bytes) []hexutil.Bytes {
	if len(nodes) == 0 {
		return nodes
	}
	out := make([]hexutil.Bytes, len(nodes))
	copy(out, nodes)
	last := common.CopyBytes(out[len(out)-1])
	last[len(last)-1] ^= 0xff
	out[len(out)-1] = last
	return out
}

func (s *ethService) GetCode(_ context.Context, addr common.Address, ref rpc.BlockNumberOrHash) (hexutil.Bytes, error) {
	if err := s.n.enter("eth_getCode"); err != nil {
		return nil, err
	}
	blk, err := s.block(ref)
	if err != nil {
		return nil, err
	}
	acc, err := s.n.chain.Account(blk.Header.Root, addr)
	if err != nil {
		return nil, err
	}
	code := common.CopyBytes(s.n.chain.Code(common.BytesToHash(acc.CodeHash)))
	if s.n.tamperCode.Load() {
		code = append(code, 0xfe)
	}
	return code, nil
}

func (s *ethService) GetBalance(_ context.Context, addr common.Address, ref rpc.BlockNumberOrHash) (*hexutil.Big, error) {
	if err := s.n.enter("eth_getBalance"); err != nil {
		return nil, err
	}
	blk, err := s.block(ref)
	if err != nil {
		return nil, err
	}
	acc, err := s.n.chain.Account(blk.Header.Root, addr)
	if err != nil {
		return nil, err
	}
	return (*hexutil.Big)(acc.Balance.ToBig()), nil
}

func (s *ethService) GetTransactionCount(_ context.Context, addr common.Address, ref rpc.BlockNumberOrHash) (hexutil.Uint64, error) {
	if err := s.n.enter("eth_getTransactionCount"); err != nil {
		return 0, err
	}
	blk, err := s.block(ref)
	if err != nil {
		return 0, err
	}
	acc, err := s.n.chain.Account(blk.Header.Root, addr)
	if err != nil {
		return 0, err
	}
	return hexutil.Uint64(acc.Nonce), nil
}

func (s *ethService) GetStorageAt(_ context.Context, addr common.Address, key string, ref rpc.BlockNumberOrHash) (hexutil.Bytes, error) {
	if err := s.n.enter("eth_getStorageAt"); err != nil {
		return nil, err
	}
	blk, err := s.block(ref)
	if err != nil {
		return nil, err
	}
	value, err := s.n.chain.Storage(blk.Header.Root, addr, common.HexToHash(key))
	if err != nil {
		return nil, err
	}
	return common.LeftPadBytes(value, common.HashLength), nil
}

func (s *ethService) GetBlockByNumber(_ context.Context, num rpc.BlockNumber, _ bool) (json.RawMessage, error) {
	if err := s.n.enter("eth_getBlockByNumber"); err != nil {
		return nil, err
	}
	blk, err := s.blockByNumber(num)
	if err != nil {
		return json.RawMessage("null"), nil
	}
	return marshalBlock(blk)
}

func (s *ethService) GetBlockByHash(_ context.Context, hash common.Hash, _ bool) (json.RawMessage, error) {
	if err := s.n.enter("eth_getBlockByHash"); err != nil {
		return nil, err
	}
	blk, ok := s.n.chain.BlockByHash(hash)
	if !ok {
		return json.RawMessage("null"), nil
	}
	return marshalBlock(blk)
}

func (s *ethService) GetUncleByBlockHashAndIndex(_ context.Context, hash common.Hash, index hexutil.Uint) (*types.Header, error) {
	if err := s.n.enter("eth_getUncleByBlockHashAndIndex"); err != nil {
		return nil, err
	}
	blk, ok := s.n.chain.BlockByHash(hash)
	if !ok || int(index) >= len(blk.Uncles) {
		return nil, nil
	}
	return blk.Uncles[index], nil
}

func (s *ethService) GetTransactionByHash(_ context.Context, hash common.Hash) (json.RawMessage, error) {
	if err := s.n.enter("eth_getTransactionByHash"); err != nil {
		return nil, err
	}
	rec, ok := s.n.chain.Transaction(hash)
	if !ok {
		return json.RawMessage("null"), nil
	}
	fields, err := toFields(rec.Tx)
	if err != nil {
		return nil, err
	}
	fields["blockNumber"] = (*hexutil.Big)(new(big.Int).SetUint64(rec.Block.Number()))
	fields["blockHash"] = rec.Block.Hash()
	fields["from"] = rec.From
	fields["transactionIndex"] = hexutil.Uint(rec.Index)
	return json.Marshal(fields)
}

func marshalBlock(blk *testchain.Block) (json.RawMessage, error) {
	fields, err := toFields(blk.Header)
	if err != nil {
		return nil, err
	}
	uncles := make([]common.Hash, 0, len(blk.Uncles))
	for _, u := range blk.Uncles {
		uncles = append(uncles, u.Hash())
	}
	txs := make([]common.Hash, 0, len(blk.Txs))
	for _, tx := range blk.Txs {
		txs = append(txs, tx.Hash())
	}
	fields["hash"] = blk.Hash()
	fields["uncles"] = uncles
	fields["transactions"] = txs
	return json.Marshal(fields)
}

func toFields(v any) (map[string]any, error) {
	enc, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(enc, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}
