// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"bytes"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vechain/forkstate/state"
	"github.com/vechain/forkstate/test/datagen"
	"github.com/vechain/forkstate/test/testchain"
	"github.com/vechain/forkstate/test/testnode"
)

var code = []byte{0x60, 0x01, 0x60, 0x00, 0x55}

type fixture struct {
	chain *testchain.Chain
	url   string
	addr  common.Address
	slot  common.Hash
}

func newFixture(t *testing.T) *fixture {
	chain := testchain.New()
	f := &fixture{
		chain: chain,
		addr:  datagen.RandAddress(),
		slot:  datagen.RandomHash(),
	}
	chain.SetNonce(f.addr, 3)
	chain.SetBalance(f.addr, uint256.NewInt(1e18))
	chain.SetCode(f.addr, code)
	chain.SetStorage(f.addr, f.slot, common.HexToHash("0x0100"))
	chain.Mint()

	node := testnode.New(chain)
	srv := httptest.NewServer(node.Handler())
	f.url = srv.URL
	t.Cleanup(func() {
		srv.Close()
		node.Stop()
	})
	return f
}

func (f *fixture) run(t *testing.T, out any, args ...string) error {
	app := newApp()
	var buf bytes.Buffer
	app.Writer = &buf
	err := app.Run(append([]string{"forkstate", "--rpc", f.url}, args...))
	if err == nil && out != nil {
		require.NoError(t, json.Unmarshal(buf.Bytes(), out))
	}
	return err
}

func TestAccountCommand(t *testing.T) {
	f := newFixture(t)

	for _, mode := range [][]string{nil, {"--unverified"}} {
		var acc accountJSON
		require.NoError(t, f.run(t, &acc, append(mode, "account", f.addr.Hex())...))
		assert.Equal(t, hexutil.Uint64(3), acc.Nonce)
		assert.Equal(t, uint64(1e18), acc.Balance.ToInt().Uint64())
		assert.Equal(t, crypto.Keccak256Hash(code), acc.CodeHash)
	}

	err := f.run(t, nil, "account", "0x1234")
	assert.True(t, state.IsInvalidArgument(err))
	err = f.run(t, nil, "account")
	assert.True(t, state.IsInvalidArgument(err))
}

func TestCodeAndStorageCommands(t *testing.T) {
	f := newFixture(t)

	var codeOut map[string]hexutil.Bytes
	require.NoError(t, f.run(t, &codeOut, "code", f.addr.Hex()))
	assert.Equal(t, hexutil.Bytes(code), codeOut["code"])

	var storageOut map[string]hexutil.Bytes
	require.NoError(t, f.run(t, &storageOut, "storage", f.addr.Hex(), f.slot.Hex()))
	assert.Equal(t, hexutil.Bytes{0x01, 0x00}, storageOut["value"])

	err := f.run(t, nil, "storage", f.addr.Hex(), "0x01")
	assert.True(t, state.IsInvalidArgument(err))
}

func TestProofAndExistsCommands(t *testing.T) {
	f := newFixture(t)

	var proof state.AccountProof
	require.NoError(t, f.run(t, &proof, "proof", f.addr.Hex(), f.slot.Hex()))
	assert.Equal(t, f.addr, proof.Address)
	require.Len(t, proof.StorageProof, 1)
	assert.Equal(t, "0x100", proof.StorageProof[0].Value.String())

	var exists map[string]bool
	require.NoError(t, f.run(t, &exists, "exists", f.addr.Hex()))
	assert.True(t, exists["exists"])
	require.NoError(t, f.run(t, &exists, "exists", datagen.RandAddress().Hex()))
	assert.False(t, exists["exists"])

	err := f.run(t, nil, "--unverified", "proof", f.addr.Hex())
	assert.ErrorIs(t, err, state.ErrNotSupported)
}

func TestDumpCommand(t *testing.T) {
	f := newFixture(t)
	want := state.StorageDump{hexutil.Encode(crypto.Keccak256(f.slot[:])): "0x820100"}

	for _, mode := range [][]string{nil, {"--unverified"}} {
		var dump state.StorageDump
		require.NoError(t, f.run(t, &dump, append(mode, "dump", f.addr.Hex(), f.slot.Hex())...))
		assert.Equal(t, want, dump)
	}
}

func TestRootCommandAndConfig(t *testing.T) {
	f := newFixture(t)
	genesis, _ := f.chain.BlockByNumber(0)

	var out map[string]common.Hash
	require.NoError(t, f.run(t, &out, "root"))
	assert.Equal(t, f.chain.Head().Header.Root, out["stateRoot"])

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("block: earliest\nverbosity: 1\n"), 0o600))

	require.NoError(t, f.run(t, &out, "--config", path, "root"))
	assert.Equal(t, genesis.Header.Root, out["stateRoot"])

	// flags override the file
	require.NoError(t, f.run(t, &out, "--config", path, "--block", "1", "root"))
	assert.Equal(t, f.chain.Head().Header.Root, out["stateRoot"])

	require.NoError(t, os.WriteFile(path, []byte("blocks: 1\n"), 0o600))
	assert.Error(t, f.run(t, nil, "--config", path, "root"))
}

func TestPrepareCommand(t *testing.T) {
	f := newFixture(t)
	key := testchain.NewKey()
	from := crypto.PubkeyToAddress(key.PublicKey)
	f.chain.SetBalance(from, uint256.NewInt(1e18))
	parent := f.chain.Mint()

	tx := types.MustSignNewTx(key, testchain.Signer(), &types.LegacyTx{
		Gas:      21000,
		GasPrice: common.Big1,
		To:       &f.addr,
		Value:    big.NewInt(1),
	})
	f.chain.AddTransaction(tx)
	blk := f.chain.MintWithUncles(1)

	var out prepareJSON
	require.NoError(t, f.run(t, &out, "prepare", tx.Hash().Hex()))
	assert.Equal(t, tx.Hash(), out.Tx)
	assert.Equal(t, from, out.From)
	assert.Equal(t, hexutil.Uint64(blk.Number()), out.BlockNumber)
	assert.Equal(t, blk.Hash(), out.BlockHash)
	assert.Equal(t, 1, out.Uncles)
	assert.Equal(t, parent.Header.Root, out.StateRoot)
}

func TestMetricsServer(t *testing.T) {
	url, stop, err := startMetricsServer("127.0.0.1:0")
	require.NoError(t, err)

	// the noop backend serves nothing
	res, err := http.Get(url)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	stop()
	_, err = http.Get(url)
	assert.Error(t, err)
}
