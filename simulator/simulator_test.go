// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package simulator_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vechain/forkstate/remote"
	"github.com/vechain/forkstate/simulator"
	"github.com/vechain/forkstate/state"
	"github.com/vechain/forkstate/test/datagen"
	"github.com/vechain/forkstate/test/testchain"
	"github.com/vechain/forkstate/test/testnode"
)

var code = []byte{0x60, 0x01, 0x60, 0x00, 0x55}

type fixture struct {
	chain    *testchain.Chain
	node     *testnode.Node
	client   *remote.Client
	from     common.Address
	contract common.Address
	slot     common.Hash
	tx       *types.Transaction
	parent   *testchain.Block
}

func newFixture(t *testing.T) *fixture {
	chain := testchain.New()
	key := testchain.NewKey()
	f := &fixture{
		chain:    chain,
		from:     crypto.PubkeyToAddress(key.PublicKey),
		contract: datagen.RandAddress(),
		slot:     datagen.RandomHash(),
	}
	chain.SetBalance(f.from, uint256.NewInt(1e18))
	chain.SetCode(f.contract, code)
	chain.SetStorage(f.contract, f.slot, common.HexToHash("0x2a"))
	f.parent = chain.Mint()

	f.tx = types.MustSignNewTx(key, testchain.Signer(), &types.AccessListTx{
		ChainID:  testchain.ChainID,
		Nonce:    0,
		Gas:      50_000,
		GasPrice: common.Big1,
		To:       &f.contract,
		Value:    big.NewInt(1000),
		AccessList: types.AccessList{
			{Address: f.contract, StorageKeys: []common.Hash{f.slot}},
		},
	})
	chain.AddTransaction(f.tx)
	chain.SetNonce(f.from, 1)
	chain.SetBalance(f.from, uint256.NewInt(1e18-1000-50_000))
	chain.SetStorage(f.contract, f.slot, common.HexToHash("0x2b"))
	chain.MintWithUncles(2)

	f.node = testnode.New(chain)
	f.client = f.node.Dial()
	t.Cleanup(func() {
		f.client.Close()
		f.node.Stop()
	})
	return f
}

type observed struct {
	env     *simulator.Env
	root    common.Hash
	balance uint64
	nonce   uint64
	value   []byte
	code    []byte
	proofs  int
}

// transfer moves the value of the transaction, like a plain call would.
func (f *fixture) transfer(obs *observed) simulator.Executor {
	return simulator.ExecutorFunc(func(ctx context.Context, env *simulator.Env) (*simulator.Result, error) {
		obs.env = env
		st := env.State
		var err error
		if obs.root, err = st.GetStateRoot(ctx); err != nil {
			return nil, err
		}
		sender, err := st.GetAccount(ctx, env.From)
		if err != nil {
			return nil, err
		}
		obs.balance = sender.Balance.Uint64()
		obs.nonce = sender.Nonce

		obs.proofs = f.node.Calls("eth_getProof")
		if obs.value, err = st.GetContractStorage(ctx, *env.Tx.To(), f.slot[:]); err != nil {
			return nil, err
		}
		if obs.code, err = st.GetContractCode(ctx, *env.Tx.To()); err != nil {
			return nil, err
		}

		st.Checkpoint()
		value := uint256.MustFromBig(env.Tx.Value())
		sender.Balance = new(uint256.Int).Sub(sender.Balance, value)
		if err := st.PutAccount(ctx, env.From, sender); err != nil {
			st.Revert()
			return nil, err
		}
		to, err := st.GetAccount(ctx, *env.Tx.To())
		if err != nil {
			st.Revert()
			return nil, err
		}
		to.Balance = new(uint256.Int).Add(to.Balance, value)
		if err := st.PutAccount(ctx, *env.Tx.To(), to); err != nil {
			st.Revert()
			return nil, err
		}
		st.Commit()
		return &simulator.Result{GasUsed: 21_000}, nil
	})
}

func TestSimulateExistingTx(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var obs observed
	sim := simulator.New(f.client, f.transfer(&obs))
	res, err := sim.SimulateExistingTx(ctx, f.tx.Hash())
	require.NoError(t, err)
	assert.Equal(t, uint64(21_000), res.GasUsed)

	env := obs.env
	assert.Equal(t, uint64(2), env.Header.Number.Uint64())
	assert.Len(t, env.Uncles, 2)
	assert.Equal(t, f.tx.Hash(), env.Tx.Hash())
	assert.Equal(t, f.from, env.From)
	assert.True(t, env.SkipBalance)
	assert.True(t, env.SkipNonce)

	// the state is the one before the transaction
	assert.Equal(t, f.parent.Header.Root, obs.root)
	assert.Equal(t, uint64(1e18), obs.balance)
	assert.Zero(t, obs.nonce)
	assert.Equal(t, []byte{0x2a}, obs.value)

	// the access list was prefetched
	assert.Equal(t, obs.proofs, f.node.Calls("eth_getProof"))

	independent, err := f.client.GetCode(ctx, f.contract, remote.NumberRef(f.parent.Number()))
	require.NoError(t, err)
	assert.Equal(t, independent, obs.code)

	ok, err := env.State.AccountExists(ctx, f.from)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = env.State.AccountExists(ctx, datagen.RandAddress())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSimulateUnverified(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var obs observed
	sim := simulator.New(f.client, f.transfer(&obs), simulator.WithUnverified())
	_, err := sim.SimulateExistingTx(ctx, f.tx.Hash())
	require.NoError(t, err)

	assert.Equal(t, f.parent.Header.Root, obs.root)
	assert.Equal(t, uint64(1e18), obs.balance)
	assert.Equal(t, []byte{0x2a}, obs.value)
	assert.Equal(t, code, obs.code)

	_, err = obs.env.State.GetProof(ctx, f.from, nil)
	assert.ErrorIs(t, err, state.ErrNotSupported)
}

func TestSimulateUnknownTx(t *testing.T) {
	f := newFixture(t)

	sim := simulator.New(f.client, simulator.ExecutorFunc(func(context.Context, *simulator.Env) (*simulator.Result, error) {
		t.Fatal("executor must not run")
		return nil, nil
	}))
	_, err := sim.SimulateExistingTx(context.Background(), datagen.RandomHash())
	assert.True(t, state.IsRemote(err))
	assert.ErrorIs(t, err, ethereum.NotFound)
}

// rewriting wraps the client and alters the transactions it returns.
type rewriting struct {
	*remote.Client
	rewrite func(*remote.Transaction) error
}

func (c *rewriting) TransactionByHash(ctx context.Context, hash common.Hash) (*remote.Transaction, error) {
	rtx, err := c.Client.TransactionByHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	return rtx, c.rewrite(rtx)
}

func TestSimulateBadSender(t *testing.T) {
	f := newFixture(t)
	never := simulator.ExecutorFunc(func(context.Context, *simulator.Env) (*simulator.Result, error) {
		t.Fatal("executor must not run")
		return nil, nil
	})

	tests := []struct {
		name    string
		rewrite func(*remote.Transaction) error
	}{
		{"wrong from", func(rtx *remote.Transaction) error {
			rtx.From = datagen.RandAddress()
			return nil
		}},
		{"invalid signature", func(rtx *remote.Transaction) (err error) {
			rtx.Tx, err = rtx.Tx.WithSignature(testchain.Signer(), make([]byte, crypto.SignatureLength))
			return
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := simulator.New(&rewriting{f.client, tt.rewrite}, never)
			_, err := sim.Prepare(context.Background(), f.tx.Hash())
			assert.True(t, state.IsRemote(err))
		})
	}
}

func TestSimulateSharesCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var obs observed
	sim := simulator.New(f.client, f.transfer(&obs))
	_, err := sim.SimulateExistingTx(ctx, f.tx.Hash())
	require.NoError(t, err)
	assert.Equal(t, 1, f.node.Calls("eth_getCode"))

	f.node.ResetCalls()
	_, err = sim.SimulateExistingTx(ctx, f.tx.Hash())
	require.NoError(t, err)
	assert.Equal(t, code, obs.code)
	assert.Zero(t, f.node.Calls("eth_getCode"))
}
