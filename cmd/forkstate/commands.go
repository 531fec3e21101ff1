// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/forkstate/remote"
	"github.com/vechain/forkstate/simulator"
	"github.com/vechain/forkstate/state"
	"github.com/vechain/forkstate/verified"
)

type commandFunc func(ctx context.Context, e *env, args cli.Args) (any, error)

// run checks the argument count, sets up the store and prints the result as JSON.
func run(cliCtx *cli.Context, minArgs, maxArgs int, fn commandFunc) error {
	args := cliCtx.Args()
	if len(args) < minArgs || (maxArgs >= 0 && len(args) > maxArgs) {
		return state.NewInvalidArgumentError("%v: wrong number of arguments, usage: %v", cliCtx.Command.Name, cliCtx.Command.ArgsUsage)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := setup(ctx, cliCtx)
	if err != nil {
		return err
	}
	defer e.close()

	out, err := fn(ctx, e, args)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cliCtx.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, state.NewInvalidArgumentError("invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}

func parseSlots(args []string) ([][]byte, error) {
	slots := make([][]byte, 0, len(args))
	for _, arg := range args {
		slot, err := hexutil.Decode(arg)
		if err != nil {
			return nil, state.NewInvalidArgumentError("invalid slot %q: %v", arg, err)
		}
		if err := state.ValidateStorageKey(slot); err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

type accountJSON struct {
	Address     common.Address `json:"address"`
	Nonce       hexutil.Uint64 `json:"nonce"`
	Balance     *hexutil.Big   `json:"balance"`
	CodeHash    common.Hash    `json:"codeHash"`
	StorageRoot common.Hash    `json:"storageRoot"`
}

func accountAction(cliCtx *cli.Context) error {
	return run(cliCtx, 1, 1, func(ctx context.Context, e *env, args cli.Args) (any, error) {
		addr, err := parseAddress(args[0])
		if err != nil {
			return nil, err
		}
		acc, err := e.store.GetAccount(ctx, addr)
		if err != nil {
			return nil, err
		}
		return &accountJSON{
			Address:     addr,
			Nonce:       hexutil.Uint64(acc.Nonce),
			Balance:     (*hexutil.Big)(acc.Balance.ToBig()),
			CodeHash:    common.BytesToHash(acc.CodeHash),
			StorageRoot: acc.Root,
		}, nil
	})
}

func codeAction(cliCtx *cli.Context) error {
	return run(cliCtx, 1, 1, func(ctx context.Context, e *env, args cli.Args) (any, error) {
		addr, err := parseAddress(args[0])
		if err != nil {
			return nil, err
		}
		code, err := e.store.GetContractCode(ctx, addr)
		if err != nil {
			return nil, err
		}
		return map[string]hexutil.Bytes{"code": code}, nil
	})
}

func storageAction(cliCtx *cli.Context) error {
	return run(cliCtx, 2, 2, func(ctx context.Context, e *env, args cli.Args) (any, error) {
		addr, err := parseAddress(args[0])
		if err != nil {
			return nil, err
		}
		slots, err := parseSlots(args[1:])
		if err != nil {
			return nil, err
		}
		value, err := e.store.GetContractStorage(ctx, addr, slots[0])
		if err != nil {
			return nil, err
		}
		return map[string]hexutil.Bytes{"value": value}, nil
	})
}

func proofAction(cliCtx *cli.Context) error {
	return run(cliCtx, 1, -1, func(ctx context.Context, e *env, args cli.Args) (any, error) {
		addr, err := parseAddress(args[0])
		if err != nil {
			return nil, err
		}
		slots, err := parseSlots(args[1:])
		if err != nil {
			return nil, err
		}
		return e.store.GetProof(ctx, addr, slots)
	})
}

func existsAction(cliCtx *cli.Context) error {
	return run(cliCtx, 1, 1, func(ctx context.Context, e *env, args cli.Args) (any, error) {
		addr, err := parseAddress(args[0])
		if err != nil {
			return nil, err
		}
		ok, err := e.store.AccountExists(ctx, addr)
		if err != nil {
			return nil, err
		}
		return map[string]bool{"exists": ok}, nil
	})
}

func dumpAction(cliCtx *cli.Context) error {
	return run(cliCtx, 1, -1, func(ctx context.Context, e *env, args cli.Args) (any, error) {
		addr, err := parseAddress(args[0])
		if err != nil {
			return nil, err
		}
		slots, err := parseSlots(args[1:])
		if err != nil {
			return nil, err
		}
		if vs, ok := e.store.(*verified.Store); ok {
			if err := vs.Prefetch(ctx, verified.Request{Address: addr, Keys: slots}); err != nil {
				return nil, err
			}
		} else {
			for _, slot := range slots {
				if _, err := e.store.GetContractStorage(ctx, addr, slot); err != nil {
					return nil, err
				}
			}
		}
		return e.store.DumpStorage(ctx, addr)
	})
}

func rootAction(cliCtx *cli.Context) error {
	return run(cliCtx, 0, 0, func(ctx context.Context, e *env, _ cli.Args) (any, error) {
		root, err := e.store.GetStateRoot(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]common.Hash{"stateRoot": root}, nil
	})
}

type prepareJSON struct {
	Tx          common.Hash    `json:"tx"`
	From        common.Address `json:"from"`
	BlockNumber hexutil.Uint64 `json:"blockNumber"`
	BlockHash   common.Hash    `json:"blockHash"`
	Uncles      int            `json:"uncles"`
	ParentRef   string         `json:"parent"`
	StateRoot   common.Hash    `json:"stateRoot"`
}

func prepareAction(cliCtx *cli.Context) error {
	return run(cliCtx, 1, 1, func(ctx context.Context, e *env, args cli.Args) (any, error) {
		hash, err := hexutil.Decode(args[0])
		if err != nil || len(hash) != common.HashLength {
			return nil, state.NewInvalidArgumentError("invalid transaction hash %q", args[0])
		}
		opts := []simulator.Option{simulator.WithLogger(e.logger)}
		if e.cfg.Unverified {
			opts = append(opts, simulator.WithUnverified())
		}
		txEnv, err := simulator.New(e.client, nil, opts...).Prepare(ctx, common.BytesToHash(hash))
		if err != nil {
			return nil, err
		}
		root, err := txEnv.State.GetStateRoot(ctx)
		if err != nil {
			return nil, err
		}
		return &prepareJSON{
			Tx:          txEnv.Tx.Hash(),
			From:        txEnv.From,
			BlockNumber: hexutil.Uint64(txEnv.Header.Number.Uint64()),
			BlockHash:   txEnv.Header.Hash(),
			Uncles:      len(txEnv.Uncles),
			ParentRef:   remote.HashRef(txEnv.Header.ParentHash).String(),
			StateRoot:   root,
		}, nil
	})
}
