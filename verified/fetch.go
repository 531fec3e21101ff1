// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package verified

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/trie"
	"github.com/pkg/errors"
	"github.com/vechain/forkstate/nodedb"
	"github.com/vechain/forkstate/remote"
	"github.com/vechain/forkstate/state"
	"golang.org/x/sync/errgroup"
)

// Request names an account and some of its slots to fetch.
type Request struct {
	Address common.Address
	Keys    [][]byte
}

// verify checks the proof of an account against the anchor root, and the
// proof of each slot against the storage root of the verified account.
// It returns every node of the proofs, and the verified account.
func (s *Store) verify(addr common.Address, slots [][]byte, res *remote.AccountResult) ([][]byte, *state.Account, error) {
	accNodes := res.AccountNodes()
	leaf, err := nodedb.VerifyProof(s.anchor.Root, hashAddr(addr), accNodes)
	if err != nil {
		return nil, nil, state.NewProofError(errors.Wrapf(err, "account %v", addr))
	}
	acc := state.NewEmptyAccount()
	if leaf != nil {
		if acc, err = state.DecodeAccount(leaf); err != nil {
			return nil, nil, state.NewProofError(errors.Wrapf(err, "account %v", addr))
		}
	}

	nodes := append([][]byte(nil), accNodes...)
	for _, slot := range slots {
		sp, ok := res.StorageProofFor(slot)
		if !ok {
			return nil, nil, state.NewProofError(errors.Errorf("missing proof of slot %x of %v", slot, addr))
		}
		spNodes := sp.Nodes()
		if _, err := nodedb.VerifyProof(acc.Root, crypto.Keccak256(slot), spNodes); err != nil {
			return nil, nil, state.NewProofError(errors.Wrapf(err, "slot %x of %v", slot, addr))
		}
		nodes = append(nodes, spNodes...)
	}
	return nodes, acc, nil
}

// ingest verifies a fetched proof and adds its nodes to the arena.
// Nothing is added when verification fails.
func (s *Store) ingest(addr common.Address, slots [][]byte, res *remote.AccountResult) error {
	nodes, _, err := s.verify(addr, slots, res)
	if err != nil {
		metricProofFailures().Add(1)
		s.logger.Warn("proof rejected", "addr", addr, "err", err)
		return err
	}
	added, err := s.arena.Ingest(nodes)
	if err != nil {
		return err
	}
	s.ledger.markAccount(addr)
	for _, slot := range slots {
		s.ledger.markSlot(addr, slot)
	}
	s.logger.Debug("ingested proof", "addr", addr, "slots", len(slots), "nodes", len(nodes), "new", added)
	return nil
}

// fetch retrieves and ingests the proof of an account and some of its slots.
func (s *Store) fetch(ctx context.Context, reason string, addr common.Address, slots [][]byte) error {
	if err := s.ensureAnchor(ctx); err != nil {
		return err
	}
	metricFetches().AddWithLabel(1, map[string]string{"reason": reason})
	res, err := s.fetcher.GetProof(ctx, addr, slots, s.ref)
	if err != nil {
		return err
	}
	return s.ingest(addr, slots, res)
}

// withNodes runs op, and when op stumbles on a node not yet in the arena,
// fetches the proof of the account and slots and runs op once more.
func (s *Store) withNodes(ctx context.Context, addr common.Address, slots [][]byte, op func() error) error {
	if err := s.ensureAnchor(ctx); err != nil {
		return err
	}
	err := op()
	var missing *trie.MissingNodeError
	if !errors.As(err, &missing) {
		return err
	}
	s.logger.Trace("missing node", "addr", addr, "node", missing.NodeHash)
	if err := s.fetch(ctx, "missing", addr, slots); err != nil {
		return err
	}
	return op()
}

// Prefetch fetches the given accounts and slots not fetched yet. Proofs are
// retrieved in parallel and then verified and ingested one by one.
func (s *Store) Prefetch(ctx context.Context, reqs ...Request) error {
	if err := s.ensureAnchor(ctx); err != nil {
		return err
	}

	var pending []Request
	for _, req := range reqs {
		var keys [][]byte
		for _, key := range req.Keys {
			if err := state.ValidateStorageKey(key); err != nil {
				return err
			}
			if !s.ledger.hasSlot(req.Address, key) {
				keys = append(keys, key)
			}
		}
		if len(keys) > 0 || !s.ledger.hasAccount(req.Address) {
			pending = append(pending, Request{Address: req.Address, Keys: keys})
		}
	}
	if len(pending) == 0 {
		return nil
	}

	results := make([]*remote.AccountResult, len(pending))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, req := range pending {
		g.Go(func() error {
			res, err := s.fetcher.GetProof(gctx, req.Address, req.Keys, s.ref)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	metricFetches().AddWithLabel(int64(len(pending)), map[string]string{"reason": "prefetch"})
	for i, req := range pending {
		if err := s.ingest(req.Address, req.Keys, results[i]); err != nil {
			return err
		}
	}
	return nil
}

// PrefetchAccounts fetches the given accounts not fetched yet.
func (s *Store) PrefetchAccounts(ctx context.Context, addrs []common.Address) error {
	reqs := make([]Request, len(addrs))
	for i, addr := range addrs {
		reqs[i] = Request{Address: addr}
	}
	return s.Prefetch(ctx, reqs...)
}
