// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package verified

import (
	"maps"

	"github.com/ethereum/go-ethereum/common"
)

// ledger records what was fetched and verified from the remote node, so that
// nothing is fetched twice and local writes are never shadowed by a re-fetch.
type ledger struct {
	accounts map[common.Address]struct{}
	slots    map[common.Address]map[common.Hash]struct{}
	// storage of these accounts is fully local
	cleared map[common.Address]struct{}
}

func newLedger() *ledger {
	return &ledger{
		accounts: make(map[common.Address]struct{}),
		slots:    make(map[common.Address]map[common.Hash]struct{}),
		cleared:  make(map[common.Address]struct{}),
	}
}

func (l *ledger) hasAccount(addr common.Address) bool {
	_, ok := l.accounts[addr]
	return ok
}

func (l *ledger) markAccount(addr common.Address) {
	l.accounts[addr] = struct{}{}
}

func (l *ledger) hasSlot(addr common.Address, slot []byte) bool {
	if _, ok := l.cleared[addr]; ok {
		return true
	}
	_, ok := l.slots[addr][common.BytesToHash(slot)]
	return ok
}

func (l *ledger) markSlot(addr common.Address, slot []byte) {
	m, ok := l.slots[addr]
	if !ok {
		m = make(map[common.Hash]struct{})
		l.slots[addr] = m
	}
	m[common.BytesToHash(slot)] = struct{}{}
}

func (l *ledger) markCleared(addr common.Address) {
	l.accounts[addr] = struct{}{}
	l.cleared[addr] = struct{}{}
}

// knownSlots returns the slots of addr fetched or written so far.
func (l *ledger) knownSlots(addr common.Address) []common.Hash {
	out := make([]common.Hash, 0, len(l.slots[addr]))
	for slot := range l.slots[addr] {
		out = append(out, slot)
	}
	return out
}

func (l *ledger) copy() *ledger {
	cpy := &ledger{
		accounts: maps.Clone(l.accounts),
		slots:    make(map[common.Address]map[common.Hash]struct{}, len(l.slots)),
		cleared:  maps.Clone(l.cleared),
	}
	for addr, m := range l.slots {
		cpy.slots[addr] = maps.Clone(m)
	}
	return cpy
}
