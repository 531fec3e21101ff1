// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package testnode serves a testchain over an in-process json-rpc server,
// exposing the eth_ methods an archive node offers for state access.
package testnode

import (
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/vechain/forkstate/remote"
	"github.com/vechain/forkstate/test/testchain"
)

// Node is an in-process archive node.
type Node struct {
	chain  *testchain.Chain
	server *rpc.Server

	mu     sync.Mutex
	calls  map[string]int
	errors map[string]error

	tamperAccountProof atomic.Bool
	tamperStorageProof atomic.Bool
	tamperCode         atomic.Bool
}

// New starts a node serving the chain.
func New(chain *testchain.Chain) *Node {
	n := &Node{
		chain:  chain,
		server: rpc.NewServer(),
		calls:  make(map[string]int),
		errors: make(map[string]error),
	}
	if err := n.server.RegisterName("eth", &ethService{n}); err != nil {
		panic(err)
	}
	return n
}

// Chain returns the served chain.
func (n *Node) Chain() *testchain.Chain {
	return n.chain
}

// Dial returns a client connected to the node.
func (n *Node) Dial(opts ...remote.Option) *remote.Client {
	return remote.New(rpc.DialInProc(n.server), opts...)
}

// Handler returns the HTTP handler of the node, for clients dialing by URL.
func (n *Node) Handler() http.Handler {
	return n.server
}

// Stop stops the server.
func (n *Node) Stop() {
	n.server.Stop()
}

// Calls returns the number of times method was served.
func (n *Node) Calls(method string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls[method]
}

// TotalCalls returns the number of served calls over all methods.
func (n *Node) TotalCalls() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	total := 0
	for _, c := range n.calls {
		total += c
	}
	return total
}

// ResetCalls zeroes the call counters.
func (n *Node) ResetCalls() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = make(map[string]int)
}

// FailWith makes method fail with err; a nil err restores it.
func (n *Node) FailWith(method string, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err == nil {
		delete(n.errors, method)
		return
	}
	n.errors[method] = err
}

// TamperAccountProofs flips the last byte of the last account proof node.
func (n *Node) TamperAccountProofs(on bool) { n.tamperAccountProof.Store(on) }

// TamperStorageProofs flips the last byte of the last node of every storage proof.
func (n *Node) TamperStorageProofs(on bool) { n.tamperStorageProof.Store(on) }

// TamperCode appends a byte to every served code.
func (n *Node) TamperCode(on bool) { n.tamperCode.Store(on) }

func (n *Node) enter(method string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls[method]++
	return n.errors[method]
}
