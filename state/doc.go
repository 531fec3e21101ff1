// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package state defines the state provider contract an EVM engine runs
// against, and the types and errors shared by its implementations.
//
//	        [ engine ]
//	            |
//	      [ state.Store ]
//	       /           \
//	 [ verified ]   [ unverified ]
//	      |               |
//	[ node arena ]  [ flat cache ]
//	       \           /
//	      [ remote node ]
//
// Writes never reach the remote node. Both stores are pinned to one block
// and serve a single writer; a Copy may be handed to another goroutine.
package state
