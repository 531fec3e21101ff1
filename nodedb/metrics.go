// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package nodedb

import "github.com/vechain/forkstate/metrics"

var (
	metricArenaNodes    = metrics.LazyLoadGauge("arena_nodes")
	metricIngestedNodes = metrics.LazyLoadCounter("arena_ingested_nodes_count")
)
