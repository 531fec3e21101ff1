// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package verified

import "github.com/vechain/forkstate/metrics"

var (
	metricFetches       = metrics.LazyLoadCounterVec("verified_fetches_count", []string{"reason"})
	metricProofFailures = metrics.LazyLoadCounter("verified_proof_failures_count")
)
