// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package remote

import "github.com/vechain/forkstate/metrics"

var (
	metricCallCount    = metrics.LazyLoadCounterVec("remote_calls_count", []string{"method", "status"})
	metricCallDuration = metrics.LazyLoadHistogramVec("remote_call_duration_ms", []string{"method"}, metrics.BucketRPCMillis)
	metricProofNodes   = metrics.LazyLoadHistogram("remote_proof_nodes", metrics.BucketNodes)
)
