// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNoopMetrics(t *testing.T) {
	metrics = defaultNoopMetrics()

	server := httptest.NewServer(HTTPHandler())
	t.Cleanup(server.Close)

	Counter("rpc_calls").Add(1)
	CounterVec("rpc_calls_by_method", []string{"method"}).
		AddWithLabel(1, map[string]string{"unknown": "label"})
	Histogram("proof_nodes", BucketNodes).Observe(3)
	HistogramVec("rpc_duration_ms", []string{"method"}, BucketRPCMillis).
		ObserveWithLabels(10, map[string]string{"method": "eth_getProof"})
	Gauge("arena_nodes").Set(42)

	resp, err := http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
