// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	dto "github.com/prometheus/client_model/go"
)

func gather(t *testing.T) map[string]*dto.MetricFamily {
	prom, ok := metrics.(*prometheusMetrics)
	require.True(t, ok)

	families, err := prom.registry.Gather()
	require.NoError(t, err)

	out := make(map[string]*dto.MetricFamily)
	for _, mf := range families {
		out[mf.GetName()] = mf
	}
	return out
}

func TestPromMetrics(t *testing.T) {
	metrics = newPrometheusMetrics()
	t.Cleanup(func() { metrics = defaultNoopMetrics() })

	calls := Counter("calls")
	for range 5 {
		calls.Add(1)
	}
	// same name yields the same meter
	Counter("calls").Add(2)

	byMethod := CounterVec("calls_by_method", []string{"method"})
	byMethod.AddWithLabel(3, map[string]string{"method": "eth_getProof"})
	byMethod.AddWithLabel(4, map[string]string{"method": "eth_getCode"})

	hist := Histogram("proof_nodes", BucketNodes)
	sum := 0
	for i := range 10 {
		hist.Observe(int64(i))
		sum += i
	}

	HistogramVec("duration_ms", []string{"method"}, nil).
		ObserveWithLabels(12, map[string]string{"method": "eth_getProof"})

	gauge := Gauge("arena_nodes")
	gauge.Set(10)
	gauge.Add(-3)

	families := gather(t)
	require.Equal(t, float64(7), families["forkstate_calls"].Metric[0].GetCounter().GetValue())

	vec := families["forkstate_calls_by_method"].Metric
	require.Len(t, vec, 2)
	require.Equal(t, float64(7), vec[0].GetCounter().GetValue()+vec[1].GetCounter().GetValue())

	require.Equal(t, float64(sum), families["forkstate_proof_nodes"].Metric[0].GetHistogram().GetSampleSum())
	require.Equal(t, uint64(1), families["forkstate_duration_ms"].Metric[0].GetHistogram().GetSampleCount())
	require.Equal(t, float64(7), families["forkstate_arena_nodes"].Metric[0].GetGauge().GetValue())
}

func TestPromHandler(t *testing.T) {
	metrics = newPrometheusMetrics()
	t.Cleanup(func() { metrics = defaultNoopMetrics() })

	Counter("served").Add(1)

	server := httptest.NewServer(HTTPHandler())
	t.Cleanup(server.Close)

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "forkstate_served 1")
}

func TestLazyLoading(t *testing.T) {
	metrics = defaultNoopMetrics()
	t.Cleanup(func() { metrics = defaultNoopMetrics() })

	for _, a := range []any{
		Gauge("noopGauge"),
		Counter("noopCounter"),
		CounterVec("noopCounter", nil),
		Histogram("noopHist", nil),
		HistogramVec("noopHist", nil, nil),
	} {
		require.IsType(t, &noopMeters{}, a)
	}

	lazyGauge := LazyLoadGauge("lazyGauge")
	lazyCounter := LazyLoadCounter("lazyCounter")
	lazyCounterVec := LazyLoadCounterVec("lazyCounterVec", nil)
	lazyHistogram := LazyLoadHistogram("lazyHistogram", nil)
	lazyHistogramVec := LazyLoadHistogramVec("lazyHistogramVec", nil, nil)

	InitializePrometheusMetrics()

	require.IsType(t, &promGaugeMeter{}, lazyGauge())
	require.IsType(t, &promCountMeter{}, lazyCounter())
	require.IsType(t, &promCountVecMeter{}, lazyCounterVec())
	require.IsType(t, &promHistogramMeter{}, lazyHistogram())
	require.IsType(t, &promHistogramVecMeter{}, lazyHistogramVec())
}
