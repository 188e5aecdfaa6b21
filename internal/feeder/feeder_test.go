package feeder

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProm emulates the subset of the Prometheus HTTP API the feeder
// touches: instant queries returning a vector keyed by query expression.
func fakeProm(t *testing.T, values map[string]float64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		query := r.Form.Get("query")

		w.Header().Set("Content-Type", "application/json")
		v, ok := values[query]
		if !ok {
			fmt.Fprint(w, `{"status":"success","data":{"resultType":"vector","result":[]}}`)
			return
		}
		fmt.Fprintf(w, `{"status":"success","data":{"resultType":"vector","result":[{"metric":{"__name__":"x"},"value":[%d,"%g"]}]}}`,
			time.Now().Unix(), v)
	}))
}

func TestPollOnce(t *testing.T) {
	prom := fakeProm(t, map[string]float64{
		`sum(vulns{severity="critical"})`: 3,
		`rate(failed_logins[5m])`:         0.5,
	})
	defer prom.Close()

	var mu sync.Mutex
	var received map[string]any
	var gotAuth string
	sink := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		gotAuth = r.Header.Get("Authorization")
		require.Equal(t, "/v1/metrics", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		fmt.Fprint(w, `{"alerts":[],"count":0}`)
	}))
	defer sink.Close()

	cfg := &Config{
		Prometheus: PrometheusConfig{Address: prom.URL},
		Watchpost:  WatchpostConfig{BaseURL: sink.URL, APIToken: "tok-1", SessionID: "sess-1"},
		Queries: []MetricQuery{
			{Metric: "critical_vuln_count", Query: `sum(vulns{severity="critical"})`},
			{Metric: "failed_login_rate", Query: `rate(failed_logins[5m])`},
			{Metric: "open_port_count", Query: `count(open_ports)`}, // no series: omitted
		},
	}
	promClient, err := NewPromClient(prom.URL)
	require.NoError(t, err)

	f := New(cfg, promClient)
	snapshot, err := f.PollOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"critical_vuln_count": 3, "failed_login_rate": 0.5}, snapshot)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "Bearer tok-1", gotAuth)
	assert.Equal(t, "sess-1", received["session_id"])
	metrics := received["metrics"].(map[string]any)
	assert.Equal(t, 3.0, metrics["critical_vuln_count"])

	last, _, lastErr := f.Status()
	assert.Equal(t, snapshot, last)
	assert.Empty(t, lastErr)
}

func TestPollOnceNoSamples(t *testing.T) {
	prom := fakeProm(t, nil)
	defer prom.Close()

	cfg := &Config{
		Prometheus: PrometheusConfig{Address: prom.URL},
		Watchpost:  WatchpostConfig{BaseURL: "http://unused.invalid"},
		Queries:    []MetricQuery{{Metric: "open_port_count", Query: "count(open_ports)"}},
	}
	promClient, err := NewPromClient(prom.URL)
	require.NoError(t, err)

	_, err = New(cfg, promClient).PollOnce(context.Background())
	assert.Error(t, err)
}

func TestPollOncePushFailure(t *testing.T) {
	prom := fakeProm(t, map[string]float64{"up": 1})
	defer prom.Close()

	sink := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer sink.Close()

	cfg := &Config{
		Prometheus: PrometheusConfig{Address: prom.URL},
		Watchpost:  WatchpostConfig{BaseURL: sink.URL},
		Queries:    []MetricQuery{{Metric: "scanner_up", Query: "up"}},
	}
	promClient, err := NewPromClient(prom.URL)
	require.NoError(t, err)

	f := New(cfg, promClient)
	snapshot, err := f.PollOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Equal(t, map[string]float64{"scanner_up": 1}, snapshot)

	_, _, lastErr := f.Status()
	assert.NotEmpty(t, lastErr)
}

func TestLoadConfig(t *testing.T) {
	const yml = `prometheus:
  address: http://prom:9090
watchpost:
  base_url: http://watchpost:8080
  push_interval: 45s
queries:
  - metric: critical_vuln_count
    query: sum(vulns{severity="critical"})
server:
  bind_addr: 0.0.0.0:9999
`
	path := filepath.Join(t.TempDir(), "promfeeder.yml")
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "http://prom:9090", cfg.Prometheus.Address)
	assert.Equal(t, 45*time.Second, cfg.Watchpost.Interval())
	assert.Equal(t, 5*time.Minute, cfg.Watchpost.Range(), "unset durations fall back to defaults")
	require.Len(t, cfg.Queries, 1)

	t.Run("missing file uses defaults", func(t *testing.T) {
		cfg, err := LoadConfig(filepath.Join(t.TempDir(), "none.yml"))
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:9090", cfg.Prometheus.Address)
		assert.Equal(t, 30*time.Second, cfg.Watchpost.Interval())
	})

	t.Run("env override", func(t *testing.T) {
		t.Setenv("PROMETHEUS_ADDRESS", "http://other:9090")
		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "http://other:9090", cfg.Prometheus.Address)
	})
}
