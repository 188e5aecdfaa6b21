package feeder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Feeder polls Prometheus on an interval, builds a metric snapshot from the
// configured queries, and pushes it to the watchpost metrics endpoint.
type Feeder struct {
	cfg        *Config
	promClient *PromClient
	httpClient *http.Client

	mu           sync.Mutex
	lastSnapshot map[string]float64
	lastPush     time.Time
	lastErr      string
}

func New(cfg *Config, promClient *PromClient) *Feeder {
	return &Feeder{
		cfg:        cfg,
		promClient: promClient,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Run polls until ctx is cancelled.
func (f *Feeder) Run(ctx context.Context) {
	interval := f.cfg.Watchpost.Interval()
	log.Info().Dur("interval", interval).Int("queries", len(f.cfg.Queries)).Msg("feeder loop started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := f.PollOnce(ctx); err != nil {
				log.Error().Err(err).Msg("feeder poll failed")
			}
		}
	}
}

// PollOnce collects one snapshot and pushes it. Queries that match no series
// are omitted from the snapshot; query errors skip the metric but do not
// abort the poll.
func (f *Feeder) PollOnce(ctx context.Context) (map[string]float64, error) {
	snapshot := make(map[string]float64, len(f.cfg.Queries))
	for _, q := range f.cfg.Queries {
		value, ok, err := f.promClient.QueryLatest(ctx, q.Query)
		if err != nil {
			log.Error().Err(err).Str("metric", q.Metric).Str("query", q.Query).Msg("query failed, skipping metric")
			continue
		}
		if !ok {
			log.Debug().Str("metric", q.Metric).Str("query", q.Query).Msg("query matched no series")
			continue
		}
		snapshot[q.Metric] = value
	}

	if len(snapshot) == 0 {
		f.record(nil, "no queries produced samples")
		return nil, fmt.Errorf("no queries produced samples")
	}

	if err := f.push(ctx, snapshot); err != nil {
		f.record(snapshot, err.Error())
		return snapshot, err
	}
	f.record(snapshot, "")
	return snapshot, nil
}

func (f *Feeder) push(ctx context.Context, snapshot map[string]float64) error {
	body, err := json.Marshal(map[string]any{
		"session_id": f.cfg.Watchpost.SessionID,
		"metrics":    snapshot,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	url := f.cfg.Watchpost.BaseURL + "/v1/metrics"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if f.cfg.Watchpost.APIToken != "" {
		req.Header.Set("Authorization", "Bearer "+f.cfg.Watchpost.APIToken)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to push snapshot: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("watchpost returned status %d: %s", resp.StatusCode, string(b))
	}

	log.Info().Int("metrics", len(snapshot)).Msg("snapshot pushed")
	return nil
}

func (f *Feeder) record(snapshot map[string]float64, errMsg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastSnapshot = snapshot
	f.lastPush = time.Now()
	f.lastErr = errMsg
}

// Status reports the last poll outcome for the admin surface.
func (f *Feeder) Status() (map[string]float64, time.Time, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make(map[string]float64, len(f.lastSnapshot))
	for k, v := range f.lastSnapshot {
		cp[k] = v
	}
	return cp, f.lastPush, f.lastErr
}
