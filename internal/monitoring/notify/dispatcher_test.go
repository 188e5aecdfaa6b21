package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyonsec/watchpost/internal/monitoring/model"
)

type stubNotifier struct {
	ch    model.NotificationChannel
	err   error
	delay time.Duration
	mu    sync.Mutex
	got   []*model.SecurityAlert
}

func (s *stubNotifier) Channel() model.NotificationChannel { return s.ch }

func (s *stubNotifier) Send(ctx context.Context, a *model.SecurityAlert) error {
	if s.delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.delay):
		}
	}
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	s.got = append(s.got, a)
	s.mu.Unlock()
	return nil
}

type resultRecorder struct {
	mu      sync.Mutex
	results map[model.NotificationChannel]error
	seen    chan struct{}
}

func newResultRecorder(expected int) *resultRecorder {
	return &resultRecorder{
		results: make(map[model.NotificationChannel]error),
		seen:    make(chan struct{}, expected),
	}
}

func (r *resultRecorder) record(_ string, ch model.NotificationChannel, err error) {
	r.mu.Lock()
	r.results[ch] = err
	r.mu.Unlock()
	r.seen <- struct{}{}
}

func (r *resultRecorder) wait(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-r.seen:
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for dispatch results")
		}
	}
}

func TestDispatcherInlineIsolation(t *testing.T) {
	ok := &stubNotifier{ch: model.ChannelSlack}
	bad := &stubNotifier{ch: model.ChannelEmail, err: errors.New("relay down")}
	rec := newResultRecorder(2)

	d := NewDispatcher(DispatcherConfig{Workers: 0}, rec.record)
	d.Register(bad)
	d.Register(ok)

	d.Dispatch(context.Background(), sampleAlert(),
		[]model.NotificationChannel{model.ChannelEmail, model.ChannelSlack, model.ChannelSyslog})

	// inline mode completes before Dispatch returns; syslog is unregistered
	// and silently skipped
	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.results, 2)
	assert.Error(t, rec.results[model.ChannelEmail])
	assert.NoError(t, rec.results[model.ChannelSlack])
	assert.Len(t, ok.got, 1)
}

func TestDispatcherWorkers(t *testing.T) {
	ok := &stubNotifier{ch: model.ChannelWebhook}
	rec := newResultRecorder(1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := NewDispatcher(DispatcherConfig{Workers: 2, QueueSize: 8}, rec.record)
	d.Register(ok)
	d.Start(ctx)

	d.Dispatch(ctx, sampleAlert(), []model.NotificationChannel{model.ChannelWebhook})
	rec.wait(t, 1)

	rec.mu.Lock()
	assert.NoError(t, rec.results[model.ChannelWebhook])
	rec.mu.Unlock()
}

func TestDispatcherQueueFullDrops(t *testing.T) {
	slow := &stubNotifier{ch: model.ChannelWebhook, delay: time.Minute}
	rec := newResultRecorder(8)

	// workers configured but never started, so the queue only drains by
	// overflowing
	d := NewDispatcher(DispatcherConfig{Workers: 1, QueueSize: 1}, rec.record)
	d.Register(slow)

	a := sampleAlert()
	d.Dispatch(context.Background(), a, []model.NotificationChannel{model.ChannelWebhook}) // fills the queue
	d.Dispatch(context.Background(), a, []model.NotificationChannel{model.ChannelWebhook}) // dropped

	rec.wait(t, 1)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.ErrorIs(t, rec.results[model.ChannelWebhook], ErrQueueFull)
}

func TestDispatcherClonesAlerts(t *testing.T) {
	ok := &stubNotifier{ch: model.ChannelSlack}
	d := NewDispatcher(DispatcherConfig{Workers: 0}, nil)
	d.Register(ok)

	a := sampleAlert()
	d.Dispatch(context.Background(), a, []model.NotificationChannel{model.ChannelSlack})
	require.Len(t, ok.got, 1)

	// mutating the original must not affect the dispatched copy
	a.Status = model.StatusResolved
	a.Title = "changed"
	assert.Equal(t, model.StatusPending, ok.got[0].Status)
	assert.Equal(t, "Critical vulnerabilities present", ok.got[0].Title)
}

func TestDispatcherHas(t *testing.T) {
	d := NewDispatcher(DispatcherConfig{}, nil)
	assert.False(t, d.Has(model.ChannelEmail))
	d.Register(&stubNotifier{ch: model.ChannelEmail})
	assert.True(t, d.Has(model.ChannelEmail))
}

func TestDispatcherSendTimeout(t *testing.T) {
	slow := &stubNotifier{ch: model.ChannelWebhook, delay: time.Second}
	rec := newResultRecorder(1)

	d := NewDispatcher(DispatcherConfig{Workers: 0, SendTimeout: 20 * time.Millisecond}, rec.record)
	d.Register(slow)

	d.Dispatch(context.Background(), sampleAlert(), []model.NotificationChannel{model.ChannelWebhook})

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.ErrorIs(t, rec.results[model.ChannelWebhook], context.DeadlineExceeded)
}
