package notify

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/halcyonsec/watchpost/internal/monitoring/model"
)

// ErrQueueFull is reported through ResultFunc when a delivery is dropped
// because the dispatch queue is at capacity.
var ErrQueueFull = errors.New("dispatch queue full")

// ResultFunc receives the outcome of every per-channel delivery attempt.
// err is nil on success. The monitor uses it to append channels_notified.
type ResultFunc func(alertID string, ch model.NotificationChannel, err error)

type job struct {
	id      string
	alert   *model.SecurityAlert
	channel model.NotificationChannel
}

// Dispatcher fans a fired alert out to its configured channels. With
// Workers > 0 delivery runs on a bounded queue consumed by worker
// goroutines, so a hanging webhook cannot stall the metric-check path.
// With Workers == 0 delivery happens inline in Dispatch, preserving the
// synchronous reference behavior (and making tests deterministic).
type Dispatcher struct {
	notifiers map[model.NotificationChannel]Notifier
	queue     chan job
	workers   int
	timeout   time.Duration
	onResult  ResultFunc
}

// DispatcherConfig controls queue sizing and per-send timeouts.
type DispatcherConfig struct {
	Workers     int           // 0 means inline synchronous dispatch
	QueueSize   int           // buffered queue length when Workers > 0
	SendTimeout time.Duration // per-channel send deadline
}

func NewDispatcher(cfg DispatcherConfig, onResult ResultFunc) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}
	d := &Dispatcher{
		notifiers: make(map[model.NotificationChannel]Notifier),
		workers:   cfg.Workers,
		timeout:   cfg.SendTimeout,
		onResult:  onResult,
	}
	if cfg.Workers > 0 {
		d.queue = make(chan job, cfg.QueueSize)
	}
	return d
}

// SetResultFunc installs the delivery-result callback. Must be called before
// Start / the first Dispatch.
func (d *Dispatcher) SetResultFunc(fn ResultFunc) { d.onResult = fn }

// Register installs a notifier for its channel, replacing any previous one.
func (d *Dispatcher) Register(n Notifier) {
	d.notifiers[n.Channel()] = n
}

// Has reports whether a notifier is registered for the channel.
func (d *Dispatcher) Has(ch model.NotificationChannel) bool {
	_, ok := d.notifiers[ch]
	return ok
}

// Start launches the worker pool. No-op in inline mode.
func (d *Dispatcher) Start(ctx context.Context) {
	if d.workers <= 0 {
		return
	}
	for i := 0; i < d.workers; i++ {
		go d.worker(ctx)
	}
	log.Info().Int("workers", d.workers).Int("queue", cap(d.queue)).Msg("notification dispatcher started")
}

func (d *Dispatcher) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-d.queue:
			d.attempt(ctx, j)
		}
	}
}

// Dispatch attempts delivery of alert to every requested channel. Channels
// without a registered notifier are skipped with a warning. Each attempt is
// independent: one failure never prevents the remaining channels.
func (d *Dispatcher) Dispatch(ctx context.Context, alert *model.SecurityAlert, channels []model.NotificationChannel) {
	for _, ch := range channels {
		if _, ok := d.notifiers[ch]; !ok {
			log.Warn().Str("alert", alert.AlertID).Str("channel", string(ch)).Msg("no notifier registered for channel, skipping")
			continue
		}
		j := job{id: uuid.NewString(), alert: alert.Clone(), channel: ch}
		if d.queue == nil {
			d.attempt(ctx, j)
			continue
		}
		select {
		case d.queue <- j:
		default:
			// queue full: drop rather than stall the check loop
			log.Warn().Str("alert", alert.AlertID).Str("channel", string(ch)).Msg("dispatch queue full, delivery dropped")
			if d.onResult != nil {
				d.onResult(alert.AlertID, ch, ErrQueueFull)
			}
		}
	}
}

func (d *Dispatcher) attempt(ctx context.Context, j job) {
	n := d.notifiers[j.channel]
	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	err := n.Send(sendCtx, j.alert)
	if err != nil {
		log.Error().Err(err).
			Str("job", j.id).
			Str("alert", j.alert.AlertID).
			Str("channel", string(j.channel)).
			Msg("notification send failed")
	} else {
		log.Info().
			Str("job", j.id).
			Str("alert", j.alert.AlertID).
			Str("channel", string(j.channel)).
			Msg("notification sent")
	}
	if d.onResult != nil {
		d.onResult(j.alert.AlertID, j.channel, err)
	}
}
