package events

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Sink consumes audit events (stdout, file, webhook).
type Sink interface {
	Name() string
	Deliver(context.Context, *Event) error
	Close(context.Context) error
}

// sinkStats pairs a sink with its delivery counters.
type sinkStats struct {
	sink    Sink
	success atomic.Uint64
	failure atomic.Uint64
}

// Metrics is a point-in-time copy of the delivery counters.
type Metrics struct {
	enqueued uint64
	dropped  uint64
	success  map[string]uint64
	failure  map[string]uint64
}

func (m Metrics) Enqueued() uint64               { return m.enqueued }
func (m Metrics) Dropped() uint64                { return m.dropped }
func (m Metrics) SinkSuccess(name string) uint64 { return m.success[name] }
func (m Metrics) SinkFailure(name string) uint64 { return m.failure[name] }

// EmitterConfig controls queue and worker sizing.
type EmitterConfig struct {
	QueueSize       int
	Workers         int
	ShutdownTimeout time.Duration
}

// Emitter buffers events and delivers them to sinks on background workers.
// Emit never blocks the request path; a full queue drops the event.
type Emitter struct {
	queue           chan *Event
	sinks           []*sinkStats
	shutdownTimeout time.Duration

	enqueued atomic.Uint64
	dropped  atomic.Uint64

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewEmitter starts background workers delivering to the given sinks.
func NewEmitter(cfg EmitterConfig, sinks []Sink) *Emitter {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1000
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 2 * time.Second
	}

	em := &Emitter{
		queue:           make(chan *Event, cfg.QueueSize),
		sinks:           make([]*sinkStats, 0, len(sinks)),
		shutdownTimeout: cfg.ShutdownTimeout,
	}
	for _, s := range sinks {
		em.sinks = append(em.sinks, &sinkStats{sink: s})
	}
	for i := 0; i < cfg.Workers; i++ {
		em.wg.Add(1)
		go em.drain()
	}
	return em
}

// Emit enqueues the event, dropping it when the emitter is closed or the
// queue is full.
func (e *Emitter) Emit(ev *Event) {
	if e == nil || ev == nil {
		return
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		e.dropped.Add(1)
		return
	}
	select {
	case e.queue <- ev:
		e.enqueued.Add(1)
	default:
		e.dropped.Add(1)
	}
}

// Close stops accepting events, drains the queue within the shutdown timeout
// and closes the sinks.
func (e *Emitter) Close(ctx context.Context) {
	if e == nil {
		return
	}
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	close(e.queue)
	e.mu.Unlock()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, e.shutdownTimeout)
	defer cancel()

	drained := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-ctx.Done():
	}

	for _, ss := range e.sinks {
		if err := ss.sink.Close(ctx); err != nil {
			slog.Warn("events: sink close", "sink", ss.sink.Name(), "error", err)
		}
	}
}

// MetricsSnapshot copies the counters for observation and tests.
func (e *Emitter) MetricsSnapshot() Metrics {
	if e == nil {
		return Metrics{}
	}
	m := Metrics{
		enqueued: e.enqueued.Load(),
		dropped:  e.dropped.Load(),
		success:  make(map[string]uint64, len(e.sinks)),
		failure:  make(map[string]uint64, len(e.sinks)),
	}
	for _, ss := range e.sinks {
		m.success[ss.sink.Name()] = ss.success.Load()
		m.failure[ss.sink.Name()] = ss.failure.Load()
	}
	return m
}

func (e *Emitter) drain() {
	defer e.wg.Done()
	for ev := range e.queue {
		for _, ss := range e.sinks {
			if err := ss.sink.Deliver(context.Background(), ev); err != nil {
				ss.failure.Add(1)
				slog.Warn("events: sink deliver", "sink", ss.sink.Name(), "error", err)
				continue
			}
			ss.success.Add(1)
		}
	}
}
