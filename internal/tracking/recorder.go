package tracking

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"verso/internal/logger"
)

// DefaultQueueSize bounds the number of runs waiting to be logged.
const DefaultQueueSize = 256

const logRunTimeout = 30 * time.Second

// Recorder ships runs to a Sink on a single background worker so callers
// never wait on the tracker.
type Recorder struct {
	sink  Sink
	queue chan Run
	done  chan struct{}

	mu      sync.RWMutex
	closed  bool
	dropped atomic.Int64
}

// NewRecorder starts the worker. A nil sink is treated as NopSink.
func NewRecorder(sink Sink, queueSize int) *Recorder {
	if sink == nil {
		sink = NopSink{}
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	r := &Recorder{
		sink:  sink,
		queue: make(chan Run, queueSize),
		done:  make(chan struct{}),
	}
	go r.loop()
	return r
}

// Record enqueues run without blocking. It reports false when the run was
// dropped because the queue is full or the recorder is closed.
func (r *Recorder) Record(run Run) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		r.dropped.Add(1)
		return false
	}
	select {
	case r.queue <- run:
		return true
	default:
		r.dropped.Add(1)
		logger.Warn("tracking run dropped", "module", "tracking", "action", "enqueue", "resource", "run", "result", "dropped", "run_id", run.ID)
		return false
	}
}

// Dropped returns how many runs were discarded.
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

// Close stops accepting runs and waits for queued ones to be logged or for
// ctx to expire.
func (r *Recorder) Close(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("drain tracking queue: %w", ctx.Err())
	}
}

func (r *Recorder) loop() {
	defer close(r.done)
	for run := range r.queue {
		r.log(run)
	}
}

func (r *Recorder) log(run Run) {
	defer func() {
		if p := recover(); p != nil {
			logger.Error("tracking sink panic", "module", "tracking", "action", "log", "resource", "run", "result", "failed", "run_id", run.ID, "panic", p)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), logRunTimeout)
	defer cancel()
	if err := r.sink.LogRun(ctx, run); err != nil {
		logger.Warn("tracking run failed", "module", "tracking", "action", "log", "resource", "run", "result", "failed", "run_id", run.ID, "error", err)
		return
	}
	logger.Debug("tracking run logged", "module", "tracking", "action", "log", "resource", "run", "result", "ok", "run_id", run.ID)
}
