package poller

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"k8s.io/utils/clock"
)

// Job is one poll cycle. It receives a context that is cancelled when the
// scheduler stops.
type Job func(ctx context.Context)

// JobInfo contains the configuration needed to schedule a single [Job].
type JobInfo struct {
	// Name identifies the job in logs.
	Name string

	// Interval is the time between dispatches.
	Interval time.Duration

	// SkipOverlap skips a tick while the previous run is still in flight.
	// When false, runs overlap freely.
	SkipOverlap bool

	// Clock drives the ticker. nil uses the real clock.
	Clock clock.WithTicker
}

// Stats reports dispatch counters for a [Scheduler].
type Stats struct {
	// Dispatched counts runs started, including the immediate one.
	Dispatched uint64

	// Skipped counts ticks dropped because a run was in flight.
	Skipped uint64

	// InFlight is the number of runs currently executing.
	InFlight int64
}

// Scheduler runs a [Job] immediately and then once per interval.
//
// Every run is dispatched on its own goroutine, so a run that never returns
// does not hold back the next tick. Overlapping runs are allowed unless
// [JobInfo.SkipOverlap] is set.
//
// All lifecycle methods (Start, Stop) are safe for concurrent use.
type Scheduler struct {
	info   JobInfo
	job    Job
	clock  clock.WithTicker
	logger *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	started bool
	stopped bool

	dispatched atomic.Uint64
	skipped    atomic.Uint64
	inFlight   atomic.Int64
}

// NewScheduler creates a new [Scheduler] for job.
//
// The scheduler must be started with [Scheduler.Start] and stopped with
// [Scheduler.Stop].
func NewScheduler(info JobInfo, job Job, logger *slog.Logger) *Scheduler {
	clk := info.Clock
	if clk == nil {
		clk = clock.RealClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		info:   info,
		job:    job,
		clock:  clk,
		logger: logger,
	}
}

// Start dispatches the job once and arms the repeating ticker.
//
// Start is non-blocking. The ticker is created before Start returns, so a
// fake clock advanced right after Start observes it.
//
// If ctx is nil, context.Background() is used as the parent context.
// Start is idempotent; subsequent calls after the first are no-ops.
// If Stop was called before Start, Start is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.started = true

	if ctx == nil {
		ctx = context.Background()
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	runCtx := s.ctx // capture under lock to avoid race
	ticker := s.clock.NewTicker(s.info.Interval)
	s.wg.Add(1)
	s.mu.Unlock()

	s.dispatch(runCtx)

	go func() {
		defer s.wg.Done()
		defer ticker.Stop()

		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C():
				s.dispatch(runCtx)
			}
		}
	}()
}

// Stop cancels the scheduler's context and blocks until the ticker loop and
// every in-flight run have returned.
//
// Stop is idempotent and safe to call multiple times. Calling Stop before
// Start is a safe no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		if s.cancel != nil {
			s.cancel()
		}
	}
	s.mu.Unlock()

	s.wg.Wait()
}

// Stats returns a snapshot of the dispatch counters.
func (s *Scheduler) Stats() Stats {
	return Stats{
		Dispatched: s.dispatched.Load(),
		Skipped:    s.skipped.Load(),
		InFlight:   s.inFlight.Load(),
	}
}

// dispatch starts one run unless overlap skipping applies. Only the caller
// of Start and the ticker loop call it, never concurrently.
func (s *Scheduler) dispatch(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if s.info.SkipOverlap && s.inFlight.Load() > 0 {
		s.skipped.Add(1)
		s.logger.Debug("poll skipped, previous request in flight", "widget", s.info.Name)
		return
	}

	s.inFlight.Add(1)
	s.dispatched.Add(1)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.inFlight.Add(-1)
		s.runSafe(ctx)
	}()
}

// runSafe calls the job with panic recovery.
// A panic is logged with its stack trace and a correlation ID; the schedule
// keeps running.
func (s *Scheduler) runSafe(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("poll panic",
				"correlation_id", uuid.NewString(),
				"widget", s.info.Name,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	s.job(ctx)
}
