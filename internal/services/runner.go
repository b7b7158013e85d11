package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/PYTHAGON2/cdcfib-mock-test/internal/quiz"
	"go.uber.org/zap"
)

var ErrRegistryClosed = errors.New("runner registry is shut down")

// TickSource delivers countdown ticks.
type TickSource interface {
	C() <-chan time.Time
	Stop()
}

type timeTicks struct{ t *time.Ticker }

func (t timeTicks) C() <-chan time.Time { return t.t.C }
func (t timeTicks) Stop()               { t.t.Stop() }

// EveryInterval returns a factory of wall-clock tick sources.
func EveryInterval(d time.Duration) func() TickSource {
	return func() TickSource { return timeTicks{t: time.NewTicker(d)} }
}

// SessionTicker advances one session's countdown.
type SessionTicker interface {
	Tick(ctx context.Context, id string) (TickEvent, error)
}

// RunnerRegistry owns the countdown goroutines. A session has at most one
// runner; attaching again stops the previous one first.
type RunnerRegistry struct {
	log      *zap.Logger
	sessions SessionTicker
	newTicks func() TickSource

	attachMu sync.Mutex
	mu       sync.Mutex
	runners  map[string]*runner
	closed   bool
}

type runner struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func NewRunnerRegistry(log *zap.Logger, sessions SessionTicker, newTicks func() TickSource) *RunnerRegistry {
	return &RunnerRegistry{
		log:      log,
		sessions: sessions,
		newTicks: newTicks,
		runners:  make(map[string]*runner),
	}
}

// Attach starts counting session id down and hands each event to onTick.
// The runner stops when the session finishes or disappears, when ctx is
// cancelled, or on Shutdown. The returned channel is closed once it has
// stopped.
func (r *RunnerRegistry) Attach(ctx context.Context, id string, onTick func(TickEvent)) (<-chan struct{}, error) {
	r.attachMu.Lock()
	defer r.attachMu.Unlock()

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrRegistryClosed
	}
	old := r.runners[id]
	r.mu.Unlock()

	if old != nil {
		old.cancel()
		<-old.done
	}

	runCtx, cancel := context.WithCancel(ctx)
	run := &runner{cancel: cancel, done: make(chan struct{})}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		cancel()
		return nil, ErrRegistryClosed
	}
	r.runners[id] = run
	r.mu.Unlock()

	go r.loop(runCtx, id, run, onTick)
	return run.done, nil
}

func (r *RunnerRegistry) loop(ctx context.Context, id string, run *runner, onTick func(TickEvent)) {
	src := r.newTicks()
	defer func() {
		src.Stop()
		run.cancel()
		r.mu.Lock()
		if r.runners[id] == run {
			delete(r.runners, id)
		}
		r.mu.Unlock()
		close(run.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-src.C():
		}

		// A cancel that raced the tick wins.
		if ctx.Err() != nil {
			return
		}

		ev, err := r.sessions.Tick(ctx, id)
		switch {
		case errors.Is(err, quiz.ErrSessionFinished), errors.Is(err, ErrSessionNotFound):
			return
		case errors.Is(err, context.Canceled):
			return
		case err != nil:
			r.log.Warn("Session tick failed", zap.String("session_id", id), zap.Error(err))
			continue
		}

		if onTick != nil {
			onTick(ev)
		}
		if ev.Outcome.Finished {
			return
		}
	}
}

// Detach stops the runner of session id, if any, and waits for it.
func (r *RunnerRegistry) Detach(id string) {
	r.mu.Lock()
	run := r.runners[id]
	r.mu.Unlock()
	if run != nil {
		run.cancel()
		<-run.done
	}
}

func (r *RunnerRegistry) Active(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.runners[id]
	return ok
}

func (r *RunnerRegistry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.runners)
}

// Shutdown stops every runner and refuses new ones.
func (r *RunnerRegistry) Shutdown() {
	r.mu.Lock()
	r.closed = true
	runs := make([]*runner, 0, len(r.runners))
	for _, run := range r.runners {
		runs = append(runs, run)
	}
	r.mu.Unlock()

	for _, run := range runs {
		run.cancel()
		<-run.done
	}
	r.log.Info("Session runners stopped", zap.Int("count", len(runs)))
}
