package core

import (
	"context"
	"sync"
	"time"
)

// Scheduler runs tasks once their delay has elapsed, on goroutines separate
// from the caller. Many long delays can be pending concurrently without
// tying up a thread each; a task occupies a goroutine only once its timer
// fires.
type Scheduler struct {
	mu      sync.Mutex
	tasks   map[uint64]*Task
	nextID  uint64
	running sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	stopped bool
}

// Task is the handle for a scheduled unit of work.
type Task struct {
	id    uint64
	timer *time.Timer
	s     *Scheduler
}

// NewScheduler creates a ready-to-use Scheduler.
func NewScheduler() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		tasks:  make(map[uint64]*Task),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Schedule runs fn once, after at least delay has elapsed. It returns
// immediately; fn receives a context that is cancelled by an immediate
// shutdown. Returns ErrSchedulerStopped after Shutdown.
func (s *Scheduler) Schedule(delay time.Duration, fn func(ctx context.Context)) (*Task, error) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil, ErrSchedulerStopped
	}
	s.nextID++
	t := &Task{id: s.nextID, s: s}
	s.tasks[t.id] = t
	t.timer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		if s.stopped {
			s.mu.Unlock()
			return
		}
		delete(s.tasks, t.id)
		s.running.Add(1)
		s.mu.Unlock()
		defer s.running.Done()
		fn(s.ctx)
	})
	s.mu.Unlock()
	return t, nil
}

// Cancel stops the task if it is still waiting for its deadline. It reports
// whether the task was cancelled before firing.
func (t *Task) Cancel() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if _, ok := t.s.tasks[t.id]; !ok {
		return false
	}
	delete(t.s.tasks, t.id)
	return t.timer.Stop()
}

// Shutdown stops the scheduler. Tasks still waiting for their deadline are
// dropped in both modes. With wait=true, tasks whose timer has already fired
// run to completion before Shutdown returns; with wait=false the context
// passed to running tasks is cancelled instead and Shutdown returns without
// waiting. Idempotent and safe to call concurrently with firing tasks.
func (s *Scheduler) Shutdown(wait bool) {
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		for id, t := range s.tasks {
			t.timer.Stop()
			delete(s.tasks, id)
		}
	}
	s.mu.Unlock()

	if wait {
		s.running.Wait()
		return
	}
	s.cancel()
}
