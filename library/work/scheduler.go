package work

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/RussellLuo/timingwheel"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/yola1107/fadu/library/xgo"
)

const (
	defaultWheelTick = 100 * time.Millisecond
	defaultWheelSize = 128
)

// Timer schedules one-shot callbacks and cancels them by id.
type Timer interface {
	Once(delay time.Duration, f func()) int64
	Cancel(taskID int64)
}

type SchedulerOption func(*Scheduler)

func WithTick(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d > 0 {
			s.tick = d
		}
	}
}

func WithWheelSize(size int64) SchedulerOption {
	return func(s *Scheduler) {
		if size > 0 {
			s.wheelSize = size
		}
	}
}

// WithExecutor makes fired callbacks run on exec instead of a fresh goroutine.
func WithExecutor(exec Executor) SchedulerOption {
	return func(s *Scheduler) { s.executor = exec }
}

type taskEntry struct {
	timer     *timingwheel.Timer
	cancelled atomic.Bool
}

// Scheduler is a one-shot timer service on a hierarchical timing wheel.
// Callbacks fire with tick precision and never run once cancelled before firing.
type Scheduler struct {
	tick      time.Duration
	wheelSize int64
	executor  Executor
	tw        *timingwheel.TimingWheel
	tasks     sync.Map // map[int64]*taskEntry
	nextID    atomic.Int64
	running   atomic.Int32
	started   atomic.Bool
	shutdown  atomic.Bool
	wg        sync.WaitGroup
}

var _ Timer = (*Scheduler)(nil)

func NewScheduler(opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		tick:      defaultWheelTick,
		wheelSize: defaultWheelSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.executor == nil {
		log.Warn("[scheduler] no executor provided, tasks will run in unlimited goroutines")
	}
	s.tw = timingwheel.NewTimingWheel(s.tick, s.wheelSize)
	return s
}

func (s *Scheduler) Start() {
	if s.started.CompareAndSwap(false, true) {
		s.tw.Start()
		log.Infof("[scheduler] start... [tick:%v size:%d]", s.tick, s.wheelSize)
	}
}

// Stop cancels every pending task and waits up to timeout for running ones.
func (s *Scheduler) Stop(timeout time.Duration) {
	if !s.shutdown.CompareAndSwap(false, true) {
		return
	}
	s.CancelAll()
	if s.started.Load() {
		s.tw.Stop()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		log.Info("[scheduler] stopped gracefully")
	case <-time.After(timeout):
		log.Warnf("[scheduler] shutdown timed out after %v, some tasks may still be running", timeout)
	}
}

func (s *Scheduler) Len() int {
	count := 0
	s.tasks.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}

func (s *Scheduler) Running() int32 {
	return s.running.Load()
}

// Once registers f to run after delay. It returns -1 once the scheduler is shut down.
func (s *Scheduler) Once(delay time.Duration, f func()) int64 {
	if s.shutdown.Load() {
		log.Warn("[scheduler] shut down; task rejected")
		return -1
	}

	taskID := s.nextID.Add(1)
	entry := &taskEntry{}
	s.tasks.Store(taskID, entry)

	entry.timer = s.tw.AfterFunc(delay, func() {
		if !entry.cancelled.CompareAndSwap(false, true) {
			return
		}
		s.tasks.Delete(taskID)
		s.running.Add(1)
		s.wg.Add(1)
		s.execute(func() {
			defer func() {
				s.running.Add(-1)
				s.wg.Done()
			}()
			f()
		})
	})
	return taskID
}

// Cancel is a no-op for unknown or already fired tasks.
func (s *Scheduler) Cancel(taskID int64) {
	val, ok := s.tasks.LoadAndDelete(taskID)
	if !ok {
		return
	}
	entry := val.(*taskEntry)
	if entry.cancelled.CompareAndSwap(false, true) && entry.timer != nil {
		entry.timer.Stop()
	}
}

func (s *Scheduler) CancelAll() {
	s.tasks.Range(func(key, _ any) bool {
		s.Cancel(key.(int64))
		return true
	})
}

func (s *Scheduler) execute(f func()) {
	run := func() {
		defer xgo.RecoverFromError(nil)
		f()
	}
	if s.executor != nil {
		s.executor.Post(run)
	} else {
		go run()
	}
}
