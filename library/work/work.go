package work

import (
	"time"
)

const defaultStopTimeout = 3 * time.Second

// Store bundles a goroutine pool with a timer scheduler whose callbacks run on that pool.
type Store struct {
	*Pool
	*Scheduler
}

func NewStore(poolSize int, tick time.Duration) *Store {
	p := NewPool(poolSize)
	return &Store{
		Pool:      p,
		Scheduler: NewScheduler(WithExecutor(p), WithTick(tick)),
	}
}

func (w *Store) Start() error {
	if err := w.Pool.Start(); err != nil {
		return err
	}
	w.Scheduler.Start()
	return nil
}

func (w *Store) Stop() {
	w.Scheduler.Stop(defaultStopTimeout)
	w.Pool.Stop()
}
