package work

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/panjf2000/ants/v2"

	"github.com/yola1107/fadu/library/xgo"
)

// Executor runs jobs asynchronously.
type Executor interface {
	Post(job func())
}

// PoolStatus is a snapshot of the pool occupancy.
type PoolStatus struct {
	Capacity int
	Running  int
	Free     int
}

type PoolOption func(*Pool)

// WithFallback overrides what happens to a job the pool cannot accept.
func WithFallback(fallback func(ctx context.Context, fn func())) PoolOption {
	return func(p *Pool) {
		p.fallback = fallback
	}
}

func WithPoolOptions(opts ...ants.Option) PoolOption {
	return func(p *Pool) {
		p.poolOptions = append(p.poolOptions, opts...)
	}
}

// Pool is a bounded goroutine pool backed by ants. Post never blocks: jobs posted
// before Start, after Stop or while every worker is busy are handed to the fallback,
// which by default runs them on a fresh goroutine.
type Pool struct {
	mu          sync.RWMutex
	pool        *ants.Pool
	size        int
	fallback    func(context.Context, func())
	poolOptions []ants.Option
}

func NewPool(size int, opts ...PoolOption) *Pool {
	if size <= 0 {
		size = ants.DefaultAntsPoolSize
	}
	p := &Pool{
		size: size,
		fallback: func(ctx context.Context, fn func()) {
			go safeRun(ctx, fn)
		},
		poolOptions: []ants.Option{
			ants.WithExpiryDuration(60 * time.Second),
			ants.WithNonblocking(true),
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pool) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pool != nil {
		log.Warnf("work pool already started.")
		return nil
	}

	pool, err := ants.NewPool(p.size, p.poolOptions...)
	if err != nil {
		return fmt.Errorf("pool init failed: %w", err)
	}
	p.pool = pool
	log.Infof("work pool start... [size:%d]", p.size)
	return nil
}

func (p *Pool) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pool != nil {
		ap := p.pool
		p.pool = nil
		ap.Release()
		log.Infof("work pool stopping [running:%d]", ap.Running())
	}
}

func (p *Pool) Status() PoolStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.pool == nil {
		return PoolStatus{}
	}
	capacity, running := p.pool.Cap(), p.pool.Running()
	return PoolStatus{
		Capacity: capacity,
		Running:  running,
		Free:     max(capacity-running, 0),
	}
}

func (p *Pool) Post(job func()) {
	p.PostCtx(context.Background(), job)
}

// PostCtx drops the job when ctx is already done.
func (p *Pool) PostCtx(ctx context.Context, job func()) {
	if ctx.Err() == nil {
		p.submit(ctx, job)
	}
}

// PostAndWait runs job on the pool and blocks until it returns or ctx is done.
func (p *Pool) PostAndWait(ctx context.Context, job func() error) error {
	ch := make(chan error, 1)
	p.submit(ctx, func() {
		defer xgo.RecoverFromError(func(e any) {
			ch <- fmt.Errorf("panic: %v", e)
		})
		ch <- job()
	})

	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		return fmt.Errorf("canceled: %w", ctx.Err())
	}
}

func (p *Pool) submit(ctx context.Context, fn func()) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.pool == nil || p.pool.IsClosed() {
		p.triggerFallback(ctx, fn, "pool not started or closed")
		return
	}
	if err := p.pool.Submit(func() { safeRun(ctx, fn) }); err != nil {
		p.triggerFallback(ctx, fn, err.Error())
	}
}

func (p *Pool) triggerFallback(ctx context.Context, fn func(), reason string) {
	log.Warnf("work pool fallback. reason=%s", reason)
	p.fallback(ctx, fn)
}

func safeRun(ctx context.Context, fn func()) {
	defer xgo.RecoverFromError(nil)
	if ctx.Err() == nil {
		fn()
	}
}
