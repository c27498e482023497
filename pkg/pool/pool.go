// Package pool wraps ants worker pools for background task execution.
package pool

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/kart-io/logger"
	"github.com/panjf2000/ants/v2"
)

// ErrPoolClosed is returned when submitting to a released pool.
var ErrPoolClosed = errors.New("worker pool is closed")

// ErrPoolOverload is returned when a nonblocking pool is saturated.
var ErrPoolOverload = errors.New("worker pool is overloaded")

// Config defines the configuration for a worker pool.
type Config struct {
	// Capacity is the maximum number of concurrent workers.
	Capacity int
	// ExpiryDuration is the idle worker expiry.
	ExpiryDuration time.Duration
	// Nonblocking makes Submit fail instead of waiting when the pool is full.
	Nonblocking bool
	// MaxBlockingTasks caps queued tasks when Nonblocking is false (0 = unlimited).
	MaxBlockingTasks int
}

// IngestPoolConfig returns the configuration used for the document
// ingestion pool: a small bounded pool that rejects instead of queueing
// unboundedly, so upload bursts surface as errors rather than pile up.
func IngestPoolConfig(capacity int) *Config {
	return &Config{
		Capacity:         capacity,
		ExpiryDuration:   60 * time.Second,
		Nonblocking:      false,
		MaxBlockingTasks: 100,
	}
}

// Pool is a named worker pool.
type Pool struct {
	name   string
	pool   *ants.Pool
	closed atomic.Bool

	submitted atomic.Int64
	completed atomic.Int64
	panics    atomic.Int64
}

// New creates a new worker pool with the given configuration.
func New(name string, config *Config) (*Pool, error) {
	p := &Pool{name: name}

	opts := []ants.Option{
		ants.WithExpiryDuration(config.ExpiryDuration),
		ants.WithNonblocking(config.Nonblocking),
		ants.WithMaxBlockingTasks(config.MaxBlockingTasks),
		ants.WithPanicHandler(func(r interface{}) {
			p.panics.Add(1)
			logger.Errorw("worker panic recovered", "pool", name, "panic", r)
		}),
	}

	inner, err := ants.NewPool(config.Capacity, opts...)
	if err != nil {
		return nil, err
	}
	p.pool = inner

	logger.Infow("worker pool created", "name", name, "capacity", config.Capacity)
	return p, nil
}

// Submit submits a task for background execution.
func (p *Pool) Submit(task func()) error {
	if p.closed.Load() {
		return ErrPoolClosed
	}

	err := p.pool.Submit(func() {
		defer p.completed.Add(1)
		task()
	})
	if err != nil {
		if errors.Is(err, ants.ErrPoolOverload) {
			return ErrPoolOverload
		}
		return err
	}
	p.submitted.Add(1)
	return nil
}

// SubmitWithContext submits a task that is skipped if ctx is already done
// when a worker picks it up.
func (p *Pool) SubmitWithContext(ctx context.Context, task func()) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	return p.Submit(func() {
		select {
		case <-ctx.Done():
			return
		default:
			task()
		}
	})
}

// Running returns the number of running workers.
func (p *Pool) Running() int {
	return p.pool.Running()
}

// ReleaseTimeout waits for running tasks up to timeout, then releases the pool.
func (p *Pool) ReleaseTimeout(timeout time.Duration) error {
	if p.closed.Swap(true) {
		return nil
	}
	logger.Infow("worker pool released", "name", p.name,
		"submitted", p.submitted.Load(), "completed", p.completed.Load(), "panics", p.panics.Load())
	return p.pool.ReleaseTimeout(timeout)
}
