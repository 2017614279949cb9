package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"auction-marketplace/pkg/logger"

	"github.com/viney-shih/goroutines"
)

var ErrBusy = errors.New("too many requests in flight")

// Dispatcher runs inbound mutations on a bounded worker pool so a burst of
// bids cannot spawn unbounded goroutines.
type Dispatcher struct {
	pool         *goroutines.Pool
	queueTimeout time.Duration
	log          logger.Logger
}

func NewDispatcher(size, queueLength int, queueTimeout time.Duration, log logger.Logger) *Dispatcher {
	return &Dispatcher{
		pool: goroutines.NewPool(size,
			goroutines.WithTaskQueueLength(queueLength),
			goroutines.WithPreAllocWorkers(size/4),
		),
		queueTimeout: queueTimeout,
		log:          log,
	}
}

// Submit queues task and waits for its result. Once scheduled a task runs
// to completion on a context that ignores cancellation of ctx, and Submit
// reports its outcome.
func (d *Dispatcher) Submit(ctx context.Context, task func(ctx context.Context) error) error {
	done := make(chan error, 1)
	taskCtx := context.WithoutCancel(ctx)

	err := d.pool.ScheduleWithTimeout(d.queueTimeout, func() {
		done <- task(taskCtx)
	})
	if err != nil {
		d.log.Warn("Failed to schedule task", "error", err)
		return fmt.Errorf("%w: %w", ErrBusy, err)
	}

	return <-done
}

func (d *Dispatcher) Release() {
	d.pool.Release()
}
