package engine

import (
	"context"
	"log/slog"
	"sync"

	"github.com/gearswap/marketplace/internal/domain"
)

// Dispatcher routes tasks to one serialized worker per bucket key.
// Tasks for the same bucket run strictly in submission order; tasks
// for different buckets run in parallel. This is the only
// synchronization the reconciler and lifecycle manager rely on: a
// bucket's index, its listings' reservations, and its matches are
// touched exclusively from that bucket's worker.
//
// A panic inside a task is recovered and logged by the worker, so one
// misbehaving bucket cannot take down the others.
type Dispatcher struct {
	mu      sync.Mutex
	workers map[domain.BucketKey]*bucketWorker
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	logger  *slog.Logger
	queue   int
	stopped bool
}

type bucketWorker struct {
	tasks chan func()
}

// NewDispatcher creates a Dispatcher whose per-bucket queues hold up
// to queueSize pending tasks. Submit blocks once a queue is full,
// which back-pressures the event source instead of dropping events.
func NewDispatcher(queueSize int, logger *slog.Logger) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		workers: make(map[domain.BucketKey]*bucketWorker),
		ctx:     ctx,
		cancel:  cancel,
		logger:  logger,
		queue:   queueSize,
	}
}

// Submit enqueues a task on the bucket's worker, creating the worker
// on first use. Returns false if the dispatcher has been stopped.
func (d *Dispatcher) Submit(key domain.BucketKey, task func()) bool {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return false
	}
	w, ok := d.workers[key]
	if !ok {
		w = &bucketWorker{tasks: make(chan func(), d.queue)}
		d.workers[key] = w
		d.wg.Add(1)
		go d.run(key, w)
	}
	d.mu.Unlock()

	select {
	case w.tasks <- task:
		return true
	case <-d.ctx.Done():
		return false
	}
}

// Do enqueues a task on the bucket's worker and waits for it to
// finish. It preserves the same FIFO serialization as Submit while
// letting callers observe the task's side effects synchronously.
// Returns false if the dispatcher stopped before the task ran.
func (d *Dispatcher) Do(key domain.BucketKey, task func()) bool {
	done := make(chan struct{})
	ok := d.Submit(key, func() {
		defer close(done)
		task()
	})
	if !ok {
		return false
	}
	select {
	case <-done:
		return true
	case <-d.ctx.Done():
		// The worker may still run the task during drain; wait for it
		// so callers never observe a half-applied state.
		<-done
		return true
	}
}

// run is the worker loop for a single bucket. On shutdown it drains
// tasks already queued, then exits.
func (d *Dispatcher) run(key domain.BucketKey, w *bucketWorker) {
	defer d.wg.Done()
	for {
		select {
		case task := <-w.tasks:
			d.exec(key, task)
		case <-d.ctx.Done():
			for {
				select {
				case task := <-w.tasks:
					d.exec(key, task)
				default:
					return
				}
			}
		}
	}
}

// exec runs a task with panic isolation.
func (d *Dispatcher) exec(key domain.BucketKey, task func()) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("bucket worker panic recovered",
				slog.String("product_id", key.ProductID),
				slog.String("size", key.Size),
				slog.Any("panic", r),
			)
		}
	}()
	task()
}

// Stop rejects new submissions, drains queued tasks, and waits for all
// workers to exit.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	d.mu.Unlock()

	d.cancel()
	d.wg.Wait()
}

// WorkerCount returns the number of bucket workers spawned so far.
// Useful for diagnostics and tests.
func (d *Dispatcher) WorkerCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.workers)
}
