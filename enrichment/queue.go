package enrichment

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"notesapi/log"
	"notesapi/metrics"
)

var (
	ErrQueueFull     = errors.New("enrichment queue full")
	ErrQueueClosed   = errors.New("enrichment queue closed")
	ErrPublishFailed = errors.New("enrichment publish failed")
)

// Processor handles one task. *Worker is the production implementation.
type Processor interface {
	Process(ctx context.Context, task Task)
}

// Dispatcher hands tasks from request handlers to background workers.
type Dispatcher interface {
	Enqueue(ctx context.Context, task Task) error
	Start(ctx context.Context)
	Close() error
}

// MemoryQueue is a bounded channel drained by a fixed pool of goroutines.
type MemoryQueue struct {
	tasks     chan Task
	processor Processor
	workers   int
	timeout   time.Duration

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewMemoryQueue(processor Processor, workers, size int, enqueueTimeout time.Duration) *MemoryQueue {
	if workers < 1 {
		workers = 1
	}
	if size < 1 {
		size = 1
	}
	return &MemoryQueue{
		tasks:     make(chan Task, size),
		processor: processor,
		workers:   workers,
		timeout:   enqueueTimeout,
	}
}

// Enqueue waits up to the enqueue timeout for room in the queue.
func (q *MemoryQueue) Enqueue(ctx context.Context, task Task) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.tasks <- task:
		metrics.EnrichmentQueueDepth.Set(float64(len(q.tasks)))
		return nil
	default:
	}

	timer := time.NewTimer(q.timeout)
	defer timer.Stop()

	select {
	case q.tasks <- task:
		metrics.EnrichmentQueueDepth.Set(float64(len(q.tasks)))
		return nil
	case <-timer.C:
	case <-ctx.Done():
	}

	metrics.EnrichmentQueueDrops.Inc()
	log.Logger().Warningf(log.Labels{"note_id": strconv.FormatInt(task.NoteID, 10)}, "enrichment queue full, note stays pending")
	return ErrQueueFull
}

// Start launches the worker pool. Workers exit when ctx is cancelled or
// once Close has drained the queue.
func (q *MemoryQueue) Start(ctx context.Context) {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case task, ok := <-q.tasks:
					if !ok {
						return
					}
					metrics.EnrichmentQueueDepth.Set(float64(len(q.tasks)))
					q.processor.Process(ctx, task)
				}
			}
		}()
	}
	log.Logger().Infof(nil, "started %d enrichment workers", q.workers)
}

// Close stops accepting tasks and waits for the workers to finish what
// is already queued.
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.tasks)
	q.mu.Unlock()

	q.wg.Wait()
	return nil
}

// Shutdown closes d and gives queued and in-flight tasks grace to finish.
// After that, cancel aborts the workers' context and Shutdown waits for
// Close to return.
func Shutdown(d Dispatcher, cancel context.CancelFunc, grace time.Duration) error {
	done := make(chan error, 1)
	go func() {
		done <- d.Close()
	}()

	timer := time.NewTimer(grace)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
	}

	log.Logger().Warningf(nil, "enrichment drain exceeded %s, cancelling in-flight tasks", grace)
	cancel()
	return <-done
}
