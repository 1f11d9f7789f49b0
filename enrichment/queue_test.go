package enrichment

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingProcessor struct {
	mu      sync.Mutex
	seen    []int64
	release chan struct{}
}

func (p *recordingProcessor) Process(ctx context.Context, task Task) {
	if p.release != nil {
		<-p.release
	}
	p.mu.Lock()
	p.seen = append(p.seen, task.NoteID)
	p.mu.Unlock()
}

func (p *recordingProcessor) Seen() []int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int64(nil), p.seen...)
}

func TestMemoryQueueProcessesAndDrains(t *testing.T) {
	proc := &recordingProcessor{}
	q := NewMemoryQueue(proc, 2, 10, time.Second)
	q.Start(context.Background())

	for i := int64(1); i <= 5; i++ {
		require.NoError(t, q.Enqueue(context.Background(), Task{NoteID: i}))
	}
	require.NoError(t, q.Close())

	assert.ElementsMatch(t, []int64{1, 2, 3, 4, 5}, proc.Seen())
	assert.ErrorIs(t, q.Enqueue(context.Background(), Task{NoteID: 6}), ErrQueueClosed)
}

func TestMemoryQueueFull(t *testing.T) {
	proc := &recordingProcessor{release: make(chan struct{})}
	q := NewMemoryQueue(proc, 1, 1, 20*time.Millisecond)
	q.Start(context.Background())

	// One task is held by the worker, one fills the buffer.
	require.NoError(t, q.Enqueue(context.Background(), Task{NoteID: 1}))
	require.Eventually(t, func() bool { return len(q.tasks) == 0 }, time.Second, time.Millisecond)
	require.NoError(t, q.Enqueue(context.Background(), Task{NoteID: 2}))

	start := time.Now()
	err := q.Enqueue(context.Background(), Task{NoteID: 3})
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)

	close(proc.release)
	require.NoError(t, q.Close())
	assert.ElementsMatch(t, []int64{1, 2}, proc.Seen())
}

func TestMemoryQueueStopsOnCancel(t *testing.T) {
	proc := &recordingProcessor{}
	q := NewMemoryQueue(proc, 3, 4, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	q.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("workers did not stop after cancel")
	}
}

// blockingProcessor holds every task until its context is cancelled.
type blockingProcessor struct {
	started   chan struct{}
	cancelled chan struct{}
}

func (p *blockingProcessor) Process(ctx context.Context, task Task) {
	close(p.started)
	<-ctx.Done()
	close(p.cancelled)
}

func TestShutdownCancelsAfterGrace(t *testing.T) {
	proc := &blockingProcessor{started: make(chan struct{}), cancelled: make(chan struct{})}
	q := NewMemoryQueue(proc, 1, 4, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)

	require.NoError(t, q.Enqueue(context.Background(), Task{NoteID: 1}))
	<-proc.started

	start := time.Now()
	require.NoError(t, Shutdown(q, cancel, 30*time.Millisecond))
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 30*time.Millisecond)
	assert.Less(t, elapsed, time.Second)
	select {
	case <-proc.cancelled:
	default:
		t.Fatal("in-flight task did not see cancellation")
	}
}

func TestShutdownWithinGraceKeepsContext(t *testing.T) {
	proc := &recordingProcessor{}
	q := NewMemoryQueue(proc, 2, 10, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)

	for i := int64(1); i <= 3; i++ {
		require.NoError(t, q.Enqueue(context.Background(), Task{NoteID: i}))
	}
	cancelled := false
	require.NoError(t, Shutdown(q, func() { cancelled = true }, time.Second))

	assert.False(t, cancelled)
	assert.ElementsMatch(t, []int64{1, 2, 3}, proc.Seen())
}
