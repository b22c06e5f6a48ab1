package writebehind

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerDrainsQueue(t *testing.T) {
	q := NewQueue[counterJob]("test", 10)

	var mu sync.Mutex
	applied := make(map[string]int)
	w := NewWorker("test", q, func(ctx context.Context, job counterJob) error {
		mu.Lock()
		defer mu.Unlock()
		applied[job.key] += job.delta
		return nil
	})
	w.Start()

	q.Enqueue(counterJob{key: "alice", delta: 3})
	q.Enqueue(counterJob{key: "bob", delta: 1})
	w.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 3, applied["alice"])
	assert.Equal(t, 1, applied["bob"])
}

func TestWorkerStopDrainsPendingJobs(t *testing.T) {
	q := NewQueue[counterJob]("test", 10)

	var mu sync.Mutex
	var count int
	w := NewWorker("test", q, func(ctx context.Context, job counterJob) error {
		mu.Lock()
		defer mu.Unlock()
		count++
		return nil
	})

	// Enqueued before the worker even starts.
	for i := 0; i < 5; i++ {
		q.Enqueue(counterJob{key: string(rune('a' + i)), delta: 1})
	}
	w.Start()
	w.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 5, count)
	assert.Equal(t, 0, q.Len())
}

func TestWorkerRetriesWithMerge(t *testing.T) {
	q := NewQueue[counterJob]("test", 10)

	var mu sync.Mutex
	var attempts int
	var final counterJob
	done := make(chan struct{})

	w := NewWorker("test", q, func(ctx context.Context, job counterJob) error {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts == 1 {
			return errors.New("store unavailable")
		}
		final = job
		close(done)
		return nil
	})
	w.backoff = 10 * time.Millisecond

	q.Enqueue(counterJob{key: "alice", delta: 3})
	q.Enqueue(counterJob{key: "alice", delta: 2})
	w.Start()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker never retried")
	}
	w.Stop()

	mu.Lock()
	defer mu.Unlock()
	require.GreaterOrEqual(t, attempts, 2)
	assert.Equal(t, 5, final.delta, "retried job must carry the merged delta")
}
