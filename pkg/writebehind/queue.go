// Package writebehind implements a write-behind cache pattern: an in-memory
// read cache fronting a durable store, plus a bounded key-merging write queue
// drained by a single background worker. The request path only ever touches
// memory and a non-blocking enqueue; it never waits on the durable store.
package writebehind

import (
	"log"
	"sync"
)

// Job is one pending durable write. Jobs for the same key are merged in
// place while queued, so queue growth is bounded by the number of distinct
// dirty keys rather than the number of writes.
type Job[J any] interface {
	// Key identifies the entity the job writes, e.g. "<entity>:<user_id>".
	Key() string

	// Merge folds an incoming job for the same key into this one and returns
	// the combined job. Numeric deltas sum; latest human-readable values win.
	Merge(incoming J) J
}

// Queue is a bounded, key-merging FIFO of pending writes.
//
// When the queue is full and a genuinely new key arrives, the oldest pending
// key is evicted and its aggregated job dropped. That is an explicit, logged
// data-loss policy favoring availability over completeness under sustained
// overload.
type Queue[J Job[J]] struct {
	mu      sync.Mutex
	name    string
	maxSize int
	jobs    map[string]J
	order   []string // FIFO of pending keys
	wake    chan struct{}
	closed  bool
}

// NewQueue creates a queue holding at most maxSize distinct keys.
func NewQueue[J Job[J]](name string, maxSize int) *Queue[J] {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &Queue[J]{
		name:    name,
		maxSize: maxSize,
		jobs:    make(map[string]J),
		order:   make([]string, 0, maxSize),
		wake:    make(chan struct{}, 1),
	}
}

// Enqueue adds a job without blocking. An already-pending job for the same
// key absorbs the new one via Merge; a new key on a full queue evicts the
// oldest pending key. Enqueue on a closed queue is a logged no-op.
func (q *Queue[J]) Enqueue(job J) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		log.Printf("[WRITEBEHIND] %s: dropping write for %s: queue closed", q.name, job.Key())
		return
	}

	key := job.Key()
	if pending, ok := q.jobs[key]; ok {
		q.jobs[key] = pending.Merge(job)
		q.mu.Unlock()
		return
	}

	if len(q.order) >= q.maxSize {
		oldest := q.order[0]
		q.order = q.order[1:]
		delete(q.jobs, oldest)
		log.Printf("[WRITEBEHIND] %s: queue full, evicted oldest pending key %s", q.name, oldest)
	}

	q.jobs[key] = job
	q.order = append(q.order, key)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Dequeue pops the oldest pending job. It returns false when the queue is
// empty.
func (q *Queue[J]) Dequeue() (J, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero J
	if len(q.order) == 0 {
		return zero, false
	}
	key := q.order[0]
	q.order = q.order[1:]
	job := q.jobs[key]
	delete(q.jobs, key)
	return job, true
}

// Len returns the number of distinct pending keys.
func (q *Queue[J]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.order)
}

// Pending returns the queued job for key, if any. Intended for tests.
func (q *Queue[J]) Pending(key string) (J, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	job, ok := q.jobs[key]
	return job, ok
}

// Close marks the queue closed. Subsequent enqueues are dropped; the worker
// drains what remains.
func (q *Queue[J]) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// wakeChan exposes the worker wake-up channel.
func (q *Queue[J]) wakeChan() <-chan struct{} {
	return q.wake
}

// isClosed reports whether Close was called.
func (q *Queue[J]) isClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}
