package writebehind

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterJob is a minimal delta-summing job for exercising the queue.
type counterJob struct {
	key   string
	delta int
}

func (j counterJob) Key() string { return j.key }

func (j counterJob) Merge(incoming counterJob) counterJob {
	j.delta += incoming.delta
	return j
}

func TestQueueMergesSameKey(t *testing.T) {
	q := NewQueue[counterJob]("test", 10)

	q.Enqueue(counterJob{key: "alice", delta: 3})
	q.Enqueue(counterJob{key: "alice", delta: -1})

	assert.Equal(t, 1, q.Len())
	job, ok := q.Pending("alice")
	require.True(t, ok)
	assert.Equal(t, 2, job.delta, "deltas for one key must sum while queued")
}

func TestQueueEvictsOldestWhenFull(t *testing.T) {
	q := NewQueue[counterJob]("test", 2)

	q.Enqueue(counterJob{key: "a", delta: 1})
	q.Enqueue(counterJob{key: "b", delta: 1})
	q.Enqueue(counterJob{key: "c", delta: 1})

	assert.Equal(t, 2, q.Len())
	_, ok := q.Pending("a")
	assert.False(t, ok, "oldest pending key must be evicted")
	_, ok = q.Pending("c")
	assert.True(t, ok)
}

func TestQueueMergeDoesNotEvict(t *testing.T) {
	q := NewQueue[counterJob]("test", 2)

	q.Enqueue(counterJob{key: "a", delta: 1})
	q.Enqueue(counterJob{key: "b", delta: 1})
	// Same-key write on a full queue merges instead of evicting.
	q.Enqueue(counterJob{key: "b", delta: 4})

	assert.Equal(t, 2, q.Len())
	job, _ := q.Pending("b")
	assert.Equal(t, 5, job.delta)
	_, ok := q.Pending("a")
	assert.True(t, ok)
}

func TestQueueDequeueFIFO(t *testing.T) {
	q := NewQueue[counterJob]("test", 10)
	q.Enqueue(counterJob{key: "a", delta: 1})
	q.Enqueue(counterJob{key: "b", delta: 2})

	job, ok := q.Dequeue()
	require.True(t, ok)
	assert.Equal(t, "a", job.key)

	job, ok = q.Dequeue()
	require.True(t, ok)
	assert.Equal(t, "b", job.key)

	_, ok = q.Dequeue()
	assert.False(t, ok)
}

func TestQueueClosedDropsWrites(t *testing.T) {
	q := NewQueue[counterJob]("test", 10)
	q.Enqueue(counterJob{key: "a", delta: 1})
	q.Close()
	q.Enqueue(counterJob{key: "b", delta: 1})

	assert.Equal(t, 1, q.Len(), "post-close writes are dropped, pending jobs remain")
}
