package writebehind

import (
	"context"
	"log"
	"sync"
	"time"
)

// defaultRetryBackoff is the pause before a failed job is retried.
const defaultRetryBackoff = 2 * time.Second

// ApplyFunc persists one merged job to the durable store.
type ApplyFunc[J Job[J]] func(ctx context.Context, job J) error

// Worker is the single background goroutine draining a queue.
//
// On apply failure the job is merged back into the queue and retried after a
// short backoff; the worker itself never crashes on store errors.
type Worker[J Job[J]] struct {
	name    string
	queue   *Queue[J]
	apply   ApplyFunc[J]
	backoff time.Duration

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// NewWorker creates a worker for the queue. Start must be called to begin
// draining.
func NewWorker[J Job[J]](name string, queue *Queue[J], apply ApplyFunc[J]) *Worker[J] {
	return &Worker[J]{
		name:    name,
		queue:   queue,
		apply:   apply,
		backoff: defaultRetryBackoff,
		done:    make(chan struct{}),
	}
}

// Start launches the drain loop.
func (w *Worker[J]) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	go w.run(ctx)
}

// Stop closes the queue, lets the worker drain remaining jobs, and waits for
// it to exit.
func (w *Worker[J]) Stop() {
	w.once.Do(func() {
		w.queue.Close()
		<-w.done
		if w.cancel != nil {
			w.cancel()
		}
	})
}

// run is the drain loop.
func (w *Worker[J]) run(ctx context.Context) {
	defer close(w.done)

	for {
		job, ok := w.queue.Dequeue()
		if !ok {
			if w.queue.isClosed() {
				return
			}
			select {
			case <-w.queue.wakeChan():
				continue
			case <-ctx.Done():
				return
			}
		}

		if err := w.apply(ctx, job); err != nil {
			log.Printf("[WRITEBEHIND] %s: apply failed for %s, re-enqueueing: %v", w.name, job.Key(), err)
			// Merge-on-retry: writes that arrived meanwhile fold into the
			// retried job instead of racing it.
			w.queue.Enqueue(job)

			select {
			case <-time.After(w.backoff):
			case <-ctx.Done():
				return
			}
		}
	}
}
