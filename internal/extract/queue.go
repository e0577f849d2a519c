package extract

import (
	"context"
	"sync"

	"github.com/githarvest/githarvest/pkg/gitlib"
	"github.com/githarvest/githarvest/pkg/model"
)

// Task carries one commit hash together with the branch and tag metadata
// discovered during the reference scan. A nil *Task on the queue is a
// shutdown signal: the worker that receives it acknowledges and exits.
type Task struct {
	Hash     gitlib.Hash
	Branches []string
	Tags     []model.Tag
}

// Queue is a joinable work queue. Every pushed item, shutdown signals
// included, must be acknowledged with Done before Join returns.
type Queue struct {
	ch chan *Task
	wg sync.WaitGroup
}

// NewQueue creates a queue with the given buffer capacity. The pipeline
// pushes all items before any worker starts, so the capacity must cover the
// full task count plus one shutdown signal per worker.
func NewQueue(capacity int) *Queue {
	return &Queue{ch: make(chan *Task, capacity)}
}

// Push enqueues a task. Pushing nil enqueues a shutdown signal.
func (q *Queue) Push(task *Task) {
	q.wg.Add(1)
	q.ch <- task
}

// Pop removes the next task, blocking until one is available or the context
// is cancelled. A cancelled context takes priority over buffered tasks.
func (q *Queue) Pop(ctx context.Context) (*Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	select {
	case task := <-q.ch:
		return task, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Done acknowledges one popped item.
func (q *Queue) Done() {
	q.wg.Done()
}

// Join blocks until every pushed item has been acknowledged.
func (q *Queue) Join() {
	q.wg.Wait()
}
