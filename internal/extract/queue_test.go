package extract_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/githarvest/githarvest/internal/extract"
	"github.com/githarvest/githarvest/pkg/gitlib"
)

func TestQueuePushPop(t *testing.T) {
	t.Parallel()

	queue := extract.NewQueue(4)

	task := &extract.Task{Hash: gitlib.NewHash("0123456789abcdef0123456789abcdef01234567")}
	queue.Push(task)
	queue.Push(nil)

	got, err := queue.Pop(context.Background())
	require.NoError(t, err)
	assert.Same(t, task, got)
	queue.Done()

	pill, err := queue.Pop(context.Background())
	require.NoError(t, err)
	assert.Nil(t, pill)
	queue.Done()

	queue.Join()
}

func TestQueuePopCancelled(t *testing.T) {
	t.Parallel()

	queue := extract.NewQueue(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := queue.Pop(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestQueuePopPrefersCancellationOverBufferedTask(t *testing.T) {
	t.Parallel()

	queue := extract.NewQueue(1)
	queue.Push(&extract.Task{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := queue.Pop(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestQueueJoinWaitsForAcks(t *testing.T) {
	t.Parallel()

	queue := extract.NewQueue(1)
	queue.Push(&extract.Task{})

	done := make(chan struct{})

	go func() {
		queue.Join()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Join returned before the task was acknowledged")
	case <-time.After(20 * time.Millisecond):
	}

	_, err := queue.Pop(context.Background())
	require.NoError(t, err)
	queue.Done()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Join did not return after the last acknowledgement")
	}
}
