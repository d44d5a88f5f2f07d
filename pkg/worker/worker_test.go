package worker

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerManager_ProcessesJobs(t *testing.T) {
	wm := NewWorkerManager(10, 3, nil)

	var handled int64
	var wg sync.WaitGroup
	wg.Add(5)
	wm.SetWorker(func(_ int, job interface{}) {
		atomic.AddInt64(&handled, int64(job.(int)))
		wg.Done()
	})

	stopped := make(chan error, 1)
	go func() { stopped <- wm.Start() }()

	for i := 1; i <= 5; i++ {
		wm.Enqueue(i)
	}
	wg.Wait()
	assert.Equal(t, int64(15), atomic.LoadInt64(&handled))

	wm.Exit()
	select {
	case err := <-stopped:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("workers did not stop")
	}
}

func TestWorkerManager_TryEnqueueFull(t *testing.T) {
	wm := NewWorkerManager(1, 1, nil)

	require.NoError(t, wm.TryEnqueue("first"))
	assert.ErrorIs(t, wm.TryEnqueue("second"), ErrQueueFull)
	assert.Equal(t, int64(1), wm.GetUnreadCount())
}

func TestWorkerManager_ExitDrainsBufferedJobs(t *testing.T) {
	wm := NewWorkerManager(10, 1, nil)

	var handled int64
	wm.SetWorker(func(_ int, job interface{}) {
		atomic.AddInt64(&handled, 1)
	})
	for i := 0; i < 4; i++ {
		require.NoError(t, wm.TryEnqueue(i))
	}

	wm.Exit()
	_ = wm.Start()

	assert.Equal(t, int64(4), atomic.LoadInt64(&handled))
	assert.Equal(t, int64(0), wm.GetUnreadCount())
}

func TestWorkerManager_StartWithoutHandler(t *testing.T) {
	wm := NewWorkerManager(1, 1, nil)
	assert.Error(t, wm.Start())
}
