package worker

import (
	"errors"
	"sync"

	"github.com/nimasrn/momo-ledger/pkg/logger"
)

var ErrQueueFull = errors.New("worker job queue is full")

type WorkerHandler = func(workerIndex int, job interface{})

type WorkerManager struct {
	bufferSize     int
	jobChannel     chan interface{}
	numberOfWorker int
	done           chan struct{}
	exitOnce       sync.Once
	do             WorkerHandler
	waiter         *sync.WaitGroup
}

// NewWorkerManager
// is a job manager based on go routines. Define the number of internal
// workers, and start publishing jobs using Enqueue or TryEnqueue. Jobs are
// distributed among the pool. Exit stops the workers once the jobs already
// buffered are handled. The job channel is not closed on Exit because it
// may be passed in and shared with other producers.
func NewWorkerManager(bufferSize, numberOfWorkers int, jobChannel chan interface{}) *WorkerManager {
	if jobChannel == nil {
		jobChannel = make(chan interface{}, bufferSize)
	}
	if numberOfWorkers < 1 {
		numberOfWorkers = 1
	}

	return &WorkerManager{
		bufferSize:     bufferSize,
		numberOfWorker: numberOfWorkers,
		jobChannel:     jobChannel,
		done:           make(chan struct{}),
		waiter:         &sync.WaitGroup{},
	}
}

func (w *WorkerManager) GetUnreadCount() int64 {
	if w.jobChannel == nil {
		return 0
	}
	return int64(len(w.jobChannel))
}

func (w *WorkerManager) SetWorker(worker WorkerHandler) {
	w.do = worker
}

// Enqueue
// Publishes a job onto the channel, blocking while the buffer is full
func (w *WorkerManager) Enqueue(val interface{}) {
	w.jobChannel <- val
}

// TryEnqueue publishes a job without blocking.
func (w *WorkerManager) TryEnqueue(val interface{}) error {
	select {
	case w.jobChannel <- val:
		return nil
	default:
		return ErrQueueFull
	}
}

// Start
// starts off the workers as many as defined by w.numberOfWorker and
// blocks until Exit is called and every worker has returned.
func (w *WorkerManager) Start() error {
	if w.do == nil {
		return errors.New("worker handler is not set")
	}
	w.waiter.Add(w.numberOfWorker)
	for i := 0; i < w.numberOfWorker; i++ {
		go func(index int) {
			defer w.waiter.Done()
			for {
				select {
				case job := <-w.jobChannel:
					w.do(index, job)
				case <-w.done:
					w.drain(index)
					return
				}
			}
		}(i)
	}
	w.waiter.Wait()

	return errors.New("workers terminated")
}

func (w *WorkerManager) drain(index int) {
	for {
		select {
		case job := <-w.jobChannel:
			w.do(index, job)
		default:
			return
		}
	}
}

// Exit
// signals all workers to stop after the buffered jobs are handled
func (w *WorkerManager) Exit() {
	w.exitOnce.Do(func() {
		logger.Info("Exit() is called and worker manager is going to be shutdown")
		close(w.done)
	})
}
