package events

import (
	"context"
	"time"

	"github.com/nimasrn/momo-ledger/internal/model"
	"github.com/nimasrn/momo-ledger/pkg/logger"
	"github.com/nimasrn/momo-ledger/pkg/prom"
	"github.com/nimasrn/momo-ledger/pkg/worker"
	"github.com/pkg/errors"
)

const (
	StatusPublished = "published"
	StatusFailed    = "failed"
	StatusDropped   = "dropped"

	MetaAction = "action"
)

// Publisher is the part of queue.Queue the dispatcher writes through.
type Publisher interface {
	PublishJSON(ctx context.Context, v interface{}, metadata map[string]string) (string, error)
}

// Dispatcher hands change events to a worker pool so request handling never
// waits on the stream. Events that do not fit in the buffer are dropped.
type Dispatcher struct {
	publisher      Publisher
	pool           *worker.WorkerManager
	publishTimeout time.Duration
	stopped        chan struct{}
}

func NewDispatcher(publisher Publisher, workers, bufferSize int) *Dispatcher {
	d := &Dispatcher{
		publisher:      publisher,
		pool:           worker.NewWorkerManager(bufferSize, workers, nil),
		publishTimeout: 2 * time.Second,
		stopped:        make(chan struct{}),
	}
	d.pool.SetWorker(d.publish)
	return d
}

// Start runs the workers in the background.
func (d *Dispatcher) Start() {
	go func() {
		defer close(d.stopped)
		if err := d.pool.Start(); err != nil {
			logger.Info("event dispatcher stopped", "reason", err)
		}
	}()
}

// Dispatch queues e for publishing and returns immediately.
func (d *Dispatcher) Dispatch(e model.TransactionEvent) {
	if err := d.pool.TryEnqueue(e); err != nil {
		prom.IncEventPublished(StatusDropped)
		logger.Warn("dropping transaction event", "event_id", e.ID, "action", e.Action, "transaction_id", e.TransactionID, "error", err)
	}
}

// Stop publishes what is still buffered and waits for the workers, giving up
// after timeout.
func (d *Dispatcher) Stop(timeout time.Duration) error {
	d.pool.Exit()
	select {
	case <-d.stopped:
		return nil
	case <-time.After(timeout):
		return errors.Errorf("event dispatcher did not stop within %s, %d events unpublished", timeout, d.pool.GetUnreadCount())
	}
}

func (d *Dispatcher) publish(workerIndex int, job interface{}) {
	e, ok := job.(model.TransactionEvent)
	if !ok {
		logger.Error("unexpected job on event dispatcher", "worker", workerIndex, "job", job)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.publishTimeout)
	defer cancel()

	id, err := d.publisher.PublishJSON(ctx, e, map[string]string{MetaAction: string(e.Action)})
	if err != nil {
		prom.IncEventPublished(StatusFailed)
		logger.Error("failed to publish transaction event", "worker", workerIndex, "event_id", e.ID, "error", err)
		return
	}
	prom.IncEventPublished(StatusPublished)
	logger.Debug("transaction event published", "event_id", e.ID, "stream_id", id)
}
