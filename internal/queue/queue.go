package queue

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nimasrn/momo-ledger/pkg/logger"
	"github.com/nimasrn/momo-ledger/pkg/redis"
	"github.com/pkg/errors"
)

const (
	fieldData      = "data"
	fieldTimestamp = "timestamp"
	fieldAttempts  = "attempts"
	metaPrefix     = "meta_"
)

// Message is one stream entry handed to a Handler.
type Message struct {
	ID          string
	Data        []byte
	Metadata    map[string]string
	PublishedAt time.Time
	Attempts    int
}

// Handler processes one message. A nil return acks the entry, an error leaves
// it pending so it is reclaimed once the visibility timeout passes.
type Handler func(ctx context.Context, msg *Message) error

type Config struct {
	Name              string
	ConsumerGroup     string
	ConsumerName      string
	MaxRetries        int
	VisibilityTimeout time.Duration
	PollInterval      time.Duration
	BatchSize         int64
	MaxLen            int64
	EnableDLQ         bool
}

// Queue is a Redis stream with one consumer group on top of it.
type Queue struct {
	adapter redis.RedisAdapter
	config  Config

	handler   Handler
	consuming atomic.Bool
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup

	processed atomic.Int64
	failed    atomic.Int64
}

type Stats struct {
	TotalMessages   int64
	PendingMessages int64
	ProcessedCount  int64
	FailedCount     int64
	ConsumerCount   int64
}

func NewQueue(adapter redis.RedisAdapter, config Config) (*Queue, error) {
	if adapter == nil {
		return nil, errors.New("redis adapter is required")
	}
	if config.Name == "" {
		return nil, errors.New("queue name is required")
	}
	if config.ConsumerGroup == "" {
		config.ConsumerGroup = "default-group"
	}
	if config.ConsumerName == "" {
		config.ConsumerName = "consumer-" + strconv.FormatInt(time.Now().UnixNano(), 10)
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}
	if config.VisibilityTimeout == 0 {
		config.VisibilityTimeout = 30 * time.Second
	}
	if config.PollInterval == 0 {
		config.PollInterval = time.Second
	}
	if config.BatchSize == 0 {
		config.BatchSize = 10
	}

	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		adapter: adapter,
		config:  config,
		ctx:     ctx,
		cancel:  cancel,
	}

	err := adapter.XGroupCreateMkStream(config.Name, config.ConsumerGroup, "0")
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		cancel()
		return nil, errors.Wrapf(err, "failed to create consumer group %s", config.ConsumerGroup)
	}

	return q, nil
}

func (q *Queue) Name() string {
	return q.config.Name
}

// Publish appends data to the stream and trims it when MaxLen is set.
func (q *Queue) Publish(ctx context.Context, data []byte, metadata map[string]string) (string, error) {
	values := map[string]interface{}{
		fieldData:      string(data),
		fieldTimestamp: time.Now().UnixMilli(),
		fieldAttempts:  0,
	}
	for k, v := range metadata {
		values[metaPrefix+k] = v
	}

	id, err := q.adapter.XAdd(q.config.Name, values)
	if err != nil {
		return "", errors.Wrap(err, "failed to publish message")
	}

	if q.config.MaxLen > 0 {
		if err := q.adapter.XTrimApprox(q.config.Name, q.config.MaxLen); err != nil {
			logger.Warn("failed to trim stream", "stream", q.config.Name, "error", err)
		}
	}
	return id, nil
}

func (q *Queue) PublishJSON(ctx context.Context, v interface{}, metadata map[string]string) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal message")
	}
	return q.Publish(ctx, data, metadata)
}

// Consume starts the poll loop in the background. It can be called once.
func (q *Queue) Consume(handler Handler) error {
	if handler == nil {
		return errors.New("message handler is required")
	}
	if !q.consuming.CompareAndSwap(false, true) {
		return errors.New("queue is already consuming")
	}

	q.handler = handler
	q.wg.Add(1)
	go q.consumeLoop()
	return nil
}

// Range walks every entry still in the stream, oldest first, without
// touching the consumer group. It stops at the first error fn returns.
func (q *Queue) Range(ctx context.Context, fn func(msg *Message) error) error {
	entries, err := q.adapter.XRange(q.config.Name, "-", "+")
	if err != nil {
		return errors.Wrapf(err, "failed to read stream %s", q.config.Name)
	}
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(toMessage(e)); err != nil {
			return err
		}
	}
	return nil
}

func (q *Queue) consumeLoop() {
	defer q.wg.Done()

	ticker := time.NewTicker(q.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-q.ctx.Done():
			return
		case <-ticker.C:
			q.readNew()
			q.reclaimStuck()
		}
	}
}

func (q *Queue) readNew() {
	entries, err := q.adapter.XReadGroup(
		q.config.ConsumerGroup,
		q.config.ConsumerName,
		q.config.Name,
		">",
		q.config.BatchSize,
		-1,
	)
	if err != nil {
		if !errors.Is(err, redis.NilError) {
			logger.Error("failed to read stream", "stream", q.config.Name, "error", err)
		}
		return
	}

	for _, e := range entries {
		q.handle(toMessage(e))
	}
}

func (q *Queue) reclaimStuck() {
	pending, err := q.adapter.XPending(q.config.Name, q.config.ConsumerGroup)
	if err != nil || pending == nil || pending.Count == 0 {
		return
	}

	details, err := q.adapter.XPendingExt(q.config.Name, q.config.ConsumerGroup, "-", "+", 100)
	if err != nil {
		logger.Error("failed to list pending entries", "stream", q.config.Name, "error", err)
		return
	}

	var ids []string
	deliveries := make(map[string]int64, len(details))
	for _, p := range details {
		if p.Idle >= q.config.VisibilityTimeout {
			ids = append(ids, p.ID)
			deliveries[p.ID] = p.RetryCount
		}
	}
	if len(ids) == 0 {
		return
	}

	entries, err := q.adapter.XClaim(q.config.Name, q.config.ConsumerGroup, q.config.ConsumerName, q.config.VisibilityTimeout, ids...)
	if err != nil {
		logger.Error("failed to claim pending entries", "stream", q.config.Name, "error", err)
		return
	}

	for _, e := range entries {
		msg := toMessage(e)
		msg.Attempts = int(deliveries[msg.ID])
		q.handle(msg)
	}
}

func (q *Queue) handle(msg *Message) {
	if msg.Attempts >= q.config.MaxRetries {
		q.deadLetter(msg)
		q.ack(msg.ID)
		q.failed.Add(1)
		return
	}

	ctx, cancel := context.WithTimeout(q.ctx, q.config.VisibilityTimeout)
	defer cancel()

	if err := q.handler(ctx, msg); err != nil {
		q.failed.Add(1)
		logger.Warn("message handler failed", "stream", q.config.Name, "id", msg.ID, "attempts", msg.Attempts, "error", err)
		return
	}
	q.ack(msg.ID)
	q.processed.Add(1)
}

func (q *Queue) ack(id string) {
	if err := q.adapter.XAck(q.config.Name, q.config.ConsumerGroup, id); err != nil {
		logger.Error("failed to ack entry", "stream", q.config.Name, "id", id, "error", err)
	}
}

func (q *Queue) deadLetter(msg *Message) {
	if !q.config.EnableDLQ {
		logger.Warn("dropping entry over retry limit", "stream", q.config.Name, "id", msg.ID)
		return
	}

	values := map[string]interface{}{
		fieldData:        string(msg.Data),
		"original_id":    msg.ID,
		fieldAttempts:    msg.Attempts,
		"failed_at":      time.Now().UnixMilli(),
		"original_queue": q.config.Name,
	}
	for k, v := range msg.Metadata {
		values[metaPrefix+k] = v
	}

	if _, err := q.adapter.XAdd(q.DeadLetterName(), values); err != nil {
		logger.Error("failed to move entry to dead letter stream", "id", msg.ID, "error", err)
	}
}

func (q *Queue) DeadLetterName() string {
	return q.config.Name + ":dlq"
}

func toMessage(e redis.StreamMessage) *Message {
	msg := &Message{
		ID:       e.ID,
		Metadata: make(map[string]string),
	}

	for k, v := range e.Values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		switch {
		case k == fieldData:
			msg.Data = []byte(s)
		case k == fieldTimestamp:
			if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
				msg.PublishedAt = time.UnixMilli(ms)
			}
		case k == fieldAttempts:
			msg.Attempts, _ = strconv.Atoi(s)
		case strings.HasPrefix(k, metaPrefix):
			msg.Metadata[strings.TrimPrefix(k, metaPrefix)] = s
		}
	}
	return msg
}

// Stop ends the poll loop and waits for the in-flight batch.
func (q *Queue) Stop(timeout time.Duration) error {
	q.cancel()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return errors.New("timeout waiting for queue to stop")
	}
}

func (q *Queue) Stats() (*Stats, error) {
	total, err := q.adapter.XLen(q.config.Name)
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		TotalMessages:  total,
		ProcessedCount: q.processed.Load(),
		FailedCount:    q.failed.Load(),
	}

	pending, err := q.adapter.XPending(q.config.Name, q.config.ConsumerGroup)
	if err == nil && pending != nil {
		stats.PendingMessages = pending.Count
		stats.ConsumerCount = int64(len(pending.Consumers))
	}
	return stats, nil
}
