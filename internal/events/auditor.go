package events

import (
	"context"
	"encoding/json"

	"github.com/nimasrn/momo-ledger/internal/model"
	"github.com/nimasrn/momo-ledger/internal/queue"
	"github.com/nimasrn/momo-ledger/pkg/logger"
	"github.com/nimasrn/momo-ledger/pkg/prom"
	"github.com/pkg/errors"
)

// AuditHandler writes one audit log line per transaction event. Entries that
// are not valid events are logged and acked so they do not loop forever.
func AuditHandler(ctx context.Context, msg *queue.Message) error {
	var e model.TransactionEvent
	if err := json.Unmarshal(msg.Data, &e); err != nil {
		logger.Error("skipping malformed transaction event", "stream_id", msg.ID, "error", err)
		prom.IncEventConsumed("malformed")
		return nil
	}

	fields := []any{
		"stream_id", msg.ID,
		"event_id", e.ID,
		"action", e.Action,
		"transaction_id", e.TransactionID,
		"occurred_at", e.OccurredAt,
		"attempts", msg.Attempts,
	}
	if e.Transaction != nil {
		fields = append(fields,
			"transaction_type", e.Transaction.TransactionType,
			"amount", e.Transaction.Amount.String(),
			"sender", e.Transaction.Sender,
			"receiver", e.Transaction.Receiver,
		)
	}
	logger.Info("transaction audit", fields...)
	prom.IncEventConsumed(string(e.Action))
	return nil
}

// Replay feeds every event still held by the stream to AuditHandler.
func Replay(ctx context.Context, q *queue.Queue) (int, error) {
	n := 0
	err := q.Range(ctx, func(msg *queue.Message) error {
		n++
		return AuditHandler(ctx, msg)
	})
	if err != nil {
		return n, errors.Wrap(err, "replay failed")
	}
	return n, nil
}
