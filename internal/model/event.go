package model

import (
	"time"

	"github.com/google/uuid"
)

type EventAction string

const (
	EventActionCreated EventAction = "created"
	EventActionUpdated EventAction = "updated"
	EventActionDeleted EventAction = "deleted"
)

// TransactionEvent describes one applied mutation of the ledger.
type TransactionEvent struct {
	ID            string       `json:"id"`
	Action        EventAction  `json:"action"`
	TransactionID int64        `json:"transaction_id"`
	Transaction   *Transaction `json:"transaction"`
	OccurredAt    time.Time    `json:"occurred_at"`
}

func NewTransactionEvent(action EventAction, t *Transaction, at time.Time) TransactionEvent {
	return TransactionEvent{
		ID:            uuid.NewString(),
		Action:        action,
		TransactionID: t.ID,
		Transaction:   t.Clone(),
		OccurredAt:    at.UTC(),
	}
}
