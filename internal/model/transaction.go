package model

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// TimestampLayout is the ISO-8601 layout used for server stamped timestamps.
const TimestampLayout = "2006-01-02T15:04:05.000000Z07:00"

// Transaction is a single mobile-money ledger record.
type Transaction struct {
	ID              int64           `json:"id"`
	TransactionType string          `json:"transaction_type"`
	Amount          decimal.Decimal `json:"amount"`
	Sender          string          `json:"sender"`
	Receiver        string          `json:"receiver"`
	Timestamp       string          `json:"timestamp"`
}

// MarshalJSON writes the amount as a bare JSON number, e.g. "amount": 500.
func (t Transaction) MarshalJSON() ([]byte, error) {
	type plain Transaction
	return json.Marshal(struct {
		plain
		Amount json.Number `json:"amount"`
	}{
		plain:  plain(t),
		Amount: json.Number(t.Amount.String()),
	})
}

// Clone returns a copy that shares no state with t.
func (t *Transaction) Clone() *Transaction {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// Apply overwrites the business fields present in p. ID and Timestamp are
// never touched.
func (t *Transaction) Apply(p TransactionPayload) {
	if p.TransactionType != nil {
		t.TransactionType = *p.TransactionType
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Sender != nil {
		t.Sender = *p.Sender
	}
	if p.Receiver != nil {
		t.Receiver = *p.Receiver
	}
}
