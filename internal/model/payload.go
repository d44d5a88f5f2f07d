package model

import (
	"encoding/json"
	"errors"

	"github.com/shopspring/decimal"
)

const (
	FieldTransactionType = "transaction_type"
	FieldAmount          = "amount"
	FieldSender          = "sender"
	FieldReceiver        = "receiver"
)

// BusinessFields lists the caller supplied fields in validation order.
var BusinessFields = []string{FieldTransactionType, FieldAmount, FieldSender, FieldReceiver}

var ErrInvalidJSON = errors.New("Invalid JSON")

type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return "Missing field: " + e.Field
}

type InvalidFieldError struct {
	Field string
	Err   error
}

func (e *InvalidFieldError) Error() string {
	return "Invalid field: " + e.Field
}

func (e *InvalidFieldError) Unwrap() error {
	return e.Err
}

// TransactionPayload is a create or update request body. A nil field was
// not supplied.
type TransactionPayload struct {
	TransactionType *string
	Amount          *decimal.Decimal
	Sender          *string
	Receiver        *string
}

// ParseTransactionPayload decodes a JSON object body. Unknown keys are
// ignored and a null value counts as absent.
func ParseTransactionPayload(body []byte) (TransactionPayload, error) {
	var (
		p   TransactionPayload
		raw map[string]json.RawMessage
	)
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		return p, ErrInvalidJSON
	}

	for _, field := range BusinessFields {
		v, ok := raw[field]
		if !ok || string(v) == "null" {
			continue
		}

		var err error
		switch field {
		case FieldTransactionType:
			p.TransactionType, err = decodeString(v)
		case FieldAmount:
			p.Amount, err = decodeAmount(v)
		case FieldSender:
			p.Sender, err = decodeString(v)
		case FieldReceiver:
			p.Receiver, err = decodeString(v)
		}
		if err != nil {
			return TransactionPayload{}, &InvalidFieldError{Field: field, Err: err}
		}
	}
	return p, nil
}

// Validate returns a MissingFieldError naming the first absent business field.
func (p TransactionPayload) Validate() error {
	for _, field := range BusinessFields {
		if !p.Has(field) {
			return &MissingFieldError{Field: field}
		}
	}
	return nil
}

// Has reports whether the named business field was supplied.
func (p TransactionPayload) Has(field string) bool {
	switch field {
	case FieldTransactionType:
		return p.TransactionType != nil
	case FieldAmount:
		return p.Amount != nil
	case FieldSender:
		return p.Sender != nil
	case FieldReceiver:
		return p.Receiver != nil
	}
	return false
}

func decodeString(v json.RawMessage) (*string, error) {
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// decodeAmount accepts a JSON number or a numeric string.
func decodeAmount(v json.RawMessage) (*decimal.Decimal, error) {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(v); err != nil {
		return nil, err
	}
	return &d, nil
}
