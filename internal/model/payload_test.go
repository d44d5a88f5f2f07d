package model

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTransactionPayload(t *testing.T) {
	t.Run("all fields", func(t *testing.T) {
		p, err := ParseTransactionPayload([]byte(`{"transaction_type":"payment","amount":500,"sender":"You","receiver":"Shop"}`))
		require.NoError(t, err)
		require.NoError(t, p.Validate())
		assert.Equal(t, "payment", *p.TransactionType)
		assert.True(t, decimal.NewFromInt(500).Equal(*p.Amount))
		assert.Equal(t, "You", *p.Sender)
		assert.Equal(t, "Shop", *p.Receiver)
	})

	t.Run("subset and unknown fields", func(t *testing.T) {
		p, err := ParseTransactionPayload([]byte(`{"amount":10.25,"note":"ignored"}`))
		require.NoError(t, err)
		assert.Nil(t, p.TransactionType)
		assert.Nil(t, p.Sender)
		assert.Nil(t, p.Receiver)
		assert.Equal(t, "10.25", p.Amount.String())
	})

	t.Run("numeric string amount", func(t *testing.T) {
		p, err := ParseTransactionPayload([]byte(`{"amount":"1500"}`))
		require.NoError(t, err)
		assert.Equal(t, "1500", p.Amount.String())
	})

	t.Run("null counts as absent", func(t *testing.T) {
		p, err := ParseTransactionPayload([]byte(`{"sender":null}`))
		require.NoError(t, err)
		assert.False(t, p.Has(FieldSender))
	})

	invalidJSON := []string{``, `not json`, `[]`, `[1,2]`, `null`, `"text"`, `42`, `{"amount":`}
	for _, body := range invalidJSON {
		t.Run("invalid json "+body, func(t *testing.T) {
			_, err := ParseTransactionPayload([]byte(body))
			assert.ErrorIs(t, err, ErrInvalidJSON)
		})
	}

	invalidFields := map[string]string{
		`{"sender":5}`:              FieldSender,
		`{"receiver":["a"]}`:        FieldReceiver,
		`{"transaction_type":true}`: FieldTransactionType,
		`{"amount":"abc"}`:          FieldAmount,
		`{"amount":{"value":1}}`:    FieldAmount,
		`{"amount":true}`:           FieldAmount,
	}
	for body, field := range invalidFields {
		t.Run("invalid field "+body, func(t *testing.T) {
			_, err := ParseTransactionPayload([]byte(body))
			var fe *InvalidFieldError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, field, fe.Field)
			assert.Equal(t, "Invalid field: "+field, err.Error())
		})
	}
}

func TestTransactionPayload_Validate(t *testing.T) {
	tests := []struct {
		body    string
		missing string
	}{
		{body: `{"amount":10}`, missing: FieldTransactionType},
		{body: `{"transaction_type":"deposit"}`, missing: FieldAmount},
		{body: `{"transaction_type":"deposit","amount":1}`, missing: FieldSender},
		{body: `{"transaction_type":"deposit","amount":1,"sender":"a"}`, missing: FieldReceiver},
		{body: `{}`, missing: FieldTransactionType},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			p, err := ParseTransactionPayload([]byte(tt.body))
			require.NoError(t, err)

			err = p.Validate()
			var mf *MissingFieldError
			require.ErrorAs(t, err, &mf)
			assert.Equal(t, tt.missing, mf.Field)
			assert.Equal(t, "Missing field: "+tt.missing, err.Error())
		})
	}
}

func TestTransaction_ApplyAndJSON(t *testing.T) {
	tx := &Transaction{
		ID:              4,
		TransactionType: "transfer",
		Amount:          decimal.NewFromInt(2000),
		Sender:          "You",
		Receiver:        "Jane",
		Timestamp:       "2024-05-10T16:30:51",
	}

	amount := decimal.NewFromInt(999)
	receiver := "John"
	tx.Apply(TransactionPayload{Amount: &amount, Receiver: &receiver})

	assert.Equal(t, int64(4), tx.ID)
	assert.Equal(t, "transfer", tx.TransactionType)
	assert.Equal(t, "You", tx.Sender)
	assert.Equal(t, "John", tx.Receiver)
	assert.Equal(t, "2024-05-10T16:30:51", tx.Timestamp)

	b, err := json.Marshal(tx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":4,"transaction_type":"transfer","amount":999,"sender":"You","receiver":"John","timestamp":"2024-05-10T16:30:51"}`, string(b))

	clone := tx.Clone()
	clone.Sender = "changed"
	assert.Equal(t, "You", tx.Sender)
}

func TestTransaction_MarshalJSONLeavesDecimalDefaults(t *testing.T) {
	require.False(t, decimal.MarshalJSONWithoutQuotes)

	tx := Transaction{ID: 2, TransactionType: "deposit", Amount: decimal.RequireFromString("12.50"), Sender: "Agent", Receiver: "You"}
	b, err := json.Marshal(tx)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"amount":12.5`)

	// a bare decimal keeps the library's quoted form
	b, err = json.Marshal(tx.Amount)
	require.NoError(t, err)
	assert.Equal(t, `"12.5"`, string(b))

	var back Transaction
	require.NoError(t, json.Unmarshal(b, &back.Amount))
	assert.True(t, tx.Amount.Equal(back.Amount))
}
