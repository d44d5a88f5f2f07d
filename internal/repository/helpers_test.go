package repository

import (
	"testing"

	"github.com/nimasrn/momo-ledger/internal/model"
	"github.com/nimasrn/momo-ledger/pkg/pg"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *pg.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&TransactionEntity{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// a second pooled connection would open a different in-memory database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return pg.NewDB(db, db)
}

func strPtr(s string) *string {
	return &s
}

func amountPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func fullPayload(txType string, amount int64, sender, receiver string) model.TransactionPayload {
	return model.TransactionPayload{
		TransactionType: strPtr(txType),
		Amount:          amountPtr(amount),
		Sender:          strPtr(sender),
		Receiver:        strPtr(receiver),
	}
}
