package repository

import (
	"github.com/nimasrn/momo-ledger/internal/model"
	"github.com/shopspring/decimal"
)

// TransactionEntity is a row of the dataset table the API can be seeded from.
type TransactionEntity struct {
	ID              int64           `db:"id"               gorm:"primaryKey;autoIncrement:false;column:id"`
	TransactionType string          `db:"transaction_type" gorm:"column:transaction_type;not null;index"`
	Amount          decimal.Decimal `db:"amount"           gorm:"column:amount;type:numeric;not null"`
	Sender          string          `db:"sender"           gorm:"column:sender;not null"`
	Receiver        string          `db:"receiver"         gorm:"column:receiver;not null"`
	Timestamp       string          `db:"timestamp"        gorm:"column:timestamp;not null"`
}

func (TransactionEntity) TableName() string {
	return "transactions"
}

func toTransactionEntity(m *model.Transaction) *TransactionEntity {
	if m == nil {
		return nil
	}
	return &TransactionEntity{
		ID:              m.ID,
		TransactionType: m.TransactionType,
		Amount:          m.Amount,
		Sender:          m.Sender,
		Receiver:        m.Receiver,
		Timestamp:       m.Timestamp,
	}
}

func toTransactionModel(e *TransactionEntity) *model.Transaction {
	if e == nil {
		return nil
	}
	return &model.Transaction{
		ID:              e.ID,
		TransactionType: e.TransactionType,
		Amount:          e.Amount,
		Sender:          e.Sender,
		Receiver:        e.Receiver,
		Timestamp:       e.Timestamp,
	}
}

func toTransactionModels(entities []*TransactionEntity) []*model.Transaction {
	if entities == nil {
		return nil
	}
	models := make([]*model.Transaction, len(entities))
	for i, e := range entities {
		models[i] = toTransactionModel(e)
	}
	return models
}

func toTransactionEntities(models []*model.Transaction) []*TransactionEntity {
	entities := make([]*TransactionEntity, 0, len(models))
	for _, m := range models {
		if e := toTransactionEntity(m); e != nil {
			entities = append(entities, e)
		}
	}
	return entities
}
