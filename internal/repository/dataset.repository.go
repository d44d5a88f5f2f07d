package repository

import (
	"context"

	"github.com/nimasrn/momo-ledger/internal/model"
	"github.com/nimasrn/momo-ledger/pkg/pg"
	"gorm.io/gorm/clause"
)

const importBatchSize = 500

// DatasetRepository reads and writes the transactions dataset table. The API
// only reads it once at startup, the import command writes it.
type DatasetRepository struct {
	*pg.DB
}

func NewDatasetRepository(db *pg.DB) *DatasetRepository {
	return &DatasetRepository{
		db,
	}
}

// All returns every dataset row ordered by id.
func (r *DatasetRepository) All(ctx context.Context) ([]*model.Transaction, error) {
	var entities []*TransactionEntity
	if err := r.Read(ctx).Order("id ASC").Find(&entities).Error; err != nil {
		return nil, err
	}
	return toTransactionModels(entities), nil
}

// Import upserts txs by id inside one database transaction and returns the
// number of rows written.
func (r *DatasetRepository) Import(ctx context.Context, txs []*model.Transaction) (int64, error) {
	entities := toTransactionEntities(txs)
	if len(entities) == 0 {
		return 0, nil
	}

	var written int64
	err := r.WithinTransaction(ctx, func(ctx context.Context) error {
		res := r.Write(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				UpdateAll: true,
			}).
			CreateInBatches(entities, importBatchSize)
		if res.Error != nil {
			return res.Error
		}
		written = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return written, nil
}
