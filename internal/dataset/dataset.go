package dataset

import (
	"context"
	"encoding/json"
	"os"

	"github.com/nimasrn/momo-ledger/internal/model"
	"github.com/nimasrn/momo-ledger/pkg/logger"
	"github.com/pkg/errors"
)

// Source yields the transactions a store is seeded with.
type Source interface {
	Name() string
	Load(ctx context.Context) ([]*model.Transaction, error)
}

// FileSource reads a JSON array of transactions as written by the ETL step.
type FileSource struct {
	Path string
}

func (s FileSource) Name() string {
	return "file:" + s.Path
}

func (s FileSource) Load(ctx context.Context) ([]*model.Transaction, error) {
	raw, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read dataset %s", s.Path)
	}
	return Decode(raw)
}

// Decode parses a JSON array of transactions.
func Decode(raw []byte) ([]*model.Transaction, error) {
	var txs []*model.Transaction
	if err := json.Unmarshal(raw, &txs); err != nil {
		return nil, errors.Wrap(err, "failed to decode dataset")
	}
	return txs, nil
}

type datasetReader interface {
	All(ctx context.Context) ([]*model.Transaction, error)
}

// DBSource reads the dataset table.
type DBSource struct {
	Repo datasetReader
}

func (s DBSource) Name() string {
	return "postgres"
}

func (s DBSource) Load(ctx context.Context) ([]*model.Transaction, error) {
	txs, err := s.Repo.All(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read dataset table")
	}
	return txs, nil
}

// Seed loads src and returns the records fit for a store. It never fails: any
// load error is logged and yields an empty dataset. Records without a
// positive id, or repeating an earlier id, are dropped.
func Seed(ctx context.Context, src Source) []*model.Transaction {
	txs, err := src.Load(ctx)
	if err != nil {
		logger.Error("failed to load dataset, starting with an empty ledger", "source", src.Name(), "error", err)
		return []*model.Transaction{}
	}

	out := make([]*model.Transaction, 0, len(txs))
	seen := make(map[int64]struct{}, len(txs))
	for i, t := range txs {
		if t == nil || t.ID <= 0 {
			logger.Warn("dropping dataset record without a valid id", "source", src.Name(), "index", i)
			continue
		}
		if _, dup := seen[t.ID]; dup {
			logger.Warn("dropping dataset record with duplicate id", "source", src.Name(), "id", t.ID)
			continue
		}
		seen[t.ID] = struct{}{}
		out = append(out, t)
	}

	logger.Info("dataset loaded", "source", src.Name(), "transactions", len(out))
	return out
}
