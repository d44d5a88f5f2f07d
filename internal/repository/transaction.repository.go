package repository

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/nimasrn/momo-ledger/internal/model"
)

var ErrNotFound = errors.New("transaction not found")

// TransactionRepository is the in-memory transaction store. It keeps records
// in insertion order and serialises mutators behind one RWMutex, so id
// allocation, field assignment and insertion happen as one unit.
type TransactionRepository struct {
	mu    sync.RWMutex
	items []*model.Transaction
	// lastID is the highest id ever seeded or assigned, deleted ids included.
	lastID int64
	now    func() time.Time
}

type Option func(*TransactionRepository)

// WithClock replaces time.Now as the source of creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *TransactionRepository) {
		r.now = now
	}
}

// NewTransactionRepository copies seed into a new store.
func NewTransactionRepository(seed []*model.Transaction, opts ...Option) *TransactionRepository {
	r := &TransactionRepository{
		items: make([]*model.Transaction, 0, len(seed)),
		now:   time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	for _, t := range seed {
		if t == nil {
			continue
		}
		r.items = append(r.items, t.Clone())
		if t.ID > r.lastID {
			r.lastID = t.ID
		}
	}
	return r
}

// List returns copies of every transaction in insertion order.
func (r *TransactionRepository) List(ctx context.Context) ([]*model.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.Transaction, len(r.items))
	for i, t := range r.items {
		out[i] = t.Clone()
	}
	return out, nil
}

// Get looks the id up with a sequential scan.
func (r *TransactionRepository) Get(ctx context.Context, id int64) (*model.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	return r.items[i].Clone(), nil
}

// Create appends a new transaction built from a complete payload.
func (r *TransactionRepository) Create(ctx context.Context, p model.TransactionPayload) (*model.Transaction, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastID++
	t := &model.Transaction{
		ID:        r.lastID,
		Timestamp: r.now().UTC().Format(model.TimestampLayout),
	}
	t.Apply(p)
	r.items = append(r.items, t)

	return t.Clone(), nil
}

// Update overwrites the fields present in p.
func (r *TransactionRepository) Update(ctx context.Context, id int64, p model.TransactionPayload) (*model.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	r.items[i].Apply(p)
	return r.items[i].Clone(), nil
}

// Delete removes the transaction and returns it. Remaining records keep
// their ids and order.
func (r *TransactionRepository) Delete(ctx context.Context, id int64) (*model.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	removed := r.items[i]
	r.items = slices.Delete(r.items, i, i+1)
	return removed, nil
}

func (r *TransactionRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// indexOf must be called with the lock held.
func (r *TransactionRepository) indexOf(id int64) int {
	for i, t := range r.items {
		if t.ID == id {
			return i
		}
	}
	return -1
}
