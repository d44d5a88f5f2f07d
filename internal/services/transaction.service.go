package services

import (
	"context"
	"errors"
	"time"

	"github.com/nimasrn/momo-ledger/internal/model"
	"github.com/nimasrn/momo-ledger/internal/repository"
	"github.com/nimasrn/momo-ledger/pkg/prom"
	pkgerrors "github.com/pkg/errors"
)

var ErrNotFound = errors.New("transaction not found")

type TransactionRepository interface {
	List(ctx context.Context) ([]*model.Transaction, error)
	Get(ctx context.Context, id int64) (*model.Transaction, error)
	Create(ctx context.Context, p model.TransactionPayload) (*model.Transaction, error)
	Update(ctx context.Context, id int64, p model.TransactionPayload) (*model.Transaction, error)
	Delete(ctx context.Context, id int64) (*model.Transaction, error)
	Count() int
}

type EventDispatcher interface {
	Dispatch(e model.TransactionEvent)
}

type TransactionService struct {
	repo       TransactionRepository
	dispatcher EventDispatcher
	now        func() time.Time
}

// NewTransactionService builds the service. dispatcher may be nil when change
// events are disabled.
func NewTransactionService(repo TransactionRepository, dispatcher EventDispatcher) *TransactionService {
	return &TransactionService{
		repo:       repo,
		dispatcher: dispatcher,
		now:        time.Now,
	}
}

func (s *TransactionService) List(ctx context.Context) ([]*model.Transaction, error) {
	txs, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to list transactions")
	}
	return txs, nil
}

func (s *TransactionService) Get(ctx context.Context, id int64) (*model.Transaction, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, mapError(err, "failed to get transaction")
	}
	return t, nil
}

// Create stores a transaction built from a complete payload. Validation
// errors from the model are returned unwrapped.
func (s *TransactionService) Create(ctx context.Context, p model.TransactionPayload) (*model.Transaction, error) {
	t, err := s.repo.Create(ctx, p)
	if err != nil {
		if isValidationError(err) {
			return nil, err
		}
		return nil, pkgerrors.Wrap(err, "failed to create transaction")
	}
	s.mutated(model.EventActionCreated, t)
	return t, nil
}

func (s *TransactionService) Update(ctx context.Context, id int64, p model.TransactionPayload) (*model.Transaction, error) {
	t, err := s.repo.Update(ctx, id, p)
	if err != nil {
		return nil, mapError(err, "failed to update transaction")
	}
	s.mutated(model.EventActionUpdated, t)
	return t, nil
}

// Delete removes the transaction and returns the removed record.
func (s *TransactionService) Delete(ctx context.Context, id int64) (*model.Transaction, error) {
	t, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, mapError(err, "failed to delete transaction")
	}
	s.mutated(model.EventActionDeleted, t)
	return t, nil
}

func (s *TransactionService) mutated(action model.EventAction, t *model.Transaction) {
	prom.IncTransactionMutation(string(action))
	prom.SetTransactionsStored(s.repo.Count())
	if s.dispatcher != nil {
		s.dispatcher.Dispatch(model.NewTransactionEvent(action, t, s.now()))
	}
}

func mapError(err error, msg string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return pkgerrors.Wrap(err, msg)
}

func isValidationError(err error) bool {
	var missing *model.MissingFieldError
	var invalid *model.InvalidFieldError
	return errors.As(err, &missing) || errors.As(err, &invalid) || errors.Is(err, model.ErrInvalidJSON)
}
