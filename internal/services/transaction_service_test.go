package services

import (
	"context"
	"testing"
	"time"

	"github.com/nimasrn/momo-ledger/internal/model"
	"github.com/nimasrn/momo-ledger/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) List(ctx context.Context) ([]*model.Transaction, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) Get(ctx context.Context, id int64) (*model.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) Create(ctx context.Context, p model.TransactionPayload) (*model.Transaction, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) Update(ctx context.Context, id int64, p model.TransactionPayload) (*model.Transaction, error) {
	args := m.Called(ctx, id, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) Delete(ctx context.Context, id int64) (*model.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) Count() int {
	return m.Called().Int(0)
}

type MockEventDispatcher struct {
	mock.Mock
}

func (m *MockEventDispatcher) Dispatch(e model.TransactionEvent) {
	m.Called(e)
}

var fixedNow = time.Date(2024, 5, 10, 16, 30, 51, 0, time.UTC)

func newTestService(repo *MockTransactionRepository, dispatcher *MockEventDispatcher) *TransactionService {
	var d EventDispatcher
	if dispatcher != nil {
		d = dispatcher
	}
	s := NewTransactionService(repo, d)
	s.now = func() time.Time { return fixedNow }
	return s
}

func sampleTransaction(id int64) *model.Transaction {
	return &model.Transaction{
		ID:              id,
		TransactionType: "payment",
		Amount:          decimal.NewFromInt(500),
		Sender:          "You",
		Receiver:        "Shop",
		Timestamp:       "2024-05-10T16:30:51.000000Z",
	}
}

func eventFor(action model.EventAction, id int64) interface{} {
	return mock.MatchedBy(func(e model.TransactionEvent) bool {
		return e.Action == action && e.TransactionID == id && e.ID != "" && e.OccurredAt.Equal(fixedNow)
	})
}

func TestTransactionService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("dispatches a created event", func(t *testing.T) {
		repo := new(MockTransactionRepository)
		dispatcher := new(MockEventDispatcher)
		s := newTestService(repo, dispatcher)

		p := model.TransactionPayload{}
		repo.On("Create", ctx, p).Return(sampleTransaction(1), nil)
		repo.On("Count").Return(1)
		dispatcher.On("Dispatch", eventFor(model.EventActionCreated, 1)).Once()

		got, err := s.Create(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got.ID)
		repo.AssertExpectations(t)
		dispatcher.AssertExpectations(t)
	})

	t.Run("validation errors pass through untouched", func(t *testing.T) {
		repo := new(MockTransactionRepository)
		dispatcher := new(MockEventDispatcher)
		s := newTestService(repo, dispatcher)

		verr := &model.MissingFieldError{Field: model.FieldSender}
		repo.On("Create", ctx, mock.Anything).Return(nil, verr)

		_, err := s.Create(ctx, model.TransactionPayload{})
		assert.Same(t, verr, err)
		dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything)
	})

	t.Run("works without a dispatcher", func(t *testing.T) {
		repo := new(MockTransactionRepository)
		s := newTestService(repo, nil)

		repo.On("Create", ctx, mock.Anything).Return(sampleTransaction(2), nil)
		repo.On("Count").Return(2)

		got, err := s.Create(ctx, model.TransactionPayload{})
		require.NoError(t, err)
		assert.Equal(t, int64(2), got.ID)
	})
}

func TestTransactionService_Get(t *testing.T) {
	ctx := context.Background()
	repo := new(MockTransactionRepository)
	s := newTestService(repo, nil)

	repo.On("Get", ctx, int64(1)).Return(sampleTransaction(1), nil)
	repo.On("Get", ctx, int64(2)).Return(nil, repository.ErrNotFound)
	repo.On("Get", ctx, int64(3)).Return(nil, assert.AnError)

	got, err := s.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "payment", got.TransactionType)

	_, err = s.Get(ctx, 2)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Get(ctx, 3)
	assert.ErrorIs(t, err, assert.AnError)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestTransactionService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("dispatches an updated event", func(t *testing.T) {
		repo := new(MockTransactionRepository)
		dispatcher := new(MockEventDispatcher)
		s := newTestService(repo, dispatcher)

		repo.On("Update", ctx, int64(1), mock.Anything).Return(sampleTransaction(1), nil)
		repo.On("Count").Return(1)
		dispatcher.On("Dispatch", eventFor(model.EventActionUpdated, 1)).Once()

		_, err := s.Update(ctx, 1, model.TransactionPayload{})
		require.NoError(t, err)
		dispatcher.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		repo := new(MockTransactionRepository)
		dispatcher := new(MockEventDispatcher)
		s := newTestService(repo, dispatcher)

		repo.On("Update", ctx, int64(9), mock.Anything).Return(nil, repository.ErrNotFound)

		_, err := s.Update(ctx, 9, model.TransactionPayload{})
		assert.ErrorIs(t, err, ErrNotFound)
		dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything)
	})
}

func TestTransactionService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("dispatches a deleted event carrying the removed record", func(t *testing.T) {
		repo := new(MockTransactionRepository)
		dispatcher := new(MockEventDispatcher)
		s := newTestService(repo, dispatcher)

		repo.On("Delete", ctx, int64(4)).Return(sampleTransaction(4), nil)
		repo.On("Count").Return(0)
		dispatcher.On("Dispatch", mock.MatchedBy(func(e model.TransactionEvent) bool {
			return e.Action == model.EventActionDeleted && e.Transaction != nil && e.Transaction.Receiver == "Shop"
		})).Once()

		removed, err := s.Delete(ctx, 4)
		require.NoError(t, err)
		assert.Equal(t, int64(4), removed.ID)
		dispatcher.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		repo := new(MockTransactionRepository)
		s := newTestService(repo, nil)

		repo.On("Delete", ctx, int64(4)).Return(nil, repository.ErrNotFound)
		_, err := s.Delete(ctx, 4)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestTransactionService_List(t *testing.T) {
	ctx := context.Background()
	repo := new(MockTransactionRepository)
	s := newTestService(repo, nil)

	repo.On("List", ctx).Return([]*model.Transaction{sampleTransaction(1), sampleTransaction(2)}, nil)

	got, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
