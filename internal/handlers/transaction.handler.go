package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/nimasrn/momo-ledger/internal/model"
	"github.com/nimasrn/momo-ledger/internal/services"
	xhttp "github.com/nimasrn/momo-ledger/pkg/http"
	"github.com/nimasrn/momo-ledger/pkg/logger"
)

const (
	MsgTransactionCreated = "Transaction created"
	MsgTransactionUpdated = "Transaction updated"
	MsgTransactionDeleted = "Transaction deleted"
)

type TransactionService interface {
	List(ctx context.Context) ([]*model.Transaction, error)
	Get(ctx context.Context, id int64) (*model.Transaction, error)
	Create(ctx context.Context, p model.TransactionPayload) (*model.Transaction, error)
	Update(ctx context.Context, id int64, p model.TransactionPayload) (*model.Transaction, error)
	Delete(ctx context.Context, id int64) (*model.Transaction, error)
}

type TransactionHandler struct {
	svc TransactionService
}

func NewTransactionHandler(svc TransactionService) *TransactionHandler {
	return &TransactionHandler{
		svc: svc,
	}
}

type listResponse struct {
	Count int                  `json:"count"`
	Data  []*model.Transaction `json:"data"`
}

type dataResponse struct {
	Message string             `json:"message"`
	Data    *model.Transaction `json:"data"`
}

// Routes is the route table of the transactions resource. Ids only match
// digits, anything else falls through to the router's 404.
func (h *TransactionHandler) Routes() []xhttp.Route {
	return []xhttp.Route{
		{Method: xhttp.MethodGet, Path: "/transactions", Handler: h.ListTransactions},
		{Method: xhttp.MethodGet, Path: "/transactions/{id:[0-9]+}", Handler: h.GetTransaction},
		{Method: xhttp.MethodPost, Path: "/transactions", Handler: h.CreateTransaction},
		{Method: xhttp.MethodPut, Path: "/transactions/{id:[0-9]+}", Handler: h.UpdateTransaction},
		{Method: xhttp.MethodDelete, Path: "/transactions/{id:[0-9]+}", Handler: h.DeleteTransaction},
	}
}

/* --------------------------------- Routes ----------------------------------- */

func (h *TransactionHandler) ListTransactions(ctx *xhttp.RequestCtx) {
	txs, err := h.svc.List(ctx)
	if err != nil {
		writeServiceError(ctx, "", err)
		return
	}
	if txs == nil {
		txs = []*model.Transaction{}
	}
	xhttp.WriteJSON(ctx, xhttp.StatusOK, listResponse{Count: len(txs), Data: txs})
}

func (h *TransactionHandler) GetTransaction(ctx *xhttp.RequestCtx) {
	raw, id, ok := pathID(ctx)
	if !ok {
		writeNotFound(ctx, raw)
		return
	}

	t, err := h.svc.Get(ctx, id)
	if err != nil {
		writeServiceError(ctx, raw, err)
		return
	}
	xhttp.WriteJSON(ctx, xhttp.StatusOK, t)
}

func (h *TransactionHandler) CreateTransaction(ctx *xhttp.RequestCtx) {
	p, err := model.ParseTransactionPayload(ctx.PostBody())
	if err != nil {
		writeServiceError(ctx, "", err)
		return
	}

	t, err := h.svc.Create(ctx, p)
	if err != nil {
		writeServiceError(ctx, "", err)
		return
	}
	xhttp.WriteJSON(ctx, xhttp.StatusCreated, dataResponse{Message: MsgTransactionCreated, Data: t})
}

// UpdateTransaction answers 404 for an unknown id before looking at the body.
func (h *TransactionHandler) UpdateTransaction(ctx *xhttp.RequestCtx) {
	raw, id, ok := pathID(ctx)
	if !ok {
		writeNotFound(ctx, raw)
		return
	}

	if _, err := h.svc.Get(ctx, id); err != nil {
		writeServiceError(ctx, raw, err)
		return
	}

	p, err := model.ParseTransactionPayload(ctx.PostBody())
	if err != nil {
		writeServiceError(ctx, raw, err)
		return
	}

	t, err := h.svc.Update(ctx, id, p)
	if err != nil {
		writeServiceError(ctx, raw, err)
		return
	}
	xhttp.WriteJSON(ctx, xhttp.StatusOK, dataResponse{Message: MsgTransactionUpdated, Data: t})
}

func (h *TransactionHandler) DeleteTransaction(ctx *xhttp.RequestCtx) {
	raw, id, ok := pathID(ctx)
	if !ok {
		writeNotFound(ctx, raw)
		return
	}

	t, err := h.svc.Delete(ctx, id)
	if err != nil {
		writeServiceError(ctx, raw, err)
		return
	}
	xhttp.WriteJSON(ctx, xhttp.StatusOK, dataResponse{Message: MsgTransactionDeleted, Data: t})
}

// pathID returns the raw id segment and its value. ok is false when the
// digits do not fit an int64, no record can carry such an id.
func pathID(ctx *xhttp.RequestCtx) (string, int64, bool) {
	raw, _ := ctx.UserValue("id").(string)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return raw, 0, false
	}
	return raw, id, true
}

func writeNotFound(ctx *xhttp.RequestCtx, rawID string) {
	xhttp.WriteError(ctx, xhttp.StatusNotFound, xhttp.ErrorKindNotFound, fmt.Sprintf("Transaction %s not found", rawID))
}

func writeServiceError(ctx *xhttp.RequestCtx, rawID string, err error) {
	var (
		missing *model.MissingFieldError
		invalid *model.InvalidFieldError
	)
	switch {
	case errors.Is(err, services.ErrNotFound):
		writeNotFound(ctx, rawID)
	case errors.Is(err, model.ErrInvalidJSON), errors.As(err, &missing), errors.As(err, &invalid):
		xhttp.WriteError(ctx, xhttp.StatusBadRequest, xhttp.ErrorKindBadRequest, err.Error())
	default:
		logger.Error("transaction request failed", "method", string(ctx.Method()), "path", string(ctx.Path()), "error", err)
		xhttp.WriteError(ctx, xhttp.StatusInternalServerError, xhttp.ErrorKindServerError, err.Error())
	}
}
