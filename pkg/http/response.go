package xhttp

import (
	"encoding/json"

	"github.com/nimasrn/momo-ledger/pkg/logger"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WriteJSON encodes v as the response body. An encoding failure is turned
// into a 500 envelope, so callers never have to handle it.
func WriteJSON(ctx *RequestCtx, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		logger.Error("[xhttp] failed to encode response", "error", err, "path", string(ctx.Path()))
		status = StatusInternalServerError
		b, _ = json.Marshal(ErrorResponse{Error: ErrorKindServerError, Message: err.Error()})
	}
	ctx.Response.Header.Set("Content-Type", "application/json")
	ctx.Response.Header.Set("Access-Control-Allow-Origin", "*")
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBodyRaw(b)
}

func WriteError(ctx *RequestCtx, status int, kind, message string) {
	WriteJSON(ctx, status, ErrorResponse{Error: kind, Message: message})
}
