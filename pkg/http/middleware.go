package xhttp

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/momo-ledger/pkg/logger"
	"github.com/valyala/fasthttp"
)

const slowThreshold = 500 * time.Millisecond

const (
	HeaderRequestID  = "X-Request-Id"
	UserValueRequest = "request_id"
)

var skipPaths = []string{"/metrics"}

type MiddlewareFunc func(next RequestHandler) RequestHandler
type RequestCtx = fasthttp.RequestCtx
type RequestHandler = fasthttp.RequestHandler

func CompressMiddleware(level int) MiddlewareFunc {
	return func(next RequestHandler) RequestHandler {
		return fasthttp.CompressHandlerBrotliLevel(next, level, level)
	}
}

// RecoverMiddleware converts a panic anywhere down the chain into a JSON 500.
func RecoverMiddleware(next RequestHandler) RequestHandler {
	return func(ctx *RequestCtx) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("[xhttp] panic recovered", "error", err, "path", string(ctx.Path()))
				ctx.Response.ResetBody()
				WriteError(ctx, StatusInternalServerError, ErrorKindServerError, fmt.Sprint(err))
			}
		}()
		next(ctx)
	}
}

// RequestLoggerMiddleware writes one http_request entry per request. The
// Authorization header is only ever logged through authIndicator.
func RequestLoggerMiddleware(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		path := string(ctx.Path())
		if shouldSkip(path) {
			next(ctx)
			return
		}

		rid := requestID(ctx)
		ctx.SetUserValue(UserValueRequest, rid)
		ctx.Response.Header.Set(HeaderRequestID, rid)

		start := time.Now()
		next(ctx)
		latency := time.Since(start)
		status := ctx.Response.StatusCode()

		fields := []any{
			"status", status,
			"method", string(ctx.Method()),
			"path", path,
			"latency", latency.String(),
			"bytes_in", len(ctx.PostBody()),
			"bytes_out", len(ctx.Response.Body()),
			"ip", ctx.RemoteIP().String(),
			"ua", string(ctx.Request.Header.UserAgent()),
			"auth", authIndicator(ctx),
			"request_id", rid,
		}

		lg := logger.GetLogger()
		switch {
		case status >= 500:
			lg.Error("http_request", fields...)
		case status >= 400 || latency > slowThreshold:
			lg.Warn("http_request", fields...)
		default:
			lg.Info("http_request", fields...)
		}
	}
}

func shouldSkip(p string) bool {
	for _, sp := range skipPaths {
		if strings.HasPrefix(p, sp) {
			return true
		}
	}
	return false
}

// requestID reuses the caller's request id or mints a new one.
func requestID(ctx *fasthttp.RequestCtx) string {
	if v := ctx.Request.Header.Peek(HeaderRequestID); len(v) > 0 {
		return string(v)
	}
	return uuid.NewString()
}
