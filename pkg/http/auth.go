package xhttp

import (
	"bytes"
	"crypto/subtle"
	"encoding/base64"
	"strings"
	"unicode/utf8"
)

const basicScheme = "Basic "

const (
	AuthMissingHeader      = "Missing Authorization header"
	AuthInvalidHeader      = "Invalid Authorization header"
	AuthInvalidCredentials = "Invalid credentials"
)

// BasicAuthConfig holds the single credential pair accepted by BasicAuthMiddleware.
type BasicAuthConfig struct {
	Username string
	Password string
}

// BasicAuthMiddleware rejects every request that does not carry the
// configured credentials with a JSON 401. It must wrap the router so that
// authentication happens before any route matching.
func BasicAuthMiddleware(cfg BasicAuthConfig) MiddlewareFunc {
	return func(next RequestHandler) RequestHandler {
		return func(ctx *RequestCtx) {
			if reason, ok := cfg.verify(ctx.Request.Header.Peek("Authorization")); !ok {
				WriteError(ctx, StatusUnauthorized, ErrorKindUnauthorized, reason)
				return
			}
			next(ctx)
		}
	}
}

// AuthErrorHandler is a server ErrorHandler that keeps transport errors behind
// the credential check: without valid credentials the answer is the same 401
// BasicAuthMiddleware would give.
func AuthErrorHandler(cfg BasicAuthConfig) func(ctx *RequestCtx, err error) {
	return func(ctx *RequestCtx, err error) {
		if reason, ok := cfg.verify(ctx.Request.Header.Peek("Authorization")); !ok {
			WriteError(ctx, StatusUnauthorized, ErrorKindUnauthorized, reason)
			return
		}
		TransportErrorHandler(ctx, err)
	}
}

func (c BasicAuthConfig) verify(header []byte) (string, bool) {
	if !bytes.HasPrefix(header, []byte(basicScheme)) {
		return AuthMissingHeader, false
	}

	decoded, err := base64.StdEncoding.DecodeString(string(header[len(basicScheme):]))
	if err != nil || !utf8.Valid(decoded) {
		return AuthInvalidHeader, false
	}

	username, password, found := strings.Cut(string(decoded), ":")
	if !found {
		return AuthInvalidHeader, false
	}

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(c.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(c.Password)) == 1
	if !userOK || !passOK {
		return AuthInvalidCredentials, false
	}
	return "", true
}

// authIndicator describes the Authorization header without revealing it.
func authIndicator(ctx *RequestCtx) string {
	v := ctx.Request.Header.Peek("Authorization")
	switch {
	case len(v) == 0:
		return "No Auth"
	case bytes.HasPrefix(v, []byte(basicScheme)):
		return "[Auth]"
	default:
		return "[Redacted]"
	}
}
