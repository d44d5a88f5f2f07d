package xhttp

import (
	"github.com/fasthttp/router"
)

type Router = router.Router

// Route is one row of a declarative route table.
type Route struct {
	Method  string
	Path    string
	Handler RequestHandler
}

// NewRouter returns a new Router
func NewRouter() *Router {
	return router.New()
}

// CreateDefaultRouter returns a router that answers every unmatched
// method/path pair with a JSON 404 and never redirects.
func CreateDefaultRouter() *Router {
	r := NewRouter()
	r.RedirectFixedPath = false
	r.RedirectTrailingSlash = false
	r.SaveMatchedRoutePath = true
	r.NotFound = NotFoundHandler
	r.MethodNotAllowed = NotFoundHandler
	r.HandleOPTIONS = false
	r.HandleMethodNotAllowed = false
	return r
}

// NotFoundHandler is the default 404 handler
func NotFoundHandler(ctx *RequestCtx) {
	WriteError(ctx, StatusNotFound, ErrorKindNotFound, "")
}
