package xhttp

import (
	"crypto/tls"
	"net"
	"os"
	"reflect"
	"runtime"
	"time"

	"github.com/nimasrn/momo-ledger/pkg/logger"
	"github.com/valyala/fasthttp"
)

var DefaultServerOption = ServerOption{
	Handler:               NotFoundHandler,
	IdleTimeout:           time.Second * 10,
	MaxIdleWorkerDuration: time.Minute * 1,
	TCPKeepalivePeriod:    time.Minute * 120, // linux default
	MaxRequestBodySize:    4 * 1024 * 1024,   // 4MB
	ReadBufferSize:        1024 * 4,          // also, max header size
	WriteBufferSize:       1024 * 4,
	ReadTimeout:           time.Millisecond * 2500,
	WriteTimeout:          time.Millisecond * 2500,
	Concurrency:           30_000,
	MaxConnsPerIP:         10_000,
	// 0 means unlimited
	MaxRequestsPerConn:           0,
	ErrorHandler:                 TransportErrorHandler,
	TCPKeepalive:                 true,
	DisablePreParseMultipartForm: true,
	LogAllErrors:                 true,
	NoDefaultServerHeader:        true,
	NoDefaultDate:                true,
	NoDefaultContentType:         true,
	CloseOnShutdown:              true,
	Logger:                       logger.GetLogger(),
}

// TransportErrorHandler answers requests fasthttp could not read, e.g. a body
// over MaxRequestBodySize. The middleware chain never sees them.
func TransportErrorHandler(ctx *RequestCtx, err error) {
	logger.Warn("[xhttp] transport error", "error", err)
	WriteError(ctx, StatusBadRequest, ErrorKindBadRequest, err.Error())
}

type RequestHeader = fasthttp.RequestHeader
type ResponseHeader = fasthttp.ResponseHeader
type Server = fasthttp.Server

type ServerOption struct {
	Handler RequestHandler

	// keeping idle connections open for long ends in "too many open files"
	IdleTimeout time.Duration

	MaxIdleWorkerDuration time.Duration
	TCPKeepalivePeriod    time.Duration

	// upper bound for a JSON body, default 4MB
	MaxRequestBodySize int

	// ReadBufferSize is the per-connection buffer for reading requests,
	// it also limits the header size.
	ReadBufferSize  int
	WriteBufferSize int

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Concurrency is the maximum number of concurrent connections to serve.
	Concurrency int

	MaxConnsPerIP      int
	MaxRequestsPerConn int

	ErrorHandler                 func(ctx *RequestCtx, err error)
	Name                         string
	DisableKeepalive             bool
	TCPKeepalive                 bool
	ReduceMemoryUsage            bool
	DisablePreParseMultipartForm bool
	LogAllErrors                 bool
	NoDefaultServerHeader        bool
	NoDefaultDate                bool
	NoDefaultContentType         bool
	CloseOnShutdown              bool
	ConnState                    func(net.Conn, fasthttp.ConnState)
	Logger                       logger.Logger
	TLSConfig                    *tls.Config
}

type Engine struct {
	*Router
	*Server
	option ServerOption
	middle []MiddlewareFunc
}

func newServer(options ServerOption) *fasthttp.Server {
	return &fasthttp.Server{
		Handler:                      options.Handler,
		ErrorHandler:                 options.ErrorHandler,
		Name:                         options.Name,
		Concurrency:                  options.Concurrency,
		ReadBufferSize:               options.ReadBufferSize,
		WriteBufferSize:              options.WriteBufferSize,
		ReadTimeout:                  options.ReadTimeout,
		WriteTimeout:                 options.WriteTimeout,
		IdleTimeout:                  options.IdleTimeout,
		MaxConnsPerIP:                options.MaxConnsPerIP,
		MaxRequestsPerConn:           options.MaxRequestsPerConn,
		MaxIdleWorkerDuration:        options.MaxIdleWorkerDuration,
		TCPKeepalivePeriod:           options.TCPKeepalivePeriod,
		MaxRequestBodySize:           options.MaxRequestBodySize,
		DisableKeepalive:             options.DisableKeepalive,
		TCPKeepalive:                 options.TCPKeepalive,
		ReduceMemoryUsage:            options.ReduceMemoryUsage,
		DisablePreParseMultipartForm: options.DisablePreParseMultipartForm,
		LogAllErrors:                 options.LogAllErrors,
		NoDefaultServerHeader:        options.NoDefaultServerHeader,
		NoDefaultDate:                options.NoDefaultDate,
		NoDefaultContentType:         options.NoDefaultContentType,
		CloseOnShutdown:              options.CloseOnShutdown,
		ConnState:                    options.ConnState,
		Logger:                       options.Logger,
		TLSConfig:                    options.TLSConfig,
	}
}

func NewServer(options ServerOption) *Engine {
	return &Engine{
		Server: newServer(options),
		Router: NewRouter(),
		option: options,
	}
}

func CreateServer() *Engine {
	s := NewServer(DefaultServerOption)
	s.Router = CreateDefaultRouter()
	s.Server.Logger = logger.GetLogger()
	return s
}

// Register adds the rows of a route table to the router in order.
func (e *Engine) Register(routes ...Route) {
	for _, r := range routes {
		e.Router.Handle(r.Method, r.Path, r.Handler)
	}
}

func (e *Engine) ListenAndServe(addr string) error {
	err := e.DoRouting()
	if err != nil {
		return err
	}
	e.Server.Logger.Printf("[xhttp] server is listening on %s", addr)
	if err := e.Server.ListenAndServe(addr); err != nil {
		return err
	}
	return nil
}

// DoRouting logs the registered routes and installs the router, wrapped in
// the middleware chain, as the server handler.
func (e *Engine) DoRouting() error {
	for method, route := range e.Router.List() {
		for _, r := range route {
			e.Server.Logger.Printf("[xhttp] method: %s, path: %s", method, r)
		}
	}
	for i, m := range e.middle {
		e.Server.Logger.Printf("[xhttp] middleware %d registered - %s", i+1, runtime.FuncForPC(reflect.ValueOf(m).Pointer()).Name())
	}
	e.Server.Handler = e.BuildHandler()
	return nil
}

// BuildHandler wraps the router with the middlewares. The first middleware
// passed to Use is the outermost one.
func (e *Engine) BuildHandler() RequestHandler {
	h := RequestHandler(e.Router.Handler)
	for i := len(e.middle) - 1; i >= 0; i-- {
		h = e.middle[i](h)
	}
	return h
}

// Use adds middleware to the chain which is run for every request.
//
//	s.Use(xhttp.RequestLoggerMiddleware)
//	s.Use(xhttp.RecoverMiddleware)
//	s.Use(xhttp.BasicAuthMiddleware(cfg))
func (e *Engine) Use(middleware MiddlewareFunc) {
	e.middle = append(e.middle, middleware)
}

// Shutdown gracefully shuts down the server without interrupting any active connections.
func (e *Engine) Shutdown() {
	e.Server.Logger.Printf("[xhttp] server is shutting down, process id: %d", os.Getpid())
	err := e.Server.Shutdown()
	if err != nil {
		e.Server.Logger.Printf("[xhttp] error while shutting down: %v", err)
	}
}
