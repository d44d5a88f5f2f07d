package main

import (
	"github.com/nimasrn/momo-ledger/internal/config"
	xhttp "github.com/nimasrn/momo-ledger/pkg/http"
	"github.com/nimasrn/momo-ledger/pkg/prom"
)

// newServer builds the api engine: server limits from cfg, the middleware
// chain in serving order and the given route table.
func newServer(cfg *config.Config, routes []xhttp.Route) *xhttp.Engine {
	auth := xhttp.BasicAuthConfig{
		Username: cfg.AuthUsername,
		Password: cfg.AuthPassword,
	}

	opt := xhttp.DefaultServerOption
	opt.ReadTimeout = cfg.HttpServerReadTimeout
	opt.WriteTimeout = cfg.HttpServerWriteTimeout
	opt.MaxRequestBodySize = cfg.HttpMaxRequestBodySize
	opt.ReadBufferSize = cfg.HttpServerReadBufferSize
	opt.WriteBufferSize = cfg.HttpServerWriteBufferSize
	opt.Name = cfg.AppName
	opt.ErrorHandler = xhttp.AuthErrorHandler(auth)

	s := xhttp.NewServer(opt)
	s.Router = xhttp.CreateDefaultRouter()
	s.Use(xhttp.RequestLoggerMiddleware)
	s.Use(prom.Middleware)
	s.Use(xhttp.CompressMiddleware(cfg.HttpCompressionLevel))
	s.Use(xhttp.RecoverMiddleware)
	s.Use(xhttp.BasicAuthMiddleware(auth))
	s.Register(routes...)
	return s
}
