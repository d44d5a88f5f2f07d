package xhttp

import "github.com/valyala/fasthttp"

const (
	StatusOK                  = fasthttp.StatusOK
	StatusCreated             = fasthttp.StatusCreated
	StatusBadRequest          = fasthttp.StatusBadRequest
	StatusUnauthorized        = fasthttp.StatusUnauthorized
	StatusNotFound            = fasthttp.StatusNotFound
	StatusRequestTimeout      = fasthttp.StatusRequestTimeout
	StatusInternalServerError = fasthttp.StatusInternalServerError
)

// Values of the "error" field in an ErrorResponse.
const (
	ErrorKindBadRequest   = "Bad Request"
	ErrorKindUnauthorized = "Unauthorized"
	ErrorKindNotFound     = "Not Found"
	ErrorKindServerError  = "Server Error"
)

// StatusText returns the reason phrase for an HTTP status code.
func StatusText(code int) string {
	return fasthttp.StatusMessage(code)
}

const (
	MethodGet    = fasthttp.MethodGet
	MethodPost   = fasthttp.MethodPost
	MethodPut    = fasthttp.MethodPut
	MethodDelete = fasthttp.MethodDelete
)
