package status

// HTTPError is a protocol-level error. Code is the status a proxy would answer the client
// with, had it still been able to produce a response of its own.
type HTTPError struct {
	Message string
	Code    Code
}

func NewError(code Code, message string) error {
	return HTTPError{
		Code:    code,
		Message: message,
	}
}

func (h HTTPError) Error() string {
	return h.Message
}

// upstream response errors
var (
	ErrBadResponse             = NewError(BadGateway, "malformed upstream response")
	ErrTooLongResponseLine     = NewError(BadGateway, "upstream status line is too long")
	ErrHTTPVersionNotSupported = NewError(BadGateway, "upstream HTTP version not supported")
	ErrBadStatusCode           = NewError(BadGateway, "malformed upstream status code")
	ErrBadHeader               = NewError(BadGateway, "malformed upstream header field")
	ErrTooManyHeaders          = NewError(BadGateway, "too many upstream headers")
	ErrHeaderFieldsTooLarge    = NewError(BadGateway, "too large upstream headers section")
	ErrBadContentLength        = NewError(BadGateway, "invalid upstream Content-Length")
	ErrBadChunk                = NewError(BadGateway, "malformed chunk-encoded data")
	ErrUnexpectedEOF           = NewError(BadGateway, "upstream closed the connection mid-response")
	ErrBodyTooLarge            = NewError(BadGateway, "upstream body is too large to be buffered")
)

// client request errors
var (
	ErrBadRequest           = NewError(BadRequest, "bad request")
	ErrTooLongRequestLine   = NewError(RequestURITooLong, "request line is too long")
	ErrMethodNotImplemented = NewError(NotImplemented, "request method is not supported")
	ErrRequestVersion       = NewError(HTTPVersionNotSupported, "HTTP version not supported")
	ErrRequestHeaders       = NewError(RequestHeaderFieldsTooLarge, "too large request headers section")
	ErrRequestContentLength = NewError(BadRequest, "invalid request Content-Length")
)
