package relay

import (
	"github.com/indigo-web/relay/http/method"
	"github.com/indigo-web/relay/http/proto"
	"github.com/indigo-web/relay/internal/protocol/http1"
)

// Request is the client side of the exchange, as seen by the response. The response only
// reads it, except for KeepAlive, which is forced to false whenever the response can't be
// delimited other than by closing the connection.
type Request struct {
	Protocol  proto.Protocol
	Method    method.Method
	KeepAlive bool
}

// RequestFromHead extracts the client context out of a parsed request head.
func RequestFromHead(head *http1.RequestHead) *Request {
	return &Request{
		Protocol:  head.Protocol,
		Method:    head.Method,
		KeepAlive: head.KeepAlive,
	}
}

// Conn is the downstream connection sink.
type Conn interface {
	// Send takes the ownership over the passed slice. It must not block on the data
	// actually being delivered.
	Send(data []byte)
	// Close requests the connection closure.
	Close()
}
