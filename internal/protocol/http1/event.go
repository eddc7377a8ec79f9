package http1

import (
	"github.com/indigo-web/relay/http/headers"
	"github.com/indigo-web/relay/http/proto"
	"github.com/indigo-web/relay/http/status"
)

type EventKind uint8

const (
	// HeadersComplete is emitted exactly once per response, as soon as the empty line
	// terminating the header section is consumed.
	HeadersComplete EventKind = iota + 1
	// BodyChunk carries a piece of the decoded body. The piece references the data
	// passed to Parse, so it must be consumed before the next call.
	BodyChunk
	// MessageComplete terminates the response.
	MessageComplete
	// ParseError is terminal, too. No events follow it.
	ParseError
)

func (e EventKind) String() string {
	switch e {
	case HeadersComplete:
		return "headers-complete"
	case BodyChunk:
		return "body-chunk"
	case MessageComplete:
		return "message-complete"
	case ParseError:
		return "parse-error"
	default:
		return "unknown"
	}
}

type Event struct {
	Kind  EventKind
	Head  *Head
	Chunk []byte
	Err   error
}

// BodyFraming is the way the body of a received message is delimited.
type BodyFraming uint8

const (
	NoBody BodyFraming = iota
	Sized
	Chunked
	UntilClose
)

// Head is a parsed response head.
type Head struct {
	Protocol proto.Protocol
	Code     status.Code
	Reason   string
	Headers  *headers.Headers
	Framing  BodyFraming
	// ContentLength is meaningful for Sized framing only.
	ContentLength uint64
}
