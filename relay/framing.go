package relay

// Framing is the way the response body is delimited towards the client.
type Framing uint8

const (
	// Passthrough relays the body as is, delimited either by the Content-Length or by
	// closing the connection.
	Passthrough Framing = iota
	// Chunked re-frames the body into the chunked transfer coding.
	Chunked
	// Buffered withholds the body until it's complete, so it can be delimited by the
	// Content-Length for clients not supporting the chunked transfer coding.
	Buffered
)

func (f Framing) String() string {
	switch f {
	case Passthrough:
		return "passthrough"
	case Chunked:
		return "chunked"
	case Buffered:
		return "buffered"
	default:
		return "unknown"
	}
}
