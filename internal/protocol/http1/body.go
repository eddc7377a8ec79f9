package http1

import (
	"io"

	"github.com/indigo-web/chunkedbody"
	"github.com/indigo-web/relay/http/status"
)

// BodyReader consumes a message body from the wire bytes, whatever its framing is.
type BodyReader struct {
	framing  BodyFraming
	left     uint64
	trailer  bool
	chunked  *chunkedbody.Parser
	badChunk error
}

func NewBodyReader(badChunk error) *BodyReader {
	return &BodyReader{badChunk: badChunk}
}

// Reset prepares the reader for the next body. The trailer flag is passed through to the
// chunked body parser and reports whether the trailer section is expected.
func (b *BodyReader) Reset(framing BodyFraming, length uint64, trailer bool) {
	b.framing = framing
	b.left = length
	b.trailer = trailer
	if framing == Chunked {
		b.chunked = chunkedbody.NewParser(chunkedbody.DefaultSettings())
	}
}

// Read consumes as much of the data as belongs to the body, returning the decoded piece of the
// payload and the rest of the data. io.EOF is returned as soon as the body is over. Chunked
// bodies might need multiple calls in order to consume all the data.
func (b *BodyReader) Read(data []byte) (piece, rest []byte, err error) {
	switch b.framing {
	case NoBody:
		return nil, data, io.EOF
	case Sized:
		if b.left == 0 {
			return nil, data, io.EOF
		}

		n := uint64(len(data))
		if n >= b.left {
			piece, rest = data[:b.left], data[b.left:]
			b.left = 0
			return piece, rest, io.EOF
		}

		b.left -= n
		return data, nil, nil
	case Chunked:
		chunk, extra, err := b.chunked.Parse(data, b.trailer)
		switch err {
		case nil, io.EOF:
			return chunk, extra, err
		default:
			return nil, nil, b.badChunk
		}
	case UntilClose:
		return data, nil, nil
	default:
		panic("BUG: body reader: unknown framing")
	}
}

// Framing reports the framing the reader was reset with.
func (b *BodyReader) Framing() BodyFraming {
	return b.framing
}

func newResponseBodyReader() *BodyReader {
	return NewBodyReader(status.ErrBadChunk)
}
