package http1

import (
	"bytes"

	"github.com/indigo-web/relay/config"
	"github.com/indigo-web/relay/http/headers"
	"github.com/indigo-web/relay/http/method"
	"github.com/indigo-web/relay/http/proto"
	"github.com/indigo-web/relay/http/status"
	"github.com/indigo-web/utils/buffer"
	"github.com/indigo-web/utils/strcomp"
	"github.com/indigo-web/utils/uf"
)

type requestState uint8

const (
	eMethod requestState = iota
	eTarget
	eReqProto
	eReqFields
)

var requestFieldErrors = fieldErrors{
	bad:      status.ErrBadRequest,
	tooLarge: status.ErrRequestHeaders,
	tooMany:  status.ErrRequestHeaders,
}

// RequestHead is a parsed client request head. Only the properties the relay needs in order
// to forward the request and to shape the response are retained.
type RequestHead struct {
	Method    method.Method
	Target    string
	Protocol  proto.Protocol
	Headers   *headers.Headers
	KeepAlive bool
	Framing   BodyFraming
	// ContentLength is meaningful for Sized framing only.
	ContentLength uint64
}

// RequestParser is a stream-based client request head parser. The request is forwarded
// upstream as is, so the parser only observes the bytes, without keeping them.
type RequestParser struct {
	state         requestState
	head          RequestHead
	startLineBuff *buffer.Buffer
	fields        fieldScanner
}

func NewRequestParser(cfg *config.Config) *RequestParser {
	p := &RequestParser{
		startLineBuff: buffer.New(0, cfg.Headers.StartLineMaximal),
	}
	p.head.Headers = headers.NewPrealloc(cfg.Headers.NumberPrealloc)
	p.fields = newFieldScanner(
		buffer.New(cfg.Headers.SpaceDefault, cfg.Headers.SpaceMaximal),
		p.head.Headers,
		cfg.Headers.NumberMaximal,
		requestFieldErrors,
	)

	return p
}

// Head returns the parsed request head. It stays valid until the next Reset.
func (p *RequestParser) Head() *RequestHead {
	return &p.head
}

// Reset prepares the parser for the next request on the same connection.
func (p *RequestParser) Reset() {
	p.state = eMethod
	p.head.Method = method.Unknown
	p.head.Target = ""
	p.head.Protocol = proto.Unknown
	p.head.KeepAlive = false
	p.head.Framing = NoBody
	p.head.ContentLength = 0
	p.startLineBuff.Clear()
	p.fields.buff.Clear()
	p.fields.reset()
}

// Parse consumes the request head. When done, the rest is the data following the head,
// which is most likely the beginning of the request body.
func (p *RequestParser) Parse(data []byte) (done bool, rest []byte, err error) {
	switch p.state {
	case eMethod:
		goto methodName
	case eTarget:
		goto target
	case eReqProto:
		goto protocol
	case eReqFields:
		goto fields
	default:
		panic("BUG: request parser: unknown state")
	}

methodName:
	// empty lines preceding the request line must be ignored (RFC 9112, 2.2)
	if p.startLineBuff.SegmentLength() == 0 {
		for len(data) > 0 && (data[0] == '\r' || data[0] == '\n') {
			data = data[1:]
		}
	}

	{
		sp := bytes.IndexByte(data, ' ')
		if sp == -1 {
			if bytes.IndexByte(data, '\n') != -1 {
				return false, nil, status.ErrBadRequest
			}

			if !p.startLineBuff.Append(data) {
				return false, nil, status.ErrMethodNotImplemented
			}

			p.state = eMethod
			return false, nil, nil
		}

		if !p.startLineBuff.Append(data[:sp]) {
			return false, nil, status.ErrMethodNotImplemented
		}

		p.head.Method = method.Parse(uf.B2S(p.startLineBuff.Finish()))
		if p.head.Method == method.Unknown {
			return false, nil, status.ErrMethodNotImplemented
		}

		data = data[sp+1:]
		goto target
	}

target:
	{
		sp := bytes.IndexByte(data, ' ')
		if sp == -1 {
			if bytes.IndexByte(data, '\n') != -1 {
				return false, nil, status.ErrBadRequest
			}

			if !p.startLineBuff.Append(data) {
				return false, nil, status.ErrTooLongRequestLine
			}

			p.state = eTarget
			return false, nil, nil
		}

		if !p.startLineBuff.Append(data[:sp]) {
			return false, nil, status.ErrTooLongRequestLine
		}

		if p.startLineBuff.SegmentLength() == 0 {
			return false, nil, status.ErrBadRequest
		}

		p.head.Target = uf.B2S(p.startLineBuff.Finish())
		data = data[sp+1:]
		goto protocol
	}

protocol:
	{
		lf := bytes.IndexByte(data, '\n')
		if lf == -1 {
			if !p.startLineBuff.Append(data) {
				return false, nil, status.ErrTooLongRequestLine
			}

			p.state = eReqProto
			return false, nil, nil
		}

		if !p.startLineBuff.Append(data[:lf]) {
			return false, nil, status.ErrTooLongRequestLine
		}

		p.head.Protocol = proto.FromBytes(rtrim(p.startLineBuff.Finish()))
		if p.head.Protocol == proto.Unknown {
			return false, nil, status.ErrRequestVersion
		}

		data = data[lf+1:]
		goto fields
	}

fields:
	done, rest, err = p.fields.scan(data)
	if err != nil || !done {
		p.state = eReqFields
		return false, nil, err
	}

	if err = p.finalize(); err != nil {
		return false, nil, err
	}

	return true, rest, nil
}

func (p *RequestParser) finalize() error {
	h := p.head.Headers

	switch p.head.Protocol {
	case proto.HTTP10:
		p.head.KeepAlive = headers.HasToken(h, "Connection", "keep-alive")
	default:
		p.head.KeepAlive = !headers.HasToken(h, "Connection", "close")
	}

	if te := h.Values("Transfer-Encoding"); len(te) > 0 {
		var last string
		for token := range headers.Tokens(te) {
			last = token
		}

		// a request body must be chunked as the last coding, otherwise its length
		// can't be determined (RFC 9112, 6.3)
		if !strcomp.EqualFold(last, "chunked") {
			return status.ErrBadRequest
		}

		p.head.Framing = Chunked
		return nil
	}

	if cl := h.Values("Content-Length"); len(cl) > 0 {
		length, ok := parseContentLength(cl)
		if !ok {
			return status.ErrRequestContentLength
		}

		p.head.ContentLength = length
		if length > 0 {
			p.head.Framing = Sized
		}
	}

	return nil
}
