package http1

import (
	"bytes"
	"io"
	"strconv"

	"github.com/indigo-web/relay/config"
	"github.com/indigo-web/relay/http/headers"
	"github.com/indigo-web/relay/http/method"
	"github.com/indigo-web/relay/http/proto"
	"github.com/indigo-web/relay/http/status"
	"github.com/indigo-web/utils/buffer"
	"github.com/indigo-web/utils/strcomp"
	"github.com/indigo-web/utils/uf"
)

type parserState uint8

const (
	eHead parserState = iota
	eBody
	eDone
	eFailed
)

type headState uint8

const (
	eProto headState = iota
	eCode
	eReason
	eFields
)

var responseFieldErrors = fieldErrors{
	bad:      status.ErrBadHeader,
	tooLarge: status.ErrHeaderFieldsTooLarge,
	tooMany:  status.ErrTooManyHeaders,
}

// Parser is a stream-based upstream response parser. It consumes the raw bytes in pieces
// of any size and emits events as soon as they are known. The parser serves exactly one
// response, interim (1xx) ones skipped, so a new one must be created for every exchange.
type Parser struct {
	state         parserState
	headState     headState
	method        method.Method
	codeDigits    int
	head          Head
	startLineBuff *buffer.Buffer
	fields        fieldScanner
	body          *BodyReader
}

// NewParser returns a parser for a response to a request of the given method. The method
// matters, as responses to HEAD requests never carry a body.
func NewParser(cfg *config.Config, m method.Method) *Parser {
	p := &Parser{
		method:        m,
		startLineBuff: buffer.New(0, cfg.Headers.StartLineMaximal),
		body:          newResponseBodyReader(),
	}
	p.head.Headers = headers.NewPrealloc(cfg.Headers.NumberPrealloc)
	p.fields = newFieldScanner(
		buffer.New(cfg.Headers.SpaceDefault, cfg.Headers.SpaceMaximal),
		p.head.Headers,
		cfg.Headers.NumberMaximal,
		responseFieldErrors,
	)

	return p
}

// Parse feeds the data into the parser, appending produced events to the passed slice.
// Data, which belongs to none of the messages (e.g. sent after the MessageComplete), is
// ignored. The head, as well as body chunks, reference parser-owned memory and the passed
// data respectively, so they must be processed before the next call.
func (p *Parser) Parse(data []byte, events []Event) []Event {
	for {
		switch p.state {
		case eHead:
			done, rest, err := p.parseHead(data)
			if err != nil {
				return p.fail(events, err)
			}

			if !done {
				return events
			}

			data = rest

			if status.IsInformational(p.head.Code) && p.head.Code != status.SwitchingProtocols {
				p.reset()
				continue
			}

			if err = p.decideBody(); err != nil {
				return p.fail(events, err)
			}

			events = append(events, Event{Kind: HeadersComplete, Head: &p.head})
			p.state = eBody
		case eBody:
			if p.head.Framing == NoBody {
				return p.complete(events)
			}

			if len(data) == 0 {
				return events
			}

			piece, rest, err := p.body.Read(data)
			if len(piece) > 0 {
				events = append(events, Event{Kind: BodyChunk, Chunk: piece})
			}

			switch err {
			case nil:
				data = rest
			case io.EOF:
				return p.complete(events)
			default:
				return p.fail(events, err)
			}
		default:
			return events
		}
	}
}

// Finish notifies the parser about the upstream closing the connection. Close-delimited
// bodies are completed by it, whereas any other unfinished response is truncated.
func (p *Parser) Finish(events []Event) []Event {
	switch p.state {
	case eHead:
		return p.fail(events, status.ErrUnexpectedEOF)
	case eBody:
		if p.head.Framing == UntilClose {
			return p.complete(events)
		}

		return p.fail(events, status.ErrUnexpectedEOF)
	default:
		return events
	}
}

// Done reports whether no more events are going to be produced.
func (p *Parser) Done() bool {
	return p.state == eDone || p.state == eFailed
}

func (p *Parser) complete(events []Event) []Event {
	p.state = eDone
	return append(events, Event{Kind: MessageComplete})
}

func (p *Parser) fail(events []Event, err error) []Event {
	p.state = eFailed
	return append(events, Event{Kind: ParseError, Err: err})
}

func (p *Parser) reset() {
	p.headState = eProto
	p.codeDigits = 0
	p.head.Protocol = proto.Unknown
	p.head.Code = 0
	p.head.Reason = ""
	p.head.Framing = NoBody
	p.head.ContentLength = 0
	p.startLineBuff.Clear()
	p.fields.buff.Clear()
	p.fields.reset()
}

func (p *Parser) parseHead(data []byte) (done bool, rest []byte, err error) {
	switch p.headState {
	case eProto:
		goto protocol
	case eCode:
		goto code
	case eReason:
		goto reason
	case eFields:
		goto fields
	default:
		panic("BUG: response parser: unknown head state")
	}

protocol:
	{
		sp := bytes.IndexByte(data, ' ')
		if sp == -1 {
			if bytes.IndexByte(data, '\n') != -1 {
				return false, nil, status.ErrBadResponse
			}

			if !p.startLineBuff.Append(data) {
				return false, nil, status.ErrTooLongResponseLine
			}

			p.headState = eProto
			return false, nil, nil
		}

		if !p.startLineBuff.Append(data[:sp]) {
			return false, nil, status.ErrTooLongResponseLine
		}

		p.head.Protocol = proto.FromBytes(p.startLineBuff.Finish())
		if p.head.Protocol == proto.Unknown {
			return false, nil, status.ErrHTTPVersionNotSupported
		}

		data = data[sp+1:]
		goto code
	}

code:
	for i, char := range data {
		switch {
		case char >= '0' && char <= '9':
			if p.codeDigits++; p.codeDigits > 3 {
				return false, nil, status.ErrBadStatusCode
			}

			p.head.Code = p.head.Code*10 + status.Code(char-'0')
		case char == ' ' || char == '\r' || char == '\n':
			if p.codeDigits != 3 || p.head.Code < 100 {
				return false, nil, status.ErrBadStatusCode
			}

			if char == ' ' {
				i++
			}

			data = data[i:]
			goto reason
		default:
			return false, nil, status.ErrBadStatusCode
		}
	}

	p.headState = eCode
	return false, nil, nil

reason:
	{
		lf := bytes.IndexByte(data, '\n')
		if lf == -1 {
			if !p.startLineBuff.Append(data) {
				return false, nil, status.ErrTooLongResponseLine
			}

			p.headState = eReason
			return false, nil, nil
		}

		if !p.startLineBuff.Append(data[:lf]) {
			return false, nil, status.ErrTooLongResponseLine
		}

		p.head.Reason = uf.B2S(rtrim(p.startLineBuff.Finish()))
		data = data[lf+1:]
		goto fields
	}

fields:
	done, rest, err = p.fields.scan(data)
	if err != nil || !done {
		p.headState = eFields
		return false, nil, err
	}

	return true, rest, nil
}

// decideBody determines the length of the response body following RFC 9112, 6.3.
func (p *Parser) decideBody() error {
	h := p.head.Headers

	if p.method == method.HEAD || !status.AllowsBody(p.head.Code) {
		p.head.Framing = NoBody
		return nil
	}

	if te := h.Values("Transfer-Encoding"); len(te) > 0 {
		var last string
		for token := range headers.Tokens(te) {
			last = token
		}

		if strcomp.EqualFold(last, "chunked") {
			p.head.Framing = Chunked
			p.body.Reset(Chunked, 0, h.Has("Trailer"))
		} else {
			p.head.Framing = UntilClose
			p.body.Reset(UntilClose, 0, false)
		}

		return nil
	}

	if cl := h.Values("Content-Length"); len(cl) > 0 {
		length, ok := parseContentLength(cl)
		if !ok {
			return status.ErrBadContentLength
		}

		p.head.ContentLength = length
		if length == 0 {
			p.head.Framing = NoBody
			return nil
		}

		p.head.Framing = Sized
		p.body.Reset(Sized, length, false)
		return nil
	}

	p.head.Framing = UntilClose
	p.body.Reset(UntilClose, 0, false)
	return nil
}

// parseContentLength requires every list element among all the values to be the same
// non-negative decimal number.
func parseContentLength(values []string) (length uint64, ok bool) {
	seen := false

	for token := range headers.Tokens(values) {
		n, err := strconv.ParseUint(token, 10, 63)
		if err != nil || (seen && n != length) {
			return 0, false
		}

		length, seen = n, true
	}

	return length, seen
}
