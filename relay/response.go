package relay

import (
	"strconv"

	"github.com/indigo-web/relay/config"
	"github.com/indigo-web/relay/http/headers"
	"github.com/indigo-web/relay/http/proto"
	"github.com/indigo-web/relay/http/status"
	"github.com/indigo-web/relay/internal/protocol/http1"
	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
)

type State uint8

const (
	Active State = iota
	// Complete is reached after the whole response was relayed. Further input is ignored.
	Complete
	// Faulted is reached on malformed upstream input. Further input is absorbed silently.
	Faulted
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Complete:
		return "complete"
	case Faulted:
		return "faulted"
	default:
		return "unknown"
	}
}

// Response relays a single upstream response to the client. The raw upstream bytes are fed
// via Append in pieces of any size, and the normalized response is sent into the connection
// sink as soon as it's ready. A Response serves exactly one exchange and must not be used
// concurrently.
type Response struct {
	loggers     ldlog.Loggers
	via         string
	maxBuffered int
	request     *Request
	conn        Conn
	parser      *http1.Parser
	events      []http1.Event
	state       State
	code        status.Code
	headers     *headers.Headers
	framing     Framing
	reusable    bool
	buff        SendBuffer
}

func NewResponse(cfg *config.Config, loggers ldlog.Loggers, req *Request, conn Conn) *Response {
	return &Response{
		loggers:     loggers,
		via:         cfg.Main.Via,
		maxBuffered: cfg.Body.MaxBuffered,
		request:     req,
		conn:        conn,
		parser:      http1.NewParser(cfg, req.Method),
		events:      make([]http1.Event, 0, 4),
		code:        status.InternalServerError,
		headers:     headers.NewPrealloc(cfg.Headers.NumberPrealloc),
	}
}

// Append feeds the upstream bytes. It never fails: malformed input faults the response,
// which results in the connection being closed.
func (r *Response) Append(data []byte) {
	switch r.state {
	case Active:
		r.events = r.parser.Parse(data, r.events[:0])
		r.dispatch()
	case Complete:
		if len(data) > 0 {
			r.loggers.Debugf("ignoring %d bytes received after the response is complete", len(data))
		}
	}
}

// Finish notifies the response about the upstream closing the connection.
func (r *Response) Finish() {
	if r.state != Active {
		return
	}

	r.events = r.parser.Finish(r.events[:0])
	r.dispatch()
}

// Fault transitions an active response into the faulted state, closing the connection.
// Repeated calls, as well as calls on a complete response, have no effect.
func (r *Response) Fault(err error) {
	if r.state != Active {
		return
	}

	r.state = Faulted
	r.parser = nil
	r.events = nil
	r.loggers.Warnf("relaying %d response failed: %s", r.code, err)
	r.conn.Close()
}

// MergeHeaders merges the passed headers into the response ones. Existing keys are
// overwritten in place, unseen ones are appended.
func (r *Response) MergeHeaders(h *headers.Headers) {
	r.headers.Merge(h)
}

// Flush drains the send buffer, transferring the ownership over the returned bytes.
func (r *Response) Flush() []byte {
	return r.buff.Flush()
}

// Flushed reports whether the send buffer is empty.
func (r *Response) Flushed() bool {
	return r.buff.Empty()
}

func (r *Response) Headers() *headers.Headers {
	return r.headers
}

func (r *Response) Status() status.Code {
	return r.code
}

func (r *Response) Framing() Framing {
	return r.framing
}

func (r *Response) State() State {
	return r.state
}

// UpstreamKeepAlive reports whether the upstream is going to keep its connection open
// after the response. It is false until the response head is received.
func (r *Response) UpstreamKeepAlive() bool {
	return r.reusable
}

// Request returns the client context. Its KeepAlive might have been forced to false.
func (r *Response) Request() *Request {
	return r.request
}

func (r *Response) dispatch() {
	for _, event := range r.events {
		if r.state != Active {
			break
		}

		switch event.Kind {
		case http1.HeadersComplete:
			r.onHeaders(event.Head)
		case http1.BodyChunk:
			r.onBody(event.Chunk)
		case http1.MessageComplete:
			r.onComplete()
		case http1.ParseError:
			r.Fault(event.Err)
		}
	}

	if r.events != nil {
		// chunks reference the data passed by the caller, don't retain them.
		clear(r.events)
	}
}

func (r *Response) onHeaders(head *http1.Head) {
	r.code = head.Code
	r.reusable = upstreamKeepAlive(head)
	outcome := Transform(head.Headers, head.Code, r.request, r.via)
	if outcome.ForceClose {
		r.request.KeepAlive = false
	}

	r.framing = outcome.Framing
	r.MergeHeaders(outcome.Headers)

	if r.framing != Buffered {
		r.buff.AppendHead(r.code, r.headers)
		r.flush()
	}
}

func (r *Response) onBody(chunk []byte) {
	if len(chunk) == 0 {
		return
	}

	switch r.framing {
	case Chunked:
		r.buff.AppendChunk(chunk)
		r.flush()
	case Passthrough:
		r.buff.Append(chunk)
		r.flush()
	case Buffered:
		if r.buff.Len()+len(chunk) > r.maxBuffered {
			r.Fault(status.ErrBodyTooLarge)
			return
		}

		r.buff.Append(chunk)
	}
}

func (r *Response) onComplete() {
	switch r.framing {
	case Chunked:
		r.buff.AppendTerminator()
		r.flush()
	case Buffered:
		body := r.buff.Flush()
		r.headers.Set("Content-Length", strconv.Itoa(len(body)))
		r.buff.AppendHead(r.code, r.headers)
		r.buff.Append(body)
		r.flush()
	}

	r.state = Complete
	r.parser = nil
}

// upstreamKeepAlive must be evaluated on the raw head, as the transform drops Connection.
func upstreamKeepAlive(head *http1.Head) bool {
	if head.Framing == http1.UntilClose {
		return false
	}

	if head.Protocol == proto.HTTP10 {
		return headers.HasToken(head.Headers, "Connection", "keep-alive")
	}

	return !headers.HasToken(head.Headers, "Connection", "close")
}

// flush sends out everything accumulated so far.
func (r *Response) flush() {
	if r.buff.Empty() {
		return
	}

	data := r.buff.Flush()
	if r.loggers.IsDebugEnabled() {
		r.loggers.Debugf("flushing %d bytes: %q", len(data), data)
	}

	r.conn.Send(data)
}
