package proxy

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dchest/uniuri"
	"github.com/indigo-web/relay/config"
	"github.com/indigo-web/relay/http/headers"
	"github.com/indigo-web/relay/http/status"
	"github.com/indigo-web/relay/internal/protocol/http1"
	"github.com/indigo-web/relay/relay"
	"github.com/indigo-web/relay/transport"
	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
)

const sessionIDLength = 8

// Dialer opens a new connection to the upstream.
type Dialer func(ctx context.Context) (transport.Client, error)

// Session serves a single client connection. Requests are read one by one and forwarded to
// the upstream over a dedicated connection, whereas responses are relayed back by relay.Response.
type Session struct {
	id       string
	cfg      *config.Config
	loggers  ldlog.Loggers
	client   transport.Client
	sink     *transport.Conn
	dial     Dialer
	upstream transport.Client
	parser   *http1.RequestParser
	body     *http1.BodyReader
	buff     []byte
}

func NewSession(cfg *config.Config, loggers ldlog.Loggers, client transport.Client, dial Dialer) *Session {
	id := uniuri.NewLen(sessionIDLength)
	loggers.SetPrefix("[" + id + "]")

	return &Session{
		id:      id,
		cfg:     cfg,
		loggers: loggers,
		client:  client,
		sink:    transport.NewConn(client, loggers),
		dial:    dial,
		parser:  http1.NewRequestParser(cfg),
		body:    http1.NewBodyReader(status.ErrBadRequest),
	}
}

func (s *Session) ID() string {
	return s.id
}

// Serve processes requests until the client goes away, an exchange leaves the connection
// unusable or the context is done.
func (s *Session) Serve(ctx context.Context) {
	stop := context.AfterFunc(ctx, func() {
		_ = s.client.Close()
	})
	defer stop()
	defer s.closeUpstream()

	s.loggers.Debugf("serving %s", s.client.Remote())

	for {
		head, err := s.readHead()
		if err != nil {
			s.reject(err)
			return
		}

		if !s.exchange(ctx, head) {
			s.sink.Close()
			return
		}

		s.parser.Reset()
	}
}

func (s *Session) readHead() (*http1.RequestHead, error) {
	for {
		data, err := s.client.Read()
		if err != nil {
			return nil, err
		}

		done, rest, err := s.parser.Parse(data)
		if err != nil {
			return nil, err
		}

		if done {
			s.client.Pushback(rest)
			return s.parser.Head(), nil
		}
	}
}

// exchange forwards the request and relays the response back. It reports whether the
// client connection may serve the next request.
func (s *Session) exchange(ctx context.Context, head *http1.RequestHead) bool {
	if err := s.forward(ctx, head); err != nil {
		// the upstream might have got a part of the request
		s.closeUpstream()

		var httpErr status.HTTPError
		if errors.As(err, &httpErr) {
			s.reject(err)
			return false
		}

		s.loggers.Warnf("%s %s: %s", head.Method, head.Target, err)
		s.respond(status.BadGateway)
		return false
	}

	req := relay.RequestFromHead(head)
	resp := relay.NewResponse(s.cfg, s.loggers, req, s.sink)
	s.relay(resp)
	s.loggers.Infof("%s %s %s -> %d (%s)", head.Method, head.Target, head.Protocol, resp.Status(), resp.State())

	if resp.State() != relay.Complete {
		s.closeUpstream()
		return false
	}

	if !resp.UpstreamKeepAlive() {
		// the next request is going to be sent over a new connection
		s.closeUpstream()
	}

	return req.KeepAlive && !s.sink.Closed()
}

func (s *Session) forward(ctx context.Context, head *http1.RequestHead) error {
	if s.upstream == nil {
		upstream, err := s.dial(ctx)
		if err != nil {
			return fmt.Errorf("failed to dial upstream: %w", err)
		}

		s.upstream = upstream
	}

	s.buff = serializeRequest(s.buff[:0], head, s.cfg.Main.Via)
	if err := s.write(s.buff); err != nil {
		return err
	}

	return s.forwardBody(head)
}

func (s *Session) forwardBody(head *http1.RequestHead) error {
	if head.Framing == http1.NoBody {
		return nil
	}

	s.body.Reset(head.Framing, head.ContentLength, head.Headers.Has("Trailer"))

	for {
		data, err := s.client.Read()
		if err != nil {
			return fmt.Errorf("failed to read request body: %w", err)
		}

		for len(data) > 0 {
			_, rest, err := s.body.Read(data)
			switch err {
			case nil, io.EOF:
			default:
				return err
			}

			// the body is forwarded in its original framing
			if consumed := data[:len(data)-len(rest)]; len(consumed) > 0 {
				if werr := s.write(consumed); werr != nil {
					return werr
				}
			}

			if err == io.EOF {
				s.client.Pushback(rest)
				return nil
			}

			data = rest
		}
	}
}

func (s *Session) write(data []byte) error {
	if _, err := s.upstream.Write(data); err != nil {
		s.closeUpstream()
		return fmt.Errorf("failed to write upstream: %w", err)
	}

	return nil
}

func (s *Session) relay(resp *relay.Response) {
	for resp.State() == relay.Active {
		data, err := s.upstream.Read()
		if len(data) > 0 {
			resp.Append(data)
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				resp.Finish()
			} else {
				resp.Fault(err)
			}

			s.closeUpstream()
			return
		}
	}
}

// reject answers malformed requests with an error response. Other errors mean the client
// isn't there anymore.
func (s *Session) reject(err error) {
	var httpErr status.HTTPError

	switch {
	case errors.As(err, &httpErr):
		s.loggers.Debugf("rejecting request: %s", err)
		s.respond(httpErr.Code)
	case errors.Is(err, io.EOF):
	default:
		s.loggers.Debugf("reading request: %s", err)
	}

	s.sink.Close()
}

func (s *Session) respond(code status.Code) {
	hdrs := headers.NewFromPairs("Connection", "close", "Content-Length", "0")
	s.sink.Send(relay.Serialize(nil, code, hdrs))
}

func (s *Session) closeUpstream() {
	if s.upstream == nil {
		return
	}

	if err := s.upstream.Close(); err != nil {
		s.loggers.Debugf("closing upstream connection: %s", err)
	}

	s.upstream = nil
}
