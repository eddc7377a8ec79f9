package http1

import (
	"strings"
	"testing"

	"github.com/indigo-web/relay/config"
	"github.com/indigo-web/relay/http/method"
	"github.com/indigo-web/relay/http/proto"
	"github.com/indigo-web/relay/http/status"
	"github.com/stretchr/testify/require"
)

type parsed struct {
	head     *Head
	body     string
	complete bool
	err      error
}

// feed passes the data into the parser in pieces of the given size and collects the events.
// The events are consumed immediately, as body chunks reference the passed data.
func feed(p *Parser, data string, step int, eof bool) (result parsed) {
	var events []Event
	collect := func() {
		for _, event := range events {
			switch event.Kind {
			case HeadersComplete:
				if result.head != nil {
					panic("HeadersComplete emitted twice")
				}

				result.head = event.Head
			case BodyChunk:
				result.body += string(event.Chunk)
			case MessageComplete:
				result.complete = true
			case ParseError:
				result.err = event.Err
			}
		}

		events = events[:0]
	}

	for len(data) > 0 {
		n := min(step, len(data))
		events = p.Parse([]byte(data[:n]), events)
		collect()
		data = data[n:]
	}

	if eof {
		events = p.Finish(events)
		collect()
	}

	return result
}

func newParser(m method.Method) *Parser {
	return NewParser(config.Default(), m)
}

func TestParser(t *testing.T) {
	for _, step := range []int{1, 3, 7, 1 << 16} {
		t.Run("content length", func(t *testing.T) {
			const raw = "HTTP/1.1 200 OK\r\nContent-Length: 13\r\nServer: indigo\r\n\r\nHello, world!"
			result := feed(newParser(method.GET), raw, step, false)
			require.NoError(t, result.err)
			require.NotNil(t, result.head)
			require.Equal(t, proto.HTTP11, result.head.Protocol)
			require.Equal(t, status.OK, result.head.Code)
			require.Equal(t, "OK", result.head.Reason)
			require.Equal(t, Sized, result.head.Framing)
			require.Equal(t, uint64(13), result.head.ContentLength)
			require.Equal(t, "indigo", result.head.Headers.Value("server"))
			require.Equal(t, "Hello, world!", result.body)
			require.True(t, result.complete)
		})

		t.Run("chunked", func(t *testing.T) {
			const raw = "HTTP/1.1 200 OK\r\nTransfer-Encoding: gzip, chunked\r\n\r\n" +
				"5\r\nHello\r\n8\r\n, world!\r\n0\r\n\r\n"
			result := feed(newParser(method.GET), raw, step, false)
			require.NoError(t, result.err)
			require.Equal(t, Chunked, result.head.Framing)
			require.Equal(t, "Hello, world!", result.body)
			require.True(t, result.complete)
		})

		t.Run("until close", func(t *testing.T) {
			const raw = "HTTP/1.0 200 OK\r\nServer: indigo\r\n\r\nHello, world!"
			p := newParser(method.GET)
			result := feed(p, raw, step, false)
			require.NoError(t, result.err)
			require.Equal(t, proto.HTTP10, result.head.Protocol)
			require.Equal(t, UntilClose, result.head.Framing)
			require.Equal(t, "Hello, world!", result.body)
			require.False(t, result.complete)
			require.False(t, p.Done())

			result = feed(p, "", step, true)
			require.True(t, result.complete)
			require.True(t, p.Done())
		})

		t.Run("non-chunked transfer coding", func(t *testing.T) {
			const raw = "HTTP/1.1 200 OK\r\nTransfer-Encoding: gzip\r\nContent-Length: 5\r\n\r\nHello, world!"
			result := feed(newParser(method.GET), raw, step, true)
			require.NoError(t, result.err)
			require.Equal(t, UntilClose, result.head.Framing)
			require.Equal(t, "Hello, world!", result.body)
			require.True(t, result.complete)
		})

		t.Run("empty reason", func(t *testing.T) {
			for _, raw := range []string{
				"HTTP/1.1 204\r\n\r\n",
				"HTTP/1.1 204 \r\n\r\n",
				"HTTP/1.1 204\n\n",
			} {
				result := feed(newParser(method.GET), raw, step, false)
				require.NoError(t, result.err, raw)
				require.Equal(t, status.NoContent, result.head.Code)
				require.Empty(t, result.head.Reason)
				require.True(t, result.complete)
			}
		})
	}
}

func TestParser_NoBody(t *testing.T) {
	t.Run("HEAD", func(t *testing.T) {
		const raw = "HTTP/1.1 200 OK\r\nContent-Length: 13\r\n\r\n"
		result := feed(newParser(method.HEAD), raw, 1, false)
		require.NoError(t, result.err)
		require.Equal(t, NoBody, result.head.Framing)
		require.Empty(t, result.body)
		require.True(t, result.complete)
	})

	t.Run("304 with transfer encoding", func(t *testing.T) {
		const raw = "HTTP/1.1 304 Not Modified\r\nTransfer-Encoding: chunked\r\n\r\n"
		result := feed(newParser(method.GET), raw, 1, false)
		require.NoError(t, result.err)
		require.Equal(t, NoBody, result.head.Framing)
		require.True(t, result.complete)
	})

	t.Run("zero content length", func(t *testing.T) {
		const raw = "HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n"
		result := feed(newParser(method.GET), raw, 1, false)
		require.NoError(t, result.err)
		require.Equal(t, NoBody, result.head.Framing)
		require.Equal(t, uint64(0), result.head.ContentLength)
		require.True(t, result.complete)
	})
}

func TestParser_Interim(t *testing.T) {
	const raw = "HTTP/1.1 100 Continue\r\nX-Interim: yes\r\n\r\n" +
		"HTTP/1.1 103 Early Hints\r\nLink: </style.css>\r\n\r\n" +
		"HTTP/1.1 200 OK\r\nContent-Length: 2\r\n\r\nok"

	for _, step := range []int{1, 5, len(raw)} {
		result := feed(newParser(method.GET), raw, step, false)
		require.NoError(t, result.err)
		require.Equal(t, status.OK, result.head.Code)
		require.False(t, result.head.Headers.Has("X-Interim"))
		require.False(t, result.head.Headers.Has("Link"))
		require.Equal(t, "ok", result.body)
		require.True(t, result.complete)
	}
}

func TestParser_Trailing(t *testing.T) {
	const raw = "HTTP/1.1 200 OK\r\nContent-Length: 2\r\n\r\nokGARBAGE"
	p := newParser(method.GET)
	events := p.Parse([]byte(raw), nil)
	require.Len(t, events, 3)
	require.Equal(t, HeadersComplete, events[0].Kind)
	require.Equal(t, BodyChunk, events[1].Kind)
	require.Equal(t, "ok", string(events[1].Chunk))
	require.Equal(t, MessageComplete, events[2].Kind)

	require.Empty(t, p.Parse([]byte("more garbage"), nil))
	require.Empty(t, p.Finish(nil))
}

func TestParser_Errors(t *testing.T) {
	for _, tc := range []struct {
		Name string
		Raw  string
		Err  error
	}{
		{"unsupported protocol", "HTTP/2.0 200 OK\r\n\r\n", status.ErrHTTPVersionNotSupported},
		{"garbage protocol", "HTTP/1.1x 200 OK\r\n\r\n", status.ErrHTTPVersionNotSupported},
		{"no status code", "HTTP/1.1\r\n\r\n", status.ErrBadResponse},
		{"short status code", "HTTP/1.1 20 OK\r\n\r\n", status.ErrBadStatusCode},
		{"long status code", "HTTP/1.1 2000 OK\r\n\r\n", status.ErrBadStatusCode},
		{"non-digit status code", "HTTP/1.1 2x0 OK\r\n\r\n", status.ErrBadStatusCode},
		{"status code below 100", "HTTP/1.1 099 OK\r\n\r\n", status.ErrBadStatusCode},
		{"header without colon", "HTTP/1.1 200 OK\r\nServer\r\n\r\n", status.ErrBadHeader},
		{"empty header key", "HTTP/1.1 200 OK\r\n: value\r\n\r\n", status.ErrBadHeader},
		{"space in header key", "HTTP/1.1 200 OK\r\nSer ver: indigo\r\n\r\n", status.ErrBadHeader},
		{"obsolete line folding", "HTTP/1.1 200 OK\r\nServer: a\r\n b\r\n\r\n", status.ErrBadHeader},
		{"bare CR", "HTTP/1.1 200 OK\r\nServer: a\r\r\n", status.ErrBadHeader},
		{"negative content length", "HTTP/1.1 200 OK\r\nContent-Length: -1\r\n\r\n", status.ErrBadContentLength},
		{"signed content length", "HTTP/1.1 200 OK\r\nContent-Length: +1\r\n\r\n", status.ErrBadContentLength},
		{"non-numeric content length", "HTTP/1.1 200 OK\r\nContent-Length: 1a\r\n\r\n", status.ErrBadContentLength},
		{
			"conflicting content lengths",
			"HTTP/1.1 200 OK\r\nContent-Length: 1\r\nContent-Length: 2\r\n\r\n",
			status.ErrBadContentLength,
		},
		{"conflicting list content length", "HTTP/1.1 200 OK\r\nContent-Length: 1, 2\r\n\r\n", status.ErrBadContentLength},
		{"malformed chunk", "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\nzz\r\n", status.ErrBadChunk},
	} {
		t.Run(tc.Name, func(t *testing.T) {
			result := feed(newParser(method.GET), tc.Raw, 1, false)
			require.ErrorIs(t, result.err, tc.Err)
			require.False(t, result.complete)
		})
	}

	t.Run("agreeing content lengths", func(t *testing.T) {
		const raw = "HTTP/1.1 200 OK\r\nContent-Length: 2\r\nContent-Length: 2, 2\r\n\r\nok"
		result := feed(newParser(method.GET), raw, 1, false)
		require.NoError(t, result.err)
		require.Equal(t, "ok", result.body)
		require.True(t, result.complete)
	})

	t.Run("error is terminal", func(t *testing.T) {
		p := newParser(method.GET)
		events := p.Parse([]byte("HTTP/9.9 200 OK\r\n"), nil)
		require.Len(t, events, 1)
		require.Equal(t, ParseError, events[0].Kind)
		require.True(t, p.Done())
		require.Empty(t, p.Parse([]byte("HTTP/1.1 200 OK\r\n\r\n"), nil))
		require.Empty(t, p.Finish(nil))
	})
}

func TestParser_Limits(t *testing.T) {
	t.Run("too long status line", func(t *testing.T) {
		cfg := config.Default()
		cfg.Headers.StartLineMaximal = 32
		raw := "HTTP/1.1 200 " + strings.Repeat("a", 64) + "\r\n\r\n"
		result := feed(NewParser(cfg, method.GET), raw, 1, false)
		require.ErrorIs(t, result.err, status.ErrTooLongResponseLine)
	})

	t.Run("too many headers", func(t *testing.T) {
		cfg := config.Default()
		cfg.Headers.NumberMaximal = 2
		raw := "HTTP/1.1 200 OK\r\nA: 1\r\nB: 2\r\nC: 3\r\n\r\n"
		result := feed(NewParser(cfg, method.GET), raw, 4, false)
		require.ErrorIs(t, result.err, status.ErrTooManyHeaders)
	})

	t.Run("too large headers", func(t *testing.T) {
		cfg := config.Default()
		cfg.Headers.SpaceDefault = 16
		cfg.Headers.SpaceMaximal = 64
		raw := "HTTP/1.1 200 OK\r\nCookie: " + strings.Repeat("a", 128) + "\r\n\r\n"
		result := feed(NewParser(cfg, method.GET), raw, 8, false)
		require.ErrorIs(t, result.err, status.ErrHeaderFieldsTooLarge)
	})
}

func TestParser_Finish(t *testing.T) {
	for _, tc := range []struct {
		Name string
		Raw  string
	}{
		{"mid status line", "HTTP/1.1 20"},
		{"mid headers", "HTTP/1.1 200 OK\r\nServer: indigo\r\n"},
		{"nothing at all", ""},
		{"truncated sized body", "HTTP/1.1 200 OK\r\nContent-Length: 13\r\n\r\nHello"},
		{"truncated chunked body", "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n5\r\nHello\r\n"},
	} {
		t.Run(tc.Name, func(t *testing.T) {
			result := feed(newParser(method.GET), tc.Raw, 2, true)
			require.ErrorIs(t, result.err, status.ErrUnexpectedEOF)
			require.False(t, result.complete)
		})
	}
}
