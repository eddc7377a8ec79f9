package relay

import (
	"slices"

	"github.com/indigo-web/relay/http/headers"
	"github.com/indigo-web/relay/http/method"
	"github.com/indigo-web/relay/http/proto"
	"github.com/indigo-web/relay/http/status"
	"github.com/indigo-web/utils/strcomp"
)

// Outcome is the result of the header transformation.
type Outcome struct {
	// Headers is the outbound header set, ready to be merged into the response.
	Headers *headers.Headers
	Framing Framing
	// ForceClose reports that the response is delimited by closing the connection, so
	// the client connection can't be kept alive.
	ForceClose bool
}

// Transform derives the outbound header set and the body framing from the raw upstream
// headers and the client context. Neither raw headers nor the request are modified.
//
// The resulting header set consists of Connection, Transfer-Encoding and Via, the ones
// present, followed by the end-to-end upstream fields in their original order.
func Transform(raw *headers.Headers, code status.Code, req *Request, via string) Outcome {
	var (
		outcome  Outcome
		codings  []string
		announce bool
	)

	hasTE, hasCL := raw.Has("Transfer-Encoding"), raw.Has("Content-Length")
	bodiless := req.Method == method.HEAD || !status.AllowsBody(code)

	switch {
	case !hasTE && !hasCL:
		outcome.Framing = Passthrough
		outcome.ForceClose = true
	case !hasTE:
		outcome.Framing = Passthrough
	case req.Protocol == proto.HTTP10:
		outcome.Framing = Buffered
		if bodiless {
			// nothing to buffer, so no Content-Length can be computed either
			outcome.Framing = Passthrough
		}
	default:
		codings = rechunk(raw.Values("Transfer-Encoding"))
		announce = true
		outcome.Framing = Chunked
		if bodiless {
			outcome.Framing = Passthrough
		}
	}

	out := headers.NewPrealloc(raw.Len() + 3)

	switch {
	case outcome.ForceClose:
		out.Set("Connection", "close")
	case req.KeepAlive:
		out.Set("Connection", "Keep-Alive")
	}

	if announce {
		out.Set("Transfer-Encoding", codings...)
	}

	out.Set("Via", slices.Concat(raw.Values("Via"), []string{via})...)

	for key, values := range raw.Iter() {
		switch {
		case headers.IsHopByHop(key),
			headers.HasToken(raw, "Connection", key),
			strcomp.EqualFold(key, "Via"):
			continue
		case hasTE && strcomp.EqualFold(key, "Content-Length"):
			// the body length is either determined by the chunked coding or computed
			// once the whole body is buffered. A Content-Length sent along with the
			// Transfer-Encoding must never be forwarded (RFC 9112, 6.3)
			continue
		}

		out.Set(key, values...)
	}

	outcome.Headers = out
	return outcome
}

// rechunk returns the upstream transfer codings with chunked being the last and the only
// one. The body is re-framed, so whatever chunking the upstream did is irrelevant, however
// the rest of the codings are still applied to the relayed bytes.
func rechunk(values []string) []string {
	var codings []string
	for coding := range headers.Tokens(values) {
		if !strcomp.EqualFold(coding, "chunked") {
			codings = append(codings, coding)
		}
	}

	return append(codings, "chunked")
}
