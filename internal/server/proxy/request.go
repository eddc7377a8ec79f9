package proxy

import (
	"github.com/indigo-web/relay/http/headers"
	"github.com/indigo-web/relay/http/proto"
	"github.com/indigo-web/relay/internal/protocol/http1"
	"github.com/indigo-web/utils/strcomp"
)

// skippedRequestHeaders are end-to-end, however can't be honoured by the relay. Interim
// responses are never relayed, so the client can't be asked to continue.
var skippedRequestHeaders = [...]string{"Via", "Expect"}

// serializeRequest renders the request head to be sent upstream. Hop-by-hop fields are
// dropped, except for the chunked coding, as the body is forwarded as is. Every value
// goes on its own line, so none of them gets accidentally folded.
func serializeRequest(buf []byte, head *http1.RequestHead, via string) []byte {
	buf = append(buf, head.Method.String()...)
	buf = append(buf, ' ')
	buf = append(buf, head.Target...)
	buf = append(buf, ' ')
	buf = append(buf, proto.HTTP11.String()...)
	buf = append(buf, "\r\n"...)

	for key, values := range head.Headers.Iter() {
		if headers.IsHopByHop(key) || headers.HasToken(head.Headers, "Connection", key) || isSkipped(key) {
			continue
		}

		for _, value := range values {
			buf = appendHeader(buf, key, value)
		}
	}

	if head.Framing == http1.Chunked {
		buf = appendHeader(buf, "Transfer-Encoding", "chunked")
	}

	for _, value := range head.Headers.Values("Via") {
		buf = appendHeader(buf, "Via", value)
	}

	buf = appendHeader(buf, "Via", via)
	return append(buf, "\r\n"...)
}

func appendHeader(buf []byte, key, value string) []byte {
	buf = append(buf, key...)
	buf = append(buf, ':', ' ')
	buf = append(buf, value...)
	return append(buf, "\r\n"...)
}

func isSkipped(key string) bool {
	for _, skipped := range skippedRequestHeaders {
		if strcomp.EqualFold(key, skipped) {
			return true
		}
	}

	return false
}
