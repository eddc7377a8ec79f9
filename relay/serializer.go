package relay

import (
	"strconv"

	"github.com/indigo-web/relay/http/headers"
	"github.com/indigo-web/relay/http/proto"
	"github.com/indigo-web/relay/http/status"
	"github.com/indigo-web/utils/strcomp"
)

// Serialize appends the response head to the buf. The status line always announces HTTP/1.1,
// as this is what the relay speaks, regardless of what the upstream does. Multiple values are
// comma-joined, except for Set-Cookie, which is the only field whose values can't be combined
// (RFC 9110, 5.3). The headers are never modified.
func Serialize(buf []byte, code status.Code, hdrs *headers.Headers) []byte {
	buf = append(buf, proto.HTTP11.String()...)
	buf = append(buf, ' ')
	buf = strconv.AppendUint(buf, uint64(code), 10)
	buf = append(buf, ' ')
	buf = append(buf, status.Text(code)...)
	buf = append(buf, crlf...)

	for key, values := range hdrs.Iter() {
		if strcomp.EqualFold(key, "Set-Cookie") {
			for _, value := range values {
				buf = append(buf, key...)
				buf = append(buf, ':', ' ')
				buf = append(buf, value...)
				buf = append(buf, crlf...)
			}

			continue
		}

		buf = append(buf, key...)
		buf = append(buf, ':', ' ')
		for i, value := range values {
			if i > 0 {
				buf = append(buf, ',')
			}

			buf = append(buf, value...)
		}

		buf = append(buf, crlf...)
	}

	return append(buf, crlf...)
}
