package headers

import (
	"iter"
	"strings"

	"github.com/indigo-web/utils/strcomp"
)

// HopByHop lists header fields meaningful only for a single transport-level connection
// (RFC 9110, 7.6.1). Those are never forwarded by a proxy.
var HopByHop = [...]string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Proxy-Connection", // non-standard, but still sent by some clients
	"TE",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// IsHopByHop reports whether the key is one of the HopByHop fields.
func IsHopByHop(key string) bool {
	for _, hop := range HopByHop {
		if strcomp.EqualFold(hop, key) {
			return true
		}
	}

	return false
}

// Tokens iterates over comma-separated list elements of the values (RFC 9110, 5.6.1), with
// optional whitespace trimmed. Empty elements are skipped.
func Tokens(values []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, value := range values {
			for len(value) > 0 {
				var token string
				token, value, _ = strings.Cut(value, ",")
				if token = strings.TrimSpace(token); len(token) == 0 {
					continue
				}

				if !yield(token) {
					return
				}
			}
		}
	}
}

// HasToken reports whether any of the list elements of the key equals case-insensitively
// to the token.
func HasToken(h *Headers, key, token string) bool {
	for t := range Tokens(h.Values(key)) {
		if strcomp.EqualFold(t, token) {
			return true
		}
	}

	return false
}
