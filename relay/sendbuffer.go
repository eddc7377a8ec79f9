package relay

import (
	"strconv"

	"github.com/indigo-web/relay/http/headers"
	"github.com/indigo-web/relay/http/status"
)

const (
	crlf       = "\r\n"
	terminator = "0\r\n\r\n"
)

// SendBuffer accumulates the outbound bytes between flushes.
type SendBuffer struct {
	data []byte
}

func (s *SendBuffer) Append(b []byte) {
	s.data = append(s.data, b...)
}

func (s *SendBuffer) AppendString(str string) {
	s.data = append(s.data, str...)
}

// AppendChunk frames the data as a single complete chunk. Empty data is ignored, as
// a zero-length chunk would terminate the body.
func (s *SendBuffer) AppendChunk(b []byte) {
	if len(b) == 0 {
		return
	}

	s.data = strconv.AppendUint(s.data, uint64(len(b)), 16)
	s.data = append(s.data, crlf...)
	s.data = append(s.data, b...)
	s.data = append(s.data, crlf...)
}

// AppendTerminator appends the last chunk, completing the chunked body.
func (s *SendBuffer) AppendTerminator() {
	s.data = append(s.data, terminator...)
}

// AppendHead serializes the response head into the buffer.
func (s *SendBuffer) AppendHead(code status.Code, hdrs *headers.Headers) {
	s.data = Serialize(s.data, code, hdrs)
}

// Flush returns everything accumulated and empties the buffer. The ownership over the
// returned slice is transferred to the caller, as the buffer starts over with a new one.
func (s *SendBuffer) Flush() []byte {
	data := s.data
	s.data = nil
	return data
}

func (s *SendBuffer) Empty() bool {
	return len(s.data) == 0
}

func (s *SendBuffer) Len() int {
	return len(s.data)
}
