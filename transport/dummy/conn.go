package dummy

import (
	"bytes"
	"io"
	"net"
	"time"
)

// Sink records everything sent into it, as well as the closure requests.
type Sink struct {
	Sent   [][]byte
	Closes int
}

func NewSink() *Sink {
	return new(Sink)
}

func (s *Sink) Send(data []byte) {
	s.Sent = append(s.Sent, data)
}

func (s *Sink) Close() {
	s.Closes++
}

// Data returns all the sent data concatenated.
func (s *Sink) Data() string {
	return string(bytes.Join(s.Sent, nil))
}

// Conn is a net.Conn returning the preset pieces on reads and recording all the writes.
// Once the pieces are exhausted, reads return io.EOF.
type Conn struct {
	Data     []byte
	pieces   [][]byte
	nop      bool
	closed   bool
	writeErr error
}

func NewConn(pieces ...[]byte) *Conn {
	return &Conn{pieces: pieces}
}

func (c *Conn) Read(b []byte) (n int, err error) {
	if c.closed || len(c.pieces) == 0 {
		return 0, io.EOF
	}

	n = copy(b, c.pieces[0])
	if c.pieces[0] = c.pieces[0][n:]; len(c.pieces[0]) == 0 {
		c.pieces = c.pieces[1:]
	}

	return n, nil
}

func (c *Conn) Write(b []byte) (n int, err error) {
	if c.writeErr != nil {
		return 0, c.writeErr
	}

	if !c.nop {
		c.Data = append(c.Data, b...)
	}

	return len(b), nil
}

func (c *Conn) Close() error {
	c.closed = true
	return nil
}

func (c *Conn) Closed() bool {
	return c.closed
}

func (c *Conn) LocalAddr() net.Addr {
	return nil
}

func (c *Conn) RemoteAddr() net.Addr {
	return nil
}

func (c *Conn) SetDeadline(time.Time) error {
	return nil
}

func (c *Conn) SetReadDeadline(time.Time) error {
	return nil
}

func (c *Conn) SetWriteDeadline(time.Time) error {
	return nil
}

// Nop disables writes recording.
func (c *Conn) Nop() *Conn {
	c.nop = true
	return c
}

// FailWrites makes every write fail with the err.
func (c *Conn) FailWrites(err error) *Conn {
	c.writeErr = err
	return c
}
