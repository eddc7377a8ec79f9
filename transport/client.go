package transport

import (
	"context"
	"net"
	"time"

	"github.com/indigo-web/relay/config"
)

// Client is a connection, read in pieces into a reusable buffer.
type Client interface {
	// Read returns a piece of data, valid until the next call.
	Read() ([]byte, error)
	// Pushback preserves a piece of data from the previous read to be returned by the next one.
	Pushback([]byte)
	Write([]byte) (int, error)
	Conn() net.Conn
	Remote() net.Addr
	Close() error
}

type client struct {
	conn         net.Conn
	buff         []byte
	pending      []byte
	readTimeout  time.Duration
	writeTimeout time.Duration
}

func NewClient(conn net.Conn, cfg config.NET) Client {
	return &client{
		conn:         conn,
		buff:         make([]byte, cfg.ReadBufferSize),
		readTimeout:  cfg.ReadTimeout.GetOrElse(0),
		writeTimeout: cfg.WriteTimeout.GetOrElse(0),
	}
}

// Dial connects to the address, giving up after the dial timeout.
func Dial(ctx context.Context, addr string, cfg config.NET) (Client, error) {
	dialer := net.Dialer{Timeout: cfg.DialTimeout.GetOrElse(0)}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	return NewClient(conn, cfg), nil
}

// Read reads data into the internal buffer and returns a piece of it back. Timeouts are also
// handled automatically.
func (c *client) Read() ([]byte, error) {
	if len(c.pending) > 0 {
		pending := c.pending
		c.pending = nil

		return pending, nil
	}

	if err := c.conn.SetReadDeadline(deadline(c.readTimeout)); err != nil {
		return nil, err
	}

	n, err := c.conn.Read(c.buff)
	return c.buff[:n], err
}

func (c *client) Pushback(b []byte) {
	c.pending = b
}

// Write writes data into the underlying connection.
func (c *client) Write(b []byte) (int, error) {
	if err := c.conn.SetWriteDeadline(deadline(c.writeTimeout)); err != nil {
		return 0, err
	}

	return c.conn.Write(b)
}

// Conn unwraps the underlying net.Conn.
func (c *client) Conn() net.Conn {
	return c.conn
}

func (c *client) Remote() net.Addr {
	return c.conn.RemoteAddr()
}

func (c *client) Close() error {
	return c.conn.Close()
}

// deadline returns the zero time for zero timeouts, which disables the deadline.
func deadline(timeout time.Duration) time.Time {
	if timeout <= 0 {
		return time.Time{}
	}

	return time.Now().Add(timeout)
}
