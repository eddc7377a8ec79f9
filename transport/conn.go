package transport

import (
	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
)

// Conn is the downstream connection sink of a relayed response. Write errors aren't reported
// back: the connection is closed instead, and all the following sends are dropped.
type Conn struct {
	client  Client
	loggers ldlog.Loggers
	closed  bool
}

func NewConn(client Client, loggers ldlog.Loggers) *Conn {
	return &Conn{
		client:  client,
		loggers: loggers,
	}
}

func (c *Conn) Send(data []byte) {
	if c.closed {
		return
	}

	if _, err := c.client.Write(data); err != nil {
		c.loggers.Warnf("failed to write %d bytes to %s: %s", len(data), c.client.Remote(), err)
		c.Close()
	}
}

// Close closes the connection. Only the first call has effect.
func (c *Conn) Close() {
	if c.closed {
		return
	}

	c.closed = true
	if err := c.client.Close(); err != nil {
		c.loggers.Debugf("closing %s: %s", c.client.Remote(), err)
	}
}

// Closed reports whether the connection was already closed.
func (c *Conn) Closed() bool {
	return c.closed
}
