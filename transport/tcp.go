package transport

import (
	"errors"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/indigo-web/relay/config"
)

type listener interface {
	net.Listener
	SetDeadline(t time.Time) error
}

// TCP is the accepting side. Every connection is served in its own goroutine and closed as
// soon as the callback returns.
type TCP struct {
	l    listener
	wg   *sync.WaitGroup
	stop *atomic.Bool
}

func NewTCP() *TCP {
	tcp := newTCP(nil)
	return &tcp
}

func newTCP(l listener) TCP {
	return TCP{
		l:    l,
		wg:   new(sync.WaitGroup),
		stop: new(atomic.Bool),
	}
}

func (t *TCP) Bind(addr string) error {
	tcpaddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return err
	}

	t.l, err = net.ListenTCP("tcp", tcpaddr)
	return err
}

// Addr returns the bound address. Useful when bound to the port 0.
func (t *TCP) Addr() net.Addr {
	return t.l.Addr()
}

// Listen runs the accept loop until Stop is called or the listener fails.
func (t *TCP) Listen(cfg config.NET, cb func(conn net.Conn)) error {
	interrupt := cfg.AcceptLoopInterruptPeriod.GetOrElse(time.Second)

	for !t.stop.Load() {
		if err := t.l.SetDeadline(time.Now().Add(interrupt)); err != nil {
			return err
		}

		conn, err := t.l.Accept()
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				continue
			}

			if t.stop.Load() {
				return nil
			}

			return err
		}

		t.wg.Add(1)
		go func(conn net.Conn) {
			cb(conn)
			_ = conn.Close()
			t.wg.Done()
		}(conn)
	}

	return nil
}

// Stop makes the accept loop exit. Connections already accepted are served until
// they end up by themselves.
func (t *TCP) Stop() {
	t.stop.Store(true)
}

func (t *TCP) Close() {
	_ = t.l.Close()
}

// Wait blocks until all the connections are served.
func (t *TCP) Wait() {
	t.wg.Wait()
}
