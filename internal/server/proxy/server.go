package proxy

import (
	"context"
	"net"

	"github.com/indigo-web/relay/config"
	"github.com/indigo-web/relay/transport"
	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
)

// Server accepts client connections and runs a Session for each of them.
type Server struct {
	cfg     *config.Config
	loggers ldlog.Loggers
	tcp     *transport.TCP
	dial    Dialer
}

func NewServer(cfg *config.Config, loggers ldlog.Loggers) *Server {
	return &Server{
		cfg:     cfg,
		loggers: loggers,
		tcp:     transport.NewTCP(),
		dial: func(ctx context.Context) (transport.Client, error) {
			return transport.Dial(ctx, cfg.Main.Upstream, cfg.NET)
		},
	}
}

// Bind binds the listening address.
func (s *Server) Bind() error {
	return s.tcp.Bind(s.cfg.Main.Listen)
}

// Addr returns the bound address.
func (s *Server) Addr() net.Addr {
	return s.tcp.Addr()
}

// Serve accepts connections until the context is done. Sessions are cancelled by the same
// context, so Serve returns only after all of them are over.
func (s *Server) Serve(ctx context.Context) error {
	s.loggers.Infof("Listening on %s, relaying to %s", s.Addr(), s.cfg.Main.Upstream)

	stop := context.AfterFunc(ctx, s.tcp.Stop)
	defer stop()

	err := s.tcp.Listen(s.cfg.NET, func(conn net.Conn) {
		client := transport.NewClient(conn, s.cfg.NET)
		NewSession(s.cfg, s.loggers, client, s.dial).Serve(ctx)
	})

	s.tcp.Wait()
	s.tcp.Close()
	s.loggers.Info("Stopped")

	return err
}

// Run binds and serves.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Bind(); err != nil {
		return err
	}

	return s.Serve(ctx)
}
