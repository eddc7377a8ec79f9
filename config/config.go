package config

import (
	"time"

	ct "github.com/launchdarkly/go-configtypes"
)

// DefaultVia is the proxy identity token appended to the Via header of every relayed response.
const DefaultVia = "1.1 indigo-relay"

type (
	// Main corresponds to the [Main] section of the configuration file.
	Main struct {
		// Listen is the address the daemon accepts client connections on.
		Listen string `conf:"RELAY_LISTEN"`
		// Upstream is the address of the server every request is relayed to.
		Upstream string `conf:"RELAY_UPSTREAM"`
		// Via is the proxy identity token in a form of "<http-version> <product-name>".
		Via      string   `conf:"RELAY_VIA"`
		LogLevel LogLevel `conf:"RELAY_LOG_LEVEL"`
	}

	// Headers limits the upstream response head, as well as the client request head.
	Headers struct {
		// StartLineMaximal limits both status and request lines.
		StartLineMaximal int `conf:"RELAY_START_LINE_MAXIMAL"`
		// NumberPrealloc is the initial capacity of the parsed headers storage, while
		// NumberMaximal is the maximal number of header fields allowed.
		NumberPrealloc int `conf:"RELAY_HEADERS_NUMBER_PREALLOC"`
		NumberMaximal  int `conf:"RELAY_HEADERS_NUMBER_MAXIMAL"`
		// SpaceDefault is the initial size of the buffer storing header keys and values, and
		// SpaceMaximal is the limit it may grow up to.
		SpaceDefault int `conf:"RELAY_HEADERS_SPACE_DEFAULT"`
		SpaceMaximal int `conf:"RELAY_HEADERS_SPACE_MAXIMAL"`
	}

	Body struct {
		// MaxBuffered limits the size of bodies, which must be buffered completely before
		// being sent (chunked upstream response for an HTTP/1.0 client).
		MaxBuffered int `conf:"RELAY_BODY_MAX_BUFFERED"`
	}

	NET struct {
		// ReadBufferSize is a size of buffer in bytes which will be used to read from
		// sockets.
		ReadBufferSize int `conf:"RELAY_READ_BUFFER_SIZE"`
		// ReadTimeout controls the maximal lifetime of IDLE connections.
		ReadTimeout  ct.OptDuration `conf:"RELAY_READ_TIMEOUT"`
		WriteTimeout ct.OptDuration `conf:"RELAY_WRITE_TIMEOUT"`
		DialTimeout  ct.OptDuration `conf:"RELAY_DIAL_TIMEOUT"`
		// AcceptLoopInterruptPeriod is how often the accept loop checks whether the
		// server is being stopped.
		AcceptLoopInterruptPeriod ct.OptDuration `conf:"RELAY_ACCEPT_LOOP_INTERRUPT_PERIOD"`
	}
)

// Config holds settings used across the relay, mainly restrictions, limitations
// and pre-allocations.
//
// Always start from Default() and modify it, as zero values are not valid limits.
type Config struct {
	Main    Main
	Headers Headers
	Body    Body
	NET     NET
}

// Default returns default config.
func Default() *Config {
	return &Config{
		Main: Main{
			Listen:   "localhost:8080",
			Upstream: "localhost:8081",
			Via:      DefaultVia,
		},
		Headers: Headers{
			StartLineMaximal: 8 * 1024,
			NumberPrealloc:   10,
			NumberMaximal:    100,
			SpaceDefault:     1 * 1024,  // 1kb for headers must be fairly enough in most cases.
			SpaceMaximal:     64 * 1024, // However, there also might be extremely long cookies.
		},
		Body: Body{
			MaxBuffered: 64 * 1024 * 1024,
		},
		NET: NET{
			ReadBufferSize:            4 * 1024,
			ReadTimeout:               ct.NewOptDuration(90 * time.Second),
			WriteTimeout:              ct.NewOptDuration(30 * time.Second),
			DialTimeout:               ct.NewOptDuration(5 * time.Second),
			AcceptLoopInterruptPeriod: ct.NewOptDuration(5 * time.Second),
		},
	}
}
