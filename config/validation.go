package config

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
)

var (
	errNoUpstream = errors.New("upstream address must be set")
	errBadVia     = errors.New(`via token must look like "<http-version> <product-name>"`)
)

// Validate checks the config for consistency. Some of the problems are fixable without
// refusing to start, those are fixed and reported as warnings.
func Validate(c *Config, loggers ldlog.Loggers) error {
	if c.Main.Upstream == "" {
		return errNoUpstream
	}

	if _, _, err := net.SplitHostPort(c.Main.Upstream); err != nil {
		return fmt.Errorf("invalid upstream address %q: %w", c.Main.Upstream, err)
	}

	if version, product, found := strings.Cut(c.Main.Via, " "); !found || version == "" ||
		strings.TrimSpace(product) == "" {
		return errBadVia
	}

	positive := []struct {
		name  string
		value int
	}{
		{"Headers.StartLineMaximal", c.Headers.StartLineMaximal},
		{"Headers.NumberMaximal", c.Headers.NumberMaximal},
		{"Headers.SpaceDefault", c.Headers.SpaceDefault},
		{"Headers.SpaceMaximal", c.Headers.SpaceMaximal},
		{"NET.ReadBufferSize", c.NET.ReadBufferSize},
	}

	for _, field := range positive {
		if field.value <= 0 {
			return fmt.Errorf("%s: value must be greater than zero", field.name)
		}
	}

	if c.Body.MaxBuffered < 0 {
		return errors.New("Body.MaxBuffered: value must not be negative")
	}

	if c.Headers.SpaceDefault > c.Headers.SpaceMaximal {
		loggers.Warnf(
			"Headers.SpaceDefault (%d) exceeds Headers.SpaceMaximal (%d), lowering it",
			c.Headers.SpaceDefault, c.Headers.SpaceMaximal,
		)
		c.Headers.SpaceDefault = c.Headers.SpaceMaximal
	}

	if c.Headers.NumberPrealloc > c.Headers.NumberMaximal {
		loggers.Warnf(
			"Headers.NumberPrealloc (%d) exceeds Headers.NumberMaximal (%d), lowering it",
			c.Headers.NumberPrealloc, c.Headers.NumberMaximal,
		)
		c.Headers.NumberPrealloc = c.Headers.NumberMaximal
	}

	return nil
}
