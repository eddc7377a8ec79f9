package config

import (
	"fmt"

	"github.com/indigo-web/utils/strcomp"
	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
)

var logLevels = []ldlog.LogLevel{ldlog.Debug, ldlog.Info, ldlog.Warn, ldlog.Error, ldlog.None}

// LogLevel is a minimal log level read by its name, e.g. "debug" or "none". The zero
// value stands for an unset level.
type LogLevel struct {
	level ldlog.LogLevel
}

// Or returns the level if it's set, otherwise the fallback.
func (l LogLevel) Or(fallback ldlog.LogLevel) ldlog.LogLevel {
	if l.level == 0 {
		return fallback
	}

	return l.level
}

// UnmarshalText is used both by gcfg and by the environment reader. An empty name
// unsets the level.
func (l *LogLevel) UnmarshalText(data []byte) error {
	name := string(data)
	if len(name) == 0 {
		l.level = 0
		return nil
	}

	for _, level := range logLevels {
		if strcomp.EqualFold(level.Name(), name) {
			l.level = level
			return nil
		}
	}

	return fmt.Errorf("%q is not a valid log level", name)
}
