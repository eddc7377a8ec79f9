package config

import (
	"errors"
	"fmt"
	"strings"

	ct "github.com/launchdarkly/go-configtypes"
	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
	"gopkg.in/gcfg.v1"
)

// LoadFile reads a configuration file into the config and validates the result. Only the
// variables present in the file are overridden, so c is expected to hold defaults.
func LoadFile(c *Config, path string, loggers ldlog.Loggers) error {
	if err := gcfg.ReadFileInto(c, path); err != nil {
		return fmt.Errorf("failed to read configuration file %q: %w", path, filterGcfgError(err))
	}

	return Validate(c, loggers)
}

// LoadFromEnvironment overrides the config with RELAY_* environment variables and validates
// the result.
func LoadFromEnvironment(c *Config, loggers ldlog.Loggers) error {
	reader := ct.NewVarReaderFromEnvironment()
	reader.ReadStruct(&c.Main, false)
	reader.ReadStruct(&c.Headers, false)
	reader.ReadStruct(&c.Body, false)
	reader.ReadStruct(&c.NET, false)

	if !reader.Result().OK() {
		return reader.Result().GetError()
	}

	return Validate(c, loggers)
}

// filterGcfgError makes gcfg's messages for unknown sections/fields slightly easier to understand.
func filterGcfgError(err error) error {
	const gcfgExtraDataErrPhrase = "can't store data at"
	if err != nil && strings.Contains(err.Error(), gcfgExtraDataErrPhrase) {
		return errors.New(strings.Replace(err.Error(), gcfgExtraDataErrPhrase, "unsupported or misspelled", 1))
	}

	return err
}
