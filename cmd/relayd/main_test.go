package main

import (
	"os"
	"testing"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
	helpers "github.com/launchdarkly/go-test-helpers/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadOptions(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		opts, err := ReadOptions(nil)
		require.NoError(t, err)
		assert.Equal(t, Options{}, opts)
		assert.Equal(t, "default configuration", opts.DescribeConfigSource())
	})

	t.Run("environment", func(t *testing.T) {
		opts, err := ReadOptions([]string{"-from-env"})
		require.NoError(t, err)
		assert.True(t, opts.UseEnvironment)
		assert.Equal(t, "configuration from environment variables", opts.DescribeConfigSource())
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := ReadOptions([]string{"-config", "/nonexistent/relayd.conf"})
		require.Error(t, err)
	})

	t.Run("unknown flag", func(t *testing.T) {
		_, err := ReadOptions([]string{"-verbose"})
		require.Error(t, err)
	})
}

func TestLoadConfig(t *testing.T) {
	helpers.WithTempFile(func(path string) {
		require.NoError(t, os.WriteFile(path, []byte("[Main]\nUpstream = \"localhost:9000\"\n"), 0600))
		t.Setenv("RELAY_VIA", "1.0 test-relay")

		opts, err := ReadOptions([]string{"-config", path, "-from-env"})
		require.NoError(t, err)
		assert.Equal(t, "configuration file "+path+" plus environment variables", opts.DescribeConfigSource())

		cfg, err := loadConfig(opts, ldlog.NewDisabledLoggers())
		require.NoError(t, err)
		assert.Equal(t, "localhost:9000", cfg.Main.Upstream)
		assert.Equal(t, "1.0 test-relay", cfg.Main.Via)
	})

	t.Run("invalid environment", func(t *testing.T) {
		t.Setenv("RELAY_VIA", "nospace")
		_, err := loadConfig(Options{UseEnvironment: true}, ldlog.NewDisabledLoggers())
		require.Error(t, err)
	})
}
