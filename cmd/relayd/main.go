package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/indigo-web/relay/config"
	"github.com/indigo-web/relay/internal/server/proxy"
	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
)

func main() {
	loggers := ldlog.NewDefaultLoggers()

	opts, err := ReadOptions(os.Args[1:])
	if err != nil {
		loggers.Errorf("Invalid command line: %s", err)
		os.Exit(1)
	}

	cfg, err := loadConfig(opts, loggers)
	if err != nil {
		loggers.Errorf("Configuration error: %s", err)
		os.Exit(1)
	}

	loggers.SetMinLevel(cfg.Main.LogLevel.Or(ldlog.Info))
	loggers.Infof("Starting relay with %s", opts.DescribeConfigSource())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err = proxy.NewServer(cfg, loggers).Run(ctx); err != nil {
		loggers.Errorf("Server failed: %s", err)
		os.Exit(1)
	}
}

func loadConfig(opts Options, loggers ldlog.Loggers) (*config.Config, error) {
	cfg := config.Default()

	if opts.ConfigFile != "" {
		if err := config.LoadFile(cfg, opts.ConfigFile, loggers); err != nil {
			return nil, err
		}
	}

	if opts.UseEnvironment {
		if err := config.LoadFromEnvironment(cfg, loggers); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if opts.ConfigFile == "" && !opts.UseEnvironment {
		if err := config.Validate(cfg, loggers); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}
