package main

import (
	"flag"
	"fmt"
	"os"
)

// Options represents all options that can be set from the command line.
type Options struct {
	ConfigFile     string
	UseEnvironment bool
}

// DescribeConfigSource returns a human-readable phrase describing whether the configuration
// comes from a file, from variables, or both.
func (o Options) DescribeConfigSource() string {
	switch {
	case o.ConfigFile == "" && o.UseEnvironment:
		return "configuration from environment variables"
	case o.ConfigFile == "":
		return "default configuration"
	case o.UseEnvironment:
		return fmt.Sprintf("configuration file %s plus environment variables", o.ConfigFile)
	default:
		return fmt.Sprintf("configuration file %s", o.ConfigFile)
	}
}

// ReadOptions parses the command-line arguments. When both -config and -from-env are
// given, the file is loaded first and the variables are applied on top of it.
func ReadOptions(args []string) (Options, error) {
	var o Options

	fs := flag.NewFlagSet("relayd", flag.ContinueOnError)
	fs.StringVar(&o.ConfigFile, "config", "", "configuration file location")
	fs.BoolVar(&o.UseEnvironment, "from-env", false, "read configuration from environment variables")
	if err := fs.Parse(args); err != nil {
		return o, err
	}

	if o.ConfigFile != "" {
		if _, err := os.Stat(o.ConfigFile); os.IsNotExist(err) {
			return o, fmt.Errorf("configuration file %q does not exist", o.ConfigFile)
		}
	}

	return o, nil
}
