package config

import (
	"flag"
	"io"
)

// parseFlags overlays the command-line flags:
//
//	-port int     port to listen on
//	-env string   "development" or "production"
func parseFlags(c *Config, args []string) error {
	fs := flag.NewFlagSet("nodebird", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.IntVar(&c.Port, "port", c.Port, "port to listen on")
	fs.StringVar(&c.Env, "env", c.Env, "development or production")

	return fs.Parse(args)
}
