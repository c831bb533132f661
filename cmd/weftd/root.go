package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "weftd",
	Short: "weft - a layered HTTP/2 dispatch proxy",
	Long: `weftd runs weft, a layered proxy built around a Service/Layer
composition model and a pooled HTTP/2 client dispatch engine.

It accepts inbound connections, optionally decoding a PROXY protocol
v1/v2 preamble ahead of the request, runs each request through a
configurable layer stack (tracing, audit, auth, rate limiting, retry,
compression, upstream target selection), and dispatches it to a
backend over a shared, pooled HTTP/2 connection.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
