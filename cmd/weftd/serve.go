package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"weft/config"
	"weft/server"
)

var watchConfig bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the proxy",
	Long: `serve loads the configuration, builds the layer stack (tracing,
audit, auth, rate limiting, retry, compression, upstream selection),
starts the connection reaper and audit retention scheduler, and serves
inbound connections until signaled.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&watchConfig, "watch-config", false, "hot-reload the layer stack when the config file changes")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return fmt.Errorf("weftd: loading config: %w", err)
	}
	config.SetConfig(cfg)

	srv, err := server.New(cfg)
	if err != nil {
		return fmt.Errorf("weftd: building server: %w", err)
	}
	defer srv.Close()

	ctx, cancel := signalContext()
	defer cancel()

	if watchConfig {
		watcher, err := config.NewWatcher(config.DefaultWatcherConfig(cfgFile), nil)
		if err != nil {
			return fmt.Errorf("weftd: building config watcher: %w", err)
		}
		go watcher.Watch(ctx)
		go pollConfigReloads(ctx, srv)
		defer watcher.Stop()
	}

	return srv.Start(ctx)
}

// pollConfigReloads watches the process-wide config singleton (which
// config.Watcher updates on file change) and pushes any new snapshot
// into srv.Reload, rebuilding the layer chain without restarting the
// listener.
func pollConfigReloads(ctx context.Context, srv *server.Server) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	current := config.GetConfig()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			next := config.GetConfig()
			if next != nil && next != current {
				current = next
				srv.Reload(next)
			}
		}
	}
}

// signalContext returns a context cancelled on SIGINT or SIGTERM,
// matching the teacher's pkg/cli.SetupSignalHandler.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	return ctx, cancel
}
