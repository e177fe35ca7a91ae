// API server entry point for the BREF pollutant dashboard.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/turtacn/bref-insight/internal/config"
	"github.com/turtacn/bref-insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/bref-insight/internal/interfaces/cli"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	addr := flag.String("addr", "", "listen address (overrides server.host and server.port)")
	flag.Parse()

	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: .env not loaded: %v\n", err)
	}

	cfg, fromFile, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := cli.ServerLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reload := make(chan *config.Config, 1)
	if fromFile {
		err := config.Watch(*configPath, func(next *config.Config) {
			select {
			case reload <- next:
			default:
			}
		}, func(err error) {
			logger.Warn("Ignoring invalid configuration revision", logging.Err(err))
		})
		if err != nil {
			logger.Warn("Configuration watch disabled", logging.Err(err))
		}
	}

	if err := run(ctx, cfg, *addr, reload, logger); err != nil {
		logger.Error("server stopped with error", logging.Err(err))
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// run serves until ctx is cancelled, restarting on every configuration
// revision received from reload.
func run(ctx context.Context, cfg *config.Config, addr string, reload <-chan *config.Config, logger logging.Logger) error {
	for {
		listenAddr := cfg.Server.Address()
		if addr != "" {
			listenAddr = addr
		}
		ln, err := net.Listen("tcp", listenAddr)
		if err != nil {
			return err
		}

		runCtx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func(cfg *config.Config) { done <- cli.Serve(runCtx, cfg, logger, ln) }(cfg)

		select {
		case err := <-done:
			cancel()
			return err
		case next := <-reload:
			logger.Info("Configuration changed, restarting server",
				logging.String("data_source", next.Data.Source),
				logging.String("cache", next.Cache.Backend))
			cancel()
			if err := <-done; err != nil {
				return err
			}
			cfg = next
		}
	}
}

// loadConfig reads path when it exists and falls back to the environment.
func loadConfig(path string) (*config.Config, bool, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg, err := config.LoadFromEnv()
		return cfg, false, err
	}
	cfg, err := config.Load(path)
	return cfg, true, err
}

//Personal.AI order the ending
