package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/crowdflow/crowdflow/internal/config"
	"github.com/crowdflow/crowdflow/internal/core/engine"
	"github.com/crowdflow/crowdflow/internal/core/observability/log"
	"github.com/crowdflow/crowdflow/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to a yaml or json config file")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	level := log.LevelInfo
	if *debug {
		level = log.LevelDebug
	}
	logger := log.New(level)

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.LoadFile(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "loading config:", err)
			os.Exit(1)
		}
		cfg = *loaded
	}

	eng := engine.New(cfg.Params, cfg.Arena.Width, cfg.Arena.Height, cfg.Scenario, logger)
	srv := server.New(cfg, eng, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stopCh
		logger.Info("shutting down")
		cancel()
	}()

	if err := srv.Run(ctx); err != nil {
		logger.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}
