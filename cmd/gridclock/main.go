package main

import (
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"gridclock/internal/config"
	"gridclock/internal/countdown"
	applog "gridclock/internal/log"
	"gridclock/internal/metrics"
	"gridclock/internal/pipeline"
	"gridclock/internal/web"
)

type flagConfig struct {
	configPath string
	listen     string
	logLevel   string
	once       bool
}

func main() {
	flags := parseFlags()

	applog.Configure(applog.Config{Level: flags.logLevel})
	logger := applog.WithComponent("main")

	store, err := config.NewStore(flags.configPath)
	if err != nil {
		logger.Error().Err(err).Str("config_path", flags.configPath).Msg("failed to load config")
		os.Exit(1)
	}

	if flags.listen != "" {
		if err := store.Update(func(c *config.Config) { c.Listen = flags.listen }); err != nil {
			logger.Error().Err(err).Msg("failed to apply listen override")
			os.Exit(1)
		}
	}

	cfg := store.Get()
	logger.Info().
		Str("listen", cfg.Listen).
		Str("refresh", cfg.RefreshCron).
		Int("max_sessions", cfg.MaxSessions).
		Int("feeds", len(store.Snapshot().Feeds)).
		Bool("once", flags.once).
		Msg("gridclock starting")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := metrics.NewProvider()
	bc := countdown.NewBroadcaster()

	pipe := pipeline.New(pipeline.Options{
		Snapshot: store.Snapshot,
		Metrics:  rec,
		Sink: func(t countdown.Tick) {
			if b, err := json.Marshal(struct {
				Type string         `json:"type"`
				Tick countdown.Tick `json:"tick"`
			}{Type: "tick", Tick: t}); err == nil {
				bc.Broadcast(b)
			}
		},
		Broadcast: bc.Broadcast,
	})
	defer pipe.Close()

	if err := pipe.Refresh(ctx); err != nil {
		// Cycle-fatal fetch failures surface through the API error
		// state; the daemon keeps running and retries on schedule.
		logger.Error().Err(err).Msg("initial fetch cycle failed")
	}

	if flags.once {
		logger.Info().Msg("single cycle done, exiting")
		return
	}

	sched := cron.New()
	if _, err := sched.AddFunc(cfg.RefreshCron, func() {
		if err := pipe.Refresh(ctx); err != nil {
			logger.Error().Err(err).Msg("scheduled fetch cycle failed")
		}
	}); err != nil {
		logger.Error().Err(err).Str("refresh", cfg.RefreshCron).Msg("invalid refresh schedule")
		os.Exit(1)
	}
	sched.Start()
	defer sched.Stop()

	server := &http.Server{
		Addr:              cfg.Listen,
		Handler:           web.NewServer(store, pipe, bc, rec).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("listen", "http://"+cfg.Listen).Msg("HTTP server listening")
		errCh <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("signal received, shutting down")
	case err := <-errCh:
		logger.Error().Err(err).Msg("HTTP server failed")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP shutdown failed")
	}

	logger.Info().Msg("gridclock exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/gridclock/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.StringVar(&cfg.logLevel, "log-level", "", "Log level (debug, info, error)")
	flag.BoolVar(&cfg.once, "once", false, "Run one fetch cycle and exit")

	flag.Parse()

	return cfg
}
