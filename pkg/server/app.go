package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"SignalPulse/internal/dispatch"
	"SignalPulse/internal/usecase"
	"SignalPulse/pkg/cache"
	pkgch "SignalPulse/pkg/clickhouse"
	"SignalPulse/pkg/config"
	xhttp "SignalPulse/pkg/http"
	pkgkafka "SignalPulse/pkg/kafka"
	applogger "SignalPulse/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	collector  *usecase.Collector
	dispatcher *dispatch.Dispatcher
	recorder   *usecase.EventRecorder
	handler    xhttp.Handler
	httpServer *xhttp.Server
	producer   *pkgkafka.Producer
	chClient   *pkgch.Client
	cache      cache.Service
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	collector *usecase.Collector,
	dispatcher *dispatch.Dispatcher,
	recorder *usecase.EventRecorder,
	handler xhttp.Handler,
	producer *pkgkafka.Producer,
	chClient *pkgch.Client,
	c cache.Service,
) *App {
	return &App{
		cfg:        cfg,
		log:        log,
		collector:  collector,
		dispatcher: dispatcher,
		recorder:   recorder,
		handler:    handler,
		producer:   producer,
		chClient:   chClient,
		cache:      c,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serverOpts := []xhttp.ServerOption{
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(a.log),
	}
	if a.cfg.Metrics.Enabled {
		serverOpts = append(serverOpts, xhttp.WithMetricsPath(a.cfg.Metrics.Path))
	} else {
		serverOpts = append(serverOpts, xhttp.WithMetricsPath(""))
	}
	a.httpServer = xhttp.NewServer(a.handler, serverOpts...)

	// Delivery side first so no signal finds the queue closed.
	a.dispatcher.Start(ctx)
	a.recorder.Start(ctx, a.dispatcher.Events())

	if err := a.collector.Start(ctx); err != nil {
		a.log.Error("collector start failed", applogger.Error(err))
		return err
	}
	a.log.Info("collector started",
		applogger.String("feed", a.cfg.Feed.Type),
		applogger.Strings("symbols", a.cfg.Feed.Symbols))

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown stops services in pipeline order: ingest first, then
// delivery, then the sinks behind it.
func (a *App) shutdown(ctx context.Context) error {
	a.collector.Stop()
	a.dispatcher.Stop()
	a.recorder.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.log.Warn("kafka producer close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.log.Warn("cache close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
