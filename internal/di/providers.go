package di

import (
	"context"
	"fmt"
	"time"

	"SignalPulse/internal/dispatch"
	"SignalPulse/internal/domain/repository"
	"SignalPulse/internal/handler/api"
	"SignalPulse/internal/indicator"
	internalrepo "SignalPulse/internal/repository"
	"SignalPulse/internal/risk"
	"SignalPulse/internal/service/feed"
	"SignalPulse/internal/service/telegram"
	"SignalPulse/internal/strategy"
	"SignalPulse/internal/usecase"
	"SignalPulse/pkg/cache"
	pkgch "SignalPulse/pkg/clickhouse"
	"SignalPulse/pkg/config"
	xhttp "SignalPulse/pkg/http"
	pkgkafka "SignalPulse/pkg/kafka"
	"SignalPulse/pkg/logger"
	"SignalPulse/pkg/metrics"
	"SignalPulse/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	l, err := logger.New(&logger.Config{
		Level:  cfg.Logger.Level,
		Format: cfg.Logger.Format,
		Output: cfg.Logger.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCache creates the cache backing the recent alert feeds.
// Redis when enabled, in-process otherwise.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if !cfg.Cache.Enabled {
		return cache.NewMemoryCache(), nil
	}

	c, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Cache.Addr),
		cache.WithRedisPassword(cfg.Cache.Password),
		cache.WithRedisDB(cfg.Cache.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return c, nil
}

// ProvideClickHouseClient creates a ClickHouse client and prepares the
// alerts journal schema. Returns nil when ClickHouse is disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}

	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, internalrepo.AlertsSchema); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideAlertHistory creates the ClickHouse alert journal repository.
func ProvideAlertHistory(chClient *pkgch.Client) repository.AlertHistory {
	if chClient == nil {
		return nil
	}
	return internalrepo.NewClickHouseAlertHistory(chClient.DB(), "alerts")
}

// ProvideKafkaProducer creates a Kafka producer. Returns nil when Kafka
// is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}

	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideAlertPublisher creates the Kafka alert fan-out repository.
func ProvideAlertPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.AlertPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaAlertPublisher(producer, cfg.Kafka.Topic)
}

// ProvideTransport creates the Telegram delivery transport.
func ProvideTransport(cfg *config.Config, log *logger.Logger) repository.AlertTransport {
	return telegram.NewClient(
		cfg.Telegram.Token,
		cfg.Telegram.ChatID,
		log,
		telegram.WithHTTPClient(xhttp.NewClient(xhttp.WithTimeout(cfg.Telegram.Timeout))),
	)
}

// ProvideDispatcher creates the alert dispatcher and wires the optional
// fan-out sinks.
func ProvideDispatcher(
	transport repository.AlertTransport,
	publisher repository.AlertPublisher,
	history repository.AlertHistory,
	log *logger.Logger,
	m repository.Metrics,
	cfg *config.Config,
) *dispatch.Dispatcher {
	d := dispatch.NewDispatcher(transport, log, m,
		dispatch.WithQueueSize(cfg.Dispatcher.QueueSize),
		dispatch.WithRetry(cfg.Dispatcher.RetryMax, cfg.Dispatcher.BackoffMin, cfg.Dispatcher.BackoffMax),
		dispatch.WithRate(cfg.Dispatcher.RatePerSec, cfg.Dispatcher.RateBurst),
		dispatch.WithSendTimeout(cfg.Telegram.Timeout),
	)
	if publisher != nil {
		d.SetPublisher(publisher)
	}
	if history != nil {
		d.SetHistory(history)
	}
	return d
}

// ProvideEventRecorder creates the delivery event recorder.
func ProvideEventRecorder(c cache.Service, cfg *config.Config, log *logger.Logger) *usecase.EventRecorder {
	return usecase.NewEventRecorder(
		cfg.Dispatcher.QueueSize,
		c,
		cfg.Cache.RecentLimit,
		cfg.Cache.TTL,
		log,
	)
}

// ProvideMarketStream creates the configured market data stream.
func ProvideMarketStream(cfg *config.Config, log *logger.Logger) (repository.MarketStream, error) {
	switch cfg.Feed.Type {
	case "binance":
		return feed.NewBinance(
			cfg.Feed.WebSocketURL,
			cfg.Feed.Symbols,
			cfg.Feed.ReconnectDelay,
			cfg.Feed.PingInterval,
			log,
		), nil
	case "synthetic":
		return feed.NewSynthetic(cfg.Feed.Symbols, 0), nil
	default:
		return nil, fmt.Errorf("unknown feed type %q", cfg.Feed.Type)
	}
}

// ProcessorFactory builds one pipeline processor per collector worker.
type ProcessorFactory func() *usecase.Processor

// ProvideProcessorFactory creates the per-worker processor factory.
func ProvideProcessorFactory(
	disp *dispatch.Dispatcher,
	log *logger.Logger,
	m repository.Metrics,
	cfg *config.Config,
) (ProcessorFactory, error) {
	profitPct, stopPct := *cfg.Risk.ProfitPct, *cfg.Risk.StopPct
	periodRSI, periodEMA := *cfg.Indicators.PeriodRSI, *cfg.Indicators.PeriodEMA

	// validate risk parameters once; per-worker calculators share them
	if _, err := risk.NewCalculator(profitPct, stopPct, cfg.Risk.TickSize); err != nil {
		return nil, fmt.Errorf("risk calculator: %w", err)
	}

	strategyCfg := strategy.Config{
		LongThreshold:  *cfg.Strategy.LongThreshold,
		ShortThreshold: *cfg.Strategy.ShortThreshold,
	}

	return func() *usecase.Processor {
		calc, _ := risk.NewCalculator(profitPct, stopPct, cfg.Risk.TickSize)
		return usecase.NewProcessor(
			indicator.NewEngine(periodRSI, periodEMA),
			strategy.NewMachine(strategyCfg),
			calc,
			disp,
			log,
			m,
		)
	}, nil
}

// ProvideCollector creates the tick collector.
func ProvideCollector(
	stream repository.MarketStream,
	factory ProcessorFactory,
	log *logger.Logger,
	m repository.Metrics,
	cfg *config.Config,
) *usecase.Collector {
	return usecase.NewCollector(stream, factory, log, m,
		usecase.WithReconnectDelay(cfg.Feed.ReconnectDelay),
	)
}

// ProvideAPIHandler creates the operational HTTP API handler.
func ProvideAPIHandler(
	log *logger.Logger,
	recorder *usecase.EventRecorder,
	history repository.AlertHistory,
	stream repository.MarketStream,
) xhttp.Handler {
	return api.NewAlertsEchoHandler(log, recorder, history, stream)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	collector *usecase.Collector,
	disp *dispatch.Dispatcher,
	recorder *usecase.EventRecorder,
	handler xhttp.Handler,
	producer *pkgkafka.Producer,
	chClient *pkgch.Client,
	c cache.Service,
) *server.App {
	return server.New(cfg, log, collector, disp, recorder, handler, producer, chClient, c)
}
