// Command exchanged runs the matching engine, the market-data pipeline,
// the Redis-backed publisher and the TCP order-entry listener as one
// process, wired together with a shared tomb for cooperative shutdown.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"clob/internal/config"
	"clob/internal/domain"
	"clob/internal/engine"
	"clob/internal/marketdata"
	"clob/internal/metrics"
	clobnet "clob/internal/net"
	"clob/internal/pipeline"
	"clob/internal/publisher"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if !cfg.Logging.Json {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	m := metrics.New()
	if cfg.Metrics.Enabled {
		go serveMetrics(cfg.Metrics.ListenAddr)
	}

	symbols := make([]domain.Symbol, len(cfg.Symbols))
	copy(symbols, cfg.Symbols)

	eng := engine.New(symbols, engine.WithMetrics(m))

	redisClient := redis.NewClient(&redis.Options{
		Addr:        cfg.Bus.Addr,
		Password:    cfg.Bus.Password,
		DB:          cfg.Bus.DB,
		DialTimeout: cfg.Bus.DialTimeout,
	})
	defer redisClient.Close()

	t, ctx := tomb.WithContext(ctx)

	bus := publisher.NewBus(t, redisClient,
		publisher.WithWorkers(cfg.Bus.Workers),
		publisher.WithQueueCapacity(cfg.Bus.QueueCapacity),
	)
	sink := publisher.NewSink()

	transformer := marketdata.NewTransformer(func() int64 { return time.Now().UnixMilli() })
	aggregator := marketdata.NewAggregator(cfg.Pipeline.DepthIntervalMs, func() int64 { return time.Now().UnixMilli() })

	pl := pipeline.New(eng.Events(), transformer, aggregator, []pipeline.NamedPublisher{
		{Name: "bus", Publisher: bus},
		{Name: "sink", Publisher: sink},
	}, pipeline.WithMetrics(m))

	ingress := clobnet.New(cfg.Ingress.ListenAddr, eng.Commands(), cfg.Ingress.Workers)

	t.Go(func() error { return eng.Run(t) })
	t.Go(func() error { return pl.Run(t) })
	t.Go(func() error { return ingress.Run(t) })

	log.Info().Strs("symbols", cfg.Symbols).Msg("exchange running")

	<-ctx.Done()
	t.Kill(nil)
	if err := t.Wait(); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error().Err(err).Msg("metrics server stopped")
	}
}
