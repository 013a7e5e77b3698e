package main

import (
	"context"
	"database/sql"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"shenanigigs/common/cache"
	"shenanigigs/common/cache/memory"
	"shenanigigs/common/cache/redis"
	"shenanigigs/common/database"
	"shenanigigs/common/telemetry"
	"shenanigigs/services/starschema/internal/config"
	"shenanigigs/services/starschema/internal/events"
	"shenanigigs/services/starschema/internal/metrics"
	"shenanigigs/services/starschema/internal/parser"
	"shenanigigs/services/starschema/internal/processor"
	"shenanigigs/services/starschema/internal/rules"
	"shenanigigs/services/starschema/internal/sink"
)

const serviceName = "starschema"

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.LogDevelopment {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func newRules(cfg *config.Config, logger *zap.Logger) (*rules.Set, error) {
	if cfg.RulesFile == "" {
		return rules.Default(), nil
	}
	logger.Info("Loading rule tables", zap.String("path", cfg.RulesFile))
	return rules.LoadFile(cfg.RulesFile)
}

func newParser(set *rules.Set, cfg *config.Config) *parser.Parser {
	return parser.New(set, parser.Options{
		DefaultCountry:  cfg.DefaultCountry,
		DefaultCurrency: cfg.DefaultCurrency,
	})
}

// newCache prefers Redis and falls back to an in-process cache. It returns a
// nil Cache when neither is configured.
func newCache(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (cache.Cache, error) {
	opts := cache.DefaultOptions()
	opts.DefaultTTL = cfg.CacheTTL

	var c cache.Cache
	switch {
	case cfg.RedisAddr != "":
		opts.RedisAddr = cfg.RedisAddr
		opts.RedisPassword = cfg.RedisPassword
		opts.RedisDB = cfg.RedisDB

		rc := redis.New(opts)
		if err := rc.Ping(context.Background()); err != nil {
			rc.Close()
			return nil, err
		}
		logger.Info("Enrichment cache enabled", zap.String("backend", "redis"), zap.String("addr", cfg.RedisAddr))
		c = rc
	case cfg.CacheCapacity > 0:
		opts.MemoryCapacity = uint64(cfg.CacheCapacity)
		logger.Info("Enrichment cache enabled", zap.String("backend", "memory"), zap.Int("capacity", cfg.CacheCapacity))
		c = memory.New(opts)
	default:
		return nil, nil
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return c.Close()
		},
	})
	return c, nil
}

func newNATSConnection(lc fx.Lifecycle, cfg *config.Config) (*nats.Conn, error) {
	if cfg.NATSURL == "" {
		return nil, nil
	}

	opts := []nats.Option{
		nats.Timeout(cfg.NATSConnTimeout),
		nats.Name("starschema-service"),
		nats.RetryOnFailedConnect(true),
	}
	nc, err := nats.Connect(cfg.NATSURL, opts...)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return nc.Drain()
		},
	})
	return nc, nil
}

func newPublisher(logger *zap.Logger, nc *nats.Conn, cfg *config.Config) events.Publisher {
	if nc == nil {
		return nil
	}
	return events.NewPublisher(logger, nc, cfg.NATSSubject)
}

func newWarehouse(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (*database.Database, error) {
	if cfg.ClickHouseAddr == "" {
		return nil, nil
	}

	db, err := database.New(context.Background(), database.Options{
		Addr:            cfg.ClickHouseAddr,
		Database:        cfg.ClickHouseDatabase,
		Username:        cfg.ClickHouseUsername,
		Password:        cfg.ClickHousePassword,
		MaxOpenConns:    cfg.ClickHouseMaxOpenConns,
		MaxIdleConns:    cfg.ClickHouseMaxIdleConns,
		ConnMaxLifetime: cfg.ClickHouseConnMaxLife,
	}, logger)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return db.Close()
		},
	})
	return db, nil
}

func newSQLite(lc fx.Lifecycle, cfg *config.Config) (*sql.DB, error) {
	if cfg.SQLitePath == "" {
		return nil, nil
	}

	db, err := sink.OpenSQLite(cfg.SQLitePath)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return db.Close()
		},
	})
	return db, nil
}

// newSinks lists the configured persistent sinks. The CSV export is added
// per run, since its directory can come from the request.
func newSinks(warehouse *database.Database, staging *sql.DB) []sink.Sink {
	var sinks []sink.Sink
	if staging != nil {
		sinks = append(sinks, sink.NewSQLiteSink(staging))
	}
	if warehouse != nil {
		sinks = append(sinks, sink.NewClickHouseSink(warehouse))
	}
	return sinks
}

func newPipeline(
	lc fx.Lifecycle,
	logger *zap.Logger,
	cfg *config.Config,
	p *parser.Parser,
	c cache.Cache,
	sinks []sink.Sink,
	publisher events.Publisher,
) *processor.Pipeline {
	pipeline := processor.NewPipeline(logger, cfg, p, c, sinks, publisher)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			pipeline.Close()
			return nil
		},
	})
	return pipeline
}

func newTracer() trace.Tracer {
	return telemetry.GetTracer("shenanigigs/starschema")
}

func registerTelemetry(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) {
	if cfg.OTELCollectorURL == "" {
		return
	}

	var shutdown func(context.Context) error
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			var err error
			shutdown, err = telemetry.InitTracer(ctx, telemetry.Options{
				ServiceName:  serviceName,
				CollectorURL: cfg.OTELCollectorURL,
			})
			if err != nil {
				return err
			}
			logger.Info("Tracing enabled", zap.String("collector", cfg.OTELCollectorURL))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if shutdown == nil {
				return nil
			}
			return shutdown(ctx)
		},
	})
}

func registerMetrics(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			return metrics.Serve(ctx, cfg.MetricsAddr, logger)
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}

func fxLogger(logger *zap.Logger) fxevent.Logger {
	return &fxevent.ZapLogger{Logger: logger.Named("fx")}
}

// pipelineModule wires everything a run needs around cfg.
func pipelineModule(cfg *config.Config) fx.Option {
	return fx.Options(
		fx.Supply(cfg),
		fx.WithLogger(fxLogger),
		fx.Provide(
			newLogger,
			newRules,
			newParser,
			newCache,
			newNATSConnection,
			newPublisher,
			newWarehouse,
			newSQLite,
			newSinks,
			newPipeline,
			newTracer,
		),
		fx.Invoke(
			registerTelemetry,
			registerMetrics,
		),
	)
}
