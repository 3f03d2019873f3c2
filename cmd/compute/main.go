package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/url"
	"os"

	"github.com/absmach/supermq/pkg/jaeger"
	"github.com/absmach/supermq/pkg/server"
	httpserver "github.com/absmach/supermq/pkg/server/http"
	"github.com/absmach/tabula/compute/api"
	"github.com/absmach/tabula/compute/local"
	"github.com/absmach/tabula/pkg/storage"
	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"
)

const (
	svcName       = "compute"
	defHTTPPort   = "5000"
	envPrefix     = "COMPUTE_"
	envPrefixHTTP = "COMPUTE_HTTP_"
	pathEnv       = ".env"
)

type envConfig struct {
	LogLevel   string  `env:"COMPUTE_LOG_LEVEL"   envDefault:"info"`
	InstanceID string  `env:"COMPUTE_INSTANCE_ID"`
	SplitSeed  uint64  `env:"COMPUTE_SPLIT_SEED"  envDefault:"42"`
	OTELURL    url.URL `env:"COMPUTE_OTEL_URL"`
	TraceRatio float64 `env:"COMPUTE_TRACE_RATIO" envDefault:"0"`
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)

	if _, err := os.Stat(pathEnv); err == nil {
		_ = godotenv.Load(pathEnv)
	}

	cfg := envConfig{}
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("failed to load configuration : %s", err.Error())
	}

	if cfg.InstanceID == "" {
		cfg.InstanceID = uuid.NewString()
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		log.Fatalf("failed to parse log level: %s", err.Error())
	}
	logHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	if cfg.OTELURL != (url.URL{}) {
		tp, err := jaeger.NewProvider(ctx, svcName, cfg.OTELURL, cfg.InstanceID, cfg.TraceRatio)
		if err != nil {
			logger.Error("failed to initialize opentelemetry", slog.String("error", err.Error()))

			return
		}
		defer func() {
			if err := tp.Shutdown(ctx); err != nil {
				logger.Error("error shutting down tracer provider", slog.Any("error", err))
			}
		}()
		otel.SetTracerProvider(tp)
	}

	storageCfg := storage.Config{}
	if err := env.ParseWithOptions(&storageCfg, env.Options{Prefix: envPrefix}); err != nil {
		logger.Error(fmt.Sprintf("failed to load %s storage configuration : %s", svcName, err.Error()))

		return
	}
	datasets, err := storage.New(storageCfg)
	if err != nil {
		logger.Error("failed to initialize dataset storage", slog.String("error", err.Error()))

		return
	}
	if c, ok := datasets.(io.Closer); ok {
		defer func() {
			if err := c.Close(); err != nil {
				logger.Error("failed to close dataset storage", slog.Any("error", err))
			}
		}()
	}
	logger.Info("dataset storage initialized", slog.String("type", storageCfg.Type))

	engine := local.New(local.Config{
		Seed:     cfg.SplitSeed,
		Datasets: datasets,
	})

	httpServerConfig := server.Config{Port: defHTTPPort}
	if err := env.ParseWithOptions(&httpServerConfig, env.Options{Prefix: envPrefixHTTP}); err != nil {
		logger.Error(fmt.Sprintf("failed to load %s HTTP server configuration : %s", svcName, err.Error()))

		return
	}

	hs := httpserver.NewServer(ctx, cancel, svcName, httpServerConfig, api.MakeHandler(engine, logger, cfg.InstanceID), logger)

	g.Go(func() error {
		return hs.Start()
	})

	g.Go(func() error {
		return server.StopSignalHandler(ctx, cancel, logger, svcName, hs)
	})

	if err := g.Wait(); err != nil {
		logger.Error(fmt.Sprintf("%s service exited with error: %s", svcName, err))
	}
}
