package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/absmach/supermq/pkg/jaeger"
	"github.com/absmach/supermq/pkg/prometheus"
	"github.com/absmach/supermq/pkg/server"
	httpserver "github.com/absmach/supermq/pkg/server/http"
	"github.com/absmach/tabula/compute"
	computehttp "github.com/absmach/tabula/compute/http"
	"github.com/absmach/tabula/compute/local"
	"github.com/absmach/tabula/pkg/mqtt"
	"github.com/absmach/tabula/pkg/storage"
	"github.com/absmach/tabula/session"
	"github.com/absmach/tabula/session/api"
	"github.com/absmach/tabula/session/middleware"
	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"
)

const (
	svcName       = "tabula"
	defHTTPPort   = "7070"
	envPrefixHTTP = "TABULA_HTTP_"
	pathEnv       = ".env"
)

type envConfig struct {
	LogLevel       string        `env:"TABULA_LOG_LEVEL"        envDefault:"info"`
	InstanceID     string        `env:"TABULA_INSTANCE_ID"`
	ComputeURL     string        `env:"TABULA_COMPUTE_URL"`
	ComputeTimeout time.Duration `env:"TABULA_COMPUTE_TIMEOUT"  envDefault:"60s"`
	ComputeGzip    bool          `env:"TABULA_COMPUTE_GZIP"     envDefault:"false"`
	TrainerURL     string        `env:"TABULA_TRAINER_URL"`
	RetainOnServer bool          `env:"TABULA_RETAIN_ON_SERVER" envDefault:"false"`
	PreviewRows    int           `env:"TABULA_PREVIEW_ROWS"     envDefault:"20"`
	MQTTAddress    string        `env:"TABULA_MQTT_ADDRESS"`
	MQTTQoS        uint8         `env:"TABULA_MQTT_QOS"         envDefault:"1"`
	MQTTTimeout    time.Duration `env:"TABULA_MQTT_TIMEOUT"     envDefault:"30s"`
	MQTTID         string        `env:"TABULA_MQTT_ID"`
	MQTTUsername   string        `env:"TABULA_MQTT_USERNAME"`
	MQTTPassword   string        `env:"TABULA_MQTT_PASSWORD"`
	CORSOrigins    []string      `env:"TABULA_CORS_ORIGINS"     envSeparator:","`
	OTELURL        url.URL       `env:"TABULA_OTEL_URL"`
	TraceRatio     float64       `env:"TABULA_TRACE_RATIO"      envDefault:"0"`
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

	var tp trace.TracerProvider
	switch {
	case cfg.OTELURL == (url.URL{}):
		tp = noop.NewTracerProvider()
	default:
		sdktp, err := jaeger.NewProvider(ctx, svcName, cfg.OTELURL, cfg.InstanceID, cfg.TraceRatio)
		if err != nil {
			logger.Error("failed to initialize opentelemetry", slog.String("error", err.Error()))

			return
		}
		defer func() {
			if err := sdktp.Shutdown(ctx); err != nil {
				logger.Error("error shutting down tracer provider", slog.Any("error", err))
			}
		}()
		tp = sdktp
	}
	otel.SetTracerProvider(tp)
	tracer := tp.Tracer(svcName)

	var (
		computeSvc compute.Service
		trainer    compute.Trainer
	)
	switch cfg.ComputeURL {
	case "":
		logger.Info("no compute service configured, running stages in process")
		computeSvc = local.New(local.Config{})
	default:
		client := computehttp.NewClient(computehttp.Config{
			URL:        cfg.ComputeURL,
			TrainerURL: cfg.TrainerURL,
			Gzip:       cfg.ComputeGzip,
			HTTPClient: &http.Client{
				Timeout:   cfg.ComputeTimeout,
				Transport: otelhttp.NewTransport(http.DefaultTransport),
			},
			Logger: logger,
		})
		computeSvc = client
		trainer = client
	}
	if trainer == nil && cfg.TrainerURL != "" {
		trainer = computehttp.NewClient(computehttp.Config{
			URL:     cfg.TrainerURL,
			Timeout: cfg.ComputeTimeout,
			Logger:  logger,
		})
	}

	var publisher mqtt.Publisher
	if cfg.MQTTAddress != "" {
		mqttID := cfg.MQTTID
		if mqttID == "" {
			mqttID = svcName + "-" + cfg.InstanceID
		}
		ps, err := mqtt.NewPubSub(mqtt.Config{
			Address:    cfg.MQTTAddress,
			QoS:        cfg.MQTTQoS,
			ID:         mqttID,
			Username:   cfg.MQTTUsername,
			Password:   cfg.MQTTPassword,
			Timeout:    cfg.MQTTTimeout,
			InstanceID: cfg.InstanceID,
		}, logger)
		if err != nil {
			logger.Error("failed to initialize mqtt pubsub", slog.String("error", err.Error()))

			return
		}
		defer func() {
			if err := ps.Disconnect(context.Background()); err != nil {
				logger.Error("failed to disconnect mqtt pubsub", slog.Any("error", err))
			}
		}()
		publisher = ps
	}

	svc := session.NewService(
		session.Config{
			RetainOnServer: cfg.RetainOnServer,
			PreviewRows:    cfg.PreviewRows,
		},
		storage.NewInMemoryStorage(),
		computeSvc,
		trainer,
		publisher,
		logger,
	)
	svc = middleware.Logging(logger, svc)
	svc = middleware.Tracing(tracer, svc)
	counter, latency := prometheus.MakeMetrics(svcName, "api")
	svc = middleware.Metrics(counter, latency, svc)

	httpServerConfig := server.Config{Port: defHTTPPort}
	if err := env.ParseWithOptions(&httpServerConfig, env.Options{Prefix: envPrefixHTTP}); err != nil {
		logger.Error(fmt.Sprintf("failed to load %s HTTP server configuration : %s", svcName, err.Error()))

		return
	}

	hs := httpserver.NewServer(ctx, cancel, svcName, httpServerConfig, api.MakeHandler(svc, logger, cfg.InstanceID, cfg.CORSOrigins), logger)

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
