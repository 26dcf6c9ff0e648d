package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/id-Mask/smart-contracts/internal/api"
	"github.com/id-Mask/smart-contracts/internal/app"
	"github.com/id-Mask/smart-contracts/internal/config"
	"github.com/id-Mask/smart-contracts/internal/external"
	"github.com/id-Mask/smart-contracts/internal/metrics"
	"github.com/id-Mask/smart-contracts/internal/verifier"
	"github.com/id-Mask/smart-contracts/internal/workers"
	"github.com/id-Mask/smart-contracts/pkg/appbuilder"
	"github.com/id-Mask/smart-contracts/pkg/logger"
	"github.com/id-Mask/smart-contracts/pkg/rabbitmq"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
)

const serviceName = "verifier-server"

func main() {
	configPath := config.DefaultConfigPath
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	// .env is optional; config.json references broker credentials from it
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	builder := appbuilder.New[config.AppConfigJson, config.AppConfig]().
		WithContext(ctx).
		InitLogger(logger.GlobalLoggerConfig{
			Args: []logger.LoggerArg{
				{Key: "application", Value: serviceName},
				{Key: "version", Value: "1.0.0"},
			},
		}).
		LoadConfig(configPath).
		InitRabbitmqConnection().
		InitRabbitmqRegistries()

	mainLogger := logger.Default()
	cfg := builder.Config()
	if level := cfg.GetLoggerConfig().LogLevel; level != zerolog.NoLevel {
		mainLogger.WithLevel(level)
	}

	// ----- RABBITMQ LOGGING SINK -----
	if logPublisher, ok := rabbitmq.GetPublisher("LogPublisher"); ok {
		logger.AddSinkToLoggerInstance(mainLogger, rabbitmq.CreateRabbitmqLoggerSink(serviceName, logPublisher))
	}

	// ----- ENGINE + LEDGERS -----
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	oracle, err := cfg.Oracle()
	if err != nil {
		mainLogger.Fatal(err, "Invalid oracle key")
	}
	engine := app.NewEngine(cfg, oracle, mainLogger, m)

	ledgers, err := app.BuildLedgers(app.LedgerOptions{
		Kinds:       cfg.Ledgers,
		EventsAlias: cfg.EventsAlias,
		Database:    cfg.DatabaseConf,
		Logger:      mainLogger,
	})
	if err != nil {
		mainLogger.Fatal(err, "Unable to set up ledgers")
	}
	contract := verifier.NewContract(engine, ledgers.Ledger, mainLogger.WithComponent("contract"), m)

	// ----- WORKERS -----
	var services []rabbitmq.WorkerService
	if worker, err := workers.NewProofVerificationWorker(contract, mainLogger); err == nil {
		services = append(services, worker)
	} else {
		mainLogger.Warnf("Proof verification worker disabled: %v", err)
	}
	if ledgers.Solana != nil {
		if sink, err := workers.NewLogSinkWorker(ledgers.Solana); err == nil {
			services = append(services, sink)
		}
		go reloadPayerOnHangup(ctx, ledgers.Solana.Config, mainLogger)
	}

	handler := &api.Handler{Verifier: contract, Events: ledgers.Events, Keys: engine, Metrics: m}

	application, err := builder.
		AddWorkerServices(services...).
		AddGinRoutes(handler.Routes()...).
		InitGinRouter().
		Build()
	if err != nil {
		mainLogger.Fatal(err, "Unable to build application")
	}

	if err := application.Start(ctx); err != nil {
		mainLogger.Fatal(err, "Application stopped")
	}
}

// reloadPayerOnHangup re-reads PAYER_KEYPAIR_PATH on SIGHUP.
func reloadPayerOnHangup(ctx context.Context, cfg *external.SharedSolanaConfig, l *logger.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := cfg.RotatePayer(os.Getenv("PAYER_KEYPAIR_PATH")); err != nil {
				l.Error(err, "Payer rotation failed, keeping the current key")
				continue
			}
			l.Infof("Rotated Solana payer to %s", cfg.Snapshot().AccountPublicKey)
		}
	}
}
