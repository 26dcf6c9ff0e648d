// Command interact proves a mock claim for a deploy alias and submits it to
// the alias's ledger, printing the resulting event.
//
// Usage:
//
//	interact <deployAlias>
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/id-Mask/smart-contracts/internal/app"
	"github.com/id-Mask/smart-contracts/internal/attribute"
	"github.com/id-Mask/smart-contracts/internal/config"
	"github.com/id-Mask/smart-contracts/internal/mock"
	"github.com/id-Mask/smart-contracts/internal/verifier"
	"github.com/id-Mask/smart-contracts/pkg/logger"
	"github.com/id-Mask/smart-contracts/pkg/rabbitmq"
	"github.com/id-Mask/smart-contracts/pkg/utilities"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Missing <deployAlias> argument.\n\nUsage:\n  interact <deployAlias>")
		os.Exit(1)
	}

	logger.InitDefaultLogger(logger.GlobalLoggerConfig{
		Args:   []logger.LoggerArg{{Key: "application", Value: "interact"}},
		Config: logger.LoggerConfig{Format: logger.FormatConsole},
	})

	if err := run(context.Background(), os.Args[1]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, aliasName string) error {
	log := logger.Default()

	cfg, err := utilities.ReadConfig[config.AppConfigJson, config.AppConfig](config.DefaultConfigPath)
	if err != nil {
		return err
	}
	alias, err := cfg.Alias(aliasName)
	if err != nil {
		return err
	}

	fx := mock.NewFixture()
	if configured, err := cfg.Oracle(); err == nil && !configured.Equal(fx.OracleKey()) {
		log.Warnf("Configured oracle key differs from the mock oracle, proving against the mock key %s", fx.OracleKey())
	}

	if alias.Ledger == config.LedgerQueue {
		rabbitmqConfig := cfg.GetRabbitmqConfig()
		conn, err := rabbitmq.Connect(ctx, rabbitmqConfig)
		if err != nil {
			return err
		}
		defer conn.Close()
		if err := rabbitmq.InitializePublisherRegistry(conn, rabbitmqConfig.PublishersConfig); err != nil {
			return err
		}
	}

	ledgers, err := app.BuildLedgers(app.LedgerOptions{
		Kinds:       []config.LedgerKind{alias.Ledger},
		EventsAlias: cfg.EventsAlias,
		EnvFile:     alias.EnvFile,
		Database:    cfg.DatabaseConf,
		Logger:      log,
	})
	if err != nil {
		return err
	}

	req, err := fx.Request(alias.Circuit)
	if err != nil {
		return err
	}

	engine := app.NewEngine(cfg, fx.OracleKey(), log, nil)
	log.Infof("Proving %s with mock data...", alias.Circuit)
	result, err := engine.Prove(ctx, req)
	if err != nil {
		return fmt.Errorf("prove %s: %w", alias.Circuit, err)
	}
	proof, err := result.ToJSON()
	if err != nil {
		return err
	}

	contract := verifier.NewContract(engine, ledgers.Ledger, log, nil)
	sender := attribute.EncodePublicKey(fx.Holder.PublicKey())
	event, err := contract.VerifyProof(ctx, sender, proof)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(event)
}
