// Command deploy compiles the circuit of a deploy alias, persists its keys,
// exports a solidity verifier and, when Solana is configured, anchors the verifying key.
//
// Usage:
//
//	deploy <deployAlias>
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/id-Mask/smart-contracts/internal/app"
	"github.com/id-Mask/smart-contracts/internal/config"
	"github.com/id-Mask/smart-contracts/internal/external"
	"github.com/id-Mask/smart-contracts/internal/zkp"
	"github.com/id-Mask/smart-contracts/pkg/logger"
	"github.com/id-Mask/smart-contracts/pkg/utilities"
)

type deployData struct {
	Program      string `json:"program"`
	Circuit      string `json:"circuit"`
	OracleKey    string `json:"oracleKey"`
	KeyDir       string `json:"keyDir"`
	Verifier     string `json:"solidityVerifier"`
	ProgramID    string `json:"programId,omitempty"`
	Account      string `json:"account,omitempty"`
	Signature    string `json:"signature,omitempty"`
	NbPublic     int    `json:"nbPublic"`
	NbConstraint int    `json:"nbConstraints"`
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Missing <deployAlias> argument.\n\nUsage:\n  deploy <deployAlias>")
		os.Exit(1)
	}

	logger.InitDefaultLogger(logger.GlobalLoggerConfig{
		Args:   []logger.LoggerArg{{Key: "application", Value: "deploy"}},
		Config: logger.LoggerConfig{Format: logger.FormatConsole},
	})

	if err := run(context.Background(), os.Args[1]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, aliasName string) error {
	cfg, err := utilities.ReadConfig[config.AppConfigJson, config.AppConfig](config.DefaultConfigPath)
	if err != nil {
		return err
	}
	alias, err := cfg.Alias(aliasName)
	if err != nil {
		return err
	}
	oracle, err := cfg.Oracle()
	if err != nil {
		return err
	}

	engine := app.NewEngine(cfg, oracle, logger.Default(), nil)
	compiled, err := engine.Compile(ctx, alias.Circuit)
	if err != nil {
		return fmt.Errorf("compile %s: %w", alias.Circuit, err)
	}

	solPath := filepath.Join(cfg.KeyDir, alias.Circuit.String(), "Verifier.sol")
	if err := writeSolidity(compiled, solPath); err != nil {
		return err
	}

	out := deployData{
		Program:      alias.Name,
		Circuit:      alias.Circuit.String(),
		OracleKey:    oracle.String(),
		KeyDir:       cfg.KeyDir,
		Verifier:     solPath,
		NbPublic:     compiled.NbPublic(),
		NbConstraint: compiled.CCS.GetNbConstraints(),
	}

	if alias.Ledger == config.LedgerSolana || external.SolanaConfigured(envFiles(alias.EnvFile)...) {
		solanaConfig, err := external.LoadSolanaKeys(envFiles(alias.EnvFile)...)
		if err != nil {
			return err
		}
		client := rpc.New(solanaConfig.RpcURL)
		if err := solanaConfig.ValidateProgramExecutable(ctx, client); err != nil {
			return err
		}

		vk, err := zkp.VerifyingKeyBytes(compiled.VK)
		if err != nil {
			return err
		}
		ledger := external.NewSolanaLedger(solanaConfig, client, logger.Default())
		anchor, err := ledger.AnchorVerifyingKey(ctx, alias.Circuit, oracle.String(), vk)
		if err != nil {
			return fmt.Errorf("anchor verifying key: %w", err)
		}
		out.ProgramID = solanaConfig.Keys.ContractPublicKey.String()
		out.Account = anchor.Account.String()
		out.Signature = anchor.Signature.String()
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func writeSolidity(c *zkp.CompiledCircuit, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return c.ExportSolidity(f)
}

func envFiles(file string) []string {
	if file == "" {
		return nil
	}
	return []string{file}
}
