// Package app assembles the engine and ledgers from configuration for the commands.
package app

import (
	"fmt"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/id-Mask/smart-contracts/internal/config"
	"github.com/id-Mask/smart-contracts/internal/database"
	"github.com/id-Mask/smart-contracts/internal/external"
	"github.com/id-Mask/smart-contracts/internal/metrics"
	"github.com/id-Mask/smart-contracts/internal/sigchain"
	"github.com/id-Mask/smart-contracts/internal/verifier"
	"github.com/id-Mask/smart-contracts/internal/zkp"
	"github.com/id-Mask/smart-contracts/pkg/logger"
	"github.com/id-Mask/smart-contracts/pkg/rabbitmq"
)

func NewEngine(cfg config.AppConfig, oracle sigchain.OracleKey, l *logger.Logger, m *metrics.Metrics) *zkp.Engine {
	return zkp.NewEngine(oracle,
		zkp.WithKeyDir(cfg.KeyDir),
		zkp.WithLogger(logger.OrDefault(l).WithComponent("zkp")),
		zkp.WithMetrics(m),
	)
}

// Ledgers is the assembled event sink. Memory is always present; Events
// answers queries from the database when one is configured, else from Memory.
type Ledgers struct {
	Ledger     verifier.Ledger
	Memory     *verifier.MemoryLedger
	Repository *verifier.EventRepository
	Solana     *external.SolanaLedger
	Events     verifier.EventSource
}

type LedgerOptions struct {
	Kinds       []config.LedgerKind
	EventsAlias rabbitmq.PublisherAlias
	EnvFile     string
	Database    database.DatabaseConfig
	Logger      *logger.Logger
}

// BuildLedgers wires the configured ledgers. Remote ledgers commit Solana
// first, since a failed RPC is likelier than a failed publish.
func BuildLedgers(opts LedgerOptions) (Ledgers, error) {
	l := logger.OrDefault(opts.Logger)
	out := Ledgers{Memory: verifier.NewMemoryLedger()}
	out.Events = out.Memory
	local := []verifier.Ledger{out.Memory}
	var solanaLedger, queueLedger verifier.Ledger

	for _, kind := range opts.Kinds {
		switch kind {
		case config.LedgerMemory:
		case config.LedgerDatabase:
			db, err := database.Connect(opts.Database, l)
			if err != nil {
				return Ledgers{}, fmt.Errorf("database ledger: %w", err)
			}
			out.Repository = verifier.NewEventRepository(db)
			if err := out.Repository.Migrate(); err != nil {
				return Ledgers{}, fmt.Errorf("database ledger: %w", err)
			}
			out.Events = out.Repository
			local = append(local, out.Repository)
		case config.LedgerQueue:
			publisher, ok := rabbitmq.GetPublisher(opts.EventsAlias)
			if !ok {
				return Ledgers{}, fmt.Errorf("queue ledger: %w", rabbitmq.UnknownAliasError(string(opts.EventsAlias)))
			}
			queueLedger = verifier.NewQueueLedger(publisher)
		case config.LedgerSolana:
			solanaConfig, err := external.LoadSolanaKeys(envFiles(opts.EnvFile)...)
			if err != nil {
				return Ledgers{}, fmt.Errorf("solana ledger: %w", err)
			}
			out.Solana = external.NewSolanaLedger(solanaConfig, rpc.New(solanaConfig.RpcURL), l.WithComponent("solana"))
			solanaLedger = out.Solana
		default:
			return Ledgers{}, fmt.Errorf("unknown ledger %q", kind)
		}
	}

	ledgers := local
	for _, remote := range []verifier.Ledger{solanaLedger, queueLedger} {
		if remote != nil {
			ledgers = append(ledgers, remote)
		}
	}

	if len(ledgers) == 1 {
		out.Ledger = out.Memory
	} else {
		out.Ledger = verifier.NewMultiLedger(ledgers...)
	}
	l.Infof("Ledgers: %v", opts.Kinds)
	return out, nil
}

func envFiles(file string) []string {
	if file == "" {
		return nil
	}
	return []string{file}
}
