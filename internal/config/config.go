package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/id-Mask/smart-contracts/internal/claims"
	"github.com/id-Mask/smart-contracts/internal/database"
	"github.com/id-Mask/smart-contracts/internal/mock"
	"github.com/id-Mask/smart-contracts/internal/sigchain"
	"github.com/id-Mask/smart-contracts/pkg/logger"
	"github.com/id-Mask/smart-contracts/pkg/rabbitmq"
	"github.com/id-Mask/smart-contracts/pkg/utilities"
)

const (
	DefaultConfigPath = "config.json"
	DefaultKeyDir     = "keys"
	DefaultRestPort   = 9000

	// MockOracle selects the deterministic mock oracle key.
	MockOracle = "mock"
)

type LedgerKind string

const (
	LedgerMemory   LedgerKind = "memory"
	LedgerDatabase LedgerKind = "database"
	LedgerQueue    LedgerKind = "queue"
	LedgerSolana   LedgerKind = "solana"
)

type AppConfigJson struct {
	LoggerConf    logger.LoggerConfigJson     `json:"logger"`
	RabbitmqConf  rabbitmq.RabbimqConfigJson  `json:"rabbitmq"`
	RestConf      RestConfigJson              `json:"rest"`
	DatabaseConf  database.DatabaseConfigJson `json:"database"`
	OracleKey     string                      `json:"oracle_key"`
	KeyDir        string                      `json:"key_dir"`
	Ledgers       []string                    `json:"ledgers"`
	EventsAlias   string                      `json:"events_publisher_alias"`
	DeployAliases map[string]DeployAliasJson  `json:"deploy_aliases"`
}

type AppConfig struct {
	LoggerConf    logger.LoggerConfig
	RabbitmqConf  rabbitmq.RabbitmqConfig
	RestConf      RestConfig
	DatabaseConf  database.DatabaseConfig
	OracleKey     string
	KeyDir        string
	Ledgers       []LedgerKind
	EventsAlias   rabbitmq.PublisherAlias
	DeployAliases map[string]DeployAlias
}

func (acj AppConfigJson) ConvertToDomain() AppConfig {
	keyDir := acj.KeyDir
	if keyDir == "" {
		keyDir = DefaultKeyDir
	}

	ledgers := make([]LedgerKind, 0, len(acj.Ledgers))
	for _, l := range acj.Ledgers {
		ledgers = append(ledgers, LedgerKind(strings.ToLower(l)))
	}
	if len(ledgers) == 0 {
		ledgers = []LedgerKind{LedgerMemory}
	}

	return AppConfig{
		LoggerConf:    acj.LoggerConf.ConvertToDomain(),
		RabbitmqConf:  acj.RabbitmqConf.ConvertToDomain(),
		RestConf:      acj.RestConf.ConvertToDomain(),
		DatabaseConf:  acj.DatabaseConf.ConvertToDomain(),
		OracleKey:     acj.OracleKey,
		KeyDir:        keyDir,
		Ledgers:       ledgers,
		EventsAlias:   rabbitmq.PublisherAlias(acj.EventsAlias),
		DeployAliases: utilities.ConvertJsonMapToDomain[DeployAliasJson, DeployAlias](acj.DeployAliases),
	}
}

func (ac AppConfig) GetLoggerConfig() logger.LoggerConfig {
	return ac.LoggerConf
}

func (ac AppConfig) GetRabbitmqConfig() rabbitmq.RabbitmqConfig {
	return ac.RabbitmqConf
}

func (ac AppConfig) GetRestApiPort() uint16 {
	return ac.RestConf.Port
}

// Oracle resolves the configured oracle key: empty for the production key,
// "mock" for the mock oracle, otherwise a base58 key.
func (ac AppConfig) Oracle() (sigchain.OracleKey, error) {
	switch ac.OracleKey {
	case "":
		return sigchain.DefaultOracleKey(), nil
	case MockOracle:
		return mock.NewFixture().OracleKey(), nil
	default:
		key, err := sigchain.ParseOracleKey(ac.OracleKey)
		if err != nil {
			return sigchain.OracleKey{}, fmt.Errorf("oracle_key: %w", err)
		}
		return key, nil
	}
}

// Alias returns the named deploy alias with its circuit id checked.
func (ac AppConfig) Alias(name string) (DeployAlias, error) {
	alias, ok := ac.DeployAliases[name]
	if !ok {
		known := make([]string, 0, len(ac.DeployAliases))
		for k := range ac.DeployAliases {
			known = append(known, k)
		}
		sort.Strings(known)
		return DeployAlias{}, fmt.Errorf("unknown deploy alias %q, configured: %s", name, strings.Join(known, ", "))
	}
	if _, err := claims.ParseCircuitID(alias.Circuit.String()); err != nil {
		return DeployAlias{}, fmt.Errorf("deploy alias %q: %w", name, err)
	}
	alias.Name = name
	return alias, nil
}

type RestConfigJson struct {
	Port uint16 `json:"port"`
}

type RestConfig struct {
	Port uint16
}

func (rcj RestConfigJson) ConvertToDomain() RestConfig {
	port := rcj.Port
	if port == 0 {
		port = DefaultRestPort
	}
	return RestConfig{Port: port}
}

type DeployAliasJson struct {
	Circuit string `json:"circuit"`
	Ledger  string `json:"ledger"`
	EnvFile string `json:"env_file"`
}

type DeployAlias struct {
	Name    string
	Circuit claims.CircuitID
	Ledger  LedgerKind
	EnvFile string
}

func (daj DeployAliasJson) ConvertToDomain() DeployAlias {
	ledger := LedgerKind(strings.ToLower(daj.Ledger))
	if ledger == "" {
		ledger = LedgerMemory
	}
	return DeployAlias{
		Circuit: claims.CircuitID(daj.Circuit),
		Ledger:  ledger,
		EnvFile: daj.EnvFile,
	}
}
