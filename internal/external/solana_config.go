package external

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/id-Mask/smart-contracts/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const (
	DefaultRpcURL     = rpc.LocalNet_RPC
	DefaultCommitment = rpc.CommitmentFinalized

	envProgramID  = "PROGRAM_ID"
	envPayerPath  = "PAYER_KEYPAIR_PATH"
	envRpcURL     = "SOLANA_RPC_URL"
	envCommitment = "SOLANA_COMMITMENT"
)

// Keys identify the verifier program and the payer that funds anchor accounts.
type Keys struct {
	ContractPublicKey solana.PublicKey
	AccountPublicKey  solana.PublicKey
	AccountPrivateKey solana.PrivateKey
}

// SharedSolanaConfig is read by every ledger transaction; Mu guards Keys so
// the payer can be rotated while the server runs.
type SharedSolanaConfig struct {
	Mu         sync.Mutex
	Keys       *Keys
	RpcURL     string
	Commitment rpc.CommitmentType
}

// SolanaConfigured reports whether PROGRAM_ID is set, after loading .env files.
func SolanaConfigured(envFiles ...string) bool {
	loadEnv(envFiles...)
	return os.Getenv(envProgramID) != ""
}

// LoadSolanaKeys reads the program id, payer keypair, rpc endpoint and
// commitment level from the environment. .env files fill in anything unset.
func LoadSolanaKeys(envFiles ...string) (*SharedSolanaConfig, error) {
	loadEnv(envFiles...)

	raw := os.Getenv(envProgramID)
	if raw == "" {
		return nil, errors.Errorf("%s env var is not set", envProgramID)
	}
	programID, err := solana.PublicKeyFromBase58(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid %s %q", envProgramID, raw)
	}

	payer, err := readPayer(os.Getenv(envPayerPath))
	if err != nil {
		return nil, err
	}

	commitment, err := parseCommitment(os.Getenv(envCommitment))
	if err != nil {
		return nil, err
	}

	cfg := &SharedSolanaConfig{
		Keys: &Keys{
			ContractPublicKey: programID,
			AccountPublicKey:  payer.PublicKey(),
			AccountPrivateKey: payer,
		},
		RpcURL:     envOr(envRpcURL, DefaultRpcURL),
		Commitment: commitment,
	}
	logger.OrDefault(nil).Debugf("Solana program %s, payer %s, rpc %s (%s)",
		programID, payer.PublicKey(), cfg.RpcURL, commitment)
	return cfg, nil
}

// readPayer loads a solana-keygen JSON file, defaulting to the CLI's keypair.
func readPayer(path string) (solana.PrivateKey, error) {
	if path == "" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, ".config", "solana", "id.json")
	}
	key, err := solana.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read payer keypair %s", path)
	}
	return key, nil
}

func parseCommitment(s string) (rpc.CommitmentType, error) {
	switch c := rpc.CommitmentType(s); c {
	case "":
		return DefaultCommitment, nil
	case rpc.CommitmentProcessed, rpc.CommitmentConfirmed, rpc.CommitmentFinalized:
		return c, nil
	default:
		return "", errors.Errorf("invalid %s %q", envCommitment, s)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func loadEnv(files ...string) {
	// godotenv never overrides variables already present; a missing file is fine
	_ = godotenv.Load(files...)
}

// Snapshot copies the current keys.
func (sc *SharedSolanaConfig) Snapshot() Keys {
	sc.Mu.Lock()
	defer sc.Mu.Unlock()
	return *sc.Keys
}

func (sc *SharedSolanaConfig) commitment() rpc.CommitmentType {
	if sc.Commitment == "" {
		return DefaultCommitment
	}
	return sc.Commitment
}

// RotatePayer swaps the payer keypair. Transactions already signed keep the
// previous key.
func (sc *SharedSolanaConfig) RotatePayer(path string) error {
	payer, err := readPayer(path)
	if err != nil {
		return err
	}
	sc.Mu.Lock()
	defer sc.Mu.Unlock()
	next := *sc.Keys
	next.AccountPrivateKey = payer
	next.AccountPublicKey = payer.PublicKey()
	sc.Keys = &next
	return nil
}

func (sc *SharedSolanaConfig) ValidateProgramExecutable(ctx context.Context, client AccountReader) error {
	program := sc.Snapshot().ContractPublicKey

	acc, err := client.GetAccountInfo(ctx, program)
	if err != nil {
		return errors.Wrap(err, "get program account")
	}
	if acc == nil || acc.Value == nil || !acc.Value.Executable {
		return errors.Errorf("%s is not an executable program account", program)
	}
	return nil
}
