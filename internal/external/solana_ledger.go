package external

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/id-Mask/smart-contracts/internal/claims"
	"github.com/id-Mask/smart-contracts/internal/verifier"
	"github.com/id-Mask/smart-contracts/pkg/logger"
	"github.com/near/borsh-go"
)

const logPrefix = "LOG:"

// AccountReader is the read side of *rpc.Client used here.
type AccountReader interface {
	GetAccountInfo(ctx context.Context, account solana.PublicKey) (*rpc.GetAccountInfoResult, error)
}

// RpcClient is the part of *rpc.Client the ledger needs.
type RpcClient interface {
	AccountReader
	GetMinimumBalanceForRentExemption(ctx context.Context, dataSize uint64, commitment rpc.CommitmentType) (uint64, error)
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
	SimulateTransaction(ctx context.Context, tx *solana.Transaction) (*rpc.SimulateTransactionResponse, error)
	SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error)
}

// Anchor identifies the account holding an anchored record.
type Anchor struct {
	Account   solana.PublicKey
	Signature solana.Signature
}

// anchoredEvent is the on-chain record of a verified proof.
type anchoredEvent struct {
	Name         string   `borsh:"name"`
	ID           string   `borsh:"id"`
	CircuitID    string   `borsh:"circuit_id"`
	Sender       string   `borsh:"sender"`
	PublicInput  []string `borsh:"public_input"`
	PublicOutput []string `borsh:"public_output"`
	Timestamp    int64    `borsh:"timestamp"`
	Proof        []byte   `borsh:"proof"`
}

type anchoredVerifyingKey struct {
	CircuitID    string `borsh:"circuit_id"`
	OracleKey    string `borsh:"oracle_key"`
	VerifyingKey []byte `borsh:"verifying_key"`
}

func serializeEvent(e verifier.Event) ([]byte, error) {
	fields := e.PublicOutput.Fields()
	output := make([]string, len(fields))
	for i, f := range fields {
		output[i] = f.String()
	}

	return borsh.Serialize(anchoredEvent{
		Name:         e.Name,
		ID:           e.ID,
		CircuitID:    e.CircuitID.String(),
		Sender:       e.Sender,
		PublicInput:  append([]string{}, e.PublicInput...),
		PublicOutput: output,
		Timestamp:    e.Timestamp.T,
		Proof:        e.Proof,
	})
}

// SolanaLedger anchors every committed event in a fresh account owned by the program.
type SolanaLedger struct {
	Config    *SharedSolanaConfig
	RpcClient RpcClient
	logger    *logger.Logger
	anchored  func(verifier.Event, Anchor)
}

func NewSolanaLedger(cfg *SharedSolanaConfig, client RpcClient, l *logger.Logger) *SolanaLedger {
	return &SolanaLedger{Config: cfg, RpcClient: client, logger: logger.OrDefault(l)}
}

// OnAnchored registers a callback run after each event lands on chain.
func (sl *SolanaLedger) OnAnchored(fn func(verifier.Event, Anchor)) {
	sl.anchored = fn
}

func (sl *SolanaLedger) Begin(ctx context.Context) (verifier.Tx, error) {
	return &solanaTx{ctx: ctx, ledger: sl}, nil
}

// AnchorVerifyingKey stores a circuit's verifying key on chain.
func (sl *SolanaLedger) AnchorVerifyingKey(ctx context.Context, id claims.CircuitID, oracle string, vk []byte) (Anchor, error) {
	data, err := borsh.Serialize(anchoredVerifyingKey{CircuitID: id.String(), OracleKey: oracle, VerifyingKey: vk})
	if err != nil {
		return Anchor{}, err
	}
	return sl.createAndPopulateAccount(ctx, data)
}

type solanaTx struct {
	ctx    context.Context
	ledger *SolanaLedger
	events []verifier.Event
	closed bool
}

func (tx *solanaTx) Stage(event verifier.Event) error {
	if tx.closed {
		return verifier.ErrTxClosed
	}
	tx.events = append(tx.events, event)
	return nil
}

func (tx *solanaTx) Commit() error {
	if tx.closed {
		return verifier.ErrTxClosed
	}
	tx.closed = true

	for _, e := range tx.events {
		data, err := serializeEvent(e)
		if err != nil {
			return fmt.Errorf("serialize event %s: %w", e.ID, err)
		}
		anchor, err := tx.ledger.createAndPopulateAccount(tx.ctx, data)
		if err != nil {
			return fmt.Errorf("anchor event %s: %w", e.ID, err)
		}
		if tx.ledger.anchored != nil {
			tx.ledger.anchored(e, anchor)
		}
	}
	return nil
}

func (tx *solanaTx) Rollback() error {
	tx.closed = true
	tx.events = nil
	return nil
}

// createAndPopulateAccount creates a new account and stores data in it in one transaction.
func (sl *SolanaLedger) createAndPopulateAccount(ctx context.Context, data []byte) (Anchor, error) {
	space := calculateRequiredAccountSpace(len(data))

	rent, err := sl.RpcClient.GetMinimumBalanceForRentExemption(ctx, space, sl.Config.commitment())
	if err != nil {
		return Anchor{}, fmt.Errorf("rent exemption: %w", err)
	}
	sl.logger.Debugf("Data size: %d bytes, allocated space: %d bytes, rent: %d lamports", len(data), space, rent)

	newAccount, err := solana.NewRandomPrivateKey()
	if err != nil {
		return Anchor{}, err
	}

	keys := sl.Config.Snapshot()

	createAccountInstruction := system.NewCreateAccountInstruction(
		rent,
		space,
		keys.ContractPublicKey, // owner = ProgramID
		keys.AccountPublicKey,  // payer (FROM)
		newAccount.PublicKey(), // new account (NEW)
	).Build()

	storeInstruction := solana.NewInstruction(
		keys.ContractPublicKey,
		[]*solana.AccountMeta{
			solana.NewAccountMeta(newAccount.PublicKey(), true, false),
			solana.NewAccountMeta(keys.AccountPublicKey, true, true),
		},
		data,
	)

	signature, err := sl.sendTransaction(ctx, keys, []solana.Instruction{createAccountInstruction, storeInstruction}, newAccount)
	if err != nil {
		return Anchor{}, err
	}

	sl.logger.Infof("Anchored %d bytes in account %s, signature %s", len(data), newAccount.PublicKey(), signature)
	return Anchor{Account: newAccount.PublicKey(), Signature: signature}, nil
}

// AnchorLog records a log line in the program's transaction log, without an account.
func (sl *SolanaLedger) AnchorLog(ctx context.Context, data []byte) (solana.Signature, error) {
	keys := sl.Config.Snapshot()

	logInstruction := solana.NewInstruction(
		keys.ContractPublicKey,
		[]*solana.AccountMeta{solana.NewAccountMeta(keys.AccountPublicKey, true, true)},
		append([]byte(logPrefix), data...),
	)
	return sl.sendTransaction(ctx, keys, []solana.Instruction{logInstruction})
}

// sendTransaction signs with the payer and any extra signers, simulates, then sends.
func (sl *SolanaLedger) sendTransaction(ctx context.Context, keys Keys, instructions []solana.Instruction, signers ...solana.PrivateKey) (solana.Signature, error) {
	latest, err := sl.RpcClient.GetLatestBlockhash(ctx, sl.Config.commitment())
	if err != nil {
		return solana.Signature{}, fmt.Errorf("latest blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(instructions, latest.Value.Blockhash, solana.TransactionPayer(keys.AccountPublicKey))
	if err != nil {
		return solana.Signature{}, err
	}

	_, err = tx.Sign(func(pk solana.PublicKey) *solana.PrivateKey {
		if pk.Equals(keys.AccountPublicKey) {
			return &keys.AccountPrivateKey
		}
		for i := range signers {
			if pk.Equals(signers[i].PublicKey()) {
				return &signers[i]
			}
		}
		return nil
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("sign: %w", err)
	}

	sim, err := sl.RpcClient.SimulateTransaction(ctx, tx)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("simulate call: %w", err)
	}
	if sim.Value != nil && sim.Value.Err != nil {
		for _, l := range sim.Value.Logs {
			sl.logger.Debug(l)
		}
		return solana.Signature{}, fmt.Errorf("simulate err: %+v", sim.Value.Err)
	}

	signature, err := sl.RpcClient.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       false,
		PreflightCommitment: sl.Config.commitment(),
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("send transaction: %w", err)
	}
	return signature, nil
}

// calculateRequiredAccountSpace leaves room for account metadata, rounded to 8 bytes, at least 2048.
func calculateRequiredAccountSpace(dataSize int) uint64 {
	var totalSize int
	switch {
	case dataSize > 10000:
		totalSize = dataSize * 3 / 2
	case dataSize > 1000:
		totalSize = dataSize + 2048
	default:
		totalSize = dataSize + 1024
	}

	if totalSize%8 != 0 {
		totalSize += 8 - totalSize%8
	}
	if totalSize < 2048 {
		totalSize = 2048
	}
	return uint64(totalSize)
}
