package verifier_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/consensys/gnark/backend/groth16"
	"github.com/id-Mask/smart-contracts/internal/claims"
	"github.com/id-Mask/smart-contracts/internal/mock"
	"github.com/id-Mask/smart-contracts/internal/verifier"
	"github.com/id-Mask/smart-contracts/internal/zkp"
	"github.com/id-Mask/smart-contracts/pkg/reasoncodes"
	"github.com/id-Mask/smart-contracts/pkg/utilities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	mu   sync.Mutex
	sent [][]byte
	err  error
}

func (p *fakePublisher) Publish(body utilities.Serializable) error {
	if p.err != nil {
		return p.err
	}
	data, err := body.Serialize()
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, data)
	return nil
}

type failingResolver struct{}

func (failingResolver) VerifyingKey(context.Context, claims.CircuitID) (groth16.VerifyingKey, error) {
	return nil, errors.New("key store offline")
}

func event(id string, circuit claims.CircuitID, sender string) verifier.Event {
	return verifier.Event{Name: verifier.ProvidedValidProof, ID: id, CircuitID: circuit, Sender: sender}
}

func TestMemoryLedgerCommitAndRollback(t *testing.T) {
	ledger := verifier.NewMemoryLedger()
	ctx := context.Background()

	tx, err := ledger.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Stage(event("1", claims.ProofOfAge, "alice")))
	assert.Empty(t, ledger.Events(""))
	require.NoError(t, tx.Commit())
	assert.ErrorIs(t, tx.Stage(event("x", claims.ProofOfAge, "alice")), verifier.ErrTxClosed)

	tx, err = ledger.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Stage(event("2", claims.ProofOfSanctions, "bob")))
	require.NoError(t, tx.Rollback())

	assert.Len(t, ledger.Events(""), 1)
	assert.Len(t, ledger.Events(claims.ProofOfAge), 1)
	assert.Empty(t, ledger.Events(claims.ProofOfSanctions))
	assert.True(t, ledger.HasValidProof("alice", claims.ProofOfAge))
	assert.False(t, ledger.HasValidProof("bob", claims.ProofOfSanctions))
}

func TestLedgerCommitHonorsCancelledContext(t *testing.T) {
	ledger := verifier.NewMemoryLedger()
	ctx, cancel := context.WithCancel(context.Background())

	tx, err := ledger.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Stage(event("1", claims.ProofOfAge, "alice")))
	cancel()

	assert.ErrorIs(t, tx.Commit(), context.Canceled)
	assert.Empty(t, ledger.Events(""))
}

func TestQueueLedgerPublishesOnCommit(t *testing.T) {
	pub := &fakePublisher{}
	ledger := verifier.NewQueueLedger(pub)

	tx, err := ledger.Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, tx.Stage(event("1", claims.ProofOfNationality, "alice")))
	assert.Empty(t, pub.sent)

	require.NoError(t, tx.Commit())
	require.Len(t, pub.sent, 1)
	assert.Contains(t, string(pub.sent[0]), `"name":"provided-valid-proof"`)
}

// hookLedger is a remote ledger whose commit runs a callback.
type hookLedger struct {
	onCommit func() error
	txs      []*hookTx
}

func (l *hookLedger) Begin(context.Context) (verifier.Tx, error) {
	tx := &hookTx{onCommit: l.onCommit}
	l.txs = append(l.txs, tx)
	return tx, nil
}

type hookTx struct {
	onCommit   func() error
	rolledBack bool
}

func (tx *hookTx) Stage(verifier.Event) error { return nil }
func (tx *hookTx) Commit() error { return tx.onCommit() }
func (tx *hookTx) Rollback() error { tx.rolledBack = true; return nil }

func TestMultiLedgerLeavesNoEventWhenAnyCommitFails(t *testing.T) {
	memory := verifier.NewMemoryLedger()
	later := verifier.NewMemoryLedger()
	failing := verifier.NewQueueLedger(&fakePublisher{err: errors.New("solana send failed")})
	ledger := verifier.NewMultiLedger(memory, failing, later)

	tx, err := ledger.Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, tx.Stage(event("1", claims.ProofOfAge, "alice")))

	assert.Error(t, tx.Commit())
	require.NoError(t, tx.Rollback())
	assert.Empty(t, memory.Events(""))
	assert.Empty(t, later.Events(""))
	assert.False(t, memory.HasValidProof("alice", claims.ProofOfAge))
}

func TestMultiLedgerCommitsLocalLedgersLast(t *testing.T) {
	memory := verifier.NewMemoryLedger()
	var visibleDuringRemoteCommit int
	remote := &hookLedger{onCommit: func() error {
		visibleDuringRemoteCommit = len(memory.Events(""))
		return nil
	}}
	pub := &fakePublisher{}
	ledger := verifier.NewMultiLedger(memory, remote, verifier.NewQueueLedger(pub))

	tx, err := ledger.Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, tx.Stage(event("1", claims.ProofOfIdentity, "alice")))
	require.NoError(t, tx.Commit())
	assert.ErrorIs(t, tx.Commit(), verifier.ErrTxClosed)

	assert.Zero(t, visibleDuringRemoteCommit)
	assert.Len(t, pub.sent, 1)
	assert.True(t, memory.HasValidProof("alice", claims.ProofOfIdentity))
}

func TestMultiLedgerRollsBackRemotesAfterAFailure(t *testing.T) {
	memory := verifier.NewMemoryLedger()
	first := &hookLedger{onCommit: func() error { return errors.New("rpc unavailable") }}
	second := &hookLedger{onCommit: func() error { return nil }}
	ledger := verifier.NewMultiLedger(memory, first, second)

	tx, err := ledger.Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, tx.Stage(event("1", claims.ProofOfAge, "alice")))
	assert.EqualError(t, tx.Commit(), "rpc unavailable")

	require.Len(t, second.txs, 1)
	assert.True(t, second.txs[0].rolledBack)
	assert.Empty(t, memory.Events(""))
}

func TestVerifyProofRejectsBeforeTouchingLedger(t *testing.T) {
	ledger := verifier.NewMemoryLedger()
	fx := mock.NewFixture()
	contract := verifier.NewContract(zkp.NewEngine(fx.OracleKey()), ledger, nil, nil)
	ctx := context.Background()

	_, err := contract.VerifyProof(ctx, "", zkp.ProofJSON{CircuitID: "ProofOfAge"})
	assert.Equal(t, reasoncodes.ErrMalformedInput, reasoncodes.CodeOf(err, ""))

	_, err = contract.VerifyProof(ctx, "alice", zkp.ProofJSON{CircuitID: "ProofOfWealth"})
	assert.Equal(t, reasoncodes.ErrUnsupportedCircuit, reasoncodes.CodeOf(err, ""))

	offline := verifier.NewContract(failingResolver{}, ledger, nil, nil)
	_, err = offline.VerifyProof(ctx, "alice", zkp.ProofJSON{CircuitID: "ProofOfAge"})
	assert.Equal(t, reasoncodes.ErrVerifierResolution, reasoncodes.CodeOf(err, ""))

	assert.Empty(t, ledger.Events(""))
}

func TestVerifyProofEmitsEventOnlyForValidProofs(t *testing.T) {
	if testing.Short() {
		t.Skip("groth16 setup is slow")
	}

	fx := mock.NewFixture()
	engine := zkp.NewEngine(fx.OracleKey())
	ledger := verifier.NewMemoryLedger()
	contract := verifier.NewContract(engine, ledger, nil, nil)
	ctx := context.Background()

	req, err := fx.NationalityRequest()
	require.NoError(t, err)
	result, err := engine.Prove(ctx, req)
	require.NoError(t, err)
	proof, err := result.ToJSON()
	require.NoError(t, err)

	ev, err := contract.VerifyProof(ctx, "alice", proof)
	require.NoError(t, err)
	assert.Equal(t, verifier.ProvidedValidProof, ev.Name)
	assert.Equal(t, claims.ProofOfNationality, ev.CircuitID)
	assert.NotEmpty(t, ev.ID)
	assert.NotEmpty(t, ev.Proof)

	expected, err := req.Output()
	require.NoError(t, err)
	assert.Equal(t, expected.Fields(), ev.PublicOutput.Fields())
	assert.True(t, ledger.HasValidProof("alice", claims.ProofOfNationality))

	tampered := proof
	tampered.PublicOutput = append([]string{}, proof.PublicOutput...)
	tampered.PublicOutput[1] = "20990101"
	_, err = contract.VerifyProof(ctx, "mallory", tampered)
	assert.Equal(t, reasoncodes.ErrProofVerification, reasoncodes.CodeOf(err, ""))
	assert.False(t, ledger.HasValidProof("mallory", claims.ProofOfNationality))
	assert.Len(t, ledger.Events(""), 1)
}
