package verifier_test

import (
	"context"
	"errors"
	"math/big"
	"path/filepath"
	"testing"

	"github.com/id-Mask/smart-contracts/internal/claims"
	"github.com/id-Mask/smart-contracts/internal/database"
	"github.com/id-Mask/smart-contracts/internal/verifier"
	"github.com/id-Mask/smart-contracts/pkg/logger"
	"github.com/id-Mask/smart-contracts/pkg/utilities/timeutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepository(t *testing.T, path string) *verifier.EventRepository {
	t.Helper()
	db, err := database.Connect(database.DatabaseConfig{Driver: database.DriverSqlite, DSN: path}, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	repo := verifier.NewEventRepository(db)
	require.NoError(t, repo.Migrate())
	return repo
}

func storedEvent(id string, circuit claims.CircuitID, sender string) verifier.Event {
	e := event(id, circuit, sender)
	e.PublicInput = []string{"18"}
	e.PublicOutput = claims.Output{Version: claims.OutputVersion, Result: big.NewInt(18)}
	e.Timestamp = timeutil.TimeUTC{T: 1700000000}
	e.Proof = []byte{1, 2, 3}
	return e
}

func TestEventRepositoryPersistsCommittedEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.db")
	repo := newRepository(t, path)
	ctx := context.Background()

	tx, err := repo.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Stage(storedEvent("1", claims.ProofOfAge, "alice")))
	require.NoError(t, tx.Commit())

	tx, err = repo.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Stage(storedEvent("2", claims.ProofOfSanctions, "bob")))
	require.NoError(t, tx.Rollback())

	reopened := newRepository(t, path)
	events, err := reopened.ListEvents(ctx, "")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "alice", events[0].Sender)
	assert.Equal(t, claims.ProofOfAge, events[0].CircuitID)
	assert.Equal(t, []string{"18"}, events[0].PublicInput)
	assert.Equal(t, "18", events[0].PublicOutput.Result.String())
	assert.Equal(t, int64(1700000000), events[0].Timestamp.T)
	assert.Equal(t, []byte{1, 2, 3}, events[0].Proof)

	ok, err := reopened.HasValidProof(ctx, "alice", claims.ProofOfAge)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = reopened.HasValidProof(ctx, "bob", claims.ProofOfSanctions)
	require.NoError(t, err)
	assert.False(t, ok)

	filtered, err := reopened.ListEvents(ctx, claims.ProofOfSanctions)
	require.NoError(t, err)
	assert.Empty(t, filtered)
}

func TestEventRepositoryRollsBackWithFailedRemote(t *testing.T) {
	repo := newRepository(t, filepath.Join(t.TempDir(), "events.db"))
	memory := verifier.NewMemoryLedger()
	failing := verifier.NewQueueLedger(&fakePublisher{err: errors.New("solana send failed")})
	ledger := verifier.NewMultiLedger(memory, repo, failing)
	ctx := context.Background()

	tx, err := ledger.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Stage(storedEvent("1", claims.ProofOfAge, "alice")))
	assert.Error(t, tx.Commit())

	events, err := repo.ListEvents(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.Empty(t, memory.Events(""))
}

func TestEventRepositoryRejectsDuplicateIDs(t *testing.T) {
	repo := newRepository(t, filepath.Join(t.TempDir(), "events.db"))
	memory := verifier.NewMemoryLedger()
	pub := &fakePublisher{}
	ledger := verifier.NewMultiLedger(memory, repo, verifier.NewQueueLedger(pub))
	ctx := context.Background()

	for i, want := range []bool{true, false} {
		tx, err := ledger.Begin(ctx)
		require.NoError(t, err)
		require.NoError(t, tx.Stage(storedEvent("same-id", claims.ProofOfAge, "alice")))
		if want {
			require.NoError(t, tx.Commit(), "attempt %d", i)
		} else {
			assert.Error(t, tx.Commit(), "attempt %d", i)
		}
	}

	// the insert fails before any remote ledger is asked to commit
	assert.Len(t, pub.sent, 1)
	assert.Len(t, memory.Events(""), 1)
}
