package verifier

import (
	"context"
	"time"

	"github.com/consensys/gnark/backend/groth16"
	"github.com/google/uuid"
	"github.com/id-Mask/smart-contracts/internal/claims"
	"github.com/id-Mask/smart-contracts/internal/metrics"
	"github.com/id-Mask/smart-contracts/internal/zkp"
	"github.com/id-Mask/smart-contracts/pkg/logger"
	"github.com/id-Mask/smart-contracts/pkg/reasoncodes"
	"github.com/id-Mask/smart-contracts/pkg/utilities/timeutil"
)

// VerifyingKeyResolver supplies the trusted verifying key of a circuit.
// *zkp.Engine satisfies it.
type VerifyingKeyResolver interface {
	VerifyingKey(ctx context.Context, id claims.CircuitID) (groth16.VerifyingKey, error)
}

// Contract verifies submitted proofs and records one event per valid proof.
// It holds no state of its own; the ledger is the only thing that changes.
type Contract struct {
	resolver VerifyingKeyResolver
	ledger   Ledger
	logger   *logger.Logger
	metrics  *metrics.Metrics
}

func NewContract(resolver VerifyingKeyResolver, ledger Ledger, l *logger.Logger, m *metrics.Metrics) *Contract {
	if l == nil {
		l = logger.Nop()
	}
	return &Contract{resolver: resolver, ledger: ledger, logger: l, metrics: m}
}

// VerifyProof checks the proof against the server side key. The event is
// emitted only when verification and staging both succeed.
func (c *Contract) VerifyProof(ctx context.Context, sender string, proof zkp.ProofJSON) (Event, error) {
	event, err := c.verifyProof(ctx, sender, proof)

	result := "ok"
	if err != nil {
		result = reasoncodes.CodeOf(err, reasoncodes.ErrProofVerification).String()
		c.logger.Warnf("Rejected %s proof from %q: %v", proof.CircuitID, sender, err)
	} else {
		c.logger.Infof("Accepted %s proof from %q, event %s", event.CircuitID, sender, event.ID)
	}
	c.metrics.IncrementOutcome("ledger", proof.CircuitID, result)
	return event, err
}

func (c *Contract) verifyProof(ctx context.Context, sender string, proof zkp.ProofJSON) (Event, error) {
	if sender == "" {
		return Event{}, reasoncodes.Newf(reasoncodes.ErrMalformedInput, "sender is required")
	}

	id, err := claims.ParseCircuitID(proof.CircuitID)
	if err != nil {
		return Event{}, err
	}

	vk, err := c.resolver.VerifyingKey(ctx, id)
	if err != nil {
		return Event{}, reasoncodes.New(reasoncodes.CodeOf(err, reasoncodes.ErrVerifierResolution), err)
	}

	result, err := zkp.FromJSON(proof, vk)
	if err != nil {
		return Event{}, err
	}

	tx, err := c.ledger.Begin(ctx)
	if err != nil {
		return Event{}, reasoncodes.New(reasoncodes.ErrLedger, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	start := time.Now()
	err = result.Verify()
	c.metrics.ObserveVerify(id.String(), time.Since(start))
	if err != nil {
		return Event{}, err
	}

	output, err := result.Output()
	if err != nil {
		return Event{}, reasoncodes.New(reasoncodes.ErrUnmarshal, err)
	}
	anchored, err := result.SerializeBorsh()
	if err != nil {
		return Event{}, reasoncodes.New(reasoncodes.ErrLedger, err)
	}

	event := Event{
		Name:         ProvidedValidProof,
		ID:           uuid.NewString(),
		CircuitID:    id,
		Sender:       sender,
		PublicInput:  append([]string{}, proof.PublicInput...),
		PublicOutput: output,
		Timestamp:    timeutil.NowUTC(),
		Proof:        anchored,
	}

	if err := tx.Stage(event); err != nil {
		return Event{}, reasoncodes.New(reasoncodes.ErrLedger, err)
	}
	if err := tx.Commit(); err != nil {
		return Event{}, reasoncodes.New(reasoncodes.ErrLedger, err)
	}
	committed = true
	return event, nil
}
