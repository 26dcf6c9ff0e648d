package workers

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/id-Mask/smart-contracts/internal/claims"
	"github.com/id-Mask/smart-contracts/internal/verifier"
	"github.com/id-Mask/smart-contracts/internal/zkp"
	"github.com/id-Mask/smart-contracts/pkg/logger"
	"github.com/id-Mask/smart-contracts/pkg/rabbitmq"
	"github.com/id-Mask/smart-contracts/pkg/reasoncodes"
	"github.com/id-Mask/smart-contracts/pkg/utilities"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	messages []utilities.Serializable
}

func (p *capturePublisher) Publish(body utilities.Serializable) error {
	p.messages = append(p.messages, body)
	return nil
}

type stubVerifier struct {
	sender string
	proof  zkp.ProofJSON
	err    error
}

func (s *stubVerifier) VerifyProof(_ context.Context, sender string, proof zkp.ProofJSON) (verifier.Event, error) {
	s.sender, s.proof = sender, proof
	if s.err != nil {
		return verifier.Event{}, s.err
	}
	return verifier.Event{
		Name:         verifier.ProvidedValidProof,
		ID:           "ledger-1",
		CircuitID:    claims.ProofOfAge,
		Sender:       sender,
		PublicOutput: claims.Output{Result: big.NewInt(1)},
	}, nil
}

type stubAnchor struct {
	data [][]byte
	err  error
}

func (s *stubAnchor) AnchorLog(_ context.Context, data []byte) (solana.Signature, error) {
	s.data = append(s.data, data)
	return solana.Signature{}, s.err
}

func newWorker(v ProofVerifier) (*ProofVerificationWorker, *capturePublisher, *capturePublisher) {
	results, failures := &capturePublisher{}, &capturePublisher{}
	return &ProofVerificationWorker{
		Verifier:         v,
		ResultPublisher:  results,
		FailurePublisher: failures,
		logger:           logger.Nop(),
	}, results, failures
}

func delivery(t *testing.T, v any) amqp.Delivery {
	body, err := json.Marshal(v)
	require.NoError(t, err)
	return amqp.Delivery{Body: body}
}

func TestVerificationWorkerPublishesResult(t *testing.T) {
	v := &stubVerifier{}
	w, results, failures := newWorker(v)

	w.Handle(delivery(t, ProofVerificationRequestDto{
		EventId: "evt-1",
		Sender:  "alice",
		Proof:   zkp.ProofJSON{CircuitID: "ProofOfAge", Version: 1},
	}))

	assert.Equal(t, "alice", v.sender)
	assert.Equal(t, "ProofOfAge", v.proof.CircuitID)
	assert.Empty(t, failures.messages)
	require.Len(t, results.messages, 1)

	result := results.messages[0].(ProofVerificationResultDto)
	assert.Equal(t, "evt-1", result.EventId)
	assert.Equal(t, "ledger-1", result.LedgerId)
	assert.Equal(t, claims.ProofOfAge, result.CircuitId)
}

func TestVerificationWorkerPublishesFailures(t *testing.T) {
	v := &stubVerifier{err: reasoncodes.Newf(reasoncodes.ErrProofVerification, "pairing check failed")}
	w, results, failures := newWorker(v)

	w.Handle(delivery(t, ProofVerificationRequestDto{EventId: "evt-2", Sender: "mallory"}))
	w.Handle(amqp.Delivery{Body: []byte("{not json")})

	assert.Empty(t, results.messages)
	require.Len(t, failures.messages, 2)

	verification := failures.messages[0].(ProofVerificationFailureDto)
	assert.Equal(t, "evt-2", verification.EventId)
	assert.Equal(t, reasoncodes.ErrProofVerification, verification.ReasonCode)

	unmarshal := failures.messages[1].(ProofVerificationFailureDto)
	assert.Equal(t, reasoncodes.ErrUnmarshal, unmarshal.ReasonCode)
	assert.Equal(t, []byte("{not json"), unmarshal.RequestBody)

	data, err := unmarshal.Serialize()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"reason_code":"UnmarshalError"`)
}

func TestNewWorkersRequireRegisteredAliases(t *testing.T) {
	_, err := NewProofVerificationWorker(&stubVerifier{}, logger.Nop())
	assert.ErrorIs(t, err, rabbitmq.ErrAliasNotRegistered)

	_, err = NewLogSinkWorker(&stubAnchor{})
	assert.ErrorIs(t, err, rabbitmq.ErrAliasNotRegistered)
}

func TestLogSinkWorkerAnchorsMessages(t *testing.T) {
	anchor := &stubAnchor{}
	w := &LogSinkWorker{Anchor: anchor, MinLevel: zerolog.WarnLevel, logger: logger.Nop()}

	w.Handle(amqp.Delivery{Body: []byte(`{"service":"verifier","level":"info","message":"started","timestamp":{"t":1}}`)})
	w.Handle(amqp.Delivery{Body: []byte(`{"service":"verifier","level":"error","message":"ledger down","timestamp":{"t":2}}`)})
	w.Handle(amqp.Delivery{Body: []byte(`garbage`)})

	require.Len(t, anchor.data, 1)
	assert.Contains(t, string(anchor.data[0]), `"message":"ledger down"`)

	_, err := w.store([]byte(`{"level":"shouting","message":"x","timestamp":{"t":1}}`))
	assert.Error(t, err)

	anchor.err = errors.New("rpc down")
	_, err = w.store([]byte(`{"level":"warn","message":"x","timestamp":{"t":1}}`))
	assert.Error(t, err)
}
