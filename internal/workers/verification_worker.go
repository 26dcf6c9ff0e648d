package workers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/id-Mask/smart-contracts/internal/verifier"
	"github.com/id-Mask/smart-contracts/internal/zkp"
	"github.com/id-Mask/smart-contracts/pkg/logger"
	"github.com/id-Mask/smart-contracts/pkg/rabbitmq"
	"github.com/id-Mask/smart-contracts/pkg/reasoncodes"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	VerificationServiceName                             = "ProofVerificationWorker"
	VerificationConsumerAlias    rabbitmq.ConsumerAlias  = "ProofVerificationConsumer"
	ResultPublisherAlias         rabbitmq.PublisherAlias = "ProofResultPublisher"
	FailurePublisherAlias        rabbitmq.PublisherAlias = "ProofFailurePublisher"
	defaultVerificationTimeout                           = 2 * time.Minute
)

// ProofVerifier is satisfied by *verifier.Contract.
type ProofVerifier interface {
	VerifyProof(ctx context.Context, sender string, proof zkp.ProofJSON) (verifier.Event, error)
}

type ProofVerificationWorker struct {
	Verifier         ProofVerifier
	Consumer         rabbitmq.IRabbitmqConsumer
	ResultPublisher  rabbitmq.IRabbitmqPublisher
	FailurePublisher rabbitmq.IRabbitmqPublisher
	Timeout          time.Duration
	logger           *logger.Logger
}

// NewProofVerificationWorker wires the worker to the registered queue aliases.
func NewProofVerificationWorker(v ProofVerifier, l *logger.Logger) (*ProofVerificationWorker, error) {
	consumer, ok := rabbitmq.GetConsumer(VerificationConsumerAlias)
	if !ok {
		return nil, rabbitmq.UnknownAliasError(string(VerificationConsumerAlias))
	}
	results, ok := rabbitmq.GetPublisher(ResultPublisherAlias)
	if !ok {
		return nil, rabbitmq.UnknownAliasError(string(ResultPublisherAlias))
	}
	failures, ok := rabbitmq.GetPublisher(FailurePublisherAlias)
	if !ok {
		return nil, rabbitmq.UnknownAliasError(string(FailurePublisherAlias))
	}

	return &ProofVerificationWorker{
		Verifier:         v,
		Consumer:         consumer,
		ResultPublisher:  results,
		FailurePublisher: failures,
		Timeout:          defaultVerificationTimeout,
		logger:           logger.OrDefault(l),
	}, nil
}

func (w *ProofVerificationWorker) GetServiceName() string {
	return VerificationServiceName
}

func (w *ProofVerificationWorker) StartService() error {
	return w.Consumer.StartConsuming(w.Handle)
}

// Handle verifies one request and publishes exactly one result or failure.
func (w *ProofVerificationWorker) Handle(d amqp.Delivery) {
	log := logger.OrDefault(w.logger)

	var message ProofVerificationRequestDto
	factory := failureFactory{requestBody: d.Body}

	if err := json.Unmarshal(d.Body, &message); err != nil {
		w.publishFailure(factory.create(err, reasoncodes.ErrUnmarshal))
		return
	}
	factory.eventId = message.EventId

	timeout := w.Timeout
	if timeout <= 0 {
		timeout = defaultVerificationTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	event, err := w.Verifier.VerifyProof(ctx, message.Sender, message.Proof)
	if err != nil {
		log.Errorf(err, "Verification of %s failed for event %s", message.Proof.CircuitID, message.EventId)
		w.publishFailure(factory.create(err, reasoncodes.ErrProofVerification))
		return
	}

	result := ProofVerificationResultDto{
		EventId:      message.EventId,
		LedgerId:     event.ID,
		CircuitId:    event.CircuitID,
		Sender:       event.Sender,
		PublicOutput: event.PublicOutput,
	}
	if err := w.ResultPublisher.Publish(result); err != nil {
		log.Errorf(err, "Failed to publish result for event %s", message.EventId)
		return
	}
	log.Infof("Processed proof verification for %s, ledger event %s", message.EventId, event.ID)
}

func (w *ProofVerificationWorker) publishFailure(failure ProofVerificationFailureDto) {
	if err := w.FailurePublisher.Publish(failure); err != nil {
		logger.OrDefault(w.logger).Errorf(err, "Failed to publish failure for event %s", failure.EventId)
	}
}
