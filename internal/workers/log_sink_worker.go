package workers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/id-Mask/smart-contracts/pkg/logger"
	"github.com/id-Mask/smart-contracts/pkg/rabbitmq"
	"github.com/id-Mask/smart-contracts/pkg/utilities/logmessage"
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

const (
	LogSinkServiceName                         = "LogSinkWorker"
	LogConsumerAlias     rabbitmq.ConsumerAlias = "LogConsumer"

	anchorTimeout = 30 * time.Second
)

// LogAnchor is satisfied by *external.SolanaLedger.
type LogAnchor interface {
	AnchorLog(ctx context.Context, data []byte) (solana.Signature, error)
}

// LogSinkWorker writes verifier log lines at or above MinLevel to the chain.
// Each anchored line is one log instruction in a signed transaction and pays
// its fee, so lower levels are dropped.
type LogSinkWorker struct {
	Anchor   LogAnchor
	Consumer rabbitmq.IRabbitmqConsumer
	MinLevel zerolog.Level
	logger   *logger.Logger
}

func NewLogSinkWorker(anchor LogAnchor) (*LogSinkWorker, error) {
	consumer, ok := rabbitmq.GetConsumer(LogConsumerAlias)
	if !ok {
		return nil, rabbitmq.UnknownAliasError(string(LogConsumerAlias))
	}
	// a fresh logger without sinks, so failures here never reach the log queue
	return &LogSinkWorker{
		Anchor:   anchor,
		Consumer: consumer,
		MinLevel: zerolog.WarnLevel,
		logger:   logger.New().WithComponent(LogSinkServiceName),
	}, nil
}

func (lw *LogSinkWorker) GetServiceName() string {
	return LogSinkServiceName
}

func (lw *LogSinkWorker) StartService() error {
	return lw.Consumer.StartConsuming(lw.Handle)
}

func (lw *LogSinkWorker) Handle(d amqp.Delivery) {
	sig, err := lw.store(d.Body)
	l := logger.OrDefault(lw.logger)
	switch {
	case err != nil:
		l.Warnf("Dropped log message: %v", err)
	case sig != (solana.Signature{}):
		l.Debugf("Anchored log message in %s", sig)
	}
}

// store returns a zero signature when the line is below MinLevel.
func (lw *LogSinkWorker) store(body []byte) (solana.Signature, error) {
	var msg logmessage.LoggerMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return solana.Signature{}, errors.Wrap(err, "parse log message")
	}

	level, err := zerolog.ParseLevel(msg.Level)
	if err != nil {
		return solana.Signature{}, errors.Wrapf(err, "log level %q", msg.Level)
	}
	if level < lw.MinLevel {
		return solana.Signature{}, nil
	}

	data, err := msg.Serialize()
	if err != nil {
		return solana.Signature{}, errors.Wrap(err, "serialize log message")
	}

	ctx, cancel := context.WithTimeout(context.Background(), anchorTimeout)
	defer cancel()
	sig, err := lw.Anchor.AnchorLog(ctx, data)
	if err != nil {
		return solana.Signature{}, errors.Wrap(err, "anchor log message")
	}
	return sig, nil
}
