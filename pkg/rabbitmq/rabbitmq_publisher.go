package rabbitmq

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/id-Mask/smart-contracts/pkg/utilities"
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
)

const publishTimeout = 5 * time.Second

type PublisherAlias string

var publishers = struct {
	sync.RWMutex
	byAlias map[PublisherAlias]IRabbitmqPublisher
}{byAlias: map[PublisherAlias]IRabbitmqPublisher{}}

func GetPublisher(alias PublisherAlias) (IRabbitmqPublisher, bool) {
	publishers.RLock()
	defer publishers.RUnlock()
	p, ok := publishers.byAlias[alias]
	return p, ok
}

func RegisterPublisher(alias PublisherAlias, publisher IRabbitmqPublisher) {
	publishers.Lock()
	defer publishers.Unlock()
	publishers.byAlias[alias] = publisher
}

func InitializePublisherRegistry(conn *amqp.Connection, configs []RabbitmqPublishersConfig) error {
	for _, cfg := range configs {
		ch, err := conn.Channel()
		if err != nil {
			return errors.Wrapf(err, "open channel for publisher %s", cfg.PublisherAlias)
		}
		RegisterPublisher(cfg.PublisherAlias, NewPublisher(ch, cfg.Exchange, cfg.RoutingKey))
	}
	return nil
}

// PublishChannel is the part of *amqp.Channel a publisher needs.
type PublishChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type IRabbitmqPublisher interface {
	Publish(body utilities.Serializable) error
}

// RabbitmqPublisher sends persistent JSON messages to a fixed exchange and
// routing key. It is shared between goroutines, so writes to the channel are
// serialized.
type RabbitmqPublisher struct {
	Channel    PublishChannel
	Exchange   string
	RoutingKey string

	mu sync.Mutex
}

func NewPublisher(ch PublishChannel, exchange, routingKey string) *RabbitmqPublisher {
	return &RabbitmqPublisher{Channel: ch, Exchange: exchange, RoutingKey: routingKey}
}

func (rp *RabbitmqPublisher) Publish(body utilities.Serializable) error {
	payload, err := body.Serialize()
	if err != nil {
		return errors.Wrap(err, "serialize message")
	}

	msg := amqp.Publishing{
		MessageId:    uuid.NewString(),
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         payload,
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	rp.mu.Lock()
	defer rp.mu.Unlock()
	if err := rp.Channel.PublishWithContext(ctx, rp.Exchange, rp.RoutingKey, false, false, msg); err != nil {
		return errors.Wrapf(err, "publish to %s/%s", rp.Exchange, rp.RoutingKey)
	}
	return nil
}
