package rabbitmq

import (
	"sync"

	"github.com/id-Mask/smart-contracts/pkg/logger"
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
)

type ConsumerAlias string

var consumers = struct {
	sync.RWMutex
	byAlias map[ConsumerAlias]IRabbitmqConsumer
}{byAlias: map[ConsumerAlias]IRabbitmqConsumer{}}

func GetConsumer(alias ConsumerAlias) (IRabbitmqConsumer, bool) {
	consumers.RLock()
	defer consumers.RUnlock()
	c, ok := consumers.byAlias[alias]
	return c, ok
}

func RegisterConsumer(alias ConsumerAlias, consumer IRabbitmqConsumer) {
	consumers.Lock()
	defer consumers.Unlock()
	consumers.byAlias[alias] = consumer
}

// InitializeConsumerRegistry opens one channel per configured consumer and
// applies its prefetch limit.
func InitializeConsumerRegistry(conn *amqp.Connection, configs []RabbitmqConsumerConfig) error {
	for _, cfg := range configs {
		ch, err := conn.Channel()
		if err != nil {
			return errors.Wrapf(err, "open channel for consumer %s", cfg.ConsumerAlias)
		}
		if err := ch.Qos(cfg.Prefetch, 0, false); err != nil {
			return errors.Wrapf(err, "set prefetch for consumer %s", cfg.ConsumerAlias)
		}

		c := NewConsumer(ch, cfg.QueueName, cfg.ConsumerTag)
		c.AutoAck = cfg.AutoAck
		RegisterConsumer(cfg.ConsumerAlias, c)
	}
	return nil
}

// ConsumeChannel is the part of *amqp.Channel a consumer needs.
type ConsumeChannel interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

type IRabbitmqConsumer interface {
	StartConsuming(func(amqp.Delivery)) error
}

// RabbitmqConsumer dispatches deliveries from one queue to a handler. Unless
// AutoAck is set a delivery is acked once the handler returns and rejected
// without requeue when the handler panics.
type RabbitmqConsumer struct {
	Channel     ConsumeChannel
	QueueName   string
	ConsumerTag string
	AutoAck     bool
	Logger      *logger.Logger
}

func NewConsumer(ch ConsumeChannel, queueName, consumerTag string) *RabbitmqConsumer {
	return &RabbitmqConsumer{Channel: ch, QueueName: queueName, ConsumerTag: consumerTag}
}

// StartConsuming blocks until the delivery channel closes.
func (rc *RabbitmqConsumer) StartConsuming(handler func(amqp.Delivery)) error {
	l := logger.OrDefault(rc.Logger).WithComponent(rc.ConsumerTag)

	deliveries, err := rc.Channel.Consume(rc.QueueName, rc.ConsumerTag, rc.AutoAck, false, false, false, nil)
	if err != nil {
		return errors.Wrapf(err, "register consumer %s on %s", rc.ConsumerTag, rc.QueueName)
	}

	l.Infof("Consuming %s", rc.QueueName)
	for d := range deliveries {
		l.Debugf("[%s] delivery %d: %s", rc.QueueName, d.DeliveryTag, d.Body)
		rc.dispatch(l, handler, d)
	}
	l.Infof("Delivery channel for %s closed", rc.QueueName)
	return nil
}

func (rc *RabbitmqConsumer) dispatch(l *logger.Logger, handler func(amqp.Delivery), d amqp.Delivery) {
	defer func() {
		r := recover()
		if r != nil {
			l.Errorf(nil, "[%s] handler panicked on delivery %d: %v", rc.QueueName, d.DeliveryTag, r)
		}
		if rc.AutoAck {
			return
		}
		var ackErr error
		if r != nil {
			ackErr = d.Reject(false)
		} else {
			ackErr = d.Ack(false)
		}
		if ackErr != nil {
			l.Debugf("[%s] settle delivery %d: %v", rc.QueueName, d.DeliveryTag, ackErr)
		}
	}()
	handler(d)
}
