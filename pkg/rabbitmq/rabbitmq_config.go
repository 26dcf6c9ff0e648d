package rabbitmq

import "github.com/id-Mask/smart-contracts/pkg/utilities"

const (
	defaultHost     = "rabbitmq"
	defaultPort     = 5672
	defaultVHost    = "/"
	defaultPrefetch = 1
)

type RabbimqConfigJson struct {
	User       string                         `json:"user"`
	Password   string                         `json:"password"`
	Host       string                         `json:"host"`
	Port       uint16                         `json:"port"`
	VHost      string                         `json:"vhost"`
	Publishers []RabbitmqPublishersConfigJson `json:"publishers"`
	Consumers  []RabbitmqConsumerConfigJson   `json:"consumers"`
}

// RabbitmqConfig describes one broker connection and the aliases bound on it.
type RabbitmqConfig struct {
	User             string
	Password         string
	Host             string
	Port             uint16
	VHost            string
	PublishersConfig []RabbitmqPublishersConfig
	ConsumersConfig  []RabbitmqConsumerConfig
}

func (j RabbimqConfigJson) ConvertToDomain() RabbitmqConfig {
	cfg := RabbitmqConfig{
		User:     j.User,
		Password: j.Password,
		Host:     orDefault(j.Host, defaultHost),
		Port:     orDefault(j.Port, defaultPort),
		VHost:    orDefault(j.VHost, defaultVHost),
	}
	cfg.PublishersConfig = utilities.ConvertJsonArrayToDomain[RabbitmqPublishersConfigJson, RabbitmqPublishersConfig](j.Publishers)
	cfg.ConsumersConfig = utilities.ConvertJsonArrayToDomain[RabbitmqConsumerConfigJson, RabbitmqConsumerConfig](j.Consumers)
	return cfg
}

// Enabled reports whether a broker was configured at all.
func (rc RabbitmqConfig) Enabled() bool {
	if rc.User == "" {
		return false
	}
	return len(rc.PublishersConfig)+len(rc.ConsumersConfig) > 0
}

type RabbitmqPublishersConfigJson struct {
	Alias      string `json:"publisher_alias"`
	Exchange   string `json:"exchange"`
	RoutingKey string `json:"routing_key"`
}

type RabbitmqPublishersConfig struct {
	PublisherAlias PublisherAlias
	Exchange       string
	RoutingKey     string
}

func (j RabbitmqPublishersConfigJson) ConvertToDomain() RabbitmqPublishersConfig {
	return RabbitmqPublishersConfig{PublisherAlias(j.Alias), j.Exchange, j.RoutingKey}
}

// RabbitmqConsumerConfigJson binds a queue to an alias. Prefetch bounds how
// many unacknowledged deliveries the broker hands the consumer at once; proof
// verification is CPU bound so it defaults to one.
type RabbitmqConsumerConfigJson struct {
	Alias     string `json:"consumer_alias"`
	Tag       string `json:"consumer_tag"`
	QueueName string `json:"queue_name"`
	Prefetch  int    `json:"prefetch"`
	AutoAck   bool   `json:"auto_ack"`
}

type RabbitmqConsumerConfig struct {
	ConsumerAlias ConsumerAlias
	ConsumerTag   string
	QueueName     string
	Prefetch      int
	AutoAck       bool
}

func (j RabbitmqConsumerConfigJson) ConvertToDomain() RabbitmqConsumerConfig {
	return RabbitmqConsumerConfig{
		ConsumerAlias: ConsumerAlias(j.Alias),
		ConsumerTag:   j.Tag,
		QueueName:     j.QueueName,
		Prefetch:      orDefault(j.Prefetch, defaultPrefetch),
		AutoAck:       j.AutoAck,
	}
}

func orDefault[T comparable](v, fallback T) T {
	var zero T
	if v == zero {
		return fallback
	}
	return v
}
