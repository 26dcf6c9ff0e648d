package rabbitmq

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/id-Mask/smart-contracts/pkg/logger"
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	maxConnectRetries = 7
	maxBackoff        = 30 * time.Second
)

// ConnectionString renders cfg as an amqp URI with escaped credentials.
func ConnectionString(cfg RabbitmqConfig) string {
	u := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   cfg.Host + ":" + strconv.Itoa(int(cfg.Port)),
		Path:   "/",
	}
	if cfg.VHost != "" && cfg.VHost != "/" {
		u.Path += cfg.VHost
	}
	return u.String()
}

// Connect dials the broker with exponential backoff. It gives up after
// maxConnectRetries attempts or when ctx is done.
func Connect(ctx context.Context, cfg RabbitmqConfig) (*amqp.Connection, error) {
	l := logger.OrDefault(nil).WithComponent("rabbitmq")
	uri := ConnectionString(cfg)

	backoff := time.Second
	var lastErr error
	for attempt := 1; attempt <= maxConnectRetries; attempt++ {
		conn, err := amqp.Dial(uri)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		l.Warnf("Connect to %s:%d failed (attempt %d/%d): %v", cfg.Host, cfg.Port, attempt, maxConnectRetries, err)

		select {
		case <-ctx.Done():
			return nil, errors.Wrap(ctx.Err(), "connect to rabbitmq")
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxBackoff)
	}
	return nil, errors.Wrapf(lastErr, "connect to rabbitmq after %d attempts", maxConnectRetries)
}
