package rabbitmq

import (
	"errors"
	"fmt"
)

var ErrAliasNotRegistered = errors.New("rabbitmq alias not registered")

// WorkerService is a long running consumer started by the application runtime.
type WorkerService interface {
	GetServiceName() string
	StartService() error
}

func UnknownAliasError(alias string) error {
	return fmt.Errorf("%w: %s", ErrAliasNotRegistered, alias)
}
