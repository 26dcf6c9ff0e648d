package rabbitmq

import (
	"fmt"
	"os"

	"github.com/id-Mask/smart-contracts/pkg/logger"
	"github.com/id-Mask/smart-contracts/pkg/utilities/logmessage"
	"github.com/id-Mask/smart-contracts/pkg/utilities/timeutil"
	"github.com/rs/zerolog"
)

func CreateRabbitmqLoggerSink(service string, publisher IRabbitmqPublisher) logger.Sink {
	return func(msg string, level zerolog.Level, timestamp timeutil.TimeUTC) {
		loggerMessage := logmessage.LoggerMessage{
			Service:   service,
			Level:     level.String(),
			Message:   msg,
			Timestamp: timestamp,
		}

		if err := publisher.Publish(loggerMessage); err != nil {
			// the logger itself would recurse into this sink
			fmt.Fprintf(os.Stderr, "Failed to publish log message to RabbitMQ: %v\n", err)
		}
	}
}
