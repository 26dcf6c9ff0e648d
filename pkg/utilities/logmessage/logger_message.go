package logmessage

import (
	"github.com/id-Mask/smart-contracts/pkg/utilities"
	"github.com/id-Mask/smart-contracts/pkg/utilities/timeutil"
)

type LoggerMessage struct {
	Service   string           `json:"service,omitempty"`
	Level     string           `json:"level"`
	Message   string           `json:"message"`
	Timestamp timeutil.TimeUTC `json:"timestamp"`
}

func (lm LoggerMessage) Serialize() ([]byte, error) {
	return utilities.Serialize(lm)
}
