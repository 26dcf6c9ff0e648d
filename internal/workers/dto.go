package workers

import (
	"github.com/id-Mask/smart-contracts/internal/claims"
	"github.com/id-Mask/smart-contracts/internal/zkp"
	"github.com/id-Mask/smart-contracts/pkg/reasoncodes"
	"github.com/id-Mask/smart-contracts/pkg/utilities"
)

type ProofVerificationRequestDto struct {
	EventId string        `json:"event_id"`
	Sender  string        `json:"sender"`
	Proof   zkp.ProofJSON `json:"proof"`
}

type ProofVerificationResultDto struct {
	EventId      string           `json:"event_id"`
	LedgerId     string           `json:"ledger_event_id"`
	CircuitId    claims.CircuitID `json:"circuit_id"`
	Sender       string           `json:"sender"`
	PublicOutput claims.Output    `json:"public_output"`
}

func (pvr ProofVerificationResultDto) Serialize() ([]byte, error) {
	return utilities.Serialize(pvr)
}

type ProofVerificationFailureDto struct {
	EventId     string                 `json:"event_id"`
	RequestBody []byte                 `json:"request_body"`
	Error       string                 `json:"error"`
	ReasonCode  reasoncodes.ReasonCode `json:"reason_code"`
}

func (pvf ProofVerificationFailureDto) Serialize() ([]byte, error) {
	return utilities.Serialize(pvf)
}

// failureFactory stamps failures with the request they answer.
type failureFactory struct {
	eventId     string
	requestBody []byte
}

func (f failureFactory) create(err error, fallback reasoncodes.ReasonCode) ProofVerificationFailureDto {
	return ProofVerificationFailureDto{
		EventId:     f.eventId,
		RequestBody: f.requestBody,
		Error:       err.Error(),
		ReasonCode:  reasoncodes.CodeOf(err, fallback),
	}
}
