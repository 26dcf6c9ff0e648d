package verifier

import (
	"github.com/id-Mask/smart-contracts/internal/claims"
	"github.com/id-Mask/smart-contracts/pkg/utilities"
	"github.com/id-Mask/smart-contracts/pkg/utilities/timeutil"
)

const ProvidedValidProof = "provided-valid-proof"

// Event is emitted once per successfully verified proof.
type Event struct {
	Name         string           `json:"name"`
	ID           string           `json:"id"`
	CircuitID    claims.CircuitID `json:"circuitId"`
	Sender       string           `json:"sender"`
	PublicInput  []string         `json:"publicInput"`
	PublicOutput claims.Output    `json:"publicOutput"`
	Timestamp    timeutil.TimeUTC `json:"timestamp"`

	// Proof is the borsh encoded proof, kept for ledgers that anchor it.
	Proof []byte `json:"-"`
}

func (e Event) Serialize() ([]byte, error) {
	return utilities.Serialize(e)
}
