package claims

import (
	"github.com/id-Mask/smart-contracts/pkg/reasoncodes"
)

type CircuitID string

const (
	ProofOfAge         CircuitID = "ProofOfAge"
	ProofOfNationality CircuitID = "ProofOfNationality"
	ProofOfSanctions   CircuitID = "ProofOfSanctions"
	ProofOfUniqueHuman CircuitID = "ProofOfUniqueHuman"
	ProofOfIdentity    CircuitID = "ProofOfIdentity"
)

func (id CircuitID) String() string {
	return string(id)
}

func ParseCircuitID(s string) (CircuitID, error) {
	id := CircuitID(s)
	if _, ok := registry[id]; !ok {
		return "", reasoncodes.Newf(reasoncodes.ErrUnsupportedCircuit, "unknown circuit %q", s)
	}
	return id, nil
}

func (id CircuitID) Validate() error {
	_, err := ParseCircuitID(string(id))
	return err
}
