package claims

import (
	"sort"

	"github.com/consensys/gnark/frontend"
	"github.com/id-Mask/smart-contracts/internal/sigchain"
	"github.com/id-Mask/smart-contracts/pkg/reasoncodes"
)

// Definition describes a claim circuit.
type Definition struct {
	ID CircuitID
	// NbPublicInputs counts the public values placed before the output.
	NbPublicInputs int
	// New returns the circuit with the oracle key compiled in.
	New func(oracle sigchain.OracleKey) frontend.Circuit
}

func (d Definition) NbPublic() int {
	return d.NbPublicInputs + OutputLength
}

var registry = map[CircuitID]Definition{
	ProofOfAge: {
		ID:             ProofOfAge,
		NbPublicInputs: 1,
		New:            func(o sigchain.OracleKey) frontend.Circuit { return &AgeCircuit{Oracle: o} },
	},
	ProofOfNationality: {
		ID:  ProofOfNationality,
		New: func(o sigchain.OracleKey) frontend.Circuit { return &NationalityCircuit{Oracle: o} },
	},
	ProofOfSanctions: {
		ID:  ProofOfSanctions,
		New: func(o sigchain.OracleKey) frontend.Circuit { return &SanctionsCircuit{Oracle: o} },
	},
	ProofOfUniqueHuman: {
		ID:  ProofOfUniqueHuman,
		New: func(o sigchain.OracleKey) frontend.Circuit { return &UniqueHumanCircuit{Oracle: o} },
	},
	ProofOfIdentity: {
		ID:  ProofOfIdentity,
		New: func(o sigchain.OracleKey) frontend.Circuit { return &IdentityCircuit{Oracle: o} },
	},
}

func Lookup(id CircuitID) (Definition, error) {
	def, ok := registry[id]
	if !ok {
		return Definition{}, reasoncodes.Newf(reasoncodes.ErrUnsupportedCircuit, "unknown circuit %q", id)
	}
	return def, nil
}

// IDs lists every registered circuit in a stable order.
func IDs() []CircuitID {
	ids := make([]CircuitID, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Request is a claim ready to be proven.
type Request interface {
	CircuitID() CircuitID
	// Validate runs the signature chain and the claim predicate off-circuit,
	// so an unprovable claim fails fast with a reason code.
	Validate(oracle sigchain.OracleKey) error
	// Assignment is the full witness, outputs included.
	Assignment() (frontend.Circuit, error)
	Output() (Output, error)
}
