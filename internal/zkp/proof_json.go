package zkp

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/witness"
	"github.com/id-Mask/smart-contracts/internal/claims"
	"github.com/id-Mask/smart-contracts/pkg/reasoncodes"
	"github.com/id-Mask/smart-contracts/pkg/utilities"
)

// ProofJSON is the interchange form of a proof. Field elements are decimal strings.
type ProofJSON struct {
	CircuitID    string   `json:"circuitId"`
	Version      int      `json:"version"`
	PublicInput  []string `json:"publicInput"`
	PublicOutput []string `json:"publicOutput"`
	Proof        string   `json:"proof"`
}

func (p ProofJSON) Serialize() ([]byte, error) {
	return utilities.Serialize(p)
}

func (zr *ZkpResult) ToJSON() (ProofJSON, error) {
	values, err := zr.PublicValues()
	if err != nil {
		return ProofJSON{}, err
	}
	if len(values) != zr.NbPublicInputs+claims.OutputLength {
		return ProofJSON{}, fmt.Errorf("public witness has %d values, want %d", len(values), zr.NbPublicInputs+claims.OutputLength)
	}

	var proofBuf bytes.Buffer
	if _, err := zr.Proof.WriteTo(&proofBuf); err != nil {
		return ProofJSON{}, err
	}

	return ProofJSON{
		CircuitID:    zr.CircuitID.String(),
		Version:      claims.OutputVersion,
		PublicInput:  decimals(values[:zr.NbPublicInputs]),
		PublicOutput: decimals(values[zr.NbPublicInputs:]),
		Proof:        base64.StdEncoding.EncodeToString(proofBuf.Bytes()),
	}, nil
}

// FromJSON rebuilds a verifiable result. The caller supplies the verifying key.
func FromJSON(p ProofJSON, vk groth16.VerifyingKey) (*ZkpResult, error) {
	id, err := claims.ParseCircuitID(p.CircuitID)
	if err != nil {
		return nil, err
	}
	def, err := claims.Lookup(id)
	if err != nil {
		return nil, err
	}
	if p.Version != claims.OutputVersion {
		return nil, reasoncodes.Newf(reasoncodes.ErrUnmarshal, "unsupported output version %d", p.Version)
	}
	if len(p.PublicInput) != def.NbPublicInputs {
		return nil, reasoncodes.Newf(reasoncodes.ErrUnmarshal, "%s takes %d public inputs, got %d", id, def.NbPublicInputs, len(p.PublicInput))
	}
	if len(p.PublicOutput) != claims.OutputLength {
		return nil, reasoncodes.Newf(reasoncodes.ErrUnmarshal, "public output has %d elements, want %d", len(p.PublicOutput), claims.OutputLength)
	}

	values, err := parseDecimals(append(append([]string{}, p.PublicInput...), p.PublicOutput...))
	if err != nil {
		return nil, reasoncodes.New(reasoncodes.ErrUnmarshal, err)
	}

	publicWitness, err := witness.New(ElipticalCurveID.ScalarField())
	if err != nil {
		return nil, err
	}
	ch := make(chan any, len(values))
	for _, v := range values {
		ch <- v
	}
	close(ch)
	if err := publicWitness.Fill(len(values), 0, ch); err != nil {
		return nil, reasoncodes.New(reasoncodes.ErrUnmarshal, err)
	}

	raw, err := base64.StdEncoding.DecodeString(p.Proof)
	if err != nil {
		return nil, reasoncodes.New(reasoncodes.ErrUnmarshal, fmt.Errorf("proof: %w", err))
	}
	proof := groth16.NewProof(ElipticalCurveID)
	if _, err := proof.ReadFrom(bytes.NewReader(raw)); err != nil {
		return nil, reasoncodes.New(reasoncodes.ErrUnmarshal, fmt.Errorf("proof: %w", err))
	}

	return &ZkpResult{
		CircuitID:      id,
		Proof:          proof,
		VerifyingKey:   vk,
		PublicWitness:  publicWitness,
		NbPublicInputs: def.NbPublicInputs,
	}, nil
}

// DecodeOutput decodes the claim output without touching the proof.
func (p ProofJSON) DecodeOutput() (claims.Output, error) {
	values, err := parseDecimals(p.PublicOutput)
	if err != nil {
		return claims.Output{}, reasoncodes.New(reasoncodes.ErrUnmarshal, err)
	}
	out, err := claims.OutputFromFields(values)
	if err != nil {
		return claims.Output{}, reasoncodes.New(reasoncodes.ErrUnmarshal, err)
	}
	return out, nil
}

func decimals(values []*big.Int) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = v.String()
	}
	return out
}

func parseDecimals(values []string) ([]*big.Int, error) {
	out := make([]*big.Int, len(values))
	for i, s := range values {
		n, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return nil, fmt.Errorf("element %d: invalid decimal %q", i, s)
		}
		if n.Sign() < 0 || n.Cmp(fr.Modulus()) >= 0 {
			return nil, fmt.Errorf("element %d: not a field element", i)
		}
		out[i] = n
	}
	return out, nil
}
