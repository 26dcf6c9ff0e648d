package zkp

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/witness"
	"github.com/id-Mask/smart-contracts/internal/claims"
	"github.com/id-Mask/smart-contracts/pkg/reasoncodes"
	"github.com/near/borsh-go"
	"github.com/pkg/errors"
)

type ZkpResult struct {
	CircuitID      claims.CircuitID
	Proof          groth16.Proof
	VerifyingKey   groth16.VerifyingKey
	PublicWitness  witness.Witness
	NbPublicInputs int
}

func (zr *ZkpResult) Verify() error {
	if zr.VerifyingKey == nil {
		return reasoncodes.Newf(reasoncodes.ErrVerifierResolution, "no verifying key for %s", zr.CircuitID)
	}
	if err := groth16.Verify(zr.Proof, zr.VerifyingKey, zr.PublicWitness); err != nil {
		return reasoncodes.New(reasoncodes.ErrProofVerification, err)
	}
	return nil
}

// PublicValues returns the public witness, inputs first then the output.
func (zr *ZkpResult) PublicValues() ([]*big.Int, error) {
	vec, ok := zr.PublicWitness.Vector().(fr.Vector)
	if !ok {
		return nil, fmt.Errorf("unexpected witness vector %T", zr.PublicWitness.Vector())
	}
	values := make([]*big.Int, len(vec))
	for i := range vec {
		values[i] = vec[i].BigInt(new(big.Int))
	}
	return values, nil
}

func (zr *ZkpResult) Output() (claims.Output, error) {
	values, err := zr.PublicValues()
	if err != nil {
		return claims.Output{}, err
	}
	if len(values) < zr.NbPublicInputs {
		return claims.Output{}, fmt.Errorf("public witness has %d values, want at least %d", len(values), zr.NbPublicInputs)
	}
	return claims.OutputFromFields(values[zr.NbPublicInputs:])
}

type intermediateSerializationStep struct {
	CircuitID      string `borsh:"circuit_id"`
	NbPublicInputs uint32 `borsh:"nb_public_inputs"`
	Proof          []byte `borsh:"proof"`
	VerifyingKey   []byte `borsh:"verifying_key"`
	PublicWitness  []byte `borsh:"public_witness"`
}

func (zr *ZkpResult) SerializeBorsh() ([]byte, error) {
	var proofBuf bytes.Buffer
	if _, err := zr.Proof.WriteTo(&proofBuf); err != nil {
		return nil, errors.Wrap(err, "serialize proof")
	}

	var vkBuf bytes.Buffer
	if zr.VerifyingKey != nil {
		if _, err := zr.VerifyingKey.WriteTo(&vkBuf); err != nil {
			return nil, errors.Wrap(err, "serialize verifying key")
		}
	}

	var witnessBuf bytes.Buffer
	if _, err := zr.PublicWitness.WriteTo(&witnessBuf); err != nil {
		return nil, errors.Wrap(err, "serialize public witness")
	}

	return borsh.Serialize(intermediateSerializationStep{
		CircuitID:      zr.CircuitID.String(),
		NbPublicInputs: uint32(zr.NbPublicInputs),
		Proof:          proofBuf.Bytes(),
		VerifyingKey:   vkBuf.Bytes(),
		PublicWitness:  witnessBuf.Bytes(),
	})
}

// ReconstructZkpResult reverses SerializeBorsh. An empty key section leaves VerifyingKey nil.
func ReconstructZkpResult(serializedZkp []byte) (*ZkpResult, error) {
	var deserialized intermediateSerializationStep
	if err := borsh.Deserialize(&deserialized, serializedZkp); err != nil {
		return nil, reasoncodes.New(reasoncodes.ErrUnmarshal, err)
	}

	id, err := claims.ParseCircuitID(deserialized.CircuitID)
	if err != nil {
		return nil, err
	}

	proof := groth16.NewProof(ElipticalCurveID)
	if _, err := proof.ReadFrom(bytes.NewReader(deserialized.Proof)); err != nil {
		return nil, reasoncodes.New(reasoncodes.ErrUnmarshal, errors.Wrap(err, "proof"))
	}

	var vk groth16.VerifyingKey
	if len(deserialized.VerifyingKey) > 0 {
		vk = groth16.NewVerifyingKey(ElipticalCurveID)
		if _, err := vk.ReadFrom(bytes.NewReader(deserialized.VerifyingKey)); err != nil {
			return nil, reasoncodes.New(reasoncodes.ErrUnmarshal, errors.Wrap(err, "verifying key"))
		}
	}

	publicWitness, err := witness.New(ElipticalCurveID.ScalarField())
	if err != nil {
		return nil, err
	}
	if _, err := publicWitness.ReadFrom(bytes.NewReader(deserialized.PublicWitness)); err != nil {
		return nil, reasoncodes.New(reasoncodes.ErrUnmarshal, errors.Wrap(err, "public witness"))
	}

	return &ZkpResult{
		CircuitID:      id,
		Proof:          proof,
		VerifyingKey:   vk,
		PublicWitness:  publicWitness,
		NbPublicInputs: int(deserialized.NbPublicInputs),
	}, nil
}
