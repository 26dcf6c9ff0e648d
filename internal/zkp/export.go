package zkp

import (
	"bytes"
	"io"

	"github.com/consensys/gnark/backend/groth16"
	"github.com/pkg/errors"
)

// ExportSolidity writes a solidity contract verifying proofs of this circuit.
func (c *CompiledCircuit) ExportSolidity(w io.Writer) error {
	return errors.Wrapf(c.VK.ExportSolidity(w), "export solidity verifier for %s", c.ID)
}

func (c *CompiledCircuit) ExportVerifyingKey(w io.Writer) error {
	_, err := c.VK.WriteTo(w)
	return errors.Wrapf(err, "export verifying key for %s", c.ID)
}

func VerifyingKeyBytes(vk groth16.VerifyingKey) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := vk.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func ParseVerifyingKey(raw []byte) (groth16.VerifyingKey, error) {
	vk := groth16.NewVerifyingKey(ElipticalCurveID)
	if _, err := vk.ReadFrom(bytes.NewReader(raw)); err != nil {
		return nil, errors.Wrap(err, "read verifying key")
	}
	return vk, nil
}
