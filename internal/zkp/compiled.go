package zkp

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/id-Mask/smart-contracts/internal/claims"
	"github.com/id-Mask/smart-contracts/internal/sigchain"
	"github.com/pkg/errors"
)

const (
	ElipticalCurveID = ecc.BN254

	ccsFile = "ccs.bin"
	pkFile  = "pk.bin"
	vkFile  = "vk.bin"

	fingerprintLength = 16
)

// CompiledCircuit is a claim circuit with its groth16 keys, bound to one oracle
// key. Fingerprint identifies the constraint system the keys were set up for.
type CompiledCircuit struct {
	ID          claims.CircuitID
	Oracle      sigchain.OracleKey
	Fingerprint string
	CCS         constraint.ConstraintSystem
	PK          groth16.ProvingKey
	VK          groth16.VerifyingKey
}

// compileCCS builds the constraint system. It runs on every start: it is
// cheap next to groth16.Setup and its fingerprint decides which keys apply.
func compileCCS(def claims.Definition, oracle sigchain.OracleKey) (constraint.ConstraintSystem, string, error) {
	ccs, err := frontend.Compile(ElipticalCurveID.ScalarField(), r1cs.NewBuilder, def.New(oracle))
	if err != nil {
		return nil, "", errors.Wrapf(err, "compile %s", def.ID)
	}
	fp, err := fingerprint(ccs)
	if err != nil {
		return nil, "", errors.Wrapf(err, "fingerprint %s", def.ID)
	}
	return ccs, fp, nil
}

// fingerprint is a short sha256 of the serialized constraint system.
func fingerprint(ccs constraint.ConstraintSystem) (string, error) {
	h := sha256.New()
	if _, err := ccs.WriteTo(h); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil))[:fingerprintLength], nil
}

func setup(id claims.CircuitID, oracle sigchain.OracleKey, ccs constraint.ConstraintSystem, fp string) (*CompiledCircuit, error) {
	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, errors.Wrapf(err, "setup %s", id)
	}
	return &CompiledCircuit{ID: id, Oracle: oracle, Fingerprint: fp, CCS: ccs, PK: pk, VK: vk}, nil
}

// NbPublic is the length of the public witness.
func (c *CompiledCircuit) NbPublic() int {
	return c.CCS.GetNbPublicVariables() - 1
}

// keyPath places keys under <dir>/<circuit>/<oracle key>/<fingerprint>. A key
// rotation or any change to the circuit lands in a fresh directory.
func keyPath(dir string, id claims.CircuitID, oracle sigchain.OracleKey, fp string) string {
	return filepath.Join(dir, id.String(), oracle.String(), fp)
}

func (c *CompiledCircuit) save(dir string) error {
	path := keyPath(dir, c.ID, c.Oracle, c.Fingerprint)
	if err := os.MkdirAll(path, 0o755); err != nil {
		return errors.Wrap(err, "create key directory")
	}

	for name, w := range map[string]io.WriterTo{ccsFile: c.CCS, pkFile: c.PK, vkFile: c.VK} {
		if err := writeFileAtomic(filepath.Join(path, name), w); err != nil {
			return errors.Wrapf(err, "write %s", name)
		}
	}
	return nil
}

// loadKeys reads the keys set up for ccs. It returns os.ErrNotExist when
// none were persisted for this fingerprint.
func loadKeys(dir string, id claims.CircuitID, oracle sigchain.OracleKey, ccs constraint.ConstraintSystem, fp string) (*CompiledCircuit, error) {
	path := keyPath(dir, id, oracle, fp)

	c := &CompiledCircuit{
		ID:          id,
		Oracle:      oracle,
		Fingerprint: fp,
		CCS:         ccs,
		PK:          groth16.NewProvingKey(ElipticalCurveID),
		VK:          groth16.NewVerifyingKey(ElipticalCurveID),
	}
	for name, r := range map[string]io.ReaderFrom{pkFile: c.PK, vkFile: c.VK} {
		if err := readFile(filepath.Join(path, name), r); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func writeFileAtomic(path string, w io.WriterTo) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := w.WriteTo(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func readFile(path string, r io.ReaderFrom) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := r.ReadFrom(f); err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return nil
}
