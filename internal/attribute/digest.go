package attribute

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
)

// Digest is MiMC over the field sequence, matching the in-circuit hasher.
func Digest(fields []fr.Element) fr.Element {
	h := mimc.NewMiMC()
	for i := range fields {
		b := fields[i].Bytes()
		// elements are canonical, Write cannot fail
		_, _ = h.Write(b[:])
	}

	var out fr.Element
	out.SetBytes(h.Sum(nil))
	return out
}

// DigestBytes is the 32-byte big-endian form signers sign over.
func DigestBytes(fields []fr.Element) []byte {
	d := Digest(fields)
	b := d.Bytes()
	return b[:]
}
