package sigchain

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
	"github.com/consensys/gnark-crypto/ecc/bn254/twistededwards/eddsa"
	"github.com/id-Mask/smart-contracts/internal/attribute"
	"github.com/id-Mask/smart-contracts/pkg/reasoncodes"
)

var (
	ErrInvalidSignature = errors.New("invalid signature")
	ErrNoOracle         = errors.New("oracle key not set")
)

// Link is one signature in the chain.
type Link struct {
	Name      string
	Payload   []fr.Element
	Signature []byte
	// PublicKey is ignored when Oracle is set.
	PublicKey eddsa.PublicKey
	Oracle    bool
}

func OracleLink[T attribute.Payload](name string, sp attribute.SignedPayload[T]) Link {
	return Link{Name: name, Payload: sp.Data.Fields(), Signature: sp.Signature, Oracle: true}
}

func HolderLink(name string, payload []fr.Element, account attribute.CreatorAccount) Link {
	return Link{Name: name, Payload: payload, Signature: account.Signature, PublicKey: account.PublicKey}
}

// DeviceLink is the authenticator's P-256 signature over its challenge.
type DeviceLink struct {
	PublicKey *ecdsa.PublicKey
	Challenge [attribute.ChallengeSize]byte
	R, S      *big.Int
}

func DeviceLinkFrom(pk attribute.PassKeys) *DeviceLink {
	return &DeviceLink{PublicKey: pk.PublicKey, Challenge: pk.Payload, R: pk.R, S: pk.S}
}

func (d *DeviceLink) Verify() error {
	if d.PublicKey == nil || d.R == nil || d.S == nil {
		return invalid("device", errors.New("incomplete credential"))
	}
	if !ecdsa.Verify(d.PublicKey, d.Challenge[:], d.R, d.S) {
		return invalid("device", nil)
	}
	return nil
}

// Chain is the ordered set of signatures a claim depends on.
type Chain struct {
	Oracle OracleKey
	Links  []Link
	Device *DeviceLink
}

// Verify checks every link in order and stops at the first failure.
func (c Chain) Verify() error {
	for _, link := range c.Links {
		pub := link.PublicKey
		if link.Oracle {
			if c.Oracle.IsZero() {
				return reasoncodes.New(reasoncodes.ErrInvalidSignature, fmt.Errorf("%s: %w", link.Name, ErrNoOracle))
			}
			pub = c.Oracle.PublicKey()
		}
		if err := VerifySignature(link.Name, pub, link.Signature, link.Payload); err != nil {
			return err
		}
	}
	if c.Device != nil {
		return c.Device.Verify()
	}
	return nil
}

func VerifySignature(name string, pub eddsa.PublicKey, sig []byte, payload []fr.Element) error {
	if !pub.A.IsOnCurve() {
		return invalid(name, errors.New("public key not on curve"))
	}
	ok, err := pub.Verify(sig, attribute.DigestBytes(payload), mimc.NewMiMC())
	if err != nil {
		return invalid(name, err)
	}
	if !ok {
		return invalid(name, nil)
	}
	return nil
}

func invalid(name string, cause error) error {
	if cause != nil {
		return reasoncodes.New(reasoncodes.ErrInvalidSignature, fmt.Errorf("%s: %w: %v", name, ErrInvalidSignature, cause))
	}
	return reasoncodes.New(reasoncodes.ErrInvalidSignature, fmt.Errorf("%s: %w", name, ErrInvalidSignature))
}
