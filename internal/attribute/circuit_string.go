package attribute

import (
	"errors"
	"fmt"
	"strings"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/frontend"
)

// MaxStringLength is the fixed slot count of every CircuitString.
// Changing it breaks every signature issued so far.
const MaxStringLength = 128

var (
	ErrStringTooLong    = errors.New("string exceeds circuit string capacity")
	ErrInvalidCharacter = errors.New("character outside 1..255")
)

// CircuitString is text laid out as one character code per slot, zero padded.
type CircuitString [MaxStringLength]uint8

func NewCircuitString(s string) (CircuitString, error) {
	var cs CircuitString

	runes := []rune(s)
	if len(runes) > MaxStringLength {
		return cs, fmt.Errorf("%w: %d > %d", ErrStringTooLong, len(runes), MaxStringLength)
	}
	for i, r := range runes {
		if r < 1 || r > 255 {
			return cs, fmt.Errorf("%w: %q at %d", ErrInvalidCharacter, r, i)
		}
		cs[i] = uint8(r)
	}
	return cs, nil
}

// MustCircuitString is NewCircuitString for literals known to be valid.
func MustCircuitString(s string) CircuitString {
	cs, err := NewCircuitString(s)
	if err != nil {
		panic(err)
	}
	return cs
}

func (cs CircuitString) String() string {
	var b strings.Builder
	for _, c := range cs {
		if c == 0 {
			break
		}
		b.WriteRune(rune(c))
	}
	return b.String()
}

func (cs CircuitString) Len() int {
	for i, c := range cs {
		if c == 0 {
			return i
		}
	}
	return MaxStringLength
}

func (cs CircuitString) Fields() []fr.Element {
	fields := make([]fr.Element, MaxStringLength)
	for i, c := range cs {
		fields[i].SetUint64(uint64(c))
	}
	return fields
}

// Values is the witness form of the string.
func (cs CircuitString) Values() [MaxStringLength]frontend.Variable {
	var values [MaxStringLength]frontend.Variable
	for i, c := range cs {
		values[i] = uint64(c)
	}
	return values
}
