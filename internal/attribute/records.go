package attribute

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// PersonalDataFieldCount is len(PersonalData.Fields()): four strings plus currentDate and isMockData.
const PersonalDataFieldCount = 4*MaxStringLength + 2

// SanctionsDataFieldCount is len(SanctionsData.Fields()).
const SanctionsDataFieldCount = MaxStringLength + 3

// PersonalData is the identity record attested by the oracle.
type PersonalData struct {
	Name        CircuitString
	Surname     CircuitString
	Country     CircuitString
	PNO         CircuitString
	CurrentDate uint64
	IsMockData  bool
}

// Fields flattens the record in declaration order. Signatures are computed over exactly this sequence.
func (pd PersonalData) Fields() []fr.Element {
	fields := make([]fr.Element, 0, PersonalDataFieldCount)
	fields = append(fields, pd.Name.Fields()...)
	fields = append(fields, pd.Surname.Fields()...)
	fields = append(fields, pd.Country.Fields()...)
	fields = append(fields, pd.PNO.Fields()...)
	fields = append(fields, element(pd.CurrentDate), boolElement(pd.IsMockData))
	return fields
}

func (pd PersonalData) Digest() fr.Element {
	return Digest(pd.Fields())
}

// SanctionsData is the oracle's screening result for the holder.
type SanctionsData struct {
	IsMatched bool
	MinScore  uint64
	// CurrentDate is the screening day as "YYYY-MM-DD".
	CurrentDate CircuitString
	IsMockData  bool
}

func (sd SanctionsData) Fields() []fr.Element {
	fields := make([]fr.Element, 0, SanctionsDataFieldCount)
	fields = append(fields, boolElement(sd.IsMatched), element(sd.MinScore))
	fields = append(fields, sd.CurrentDate.Fields()...)
	fields = append(fields, boolElement(sd.IsMockData))
	return fields
}

func (sd SanctionsData) Digest() fr.Element {
	return Digest(sd.Fields())
}

// PersonalSecret is the oracle-issued per-person salt.
type PersonalSecret struct {
	Secret CircuitString
}

func (ps PersonalSecret) Fields() []fr.Element {
	return ps.Secret.Fields()
}

func (ps PersonalSecret) Digest() fr.Element {
	return Digest(ps.Fields())
}

func element(v uint64) fr.Element {
	var e fr.Element
	e.SetUint64(v)
	return e
}

func boolElement(b bool) fr.Element {
	if b {
		return element(1)
	}
	return element(0)
}

// BoolValue is the witness form of a 0/1 flag.
func BoolValue(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
