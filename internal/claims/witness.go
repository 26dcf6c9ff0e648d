package claims

import (
	"github.com/consensys/gnark/frontend"
	"github.com/id-Mask/smart-contracts/internal/attribute"
	"github.com/id-Mask/smart-contracts/internal/dateparse"
)

// PersonalDataWitness is attribute.PersonalData as circuit inputs.
type PersonalDataWitness struct {
	Name        dateparse.Chars
	Surname     dateparse.Chars
	Country     dateparse.Chars
	PNO         dateparse.Chars
	CurrentDate frontend.Variable
	IsMockData  frontend.Variable
}

// Fields mirrors attribute.PersonalData.Fields.
func (w *PersonalDataWitness) Fields() []frontend.Variable {
	fields := make([]frontend.Variable, 0, attribute.PersonalDataFieldCount)
	fields = append(fields, w.Name[:]...)
	fields = append(fields, w.Surname[:]...)
	fields = append(fields, w.Country[:]...)
	fields = append(fields, w.PNO[:]...)
	return append(fields, w.CurrentDate, w.IsMockData)
}

func AssignPersonalData(pd attribute.PersonalData) PersonalDataWitness {
	return PersonalDataWitness{
		Name:        pd.Name.Values(),
		Surname:     pd.Surname.Values(),
		Country:     pd.Country.Values(),
		PNO:         pd.PNO.Values(),
		CurrentDate: pd.CurrentDate,
		IsMockData:  attribute.BoolValue(pd.IsMockData),
	}
}

type SanctionsDataWitness struct {
	IsMatched   frontend.Variable
	MinScore    frontend.Variable
	CurrentDate dateparse.Chars
	IsMockData  frontend.Variable
}

func (w *SanctionsDataWitness) Fields() []frontend.Variable {
	fields := make([]frontend.Variable, 0, attribute.SanctionsDataFieldCount)
	fields = append(fields, w.IsMatched, w.MinScore)
	fields = append(fields, w.CurrentDate[:]...)
	return append(fields, w.IsMockData)
}

func AssignSanctionsData(sd attribute.SanctionsData) SanctionsDataWitness {
	return SanctionsDataWitness{
		IsMatched:   attribute.BoolValue(sd.IsMatched),
		MinScore:    sd.MinScore,
		CurrentDate: sd.CurrentDate.Values(),
		IsMockData:  attribute.BoolValue(sd.IsMockData),
	}
}

type PersonalSecretWitness struct {
	Secret dateparse.Chars
}

func (w *PersonalSecretWitness) Fields() []frontend.Variable {
	return w.Secret[:]
}

func AssignPersonalSecret(ps attribute.PersonalSecret) PersonalSecretWitness {
	return PersonalSecretWitness{Secret: ps.Secret.Values()}
}
