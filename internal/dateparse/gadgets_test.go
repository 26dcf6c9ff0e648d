package dateparse

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/test"
	"github.com/id-Mask/smart-contracts/internal/attribute"
	"github.com/stretchr/testify/assert"
)

type pnoCircuit struct {
	PNO  Chars
	Date frontend.Variable `gnark:",public"`
}

func (c *pnoCircuit) Define(api frontend.API) error {
	api.AssertIsEqual(PNOBirthDate(api, c.PNO), c.Date)
	return nil
}

type dateStringCircuit struct {
	S    Chars
	Date frontend.Variable `gnark:",public"`
}

func (c *dateStringCircuit) Define(api frontend.API) error {
	y, m, d := DateFromString(api, c.S)
	api.AssertIsEqual(ComposeDateGadget(api, y, m, d), c.Date)
	return nil
}

type olderThanCircuit struct {
	Birth, Current frontend.Variable
	Years          frontend.Variable `gnark:",public"`
}

func (c *olderThanCircuit) Define(api frontend.API) error {
	AssertOlderThan(api, c.Birth, c.Current, c.Years)
	return nil
}

func chars(s string) Chars {
	return attribute.MustCircuitString(s).Values()
}

func TestPNOBirthDateGadgetMatchesParser(t *testing.T) {
	for _, pno := range []string{"PNOLT-41111117143", "PNOEE-29912310000", "PNOEE-30506150000", "PNOEE-50001010000", "PNOEE-90101010000"} {
		want, err := ParseDateFromPNO(pno)
		assert.NoError(t, err)

		err = test.IsSolved(&pnoCircuit{}, &pnoCircuit{PNO: chars(pno), Date: want}, ecc.BN254.ScalarField())
		assert.NoError(t, err, pno)
	}
}

func TestPNOBirthDateGadgetRejectsNonDigits(t *testing.T) {
	for _, pno := range []string{"PNOLT-4A111117143", "PNOLT-41111:17143", "PNOLT-/1111117143"} {
		err := test.IsSolved(&pnoCircuit{}, &pnoCircuit{PNO: chars(pno), Date: 0}, ecc.BN254.ScalarField())
		assert.Error(t, err, pno)
	}
}

func TestDateFromStringGadget(t *testing.T) {
	err := test.IsSolved(&dateStringCircuit{}, &dateStringCircuit{S: chars("2023-11-16"), Date: 20231116}, ecc.BN254.ScalarField())
	assert.NoError(t, err)

	for _, s := range []string{"2023/11/16", "2023-11-16Z", "2023-1a-16"} {
		err := test.IsSolved(&dateStringCircuit{}, &dateStringCircuit{S: chars(s), Date: 20231116}, ecc.BN254.ScalarField())
		assert.Error(t, err, s)
	}
}

func TestAssertOlderThan(t *testing.T) {
	for _, tc := range []struct {
		name           string
		birth, current uint64
		years          uint64
		ok             bool
	}{
		{"adult", 19111111, 20231024, 18, true},
		{"exact year count", 19111111, 20231024, 111, true},
		{"before birthday", 19111111, 20231024, 112, false},
		{"on birthday", 19111111, 20231111, 112, true},
		{"zero age", 19111111, 20231024, 0, false},
		{"age 199 bound", 18000101, 99991231, 199, true},
		{"age 200", 18000101, 99991231, 200, false},
		{"current before birth", 20231024, 19111111, 1, false},
		{"current equals birth", 19111111, 19111111, 1, false},
		{"current out of range", 19111111, 100000101, 1, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := test.IsSolved(&olderThanCircuit{}, &olderThanCircuit{
				Birth: tc.birth, Current: tc.current, Years: tc.years,
			}, ecc.BN254.ScalarField())
			if tc.ok {
				assert.NoError(t, err)
				assert.True(t, OlderThan(tc.birth, tc.current, tc.years))
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestParsersIndexSlotsLikeTheGadgets(t *testing.T) {
	pno := "ÄÄÄÄÄÄ41111117143"
	cs := attribute.MustCircuitString(pno)

	want, err := BirthDate(cs)
	assert.NoError(t, err)
	assert.Equal(t, uint64(19111111), want)

	fromString, err := ParseDateFromPNO(pno)
	assert.NoError(t, err)
	assert.Equal(t, want, fromString)

	err = test.IsSolved(&pnoCircuit{}, &pnoCircuit{PNO: cs.Values(), Date: want}, ecc.BN254.ScalarField())
	assert.NoError(t, err)

	date, err := Date(attribute.MustCircuitString("2023-11-16"))
	assert.NoError(t, err)
	assert.Equal(t, uint64(20231116), date)

	_, err = Date(attribute.MustCircuitString("2023-11-1Ä"))
	assert.ErrorIs(t, err, ErrMalformedDigit)
	err = test.IsSolved(&dateStringCircuit{}, &dateStringCircuit{S: chars("2023-11-1Ä"), Date: 20231116}, ecc.BN254.ScalarField())
	assert.Error(t, err)
}
