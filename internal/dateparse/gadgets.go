package dateparse

import (
	"github.com/consensys/gnark/frontend"
	"github.com/id-Mask/smart-contracts/internal/attribute"
)

// Chars is the witness form of an attribute.CircuitString.
type Chars = [attribute.MaxStringLength]frontend.Variable

// Digit converts a character code to its value and asserts it is 0..9.
// Codes below '0' wrap around the field and fail the same bound.
func Digit(api frontend.API, c frontend.Variable) frontend.Variable {
	d := api.Sub(c, int('0'))
	api.AssertIsLessOrEqual(d, 9)
	return d
}

// atLeast is 1 when v >= k, else 0.
func atLeast(api frontend.API, v frontend.Variable, k int) frontend.Variable {
	// Cmp is -1, 0 or 1
	less := api.IsZero(api.Add(api.Cmp(v, k), 1))
	return api.Sub(1, less)
}

func CenturyGadget(api frontend.API, d frontend.Variable) frontend.Variable {
	return api.Add(18, atLeast(api, d, 3), atLeast(api, d, 5))
}

// PNOBirthDate is the in-circuit ParseDateFromPNO.
func PNOBirthDate(api frontend.API, pno Chars) frontend.Variable {
	century := CenturyGadget(api, Digit(api, pno[CenturyIndex]))

	terms := []frontend.Variable{api.Mul(century, 1_000_000)}
	for i, weight := range []int{100_000, 10_000, 1000, 100, 10, 1} {
		terms = append(terms, api.Mul(Digit(api, pno[CenturyIndex+1+i]), weight))
	}
	return api.Add(terms[0], terms[1], terms[2:]...)
}

// DateFromString is the in-circuit ParseDateFromDateString. It also pins the
// length by asserting the slot after the day is empty.
func DateFromString(api frontend.API, s Chars) (year, month, day frontend.Variable) {
	api.AssertIsEqual(s[4], int('-'))
	api.AssertIsEqual(s[7], int('-'))
	api.AssertIsEqual(s[DateStringLength], 0)

	year = api.Add(
		api.Mul(Digit(api, s[0]), 1000),
		api.Mul(Digit(api, s[1]), 100),
		api.Mul(Digit(api, s[2]), 10),
		Digit(api, s[3]),
	)
	month = api.Add(api.Mul(Digit(api, s[5]), 10), Digit(api, s[6]))
	day = api.Add(api.Mul(Digit(api, s[8]), 10), Digit(api, s[9]))
	return year, month, day
}

func ComposeDateGadget(api frontend.API, year, month, day frontend.Variable) frontend.Variable {
	return api.Add(api.Mul(year, 10_000), api.Mul(month, 100), day)
}

// AssertOlderThan enforces 0 < years < 200, currentDate <= MaxDate,
// currentDate > birthDate and currentDate - years·10000 >= birthDate.
// birthDate from PNOBirthDate is at least 18000000, so the subtraction cannot wrap.
func AssertOlderThan(api frontend.API, birthDate, currentDate, years frontend.Variable) {
	api.AssertIsDifferent(years, 0)
	api.AssertIsLessOrEqual(years, 199)
	api.AssertIsLessOrEqual(currentDate, MaxDate)
	api.AssertIsLessOrEqual(api.Add(birthDate, 1), currentDate)
	api.AssertIsLessOrEqual(birthDate, api.Sub(currentDate, api.Mul(years, YearScale)))
}
