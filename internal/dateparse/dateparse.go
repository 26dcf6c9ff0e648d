// Package dateparse decodes dates from personal numbers and "YYYY-MM-DD" strings
// using fixed-position digit arithmetic. Every function here has an in-circuit
// twin in gadgets.go that produces the same value.
package dateparse

import (
	"errors"
	"fmt"

	"github.com/id-Mask/smart-contracts/internal/attribute"
	"github.com/id-Mask/smart-contracts/pkg/reasoncodes"
)

const (
	// CenturyIndex is the offset of the century/sex digit in a personal number,
	// e.g. "PNOLT-41111117143".
	CenturyIndex = 6
	// PNODigitsEnd is one past the last date digit.
	PNODigitsEnd = CenturyIndex + 7

	// DateStringLength is len("YYYY-MM-DD").
	DateStringLength = 10

	// MaxDate bounds any YYYYMMDD value the circuits accept.
	MaxDate uint64 = 99991231

	// YearScale is one year in YYYYMMDD units.
	YearScale uint64 = 10000

	daysPerYear  = 365
	daysPerMonth = 30
)

var (
	ErrMalformedDigit = errors.New("malformed digit")
	ErrTooShort       = errors.New("identifier too short")
	ErrSeparator      = errors.New("missing date separator")
)

// Offsets count characters, one per CircuitString slot, never UTF-8 bytes.
func digitAt(s []rune, i int) (uint64, error) {
	if i >= len(s) {
		return 0, reasoncodes.New(reasoncodes.ErrMalformedInput, fmt.Errorf("%w: need index %d of %q", ErrTooShort, i, string(s)))
	}
	c := s[i]
	if c < '0' || c > '9' {
		return 0, reasoncodes.New(reasoncodes.ErrMalformedInput, fmt.Errorf("%w: %q at %d", ErrMalformedDigit, c, i))
	}
	return uint64(c - '0'), nil
}

func digitsAt(s []rune, idx ...int) ([]uint64, error) {
	out := make([]uint64, len(idx))
	for k, i := range idx {
		d, err := digitAt(s, i)
		if err != nil {
			return nil, err
		}
		out[k] = d
	}
	return out, nil
}

// Century maps the century digit to the first two digits of the birth year.
// 0-2 -> 18, 3-4 -> 19, 5-9 -> 20.
func Century(d uint64) uint64 {
	c := uint64(18)
	if d >= 3 {
		c++
	}
	if d >= 5 {
		c++
	}
	return c
}

// ParseDateFromPNO returns the birth date encoded in a personal number as YYYYMMDD.
func ParseDateFromPNO(pno string) (uint64, error) {
	return parsePNO([]rune(pno))
}

// BirthDate reads the personal number slots exactly as PNOBirthDate does in circuit.
func BirthDate(pno attribute.CircuitString) (uint64, error) {
	return parsePNO(slots(pno))
}

func parsePNO(pno []rune) (uint64, error) {
	d, err := digitsAt(pno, CenturyIndex, 7, 8, 9, 10, 11, 12)
	if err != nil {
		return 0, err
	}
	century, decade, year, m1, m2, d1, d2 := Century(d[0]), d[1], d[2], d[3], d[4], d[5], d[6]

	return century*1_000_000 + decade*100_000 + year*10_000 + m1*1000 + m2*100 + d1*10 + d2, nil
}

// ParseDateFromDateString splits "YYYY-MM-DD".
func ParseDateFromDateString(s string) (year, month, day uint64, err error) {
	return parseDateString([]rune(s))
}

// Date composes the YYYYMMDD value of a "YYYY-MM-DD" circuit string.
func Date(s attribute.CircuitString) (uint64, error) {
	y, m, d, err := parseDateString(slots(s))
	if err != nil {
		return 0, err
	}
	return ComposeDate(y, m, d), nil
}

func parseDateString(s []rune) (year, month, day uint64, err error) {
	if len(s) != DateStringLength {
		return 0, 0, 0, reasoncodes.New(reasoncodes.ErrMalformedInput, fmt.Errorf("date %q: want %d characters", string(s), DateStringLength))
	}
	if s[4] != '-' || s[7] != '-' {
		return 0, 0, 0, reasoncodes.New(reasoncodes.ErrMalformedInput, fmt.Errorf("%w in %q", ErrSeparator, string(s)))
	}

	d, err := digitsAt(s, 0, 1, 2, 3, 5, 6, 8, 9)
	if err != nil {
		return 0, 0, 0, err
	}
	year = d[0]*1000 + d[1]*100 + d[2]*10 + d[3]
	month = d[4]*10 + d[5]
	day = d[6]*10 + d[7]
	return year, month, day, nil
}

func slots(cs attribute.CircuitString) []rune {
	out := make([]rune, cs.Len())
	for i := range out {
		out[i] = rune(cs[i])
	}
	return out
}

func ComposeDate(year, month, day uint64) uint64 {
	return year*10_000 + month*100 + day
}

// SplitDate is the inverse of ComposeDate.
func SplitDate(date uint64) (year, month, day uint64) {
	return date / 10_000, date / 100 % 100, date % 100
}

// OlderThan reports currentDate - years·10000 >= birthDate on YYYYMMDD numbers.
// Subtracting whole years leaves month and day untouched, so the comparison is
// exact on calendar dates: the holder turns `years` old on their birthday.
func OlderThan(birthDate, currentDate, years uint64) bool {
	shift := years * YearScale
	if shift > currentDate {
		return false
	}
	return currentDate-shift >= birthDate
}

// LegacyDayCount is the earlier 365/30 approximation of a day count.
// Month lengths vary, so two dates compared this way can be off by several days.
func LegacyDayCount(year, month, day uint64) uint64 {
	return year*daysPerYear + month*daysPerMonth + day
}
