package dateparse

import (
	"testing"

	"github.com/id-Mask/smart-contracts/pkg/reasoncodes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateFromPNO(t *testing.T) {
	for _, tc := range []struct {
		pno  string
		want uint64
	}{
		{"PNOLT-41111117143", 19111111},
		{"PNOEE-10001010000", 18000101},
		{"PNOEE-29912310000", 18991231},
		{"PNOEE-30506150000", 19050615},
		{"PNOEE-49912310000", 19991231},
		{"PNOEE-50001010000", 20000101},
		{"PNOEE-60402290000", 20040229},
		{"PNOEE-90101010000", 20010101},
	} {
		got, err := ParseDateFromPNO(tc.pno)
		require.NoError(t, err, tc.pno)
		assert.Equal(t, tc.want, got, tc.pno)
	}
}

func TestParseDateFromPNODeterministic(t *testing.T) {
	a, err := ParseDateFromPNO("PNOLT-41111117143")
	require.NoError(t, err)
	b, err := ParseDateFromPNO("PNOLT-41111117143")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestParseDateFromPNORejectsMalformed(t *testing.T) {
	for _, pno := range []string{"PNOLT-4111111", "PNOLT-4A111117143", "PNOLT-:1111117143", "PNOLT-41111/17143"} {
		_, err := ParseDateFromPNO(pno)
		require.Error(t, err, pno)
		assert.Equal(t, reasoncodes.ErrMalformedInput, reasoncodes.CodeOf(err, ""), pno)
	}

	_, err := ParseDateFromPNO("PNOLT-4A111117143")
	assert.ErrorIs(t, err, ErrMalformedDigit)
	_, err = ParseDateFromPNO("PNO")
	assert.ErrorIs(t, err, ErrTooShort)
}

func TestCentury(t *testing.T) {
	want := []uint64{18, 18, 18, 19, 19, 20, 20, 20, 20, 20}
	for d, c := range want {
		assert.Equal(t, c, Century(uint64(d)), "digit %d", d)
	}
}

func TestParseDateFromDateString(t *testing.T) {
	y, m, d, err := ParseDateFromDateString("2023-11-16")
	require.NoError(t, err)
	assert.Equal(t, []uint64{2023, 11, 16}, []uint64{y, m, d})
	assert.Equal(t, uint64(20231116), ComposeDate(y, m, d))

	for _, s := range []string{"2023/11/16", "2023-11-1", "2023-1x-16", "20231116"} {
		_, _, _, err := ParseDateFromDateString(s)
		assert.Error(t, err, s)
	}
}

func TestSplitDate(t *testing.T) {
	y, m, d := SplitDate(20231024)
	assert.Equal(t, uint64(20231024), ComposeDate(y, m, d))
}

func TestOlderThan(t *testing.T) {
	const birth, today = 19111111, 20231024
	assert.True(t, OlderThan(birth, today, 18))
	assert.True(t, OlderThan(birth, today, 111))
	// the 112th birthday is on 2023-11-11
	assert.False(t, OlderThan(birth, today, 112))
	assert.True(t, OlderThan(birth, 20231111, 112))
	assert.False(t, OlderThan(birth, 5, 1))
}

func TestLegacyDayCount(t *testing.T) {
	assert.Equal(t, uint64(2023*365+10*30+24), LegacyDayCount(2023, 10, 24))
	// January 31st and February 1st land on the same legacy day
	assert.Equal(t, LegacyDayCount(2023, 1, 31), LegacyDayCount(2023, 2, 1))
}
