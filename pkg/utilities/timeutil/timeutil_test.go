package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDateNumber(t *testing.T) {
	ts := FromTime(time.Date(2023, time.October, 24, 13, 5, 0, 0, time.UTC))
	assert.Equal(t, uint64(20231024), ts.DateNumber())
}

func TestAfter(t *testing.T) {
	earlier := TimeUTC{T: 10}
	later := TimeUTC{T: 11}

	assert.True(t, later.After(earlier))
	assert.False(t, earlier.After(later))
	assert.Equal(t, int64(10), FromTime(earlier.Time()).T)
}
