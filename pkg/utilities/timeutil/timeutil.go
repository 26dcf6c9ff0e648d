package timeutil

import (
	"time"
)

// TimeUTC is Unix time (in seconds) in UTC.
// Ledger events and log messages carry it so timestamps stay zone free.
type TimeUTC struct {
	T int64 `json:"t"`
}

func NowUTC() TimeUTC {
	return TimeUTC{T: time.Now().UTC().Unix()}
}

func FromTime(t time.Time) TimeUTC {
	return TimeUTC{T: t.UTC().Unix()}
}

func (t TimeUTC) Time() time.Time {
	return time.Unix(t.T, 0).UTC()
}

func (t TimeUTC) After(other TimeUTC) bool { return t.T > other.T }

// DateNumber renders the day as YYYYMMDD, the format oracles sign.
func (t TimeUTC) DateNumber() uint64 {
	y, m, d := t.Time().Date()
	return uint64(y)*10000 + uint64(m)*100 + uint64(d)
}
