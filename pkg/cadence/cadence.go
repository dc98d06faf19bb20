// Package cadence implements the wall-clock-aligned fire schedule shared by
// every probe (sample, inventory, jobs, cluster).
package cadence

import (
	"fmt"
	"strconv"
	"time"
)

// Unit distinguishes the three cadence grammars accepted in configuration.
type Unit int

const (
	Seconds Unit = iota
	Minutes
	Hours
)

// Duration is a validated (unit, magnitude) pair, e.g. "5m" or "24h".
type Duration struct {
	Unit Unit
	N    int64
}

// Parse accepts "<integer><h|m|s>" and validates the divisibility rules from
// the cadence design: seconds and minutes must evenly divide 60; hours up to
// 24 must evenly divide 24; hours beyond 24 must evenly divide into whole
// multiples of a day.
func Parse(s string) (Duration, error) {
	if len(s) < 2 {
		return Duration{}, fmt.Errorf("cadence: %q too short", s)
	}
	unitCh := s[len(s)-1]
	n, err := strconv.ParseInt(s[:len(s)-1], 10, 64)
	if err != nil || n <= 0 {
		return Duration{}, fmt.Errorf("cadence: bad magnitude in %q", s)
	}
	var u Unit
	switch unitCh {
	case 's':
		u = Seconds
	case 'm':
		u = Minutes
	case 'h':
		u = Hours
	default:
		return Duration{}, fmt.Errorf("cadence: unknown unit in %q", s)
	}
	d := Duration{Unit: u, N: n}
	if err := d.Validate(); err != nil {
		return Duration{}, err
	}
	return d, nil
}

// Validate rejects cadences that do not evenly tile their unit.
func (d Duration) Validate() error {
	switch d.Unit {
	case Seconds:
		if d.N <= 0 || 60%d.N != 0 {
			return fmt.Errorf("cadence: seconds must evenly divide 60, got %d", d.N)
		}
	case Minutes:
		if d.N <= 0 || d.N >= 60 || 60%d.N != 0 {
			return fmt.Errorf("cadence: minutes must evenly divide 60, got %d", d.N)
		}
	case Hours:
		if d.N <= 0 {
			return fmt.Errorf("cadence: hours must be positive, got %d", d.N)
		}
		if d.N <= 24 {
			if 24%d.N != 0 {
				return fmt.Errorf("cadence: hours<=24 must evenly divide 24, got %d", d.N)
			}
		} else if d.N%24 != 0 {
			return fmt.Errorf("cadence: hours>24 must be a whole number of days, got %d", d.N)
		}
	default:
		return fmt.Errorf("cadence: unknown unit")
	}
	return nil
}

// ToSeconds returns the cadence expressed in seconds, for the timer's repeat
// interval once the first wall-aligned fire has happened.
func (d Duration) ToSeconds() int64 {
	switch d.Unit {
	case Seconds:
		return d.N
	case Minutes:
		return d.N * 60
	case Hours:
		return d.N * 3600
	default:
		return 0
	}
}

func (d Duration) String() string {
	switch d.Unit {
	case Seconds:
		return fmt.Sprintf("%ds", d.N)
	case Minutes:
		return fmt.Sprintf("%dm", d.N)
	case Hours:
		return fmt.Sprintf("%dh", d.N)
	default:
		return "invalid"
	}
}

// NextFire rounds now up to the next multiple of d: seconds round to the
// next s-second mark within the minute, minutes to the next m-minute mark
// within the hour, hours<=24 to the next h-hour mark within the day, and
// hours>24 to the next midnight whose day-of-year is a multiple of h/24.
// All arithmetic is performed against the UTC calendar so every node in a
// cluster aligns regardless of local timezone.
func NextFire(now time.Time, d Duration) time.Time {
	u := now.UTC()
	second := int64(u.Second())
	minute := int64(u.Minute())
	hour := int64(u.Hour())
	day := int64(u.YearDay() - 1) // zero-based day-of-year

	var deltaSec int64
	switch d.Unit {
	case Seconds:
		s := d.N
		deltaSec = s - second%s
	case Minutes:
		m := d.N
		deltaSec = 60*(m-minute%m) - second
	case Hours:
		h := d.N
		if h <= 24 {
			deltaSec = 60*(60*(h-hour%h)-minute) - second
		} else {
			dd := h / 24
			deltaSec = 60*(60*(24*(dd-day%dd)-hour)-minute) - second
		}
	}
	return u.Add(time.Duration(deltaSec) * time.Second)
}
