package common

import (
	"errors"
	"fmt"
	"time"
)

// PeriodType selects how a recurring window advances.
type PeriodType string

const (
	PeriodDays   PeriodType = "DAYS"
	PeriodMonths PeriodType = "MONTHS"
)

var ErrInvalidPeriod = errors.New("period: invalid period")

// Validate rejects unknown period types and zero multiples.
func (p PeriodType) Validate(multiple uint16) error {
	if p != PeriodDays && p != PeriodMonths {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidPeriod, p)
	}
	if multiple == 0 {
		return fmt.Errorf("%w: multiple must be positive", ErrInvalidPeriod)
	}
	return nil
}

// NextPeriodStart returns the next window boundary after now. DAYS advances
// by multiple*24h; MONTHS jumps to 00:00 UTC on the first day of the month
// multiple months ahead, rolling the year as needed.
func NextPeriodStart(now time.Time, period PeriodType, multiple uint16) (time.Time, error) {
	if err := period.Validate(multiple); err != nil {
		return time.Time{}, err
	}
	now = now.UTC()
	switch period {
	case PeriodDays:
		return now.Add(time.Duration(multiple) * 24 * time.Hour), nil
	default:
		months := int(now.Month()) - 1 + int(multiple)
		year := now.Year() + months/12
		month := time.Month(months%12 + 1)
		return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC), nil
	}
}

// WindowExpired reports whether a window ending at cooldown (unix seconds)
// has lapsed at now.
func WindowExpired(now time.Time, cooldown uint64) bool {
	secs := now.Unix()
	if secs < 0 {
		return false
	}
	return uint64(secs) >= cooldown
}
