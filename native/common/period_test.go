package common

import (
	"errors"
	"testing"
	"time"
)

func TestNextPeriodStartMonths(t *testing.T) {
	cases := []struct {
		now      time.Time
		multiple uint16
		want     time.Time
	}{
		{time.Date(2023, time.December, 15, 10, 30, 0, 0, time.UTC), 1, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)},
		{time.Date(2023, time.March, 31, 23, 59, 59, 0, time.UTC), 1, time.Date(2023, time.April, 1, 0, 0, 0, 0, time.UTC)},
		{time.Date(2023, time.January, 10, 0, 0, 0, 0, time.UTC), 12, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)},
		{time.Date(2023, time.June, 10, 0, 0, 0, 0, time.UTC), 24, time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)},
		{time.Date(2023, time.November, 2, 0, 0, 0, 0, time.UTC), 14, time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		got, err := NextPeriodStart(tc.now, PeriodMonths, tc.multiple)
		if err != nil {
			t.Fatalf("next(%s, %d): %v", tc.now, tc.multiple, err)
		}
		if !got.Equal(tc.want) {
			t.Fatalf("next(%s, %d): got %s want %s", tc.now, tc.multiple, got, tc.want)
		}
	}
}

func TestNextPeriodStartDays(t *testing.T) {
	now := time.Date(2024, time.February, 28, 12, 0, 0, 0, time.UTC)
	got, err := NextPeriodStart(now, PeriodDays, 2)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if want := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("next: got %s want %s", got, want)
	}
	if _, err := NextPeriodStart(now, PeriodDays, 0); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("zero multiple: got %v", err)
	}
	if _, err := NextPeriodStart(now, PeriodType("WEEKS"), 1); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("unknown type: got %v", err)
	}
}

func TestWindowExpiredAndPageLimit(t *testing.T) {
	now := time.Unix(1000, 0)
	if !WindowExpired(now, 1000) || WindowExpired(now, 1001) {
		t.Fatalf("window boundary mismatch")
	}
	big := uint32(100)
	small := uint32(5)
	if PageLimit(nil) != DefaultPageLimit || PageLimit(&big) != MaxPageLimit || PageLimit(&small) != 5 {
		t.Fatalf("page limit mismatch")
	}
}
