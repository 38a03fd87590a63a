package models

import (
	"errors"
	"fmt"
	"time"
)

const DayKeyLayout = "2006-01-02"

var (
	ErrInvalidDayKey = errors.New("invalid day-key")
	ErrRangeTooLarge = errors.New("day range too large")
)

// DayKey returns the storage partition key for t in loc.
func DayKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DayKeyLayout)
}

func ParseDayKey(key string) (time.Time, error) {
	t, err := time.ParseInLocation(DayKeyLayout, key, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q", ErrInvalidDayKey, key)
	}
	return t, nil
}

// IsDayKey tells day records apart from other keys such as "theme".
func IsDayKey(key string) bool {
	_, err := ParseDayKey(key)
	return err == nil
}

// DayRange lists every day-key from..to inclusive, in order.
func DayRange(from, to string, maxDays int) ([]string, error) {
	start, err := ParseDayKey(from)
	if err != nil {
		return nil, err
	}
	end, err := ParseDayKey(to)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		start, end = end, start
	}

	days := int(end.Sub(start).Hours()/24) + 1
	if maxDays > 0 && days > maxDays {
		return nil, fmt.Errorf("%w: %d days, limit %d", ErrRangeTooLarge, days, maxDays)
	}

	keys := make([]string, 0, days)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		keys = append(keys, d.Format(DayKeyLayout))
	}
	return keys, nil
}
