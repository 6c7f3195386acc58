package model

import (
	"fmt"
	"time"
)

const (
	DefaultTimezone = "Asia/Kolkata"
	DateLayout      = "2006-01-02"
)

// LocalDate returns the calendar date of t in the given IANA zone.
// An empty zone falls back to DefaultTimezone.
func LocalDate(t time.Time, timezone string) (string, error) {
	loc, err := LoadZone(timezone)
	if err != nil {
		return "", err
	}
	return t.In(loc).Format(DateLayout), nil
}

func LoadZone(timezone string) (*time.Location, error) {
	if timezone == "" {
		timezone = DefaultTimezone
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	return loc, nil
}

func ValidDate(value string) bool {
	_, err := time.Parse(DateLayout, value)
	return err == nil
}
