package util

import (
	"fmt"
	"time"
)

// APIVersionLayout is the date layout of Watson API version strings.
const APIVersionLayout = "2006-01-02"

// NowUTC exposes time.Now for deterministic testing.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// ParseAPIVersion validates a version string such as 2016-02-11.
func ParseAPIVersion(version string) (time.Time, error) {
	t, err := time.Parse(APIVersionLayout, version)
	if err != nil {
		return time.Time{}, fmt.Errorf("version %q must be formatted as YYYY-MM-DD", version)
	}
	return t, nil
}
