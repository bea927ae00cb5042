package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	dateRe  = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
	clockRe = regexp.MustCompile(`^(\d{1,2})(?:[:h.](\d{2}))?$`)
)

// ParsedDate holds the numeric parts of a booking date. Ranges are not checked here.
type ParsedDate struct {
	Year  int
	Month int
	Day   int
}

// ParseDate extracts year, month and day from "YYYY-MM-DD" (single digit month/day allowed).
func ParseDate(raw string) (ParsedDate, error) {
	s := strings.TrimSpace(raw)
	m := dateRe.FindStringSubmatch(s)
	if m == nil {
		return ParsedDate{}, fmt.Errorf("unable to parse date: %q", raw)
	}
	// The regexp guarantees digits, Atoi cannot fail.
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	return ParsedDate{Year: year, Month: month, Day: day}, nil
}

// ParseClock converts "HH:MM", "H" or "HHhMM" into minutes since midnight.
// A bare number is an hour; minutes above 59 are rejected, hours are range-checked by policy.
func ParseClock(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	m := clockRe.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("unable to parse time: %q", raw)
	}
	hour, _ := strconv.Atoi(m[1])
	minute := 0
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	if minute > 59 {
		return 0, fmt.Errorf("invalid minutes in time: %q", raw)
	}
	return hour*60 + minute, nil
}
