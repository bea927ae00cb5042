package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDate(t *testing.T) {
	testCases := []struct {
		name      string
		raw       string
		expected  ParsedDate
		expectErr bool
	}{
		{name: "ISO date", raw: "2025-03-01", expected: ParsedDate{Year: 2025, Month: 3, Day: 1}},
		{name: "Single digits", raw: "2025-3-1", expected: ParsedDate{Year: 2025, Month: 3, Day: 1}},
		{name: "Surrounding spaces", raw: "  2024-12-31 ", expected: ParsedDate{Year: 2024, Month: 12, Day: 31}},
		{name: "Out of range is shape-valid", raw: "2025-13-40", expected: ParsedDate{Year: 2025, Month: 13, Day: 40}},
		{name: "Slashes", raw: "2025/03/01", expectErr: true},
		{name: "Two digit year", raw: "25-03-01", expectErr: true},
		{name: "Empty", raw: "", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseDate(tc.raw)
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestParseClock(t *testing.T) {
	testCases := []struct {
		name      string
		raw       string
		expected  int
		expectErr bool
	}{
		{name: "Hour only", raw: "9", expected: 540},
		{name: "Padded hour", raw: "07", expected: 420},
		{name: "Hour and minutes", raw: "09:30", expected: 570},
		{name: "h separator", raw: "13h15", expected: 795},
		{name: "Late hour is shape-valid", raw: "23:00", expected: 1380},
		{name: "Bad minutes", raw: "09:75", expectErr: true},
		{name: "Seconds", raw: "09:30:00", expectErr: true},
		{name: "Words", raw: "nine", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseClock(tc.raw)
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}
