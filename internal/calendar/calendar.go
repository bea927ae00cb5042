package calendar

import (
	"fmt"
	"sort"
	"time"
)

// DateLayout is the storage and wire format of a booking date.
const DateLayout = "2006-01-02"

// Slot is a half-open interval [Begin, End) on one calendar date.
// Begin and End are minutes since midnight in the location of Date.
type Slot struct {
	Date  time.Time
	Begin int
	End   int
}

// NewSlot builds a slot without validating it; see policy.Policy.NewSlot.
func NewSlot(year int, month time.Month, day int, begin, end int, loc *time.Location) Slot {
	return Slot{
		Date:  time.Date(year, month, day, 0, 0, 0, 0, loc),
		Begin: begin,
		End:   end,
	}
}

// DateKey returns the date part in DateLayout.
func (s Slot) DateKey() string {
	return s.Date.Format(DateLayout)
}

// Start returns the absolute start instant.
func (s Slot) Start() time.Time {
	return at(s.Date, s.Begin)
}

// Finish returns the absolute end instant.
func (s Slot) Finish() time.Time {
	return at(s.Date, s.End)
}

// Overlaps reports whether two slots on the same date share any minute.
// Touching endpoints do not overlap.
func (s Slot) Overlaps(o Slot) bool {
	return s.DateKey() == o.DateKey() && Intersects(s.Begin, s.End, o.Begin, o.End)
}

func (s Slot) String() string {
	return fmt.Sprintf("%s %s-%s", s.DateKey(), FormatClock(s.Begin), FormatClock(s.End))
}

// Intersects is the half-open overlap test: aBegin < bEnd AND aEnd > bBegin.
func Intersects(aBegin, aEnd, bBegin, bEnd int) bool {
	return aBegin < bEnd && aEnd > bBegin
}

// FormatClock renders minutes since midnight as HH:MM.
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func at(date time.Time, minutes int) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, minutes/60, minutes%60, 0, 0, date.Location())
}

// Interval is a committed booking on a room timeline.
type Interval struct {
	OrderID int64
	Begin   int
	End     int
}

// Calendar is the set of committed intervals of one room (or one user) on one date.
type Calendar struct {
	Date   string
	booked []Interval
}

// New builds a calendar from committed intervals; order of input is irrelevant.
func New(date string, booked []Interval) *Calendar {
	sorted := make([]Interval, len(booked))
	copy(sorted, booked)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Begin < sorted[j].Begin })
	return &Calendar{Date: date, booked: sorted}
}

// Booked returns the committed intervals ordered by start.
func (c *Calendar) Booked() []Interval {
	out := make([]Interval, len(c.booked))
	copy(out, c.booked)
	return out
}

// Overlaps reports whether [begin, end) collides with a committed interval,
// ignoring the interval that belongs to excludeOrderID (0 excludes nothing).
func (c *Calendar) Overlaps(begin, end int, excludeOrderID int64) bool {
	for _, iv := range c.booked {
		if excludeOrderID != 0 && iv.OrderID == excludeOrderID {
			continue
		}
		if Intersects(begin, end, iv.Begin, iv.End) {
			return true
		}
	}
	return false
}

// Free returns the maximal free gaps inside [open, close).
func (c *Calendar) Free(open, close int) []Interval {
	var free []Interval
	cursor := open
	for _, iv := range c.booked {
		if iv.End <= cursor {
			continue
		}
		if iv.Begin >= close {
			break
		}
		if iv.Begin > cursor {
			free = append(free, Interval{Begin: cursor, End: iv.Begin})
		}
		cursor = iv.End
	}
	if cursor < close {
		free = append(free, Interval{Begin: cursor, End: close})
	}
	return free
}
