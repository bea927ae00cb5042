// Package policy holds the timing rules of the booking system: operating hours,
// booking horizon, lead time, cancellation grace window and check-in window.
// Every function is pure; "now" is always passed in.
package policy

import (
	"strconv"
	"time"

	"room-reservation-backend/config"
	"room-reservation-backend/internal/apperr"
	"room-reservation-backend/internal/calendar"
)

// Policy is the set of timing rules.
type Policy struct {
	Location      *time.Location
	LaunchYear    int
	MaxYearsAhead int
	OpenHour      int
	CloseHour     int
	SlotMinutes   int
	LeadTime      time.Duration
	CancelGrace   time.Duration
	EarlyCheckIn  time.Duration
}

// FromConfig builds a Policy from the booking section of the configuration.
// The config must have been through ApplyDefaults.
func FromConfig(cfg config.BookingConfig) Policy {
	return Policy{
		Location:      cfg.Location,
		LaunchYear:    cfg.LaunchYear,
		MaxYearsAhead: cfg.MaxYearsAhead,
		OpenHour:      cfg.OpenHour,
		CloseHour:     cfg.CloseHour,
		SlotMinutes:   cfg.SlotMinutes,
		LeadTime:      cfg.LeadTime,
		CancelGrace:   cfg.CancelGrace,
		EarlyCheckIn:  cfg.EarlyCheck,
	}
}

// Default returns the production rules: 07:00-20:00, 30-minute slots,
// 50 minutes lead time, 2 days cancellation grace, 15 minutes early check-in.
func Default(loc *time.Location) Policy {
	return Policy{
		Location:      loc,
		LaunchYear:    2024,
		MaxYearsAhead: 1,
		OpenHour:      7,
		CloseHour:     20,
		SlotMinutes:   30,
		LeadTime:      50 * time.Minute,
		CancelGrace:   48 * time.Hour,
		EarlyCheckIn:  15 * time.Minute,
	}
}

// Hours returns the operating range in minutes since midnight.
func (p Policy) Hours() (open, close int) {
	return p.OpenHour * 60, p.CloseHour * 60
}

// ValidateDate checks year range, month and day-of-month.
func (p Policy) ValidateDate(now time.Time, year, month, day int) error {
	if year < p.LaunchYear {
		return apperr.Validation("year %d is before the service started (%d)", year, p.LaunchYear)
	}
	if maxYear := now.In(p.Location).Year() + p.MaxYearsAhead; year > maxYear {
		return apperr.Validation("year %d is too far ahead (latest %d)", year, maxYear)
	}
	if month < 1 || month > 12 {
		return apperr.Validation("month must be between 1 and 12, got %d", month)
	}
	if last := daysIn(year, time.Month(month)); day < 1 || day > last {
		return apperr.Validation("day must be between 1 and %d for %04d-%02d, got %d", last, year, month, day)
	}
	return nil
}

// ValidateClock checks that minutes lies inside operating hours and on the slot grid.
func (p Policy) ValidateClock(minutes int) error {
	open, close := p.Hours()
	if minutes < open || minutes > close {
		return apperr.Validation("time %s is outside operating hours %s-%s",
			calendar.FormatClock(minutes), calendar.FormatClock(open), calendar.FormatClock(close))
	}
	if p.SlotMinutes > 0 && minutes%p.SlotMinutes != 0 {
		return apperr.Validation("time %s is not aligned to %d minutes", calendar.FormatClock(minutes), p.SlotMinutes)
	}
	return nil
}

// NewSlot validates the shape of a requested interval and builds the slot.
// It reports only malformed input; booking rules are checked separately.
func (p Policy) NewSlot(now time.Time, year, month, day, begin, end int) (calendar.Slot, error) {
	if err := p.ValidateDate(now, year, month, day); err != nil {
		return calendar.Slot{}, err
	}
	if err := p.ValidateClock(begin); err != nil {
		return calendar.Slot{}, err
	}
	if err := p.ValidateClock(end); err != nil {
		return calendar.Slot{}, err
	}
	if begin >= end {
		return calendar.Slot{}, apperr.Validation("start time must be before end time")
	}
	return calendar.NewSlot(year, time.Month(month), day, begin, end, p.Location), nil
}

// StoredSlot rebuilds the slot of a persisted order.
func (p Policy) StoredSlot(date string, begin, end int) (calendar.Slot, error) {
	d, err := time.ParseInLocation(calendar.DateLayout, date, p.Location)
	if err != nil {
		return calendar.Slot{}, apperr.Validation("invalid stored date %q", date)
	}
	return calendar.Slot{Date: d, Begin: begin, End: end}, nil
}

// CheckLeadTime rejects bookings that start in the past or with less notice than LeadTime.
func (p Policy) CheckLeadTime(now time.Time, slot calendar.Slot) error {
	start := slot.Start()
	if start.Before(now) {
		return apperr.Policy("cannot book in the past")
	}
	if start.Sub(now) < p.LeadTime {
		return apperr.Policy("a room must be booked at least %d minutes in advance", int(p.LeadTime.Minutes()))
	}
	return nil
}

// CheckCancelWindow rejects cancellations later than CancelGrace after the reservation ended.
func (p Policy) CheckCancelWindow(now time.Time, slot calendar.Slot) error {
	if now.Sub(slot.Finish()) > p.CancelGrace {
		return apperr.Policy("cannot cancel an order more than %s after its end time", humanize(p.CancelGrace))
	}
	return nil
}

// CheckInWindow accepts now in [start-EarlyCheckIn, finish).
func (p Policy) CheckInWindow(now time.Time, slot calendar.Slot) error {
	if now.Before(slot.Start().Add(-p.EarlyCheckIn)) {
		return apperr.Policy("too early to check in; check-in opens %d minutes before %s",
			int(p.EarlyCheckIn.Minutes()), calendar.FormatClock(slot.Begin))
	}
	if !now.Before(slot.Finish()) {
		return apperr.Policy("the reservation ended at %s", calendar.FormatClock(slot.End))
	}
	return nil
}

// Today returns the calendar date of now in the policy location.
func (p Policy) Today(now time.Time) time.Time {
	y, m, d := now.In(p.Location).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, p.Location)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func humanize(d time.Duration) string {
	if d%(24*time.Hour) == 0 {
		days := int(d / (24 * time.Hour))
		if days == 1 {
			return "1 day"
		}
		return strconv.Itoa(days) + " days"
	}
	return d.String()
}
