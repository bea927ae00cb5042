// Package availability answers whether a room interval or a user's time is
// still free, reading committed orders from the store.
package availability

import (
	"context"
	"fmt"

	"room-reservation-backend/internal/calendar"
	"room-reservation-backend/internal/model"
	"room-reservation-backend/internal/policy"
	"room-reservation-backend/internal/store"
)

// Checker reads availability from a Store. Bind it to a transaction with
// WithStore so that checks and writes see the same snapshot.
type Checker struct {
	store  store.Store
	policy policy.Policy
}

// New creates a Checker.
func New(s store.Store, p policy.Policy) *Checker {
	return &Checker{store: s, policy: p}
}

// WithStore returns a copy of c reading from s.
func (c *Checker) WithStore(s store.Store) *Checker {
	return &Checker{store: s, policy: c.policy}
}

// RoomCalendar returns the blocking intervals of a room on date.
func (c *Checker) RoomCalendar(ctx context.Context, roomID int64, date string) (*calendar.Calendar, error) {
	orders, err := c.store.ListOrders(ctx, store.OrderFilter{
		RoomID:   roomID,
		Date:     date,
		Statuses: model.BlockingStatuses,
	})
	if err != nil {
		return nil, err
	}
	return calendar.New(date, intervals(orders)), nil
}

// UserCalendar returns the blocking intervals a user holds on date, across all rooms.
func (c *Checker) UserCalendar(ctx context.Context, userID int64, date string) (*calendar.Calendar, error) {
	orders, err := c.store.ListOrders(ctx, store.OrderFilter{
		UserID:   userID,
		Date:     date,
		Statuses: model.BlockingStatuses,
	})
	if err != nil {
		return nil, err
	}
	return calendar.New(date, intervals(orders)), nil
}

// IsAvailable reports whether no blocking order of the room overlaps slot.
// excludeOrderID releases the interval of an order being rescheduled.
func (c *Checker) IsAvailable(ctx context.Context, roomID int64, slot calendar.Slot, excludeOrderID int64) (bool, error) {
	cal, err := c.RoomCalendar(ctx, roomID, slot.DateKey())
	if err != nil {
		return false, fmt.Errorf("availability of room %d: %w", roomID, err)
	}
	return !cal.Overlaps(slot.Begin, slot.End, excludeOrderID), nil
}

// HasUserConflict reports whether the user already holds an overlapping
// blocking order in any room.
func (c *Checker) HasUserConflict(ctx context.Context, userID int64, slot calendar.Slot, excludeOrderID int64) (bool, error) {
	cal, err := c.UserCalendar(ctx, userID, slot.DateKey())
	if err != nil {
		return false, fmt.Errorf("bookings of user %d: %w", userID, err)
	}
	return cal.Overlaps(slot.Begin, slot.End, excludeOrderID), nil
}

// IsLibraryCheckinAllowed reports whether a library room has a free seat.
// Ordinary and inactive rooms never accept walk-ins.
func (c *Checker) IsLibraryCheckinAllowed(ctx context.Context, roomID int64) (bool, error) {
	room, err := c.store.GetRoom(ctx, roomID)
	if err != nil {
		return false, err
	}
	return room.Active && room.IsLibrary() && room.Quantity < room.MaxQuantity, nil
}

// FreeSlots lists the free gaps of a room on date inside operating hours.
func (c *Checker) FreeSlots(ctx context.Context, roomID int64, date string) ([]calendar.Interval, error) {
	cal, err := c.RoomCalendar(ctx, roomID, date)
	if err != nil {
		return nil, fmt.Errorf("free slots of room %d: %w", roomID, err)
	}
	open, close := c.policy.Hours()
	return cal.Free(open, close), nil
}

func intervals(orders []model.Order) []calendar.Interval {
	out := make([]calendar.Interval, 0, len(orders))
	for _, o := range orders {
		out = append(out, calendar.Interval{OrderID: o.ID, Begin: o.BeginMinute, End: o.EndMinute})
	}
	return out
}
