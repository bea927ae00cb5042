package reservation

import (
	"time"

	"room-reservation-backend/internal/model"
)

// Lifecycle event routing keys.
const (
	EventBookingCreated     = "booking.created"
	EventBookingRescheduled = "booking.rescheduled"
	EventBookingCancelled   = "booking.cancelled"
	EventBookingCheckedIn   = "booking.checked_in"
	EventBookingCheckedOut  = "booking.checked_out"
	EventLibraryCheckedIn   = "library.checked_in"
	EventLibraryCheckedOut  = "library.checked_out"
)

// Event is the payload published after a committed transition.
type Event struct {
	Type        string    `json:"type"`
	UserID      int64     `json:"user_id"`
	RoomID      int64     `json:"room_id"`
	OrderID     int64     `json:"order_id,omitempty"`
	UsedRoomID  int64     `json:"used_room_id,omitempty"`
	Status      string    `json:"status,omitempty"`
	Date        string    `json:"date,omitempty"`
	BeginMinute int       `json:"begin_minute,omitempty"`
	EndMinute   int       `json:"end_minute,omitempty"`
	At          time.Time `json:"at"`
}

func orderEvent(typ string, o *model.Order, at time.Time) Event {
	return Event{
		Type:        typ,
		UserID:      o.UserID,
		RoomID:      o.RoomID,
		OrderID:     o.ID,
		Status:      string(o.Status),
		Date:        o.Date,
		BeginMinute: o.BeginMinute,
		EndMinute:   o.EndMinute,
		At:          at,
	}
}

func occupancyEvent(typ string, u *model.UsedRoom, at time.Time) Event {
	ev := Event{
		Type:       typ,
		UserID:     u.UserID,
		RoomID:     u.RoomID,
		UsedRoomID: u.ID,
		At:         at,
	}
	if u.OrderID != nil {
		ev.OrderID = *u.OrderID
	}
	return ev
}
