package model

import "time"

// OrderStatus is the lifecycle state of a reservation.
type OrderStatus string

const (
	OrderActive    OrderStatus = "active"
	OrderUsed      OrderStatus = "used"
	OrderCancelled OrderStatus = "cancelled"
	OrderCompleted OrderStatus = "completed"
)

// BlockingStatuses are the states that hold a room interval and a user's time.
// A checked-in order keeps its slot until checkout.
var BlockingStatuses = []OrderStatus{OrderActive, OrderUsed}

var transitions = map[OrderStatus][]OrderStatus{
	OrderActive: {OrderUsed, OrderCancelled},
	OrderUsed:   {OrderCompleted},
}

// CanTransition reports whether from -> to is a legal lifecycle step.
func CanTransition(from, to OrderStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Blocks reports whether an order in this state occupies its interval.
func (s OrderStatus) Blocks() bool {
	return s == OrderActive || s == OrderUsed
}

// Order is a reservation of a room for [BeginMinute, EndMinute) on Date.
type Order struct {
	ID          int64       `gorm:"primaryKey" json:"id"`
	RoomID      int64       `gorm:"index:idx_orders_room_date;not null" json:"room_id"`
	UserID      int64       `gorm:"index:idx_orders_user_date;not null" json:"user_id"`
	Date        string      `gorm:"size:10;index:idx_orders_room_date;index:idx_orders_user_date;not null" json:"date"`
	BeginMinute int         `gorm:"not null" json:"begin_minute"`
	EndMinute   int         `gorm:"not null" json:"end_minute"`
	Status      OrderStatus `gorm:"size:16;index;not null;default:active" json:"status"`
	CreatedAt   time.Time   `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time   `gorm:"not null" json:"updated_at"`

	// Associations
	Room Room `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
}

// IsUsed mirrors the legacy flag: the order reached check-in.
func (o *Order) IsUsed() bool {
	return o.Status == OrderUsed || o.Status == OrderCompleted
}

// IsCancel mirrors the legacy flag: the order is no longer active for booking.
// A completed order reports true here but is not a user cancellation.
func (o *Order) IsCancel() bool {
	return o.Status == OrderCancelled || o.Status == OrderCompleted
}
