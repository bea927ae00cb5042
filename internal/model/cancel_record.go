package model

import "time"

// CancelRecord is written once when a user cancels an order.
type CancelRecord struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	OrderID     int64     `gorm:"uniqueIndex;not null" json:"order_id"`
	UserID      int64     `gorm:"index;not null" json:"user_id"`
	CancelledAt time.Time `gorm:"not null" json:"cancelled_at"`
}
