package model

import "time"

// UsedRoom is an occupancy record. OrderID is nil for library walk-ins.
// CheckoutAt is nil while the occupancy is open.
type UsedRoom struct {
	ID         int64      `gorm:"primaryKey" json:"id"`
	OrderID    *int64     `gorm:"index" json:"order_id"`
	UserID     int64      `gorm:"index;not null" json:"user_id"`
	RoomID     int64      `gorm:"index;not null" json:"room_id"`
	Library    bool       `gorm:"not null;default:false" json:"library"`
	CheckinAt  time.Time  `gorm:"not null" json:"checkin_at"`
	CheckoutAt *time.Time `json:"checkout_at"`
	CreatedAt  time.Time  `gorm:"not null" json:"-"`
	UpdatedAt  time.Time  `gorm:"not null" json:"-"`
}

// Open reports whether the occupant has not checked out yet.
func (u *UsedRoom) Open() bool {
	return u.CheckoutAt == nil
}
