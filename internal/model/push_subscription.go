package model

import "time"

// PushSubscription holds the information for a browser push subscription.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	UserID    int64     `gorm:"index"`
	CreatedAt time.Time `gorm:"not null"`

	// Rooms the subscriber wants room-freed alerts for.
	Rooms []*Room `gorm:"many2many:subscription_room_mapping;"`
}
