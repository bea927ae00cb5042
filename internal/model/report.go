package model

import "time"

// Report records the equipment condition observed during an occupancy.
// Each flag is true when the equipment is faulty.
type Report struct {
	ID                   int64     `gorm:"primaryKey" json:"id"`
	UsedRoomID           int64     `gorm:"index;not null" json:"used_room_id"`
	UserID               int64     `gorm:"index;not null" json:"user_id"`
	RoomID               int64     `gorm:"index;not null" json:"room_id"`
	LED                  bool      `gorm:"column:led;not null" json:"led"`
	AirConditioner       bool      `gorm:"not null" json:"air_conditioner"`
	Socket               bool      `gorm:"not null" json:"socket"`
	Projector            bool      `gorm:"not null" json:"projector"`
	InteractiveDisplay   bool      `gorm:"not null" json:"interactive_display"`
	OnlineMeetingDevices bool      `gorm:"not null" json:"online_meeting_devices"`
	Description          string    `gorm:"size:1024" json:"description"`
	CreatedAt            time.Time `gorm:"not null" json:"created_at"`
}
