package model

import "time"

// Branch is a campus or site.
type Branch struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:128;not null" json:"name"`
	Address   string    `gorm:"size:256" json:"address,omitempty"`
	CreatedAt time.Time `gorm:"not null" json:"-"`
	UpdatedAt time.Time `gorm:"not null" json:"-"`

	// Associations
	Buildings []Building `gorm:"foreignKey:BranchID" json:"-"`
}

// Building belongs to one branch.
type Building struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	BranchID  int64     `gorm:"index;not null" json:"branch_id"`
	Name      string    `gorm:"size:128;not null" json:"name"`
	CreatedAt time.Time `gorm:"not null" json:"-"`
	UpdatedAt time.Time `gorm:"not null" json:"-"`

	// Associations
	Branch Branch `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// RoomKind separates rooms booked by time slot from walk-in rooms.
type RoomKind string

const (
	RoomKindOrdinary RoomKind = "ordinary"
	RoomKindLibrary  RoomKind = "library"
)

// RoomType describes a class of rooms (meeting room, lab, library, ...).
type RoomType struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;size:128;not null" json:"name"`
	MaxCapacity int       `gorm:"not null;default:0" json:"max_capacity"`
	Kind        RoomKind  `gorm:"size:16;not null;default:ordinary" json:"kind"`
	CreatedAt   time.Time `gorm:"not null" json:"-"`
	UpdatedAt   time.Time `gorm:"not null" json:"-"`
}

// Room is a bookable room. Quantity is the live number of occupants of a
// library room and is bounded by MaxQuantity; ordinary rooms leave both at zero.
type Room struct {
	ID                   int64     `gorm:"primaryKey" json:"id"`
	BranchID             int64     `gorm:"index;not null" json:"branch_id"`
	BuildingID           int64     `gorm:"index;not null" json:"building_id"`
	TypeID               int64     `gorm:"index;not null" json:"type_id"`
	NoRoom               string    `gorm:"size:32;not null" json:"no_room"`
	Quantity             int       `gorm:"not null;default:0" json:"quantity"`
	MaxQuantity          int       `gorm:"not null;default:0" json:"max_quantity"`
	Projector            bool      `gorm:"not null;default:false" json:"projector"`
	AirConditioner       bool      `gorm:"not null;default:false" json:"air_conditioner"`
	InteractiveDisplay   bool      `gorm:"not null;default:false" json:"interactive_display"`
	OnlineMeetingDevices bool      `gorm:"not null;default:false" json:"online_meeting_devices"`
	Active               bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt            time.Time `gorm:"not null" json:"-"`
	UpdatedAt            time.Time `gorm:"not null" json:"-"`

	// Associations
	Branch   Branch   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Building Building `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Type     RoomType `gorm:"foreignKey:TypeID" json:"type"`
}

// IsLibrary reports whether the room uses the walk-in flow. Type must be loaded.
func (r *Room) IsLibrary() bool {
	return r.Type.Kind == RoomKindLibrary
}
