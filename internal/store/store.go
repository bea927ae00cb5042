package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"room-reservation-backend/internal/model"
)

// Store defines the interface for all database operations.
type Store interface {
	// Transaction runs fn against a Store bound to one database transaction.
	// The transaction commits when fn returns nil and rolls back otherwise.
	Transaction(ctx context.Context, fn func(tx Store) error) error

	ListBranches(ctx context.Context) ([]model.Branch, error)
	CreateBranch(ctx context.Context, b *model.Branch) error
	ListBuildings(ctx context.Context, branchID int64) ([]model.Building, error)
	CreateBuilding(ctx context.Context, b *model.Building) error
	ListRoomTypes(ctx context.Context) ([]model.RoomType, error)
	CreateRoomType(ctx context.Context, rt *model.RoomType) error

	GetRoom(ctx context.Context, id int64) (*model.Room, error)
	LockRoom(ctx context.Context, id int64) (*model.Room, error)
	// LockUser holds a per-user lock until the surrounding transaction ends.
	LockUser(ctx context.Context, userID int64) error
	CreateRoom(ctx context.Context, r *model.Room) error
	ListRooms(ctx context.Context, f RoomFilter) ([]model.Room, int64, error)
	IncrementOccupants(ctx context.Context, roomID int64) (bool, error)
	DecrementOccupants(ctx context.Context, roomID int64) (bool, error)

	CreateOrder(ctx context.Context, o *model.Order) error
	GetOrder(ctx context.Context, id int64) (*model.Order, error)
	SaveOrder(ctx context.Context, o *model.Order) error
	ListOrders(ctx context.Context, f OrderFilter) ([]model.Order, error)
	BusyRoomIDs(ctx context.Context, date string, begin, end int) (map[int64]bool, error)

	CreateUsedRoom(ctx context.Context, u *model.UsedRoom) error
	OpenUsedRoom(ctx context.Context, userID int64) (*model.UsedRoom, error)
	CloseUsedRoom(ctx context.Context, id int64, at time.Time) error
	UsedRoomForOrder(ctx context.Context, orderID int64) (*model.UsedRoom, error)
	ListUsedRooms(ctx context.Context, userID int64) ([]model.UsedRoom, error)

	CreateCancelRecord(ctx context.Context, c *model.CancelRecord) error
	CancelRecordForOrder(ctx context.Context, orderID int64) (*model.CancelRecord, error)
	ListCancelRecords(ctx context.Context, userID int64) ([]model.CancelRecord, error)

	CreateReport(ctx context.Context, r *model.Report) error
	GetReport(ctx context.Context, id int64) (*model.Report, error)
	ListReports(ctx context.Context, userID int64) ([]model.Report, error)

	UpsertSubscription(ctx context.Context, sub *model.PushSubscription, roomIDs []int64) error
	// GetSubscription and DeleteUserSubscription fail with apperr.ErrForbidden
	// when endpoint is registered to a user other than userID.
	GetSubscription(ctx context.Context, userID int64, endpoint string) (*model.PushSubscription, error)
	DeleteUserSubscription(ctx context.Context, userID int64, endpoint string) error
	DeleteSubscription(ctx context.Context, endpoint string) error
	SubscriptionsForRoom(ctx context.Context, roomID int64) ([]model.PushSubscription, error)
}

// RoomFilter narrows ListRooms. Zero values match everything.
type RoomFilter struct {
	BranchID   int64
	BuildingID int64
	TypeID     int64
	Kind       model.RoomKind
	ActiveOnly bool
	Offset     int
	Limit      int
}

// OrderFilter narrows ListOrders. Zero values match everything.
// From and To bound Date inclusively.
type OrderFilter struct {
	UserID   int64
	RoomID   int64
	Date     string
	From     string
	To       string
	Statuses []model.OrderStatus
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

// IsNotFound reports whether err comes from a lookup that matched no row.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
