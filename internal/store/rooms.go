package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"room-reservation-backend/internal/model"
)

func (s *gormStore) ListBranches(ctx context.Context) ([]model.Branch, error) {
	var branches []model.Branch
	if err := s.db.WithContext(ctx).Order("id").Find(&branches).Error; err != nil {
		return nil, fmt.Errorf("failed to list branches: %w", err)
	}
	return branches, nil
}

func (s *gormStore) CreateBranch(ctx context.Context, b *model.Branch) error {
	if err := s.db.WithContext(ctx).Create(b).Error; err != nil {
		return fmt.Errorf("failed to create branch %q: %w", b.Name, err)
	}
	return nil
}

func (s *gormStore) ListBuildings(ctx context.Context, branchID int64) ([]model.Building, error) {
	var buildings []model.Building
	if err := s.db.WithContext(ctx).Where("branch_id = ?", branchID).Order("id").Find(&buildings).Error; err != nil {
		return nil, fmt.Errorf("failed to list buildings of branch %d: %w", branchID, err)
	}
	return buildings, nil
}

func (s *gormStore) CreateBuilding(ctx context.Context, b *model.Building) error {
	if err := s.db.WithContext(ctx).Create(b).Error; err != nil {
		return fmt.Errorf("failed to create building %q: %w", b.Name, err)
	}
	return nil
}

func (s *gormStore) ListRoomTypes(ctx context.Context) ([]model.RoomType, error) {
	var types []model.RoomType
	if err := s.db.WithContext(ctx).Order("id").Find(&types).Error; err != nil {
		return nil, fmt.Errorf("failed to list room types: %w", err)
	}
	return types, nil
}

func (s *gormStore) CreateRoomType(ctx context.Context, rt *model.RoomType) error {
	if rt.Kind == "" {
		rt.Kind = model.RoomKindOrdinary
	}
	if err := s.db.WithContext(ctx).Create(rt).Error; err != nil {
		return fmt.Errorf("failed to create room type %q: %w", rt.Name, err)
	}
	return nil
}

func (s *gormStore) GetRoom(ctx context.Context, id int64) (*model.Room, error) {
	var room model.Room
	if err := s.db.WithContext(ctx).Preload("Type").First(&room, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get room %d: %w", id, err)
	}
	return &room, nil
}

// LockRoom reads the room row with SELECT ... FOR UPDATE. It only serializes
// anything when called inside Transaction; sqlite ignores the locking clause.
func (s *gormStore) LockRoom(ctx context.Context, id int64) (*model.Room, error) {
	var room model.Room
	if err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&room, id).Error; err != nil {
		return nil, fmt.Errorf("failed to lock room %d: %w", id, err)
	}
	if err := s.db.WithContext(ctx).First(&room.Type, room.TypeID).Error; err != nil {
		return nil, fmt.Errorf("failed to load type of room %d: %w", id, err)
	}
	return &room, nil
}

// LockUser takes a transaction-scoped advisory lock on userID so that two
// processes cannot book overlapping slots for one user in different rooms.
// Other dialects have no advisory locks; sqlite already serializes writers.
func (s *gormStore) LockUser(ctx context.Context, userID int64) error {
	if s.db.Dialector.Name() != "postgres" {
		return nil
	}
	if err := s.db.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(?)", userID).Error; err != nil {
		return fmt.Errorf("failed to lock user %d: %w", userID, err)
	}
	return nil
}

func (s *gormStore) CreateRoom(ctx context.Context, r *model.Room) error {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(r).Error; err != nil {
		return fmt.Errorf("failed to create room %q: %w", r.NoRoom, err)
	}
	return nil
}

// ListRooms returns one page of rooms matching f plus the total match count.
func (s *gormStore) ListRooms(ctx context.Context, f RoomFilter) ([]model.Room, int64, error) {
	q := s.db.WithContext(ctx).Model(&model.Room{})
	if f.BranchID != 0 {
		q = q.Where("rooms.branch_id = ?", f.BranchID)
	}
	if f.BuildingID != 0 {
		q = q.Where("rooms.building_id = ?", f.BuildingID)
	}
	if f.TypeID != 0 {
		q = q.Where("rooms.type_id = ?", f.TypeID)
	}
	if f.Kind != "" {
		q = q.Joins("JOIN room_types ON room_types.id = rooms.type_id").Where("room_types.kind = ?", f.Kind)
	}
	if f.ActiveOnly {
		q = q.Where("rooms.active = ?", true)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count rooms: %w", err)
	}

	q = q.Preload("Type").Order("rooms.id").Offset(f.Offset)
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	var rooms []model.Room
	if err := q.Find(&rooms).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list rooms: %w", err)
	}
	return rooms, total, nil
}

// IncrementOccupants adds one occupant to a library room unless it is full.
// The check and the write are a single conditional UPDATE.
func (s *gormStore) IncrementOccupants(ctx context.Context, roomID int64) (bool, error) {
	res := s.db.WithContext(ctx).Model(&model.Room{}).
		Where("id = ? AND quantity < max_quantity", roomID).
		UpdateColumn("quantity", gorm.Expr("quantity + 1"))
	if res.Error != nil {
		return false, fmt.Errorf("failed to increment occupants of room %d: %w", roomID, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// DecrementOccupants removes one occupant unless the room is already empty.
func (s *gormStore) DecrementOccupants(ctx context.Context, roomID int64) (bool, error) {
	res := s.db.WithContext(ctx).Model(&model.Room{}).
		Where("id = ? AND quantity > 0", roomID).
		UpdateColumn("quantity", gorm.Expr("quantity - 1"))
	if res.Error != nil {
		return false, fmt.Errorf("failed to decrement occupants of room %d: %w", roomID, res.Error)
	}
	return res.RowsAffected == 1, nil
}
