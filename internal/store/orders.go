package store

import (
	"context"
	"fmt"

	"room-reservation-backend/internal/model"
)

func (s *gormStore) CreateOrder(ctx context.Context, o *model.Order) error {
	if o.Status == "" {
		o.Status = model.OrderActive
	}
	if err := s.db.WithContext(ctx).Omit("Room").Create(o).Error; err != nil {
		return fmt.Errorf("failed to create order for room %d: %w", o.RoomID, err)
	}
	return nil
}

func (s *gormStore) GetOrder(ctx context.Context, id int64) (*model.Order, error) {
	var order model.Order
	if err := s.db.WithContext(ctx).First(&order, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get order %d: %w", id, err)
	}
	return &order, nil
}

func (s *gormStore) SaveOrder(ctx context.Context, o *model.Order) error {
	if err := s.db.WithContext(ctx).Omit("Room").Save(o).Error; err != nil {
		return fmt.Errorf("failed to save order %d: %w", o.ID, err)
	}
	return nil
}

// ListOrders returns orders matching f ordered by date and start time.
func (s *gormStore) ListOrders(ctx context.Context, f OrderFilter) ([]model.Order, error) {
	q := s.db.WithContext(ctx).Model(&model.Order{})
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.RoomID != 0 {
		q = q.Where("room_id = ?", f.RoomID)
	}
	if f.Date != "" {
		q = q.Where("date = ?", f.Date)
	}
	if f.From != "" {
		q = q.Where("date >= ?", f.From)
	}
	if f.To != "" {
		q = q.Where("date <= ?", f.To)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}

	var orders []model.Order
	if err := q.Order("date, begin_minute, id").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// BusyRoomIDs returns the rooms holding a blocking order that overlaps
// [begin, end) on date.
func (s *gormStore) BusyRoomIDs(ctx context.Context, date string, begin, end int) (map[int64]bool, error) {
	var ids []int64
	if err := s.db.WithContext(ctx).Model(&model.Order{}).
		Distinct("room_id").
		Where("date = ? AND status IN ? AND begin_minute < ? AND end_minute > ?",
			date, model.BlockingStatuses, end, begin).
		Pluck("room_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to query busy rooms on %s: %w", date, err)
	}
	busy := make(map[int64]bool, len(ids))
	for _, id := range ids {
		busy[id] = true
	}
	return busy, nil
}
