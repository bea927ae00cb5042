package store

import (
	"context"
	"fmt"
	"time"

	"room-reservation-backend/internal/model"
)

func (s *gormStore) CreateUsedRoom(ctx context.Context, u *model.UsedRoom) error {
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		return fmt.Errorf("failed to create occupancy for user %d in room %d: %w", u.UserID, u.RoomID, err)
	}
	return nil
}

// OpenUsedRoom returns the user's occupancy that has no checkout time yet.
func (s *gormStore) OpenUsedRoom(ctx context.Context, userID int64) (*model.UsedRoom, error) {
	var used model.UsedRoom
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND checkout_at IS NULL", userID).
		First(&used).Error; err != nil {
		return nil, fmt.Errorf("failed to get open occupancy of user %d: %w", userID, err)
	}
	return &used, nil
}

// CloseUsedRoom stamps the checkout time. Closing twice is a no-op.
func (s *gormStore) CloseUsedRoom(ctx context.Context, id int64, at time.Time) error {
	if err := s.db.WithContext(ctx).Model(&model.UsedRoom{}).
		Where("id = ? AND checkout_at IS NULL", id).
		Update("checkout_at", at).Error; err != nil {
		return fmt.Errorf("failed to close occupancy %d: %w", id, err)
	}
	return nil
}

func (s *gormStore) UsedRoomForOrder(ctx context.Context, orderID int64) (*model.UsedRoom, error) {
	var used model.UsedRoom
	if err := s.db.WithContext(ctx).Where("order_id = ?", orderID).First(&used).Error; err != nil {
		return nil, fmt.Errorf("failed to get occupancy of order %d: %w", orderID, err)
	}
	return &used, nil
}

func (s *gormStore) ListUsedRooms(ctx context.Context, userID int64) ([]model.UsedRoom, error) {
	var used []model.UsedRoom
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("checkin_at DESC").Find(&used).Error; err != nil {
		return nil, fmt.Errorf("failed to list occupancies of user %d: %w", userID, err)
	}
	return used, nil
}

func (s *gormStore) CreateCancelRecord(ctx context.Context, c *model.CancelRecord) error {
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("failed to record cancellation of order %d: %w", c.OrderID, err)
	}
	return nil
}

func (s *gormStore) CancelRecordForOrder(ctx context.Context, orderID int64) (*model.CancelRecord, error) {
	var rec model.CancelRecord
	if err := s.db.WithContext(ctx).Where("order_id = ?", orderID).First(&rec).Error; err != nil {
		return nil, fmt.Errorf("failed to get cancellation of order %d: %w", orderID, err)
	}
	return &rec, nil
}

func (s *gormStore) ListCancelRecords(ctx context.Context, userID int64) ([]model.CancelRecord, error) {
	var recs []model.CancelRecord
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("cancelled_at DESC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to list cancellations of user %d: %w", userID, err)
	}
	return recs, nil
}
