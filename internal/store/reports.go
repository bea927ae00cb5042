package store

import (
	"context"
	"fmt"

	"room-reservation-backend/internal/model"
)

func (s *gormStore) CreateReport(ctx context.Context, r *model.Report) error {
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return fmt.Errorf("failed to create report for occupancy %d: %w", r.UsedRoomID, err)
	}
	return nil
}

func (s *gormStore) GetReport(ctx context.Context, id int64) (*model.Report, error) {
	var report model.Report
	if err := s.db.WithContext(ctx).First(&report, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get report %d: %w", id, err)
	}
	return &report, nil
}

func (s *gormStore) ListReports(ctx context.Context, userID int64) ([]model.Report, error) {
	var reports []model.Report
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&reports).Error; err != nil {
		return nil, fmt.Errorf("failed to list reports of user %d: %w", userID, err)
	}
	return reports, nil
}
