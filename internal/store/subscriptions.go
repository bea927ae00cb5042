package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"room-reservation-backend/internal/apperr"
	"room-reservation-backend/internal/model"
)

// checkOwner fails with apperr.ErrForbidden when endpoint exists and belongs
// to someone other than userID. found is false when there is no such row.
func checkOwner(tx *gorm.DB, userID int64, endpoint string) (found bool, err error) {
	var existing model.PushSubscription
	err = tx.Select("endpoint", "user_id").Take(&existing, "endpoint = ?", endpoint).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up subscription owner: %w", err)
	}
	if existing.UserID != userID {
		return true, apperr.Forbidden("subscription belongs to another user")
	}
	return true, nil
}

// UpsertSubscription creates or refreshes a push subscription and replaces
// the set of rooms it watches. An endpoint stays with the user who first
// registered it.
func (s *gormStore) UpsertSubscription(ctx context.Context, sub *model.PushSubscription, roomIDs []int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := checkOwner(tx, sub.UserID, sub.Endpoint); err != nil {
			return err
		}
		if err := tx.Omit("Rooms").Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "endpoint"}},
			DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth"}),
		}).Create(sub).Error; err != nil {
			return fmt.Errorf("failed to upsert subscription: %w", err)
		}

		var rooms []*model.Room
		if len(roomIDs) > 0 {
			if err := tx.Find(&rooms, roomIDs).Error; err != nil {
				return fmt.Errorf("failed to load subscribed rooms: %w", err)
			}
		}

		if err := tx.Model(sub).Association("Rooms").Replace(&rooms); err != nil {
			return fmt.Errorf("failed to replace subscribed rooms: %w", err)
		}
		sub.Rooms = rooms
		return nil
	})
}

func (s *gormStore) GetSubscription(ctx context.Context, userID int64, endpoint string) (*model.PushSubscription, error) {
	var sub model.PushSubscription
	if err := s.db.WithContext(ctx).Preload("Rooms").First(&sub, "endpoint = ?", endpoint).Error; err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	if sub.UserID != userID {
		return nil, apperr.Forbidden("subscription belongs to another user")
	}
	return &sub, nil
}

// DeleteUserSubscription removes endpoint on behalf of userID. Deleting an
// unknown endpoint is not an error.
func (s *gormStore) DeleteUserSubscription(ctx context.Context, userID int64, endpoint string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := checkOwner(tx, userID, endpoint)
		if err != nil || !found {
			return err
		}
		if err := tx.Select(clause.Associations).Delete(&model.PushSubscription{Endpoint: endpoint}).Error; err != nil {
			return fmt.Errorf("failed to delete subscription: %w", err)
		}
		return nil
	})
}

// DeleteSubscription removes endpoint regardless of owner; the push worker
// uses it for endpoints the push service reports as gone.

func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	if err := s.db.WithContext(ctx).Select(clause.Associations).Delete(&model.PushSubscription{Endpoint: endpoint}).Error; err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}
	return nil
}

// SubscriptionsForRoom returns every subscription watching roomID.
func (s *gormStore) SubscriptionsForRoom(ctx context.Context, roomID int64) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	if err := s.db.WithContext(ctx).
		Joins("JOIN subscription_room_mapping m ON m.push_subscription_endpoint = push_subscriptions.endpoint").
		Where("m.room_id = ?", roomID).
		Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("failed to list subscriptions of room %d: %w", roomID, err)
	}
	return subs, nil
}
