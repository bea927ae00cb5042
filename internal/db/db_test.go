package db

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"room-reservation-backend/config"
	"room-reservation-backend/internal/model"
)

func TestInit_SQLite(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Driver:       "sqlite",
		DSN:          fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		LogLevel:     "silent",
	}

	db, err := Init(cfg)
	require.NoError(t, err)

	for _, table := range []string{"branches", "buildings", "room_types", "rooms", "orders", "used_rooms", "cancel_records", "reports", "push_subscriptions", "subscription_room_mapping"} {
		assert.True(t, db.Migrator().HasTable(table), "missing table %s", table)
	}

	// The partial unique index rejects a second open occupancy of one user.
	now := time.Now()
	require.NoError(t, db.Create(&model.UsedRoom{UserID: 1, RoomID: 1, CheckinAt: now}).Error)
	assert.Error(t, db.Create(&model.UsedRoom{UserID: 1, RoomID: 2, CheckinAt: now}).Error)

	closed := now.Add(time.Hour)
	require.NoError(t, db.Model(&model.UsedRoom{}).Where("user_id = ?", 1).Update("checkout_at", closed).Error)
	assert.NoError(t, db.Create(&model.UsedRoom{UserID: 1, RoomID: 2, CheckinAt: now}).Error)
}

func TestInit_UnknownDriver(t *testing.T) {
	_, err := Init(&config.DatabaseConfig{Driver: "oracle"})
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestLogLevel(t *testing.T) {
	assert.Equal(t, logger.Silent, logLevel("silent"))
	assert.Equal(t, logger.Info, logLevel("INFO"))
	assert.Equal(t, logger.Warn, logLevel(""))
}
