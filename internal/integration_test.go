package internal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"room-reservation-backend/config"
	"room-reservation-backend/internal/api"
	"room-reservation-backend/internal/auth"
	"room-reservation-backend/internal/db"
	"room-reservation-backend/internal/model"
	"room-reservation-backend/internal/mq"
	"room-reservation-backend/internal/policy"
	"room-reservation-backend/internal/reservation"
	"room-reservation-backend/internal/store"
)

type freedRecorder struct {
	mu    sync.Mutex
	freed []string
}

func (r *freedRecorder) NotifyRoomFreed(roomID int64, date string, begin, end int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.freed = append(r.freed, fmt.Sprintf("%d %s %d-%d", roomID, date, begin, end))
}

// TestBookingLifecycle drives a reservation through the HTTP surface, from the
// first booking to the competing request, reschedule and cancellation, and
// verifies the database state at each step.
func TestBookingLifecycle(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// --- Test Setup ---

	// 1. Open an in-memory SQLite database through the production initializer.
	cfg := &config.Config{
		Database: config.DatabaseConfig{
			Driver:       "sqlite",
			DSN:          "file:integration?mode=memory&cache=shared",
			MaxOpenConns: 1,
			MaxIdleConns: 1,
			LogLevel:     "silent",
		},
		Server: config.ServerConfig{RateLimitPerSec: 1000, RateLimitBurst: 1000, CacheTTLSeconds: 60},
		Booking: config.BookingConfig{Timezone: "UTC"},
	}
	require.NoError(t, cfg.ApplyDefaults())

	gormDB, err := db.Init(&cfg.Database)
	require.NoError(t, err)
	sqlDB, _ := gormDB.DB()
	defer sqlDB.Close()

	// 2. Seed the catalog.
	require.NoError(t, gormDB.Create(&model.RoomType{ID: 1, Name: "Meeting room", MaxCapacity: 6}).Error)
	require.NoError(t, gormDB.Omit("Branch", "Building", "Type").Create(&model.Room{
		ID: 101, BranchID: 1, BuildingID: 1, TypeID: 1, NoRoom: "101", Active: true,
	}).Error)

	// 3. Wire the service and router the way cmd/roomd does.
	publisher, err := mq.New(cfg.Events)
	require.NoError(t, err)
	notifier := &freedRecorder{}
	appStore := store.NewGormStore(gormDB)
	svc := reservation.NewService(appStore, policy.FromConfig(cfg.Booking),
		reservation.WithPublisher(publisher),
		reservation.WithNotifier(notifier),
	)
	verifier := auth.NewVerifier("integration-secret")
	router := api.NewRouter(svc, appStore, nil, verifier, cfg.Server)

	send := func(method, path string, userID int64, body any) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
		req, _ := http.NewRequest(method, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		token, err := verifier.CreateAccessToken(userID, "user", time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	// The booking day is three days ahead so lead time never interferes.
	day := time.Now().In(cfg.Booking.Location).AddDate(0, 0, 3).Format("2006-01-02")
	var orderID int64

	// --- Step 1: user 1 books 09:00-10:30 ---
	t.Run("Step 1: First Booking Wins", func(t *testing.T) {
		w := send(http.MethodPost, "/api/orders", 1, gin.H{"room_id": 101, "date": day, "begin": "09:00", "end": "10:30"})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var order model.Order
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &order))
		orderID = order.ID

		var stored model.Order
		require.NoError(t, gormDB.First(&stored, orderID).Error)
		assert.Equal(t, model.OrderActive, stored.Status)
		assert.Equal(t, day, stored.Date)
		assert.Equal(t, 9*60, stored.BeginMinute)
		assert.Equal(t, 10*60+30, stored.EndMinute)
	})

	// --- Step 2: user 2 asks for an overlapping interval ---
	t.Run("Step 2: Overlap Is Rejected", func(t *testing.T) {
		w := send(http.MethodPost, "/api/orders", 2, gin.H{"room_id": 101, "date": day, "begin": "10:00", "end": "11:00"})
		assert.Equal(t, http.StatusConflict, w.Code)

		w = send(http.MethodPost, "/api/orders", 2, gin.H{"room_id": 101, "date": day, "begin": "10:30", "end": "11:30"})
		assert.Equal(t, http.StatusCreated, w.Code, "touching intervals do not overlap")

		var count int64
		gormDB.Model(&model.Order{}).Where("room_id = ? AND status = ?", 101, model.OrderActive).Count(&count)
		assert.Equal(t, int64(2), count)
	})

	// --- Step 3: user 1 moves the booking to the afternoon ---
	t.Run("Step 3: Reschedule Frees The Old Interval", func(t *testing.T) {
		w := send(http.MethodPut, fmt.Sprintf("/api/orders/%d", orderID), 1, gin.H{"date": day, "begin": "14:00", "end": "15:00"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = send(http.MethodGet, fmt.Sprintf("/api/rooms/101/availability?date=%s&begin=09:00&end=10:00", day), 2, nil)
		assert.JSONEq(t, `{"room_id":101,"available":true}`, w.Body.String())
		assert.Contains(t, notifier.freed, fmt.Sprintf("101 %s %d-%d", day, 9*60, 10*60+30))
	})

	// --- Step 4: user 1 cancels ---
	t.Run("Step 4: Cancellation Is Recorded Once", func(t *testing.T) {
		path := fmt.Sprintf("/api/orders/%d/cancel", orderID)
		assert.Equal(t, http.StatusForbidden, send(http.MethodPost, path, 2, nil).Code)
		require.Equal(t, http.StatusOK, send(http.MethodPost, path, 1, nil).Code)
		assert.Equal(t, http.StatusConflict, send(http.MethodPost, path, 1, nil).Code)

		var records []model.CancelRecord
		require.NoError(t, gormDB.Where("order_id = ?", orderID).Find(&records).Error)
		assert.Len(t, records, 1)

		var stored model.Order
		require.NoError(t, gormDB.First(&stored, orderID).Error)
		assert.Equal(t, model.OrderCancelled, stored.Status)
		assert.Contains(t, notifier.freed, fmt.Sprintf("101 %s %d-%d", day, 14*60, 15*60))
	})
}
