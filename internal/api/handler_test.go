package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"room-reservation-backend/internal/apperr"
	"room-reservation-backend/internal/auth"
	"room-reservation-backend/internal/db"
	"room-reservation-backend/internal/model"
	"room-reservation-backend/internal/mw"
	"room-reservation-backend/internal/policy"
	"room-reservation-backend/internal/reservation"
	"room-reservation-backend/internal/store"
)

var ict = time.FixedZone("ICT", 7*3600)

type testAPI struct {
	router   *gin.Engine
	handler  *Handler
	verifier *auth.Verifier
	db       *gorm.DB
}

func init() {
	gin.SetMode(gin.TestMode)
}

func setupAPI(t *testing.T, now time.Time) *testAPI {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.Migrate(gdb))

	require.NoError(t, gdb.Create(&model.Branch{ID: 1, Name: "Main campus"}).Error)
	require.NoError(t, gdb.Omit("Branch").Create(&model.Building{ID: 1, BranchID: 1, Name: "A"}).Error)
	types := []model.RoomType{
		{ID: 1, Name: "Meeting room", MaxCapacity: 8, Kind: model.RoomKindOrdinary},
		{ID: 2, Name: "Library", MaxCapacity: 40, Kind: model.RoomKindLibrary},
	}
	require.NoError(t, gdb.Create(&types).Error)
	rooms := []model.Room{
		{ID: 101, BranchID: 1, BuildingID: 1, TypeID: 1, NoRoom: "101", Active: true},
		{ID: 5, BranchID: 1, BuildingID: 1, TypeID: 2, NoRoom: "L5", MaxQuantity: 1, Active: true},
	}
	require.NoError(t, gdb.Omit("Branch", "Building", "Type").Create(&rooms).Error)

	s := store.NewGormStore(gdb)
	svc := reservation.NewService(s, policy.Default(ict))
	verifier := auth.NewVerifier("test-secret")
	h := NewHandler(svc, s, nil, mw.NewResponseCache(time.Minute))
	h.now = func() time.Time { return now }

	r := gin.New()
	registerRoutes(r.Group("/api"), h, verifier)
	return &testAPI{router: r, handler: h, verifier: verifier, db: gdb}
}

func (a *testAPI) setNow(now time.Time) {
	a.handler.now = func() time.Time { return now }
}

func (a *testAPI) token(t *testing.T, userID int64, role string) string {
	tok, err := a.verifier.CreateAccessToken(userID, role, time.Hour)
	require.NoError(t, err)
	return tok
}

// do sends body (JSON-encoded unless nil) as the given user; userID 0 sends no token.
func (a *testAPI) do(t *testing.T, method, path string, userID int64, body any) *httptest.ResponseRecorder {
	return a.doAs(t, method, path, userID, "user", body)
}

func (a *testAPI) doAs(t *testing.T, method, path string, userID int64, role string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		req.Header.Set("Authorization", "Bearer "+a.token(t, userID, role))
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestWriteError(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected int
	}{
		{"validation", apperr.Validation("bad hour"), http.StatusBadRequest},
		{"policy", apperr.Policy("too late"), http.StatusUnprocessableEntity},
		{"not found", apperr.NotFound("order 1 not found"), http.StatusNotFound},
		{"store miss", fmt.Errorf("failed to get room: %w", gorm.ErrRecordNotFound), http.StatusNotFound},
		{"conflict", apperr.Conflict("room unavailable"), http.StatusConflict},
		{"forbidden", apperr.Forbidden("not yours"), http.StatusForbidden},
		{"internal", errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request, _ = http.NewRequest(http.MethodGet, "/", nil)
			writeError(c, tc.err)
			assert.Equal(t, tc.expected, w.Code)
		})
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/", nil)
	writeError(c, errors.New("dial tcp 10.0.0.3:5432: refused"))
	assert.JSONEq(t, `{"error":"internal error"}`, w.Body.String(), "internal details stay in the log")
}

func TestCatalog(t *testing.T) {
	a := setupAPI(t, time.Date(2025, 2, 27, 10, 0, 0, 0, ict))

	w := a.do(t, http.MethodGet, "/api/rooms?kind=library", 0, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[roomListResponse](t, w)
	assert.Equal(t, int64(1), list.Total)
	assert.Equal(t, "L5", list.Rooms[0].NoRoom)

	w = a.do(t, http.MethodGet, "/api/rooms/101", 0, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.RoomKindOrdinary, decode[model.Room](t, w).Type.Kind)

	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodGet, "/api/rooms/999", 0, nil).Code)
	assert.Equal(t, http.StatusBadRequest, a.do(t, http.MethodGet, "/api/rooms?kind=pool", 0, nil).Code)
	assert.Equal(t, http.StatusBadRequest, a.do(t, http.MethodGet, "/api/rooms/abc", 0, nil).Code)

	w = a.do(t, http.MethodGet, "/api/branches/1/buildings", 0, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.Building](t, w), 1)
}

func TestAdminWritesInvalidateCatalog(t *testing.T) {
	a := setupAPI(t, time.Date(2025, 2, 27, 10, 0, 0, 0, ict))

	w := a.do(t, http.MethodGet, "/api/rooms", 0, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(2), decode[roomListResponse](t, w).Total)
	require.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/api/branches", 0, nil).Code)
	assert.Equal(t, "HIT", a.do(t, http.MethodGet, "/api/rooms", 0, nil).Header().Get("X-Cache"))

	room := gin.H{"branch_id": 1, "building_id": 1, "type_id": 1, "no_room": "102"}
	assert.Equal(t, http.StatusUnauthorized, a.do(t, http.MethodPost, "/api/admin/rooms", 0, room).Code)
	assert.Equal(t, http.StatusForbidden, a.do(t, http.MethodPost, "/api/admin/rooms", 7, room).Code)

	w = a.doAs(t, http.MethodPost, "/api/admin/rooms", 1, auth.RoleAdmin, room)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.True(t, decode[model.Room](t, w).Active)

	w = a.do(t, http.MethodGet, "/api/rooms", 0, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("X-Cache"))
	assert.Equal(t, int64(3), decode[roomListResponse](t, w).Total)
	assert.Equal(t, "HIT", a.do(t, http.MethodGet, "/api/branches", 0, nil).Header().Get("X-Cache"), "branches untouched by a room write")

	w = a.doAs(t, http.MethodPost, "/api/admin/room-types", 1, auth.RoleAdmin, gin.H{"name": "Lab", "max_capacity": 20})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, model.RoomKindOrdinary, decode[model.RoomType](t, w).Kind)
	assert.Empty(t, a.do(t, http.MethodGet, "/api/rooms", 0, nil).Header().Get("X-Cache"))

	w = a.doAs(t, http.MethodPost, "/api/admin/room-types", 1, auth.RoleAdmin, gin.H{"name": "Pool", "kind": "pool"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrderLifecycle(t *testing.T) {
	a := setupAPI(t, time.Date(2025, 2, 27, 10, 0, 0, 0, ict))
	const userA, userB int64 = 1, 2
	slot := gin.H{"room_id": 101, "date": "2025-03-01", "begin": "09:00", "end": "10:30"}

	assert.Equal(t, http.StatusUnauthorized, a.do(t, http.MethodPost, "/api/orders", 0, slot).Code)

	w := a.do(t, http.MethodPost, "/api/orders", userA, slot)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	order := decode[orderResponse](t, w)
	assert.Equal(t, model.OrderActive, order.Status)
	assert.Equal(t, "09:00", order.Begin)
	assert.False(t, order.IsUsed)
	assert.False(t, order.IsCancel)

	w = a.do(t, http.MethodPost, "/api/orders", userB, gin.H{"room_id": 101, "date": "2025-03-01", "begin": "10:00", "end": "11:00"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = a.do(t, http.MethodPost, "/api/orders", userB, gin.H{"room_id": 101, "date": "2025-03-01", "begin": "20:00", "end": "21:00"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(t, http.MethodPost, "/api/orders", userB, gin.H{"room_id": 101, "date": "2025-02-27", "begin": "10:30", "end": "11:00"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = a.do(t, http.MethodPost, "/api/orders", userB, gin.H{"room_id": 101, "date": "March 1", "begin": "10:30", "end": "11:00"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	orderPath := fmt.Sprintf("/api/orders/%d", order.ID)
	assert.Equal(t, http.StatusForbidden, a.do(t, http.MethodGet, orderPath, userB, nil).Code)
	assert.Equal(t, http.StatusOK, a.doAs(t, http.MethodGet, orderPath, 9, auth.RoleAdmin, nil).Code)

	w = a.do(t, http.MethodGet, "/api/rooms/101/availability?date=2025-03-01&begin=10:00&end=11:00", userB, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"room_id":101,"available":false}`, w.Body.String())

	w = a.do(t, http.MethodGet, "/api/rooms/101/slots?date=2025-03-01", userB, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"room_id":101,"free":[{"begin":"07:00","end":"09:00"},{"begin":"10:30","end":"20:00"}]}`, w.Body.String())

	w = a.do(t, http.MethodGet, "/api/rooms/search?date=2025-03-01&begin=09:30&end=10:00", userB, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]model.Room](t, w), "the only ordinary room is taken")

	w = a.do(t, http.MethodPut, orderPath, userA, gin.H{"date": "2025-03-01", "begin": "11:00", "end": "12:00"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 11*60, decode[orderResponse](t, w).BeginMinute)

	w = a.do(t, http.MethodGet, "/api/orders?from=2025-03-01&to=2025-03-01", userA, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]orderResponse](t, w), 1)
	assert.Equal(t, http.StatusBadRequest, a.do(t, http.MethodGet, "/api/orders?from=01/03/2025", userA, nil).Code)

	assert.Equal(t, http.StatusForbidden, a.do(t, http.MethodPost, orderPath+"/cancel", userB, nil).Code)
	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodGet, orderPath+"/cancellation", userA, nil).Code)

	w = a.do(t, http.MethodPost, orderPath+"/cancel", userA, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, order.ID, decode[model.CancelRecord](t, w).OrderID)
	assert.Equal(t, http.StatusConflict, a.do(t, http.MethodPost, orderPath+"/cancel", userA, nil).Code)

	w = a.do(t, http.MethodGet, orderPath, userA, nil)
	cancelled := decode[orderResponse](t, w)
	assert.True(t, cancelled.IsCancel)
	assert.False(t, cancelled.IsUsed)

	assert.Equal(t, http.StatusOK, a.do(t, http.MethodGet, orderPath+"/cancellation", userA, nil).Code)
	w = a.do(t, http.MethodGet, "/api/cancellations", userA, nil)
	assert.Len(t, decode[[]model.CancelRecord](t, w), 1)
}

func TestCheckInOutAndReports(t *testing.T) {
	a := setupAPI(t, time.Date(2025, 2, 27, 10, 0, 0, 0, ict))
	const userA int64 = 1

	w := a.do(t, http.MethodPost, "/api/orders", userA, gin.H{"room_id": 101, "date": "2025-03-01", "begin": "09:00", "end": "10:30"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	order := decode[orderResponse](t, w)

	assert.Equal(t, http.StatusBadRequest, a.do(t, http.MethodPost, "/api/checkin", userA, gin.H{}).Code)
	assert.Equal(t, http.StatusBadRequest, a.do(t, http.MethodPost, "/api/checkin", userA, gin.H{"room_id": 101, "order_id": order.ID}).Code)
	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodPost, "/api/checkin", userA, gin.H{"room_id": 101}).Code, "nothing booked today")
	assert.Equal(t, http.StatusUnprocessableEntity, a.do(t, http.MethodPost, "/api/checkin", userA, gin.H{"order_id": order.ID}).Code, "two days early")

	a.setNow(time.Date(2025, 3, 1, 8, 50, 0, 0, ict))
	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodPost, "/api/reports", userA, gin.H{"led": true}).Code)

	w = a.do(t, http.MethodPost, "/api/checkin", userA, gin.H{"room_id": 101})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	used := decode[model.UsedRoom](t, w)
	assert.True(t, used.Open())

	w = a.do(t, http.MethodPost, "/api/reports", userA, gin.H{"projector": true, "description": "no HDMI cable"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	report := decode[model.Report](t, w)
	assert.Equal(t, used.ID, report.UsedRoomID)
	assert.Equal(t, http.StatusOK, a.do(t, http.MethodGet, fmt.Sprintf("/api/reports/%d", report.ID), userA, nil).Code)
	assert.Equal(t, http.StatusForbidden, a.do(t, http.MethodGet, fmt.Sprintf("/api/reports/%d", report.ID), 2, nil).Code)

	a.setNow(time.Date(2025, 3, 1, 9, 40, 0, 0, ict))
	w = a.do(t, http.MethodPost, "/api/checkout", userA, gin.H{"room_id": 101})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	closed := decode[model.UsedRoom](t, w)
	assert.False(t, closed.Open())
	assert.Equal(t, used.ID, closed.ID)

	w = a.do(t, http.MethodGet, fmt.Sprintf("/api/orders/%d", order.ID), userA, nil)
	completed := decode[orderResponse](t, w)
	assert.Equal(t, model.OrderCompleted, completed.Status)
	assert.True(t, completed.IsUsed)
	assert.True(t, completed.IsCancel)

	w = a.do(t, http.MethodGet, fmt.Sprintf("/api/orders/%d/occupancy", order.ID), userA, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, used.ID, decode[model.UsedRoom](t, w).ID)

	w = a.do(t, http.MethodGet, "/api/occupancies", userA, nil)
	assert.Len(t, decode[[]model.UsedRoom](t, w), 1)
	w = a.do(t, http.MethodGet, "/api/reports", userA, nil)
	assert.Len(t, decode[[]model.Report](t, w), 1)
}

func TestLibraryFlow(t *testing.T) {
	a := setupAPI(t, time.Date(2025, 3, 1, 9, 0, 0, 0, ict))
	const userA, userB int64 = 1, 2

	w := a.do(t, http.MethodGet, "/api/libraries", userA, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.Room](t, w), 1)

	require.Equal(t, http.StatusCreated, a.do(t, http.MethodPost, "/api/library/checkin", userA, gin.H{"room_id": 5}).Code)
	assert.Equal(t, http.StatusConflict, a.do(t, http.MethodPost, "/api/library/checkin", userB, gin.H{"room_id": 5}).Code, "capacity is one")
	assert.Equal(t, http.StatusUnprocessableEntity, a.do(t, http.MethodPost, "/api/library/checkin", userB, gin.H{"room_id": 101}).Code)

	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodPost, "/api/library/checkout", userB, gin.H{"room_id": 5}).Code)
	require.Equal(t, http.StatusOK, a.do(t, http.MethodPost, "/api/library/checkout", userA, gin.H{"room_id": 5}).Code)
	assert.Equal(t, http.StatusCreated, a.do(t, http.MethodPost, "/api/library/checkin", userB, gin.H{"room_id": 5}).Code)

	var room model.Room
	require.NoError(t, a.db.First(&room, 5).Error)
	assert.Equal(t, 1, room.Quantity)
}
