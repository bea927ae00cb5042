package reservation

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"room-reservation-backend/internal/db"
	"room-reservation-backend/internal/model"
	"room-reservation-backend/internal/policy"
	"room-reservation-backend/internal/store"
)

var ict = time.FixedZone("ICT", 7*3600)

const (
	userA int64 = 1
	userB int64 = 2
	userC int64 = 3

	room101     int64 = 101
	room102     int64 = 102
	room103     int64 = 103
	libraryRoom int64 = 5
)

type freedRoom struct {
	RoomID     int64
	Date       string
	Begin, End int
}

// recorder captures published events and room-freed notifications.
type recorder struct {
	mu     sync.Mutex
	events []Event
	freed  []freedRoom
}

func (r *recorder) PublishJSON(ctx context.Context, routingKey string, v any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, v.(Event))
	return nil
}

func (r *recorder) NotifyRoomFreed(roomID int64, date string, begin, end int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.freed = append(r.freed, freedRoom{roomID, date, begin, end})
}

func (r *recorder) eventTypes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, len(r.events))
	for i, ev := range r.events {
		types[i] = ev.Type
	}
	return types
}

func setupService(t *testing.T) (*Service, *gorm.DB, *recorder) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(gdb))

	types := []model.RoomType{
		{ID: 1, Name: "Meeting room", MaxCapacity: 8, Kind: model.RoomKindOrdinary},
		{ID: 2, Name: "Library", MaxCapacity: 40, Kind: model.RoomKindLibrary},
	}
	require.NoError(t, gdb.Create(&types).Error)
	rooms := []model.Room{
		{ID: room101, BranchID: 1, BuildingID: 1, TypeID: 1, NoRoom: "101", Active: true},
		{ID: room102, BranchID: 1, BuildingID: 1, TypeID: 1, NoRoom: "102", Active: true},
		{ID: room103, BranchID: 1, BuildingID: 2, TypeID: 1, NoRoom: "103", Active: true},
		{ID: libraryRoom, BranchID: 1, BuildingID: 2, TypeID: 2, NoRoom: "L5", MaxQuantity: 2, Active: true},
	}
	require.NoError(t, gdb.Omit("Branch", "Building", "Type").Create(&rooms).Error)

	rec := &recorder{}
	svc := NewService(store.NewGormStore(gdb), policy.Default(ict), WithPublisher(rec), WithNotifier(rec))
	return svc, gdb, rec
}

// at builds an instant in the service location.
func at(month time.Month, day, hour, minute int) time.Time {
	return time.Date(2025, month, day, hour, minute, 0, 0, ict)
}

// march1 requests [begin, end) on 2025-03-01, both given as HH*60+MM.
func march1(begin, end int) SlotRequest {
	return SlotRequest{Year: 2025, Month: 3, Day: 1, Begin: begin, End: end}
}
