package reservation

import (
	"context"
	"log"
	"time"

	"room-reservation-backend/internal/apperr"
	"room-reservation-backend/internal/calendar"
	"room-reservation-backend/internal/guard"
	"room-reservation-backend/internal/model"
	"room-reservation-backend/internal/store"
)

// Create books roomID for userID. The availability check, the duplicate
// self-booking check and the insert run as one guarded section.
func (s *Service) Create(ctx context.Context, userID, roomID int64, req SlotRequest, now time.Time) (*model.Order, error) {
	slot, err := s.slot(now, req)
	if err != nil {
		return nil, err
	}
	date := slot.DateKey()

	var order *model.Order
	keys := []string{guard.RoomKey(roomID, date), guard.UserKey(userID, date)}
	err = s.guard.Commit(ctx, roomID, keys, func(ctx context.Context, tx store.Store, room *model.Room) error {
		if err := bookable(room); err != nil {
			return err
		}
		if err := s.policy.CheckLeadTime(now, slot); err != nil {
			return err
		}
		if err := s.checkFree(ctx, tx, userID, roomID, slot, 0); err != nil {
			return err
		}

		order = &model.Order{
			RoomID:      roomID,
			UserID:      userID,
			Date:        date,
			BeginMinute: slot.Begin,
			EndMinute:   slot.End,
			Status:      model.OrderActive,
		}
		return tx.CreateOrder(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[INFO] order %d created: user %d, room %d, %s", order.ID, userID, roomID, slot)
	s.publish(ctx, orderEvent(EventBookingCreated, order, now))
	return order, nil
}

// Reschedule moves an active order of userID to a new date and interval in the
// same room. The order's own interval does not count against the new one.
func (s *Service) Reschedule(ctx context.Context, orderID, userID int64, req SlotRequest, now time.Time) (*model.Order, error) {
	slot, err := s.slot(now, req)
	if err != nil {
		return nil, err
	}

	current, err := loadOwnedOrder(ctx, s.store, orderID, userID)
	if err != nil {
		return nil, err
	}
	oldDate, oldBegin, oldEnd := current.Date, current.BeginMinute, current.EndMinute
	date := slot.DateKey()

	var order *model.Order
	keys := []string{
		guard.RoomKey(current.RoomID, date), guard.UserKey(userID, date),
		guard.RoomKey(current.RoomID, oldDate), guard.UserKey(userID, oldDate),
	}
	err = s.guard.Commit(ctx, current.RoomID, keys, func(ctx context.Context, tx store.Store, room *model.Room) error {
		o, err := loadOwnedOrder(ctx, tx, orderID, userID)
		if err != nil {
			return err
		}
		if o.Status != model.OrderActive {
			return apperr.Conflict("order %d is %s and can no longer be changed", o.ID, o.Status)
		}
		if err := s.policy.CheckLeadTime(now, slot); err != nil {
			return err
		}
		if err := s.checkFree(ctx, tx, userID, o.RoomID, slot, o.ID); err != nil {
			return err
		}

		o.Date = date
		o.BeginMinute = slot.Begin
		o.EndMinute = slot.End
		order = o
		return tx.SaveOrder(ctx, o)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[INFO] order %d rescheduled to %s", order.ID, slot)
	s.publish(ctx, orderEvent(EventBookingRescheduled, order, now))
	if oldDate != order.Date || oldBegin != order.BeginMinute || oldEnd != order.EndMinute {
		s.roomFreed(order.RoomID, oldDate, oldBegin, oldEnd)
	}
	return order, nil
}

// Cancel cancels an active order of userID and records the cancellation.
func (s *Service) Cancel(ctx context.Context, orderID, userID int64, now time.Time) (*model.CancelRecord, error) {
	current, err := loadOwnedOrder(ctx, s.store, orderID, userID)
	if err != nil {
		return nil, err
	}

	var (
		order  *model.Order
		record *model.CancelRecord
	)
	keys := []string{guard.RoomKey(current.RoomID, current.Date), guard.UserKey(userID, current.Date)}
	err = s.guard.Transition(ctx, current.RoomID, keys, func(ctx context.Context, tx store.Store, _ *model.Room) error {
		o, err := loadOwnedOrder(ctx, tx, orderID, userID)
		if err != nil {
			return err
		}
		if err := transition(o, model.OrderCancelled); err != nil {
			return err
		}
		slot, err := s.orderSlot(o)
		if err != nil {
			return err
		}
		if err := s.policy.CheckCancelWindow(now, slot); err != nil {
			return err
		}

		if err := tx.SaveOrder(ctx, o); err != nil {
			return err
		}
		record = &model.CancelRecord{OrderID: o.ID, UserID: userID, CancelledAt: now}
		order = o
		return tx.CreateCancelRecord(ctx, record)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[INFO] order %d cancelled by user %d", order.ID, userID)
	s.publish(ctx, orderEvent(EventBookingCancelled, order, now))
	if slot, err := s.orderSlot(order); err == nil && slot.Finish().After(now) {
		s.roomFreed(order.RoomID, order.Date, order.BeginMinute, order.EndMinute)
	}
	return record, nil
}

// QueryAvailability reports whether roomID is free for the requested interval.
func (s *Service) QueryAvailability(ctx context.Context, roomID int64, req SlotRequest, now time.Time) (bool, error) {
	slot, err := s.slot(now, req)
	if err != nil {
		return false, err
	}
	room, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		return false, notFound(err, "room %d not found", roomID)
	}
	if err := bookable(room); err != nil {
		return false, err
	}
	return s.avail.IsAvailable(ctx, roomID, slot, 0)
}

// FilterAvailableRooms returns up to q.Limit active ordinary rooms that are free
// for the requested interval, ordered by id. A slot that could not be booked
// anyway (past or short notice) is rejected like Create rejects it.
func (s *Service) FilterAvailableRooms(ctx context.Context, q RoomQuery, req SlotRequest, now time.Time) ([]model.Room, error) {
	slot, err := s.slot(now, req)
	if err != nil {
		return nil, err
	}
	if err := s.policy.CheckLeadTime(now, slot); err != nil {
		return nil, err
	}
	limit := s.clampLimit(q.Limit)

	rooms, _, err := s.store.ListRooms(ctx, store.RoomFilter{
		BranchID:   q.BranchID,
		BuildingID: q.BuildingID,
		TypeID:     q.TypeID,
		Kind:       model.RoomKindOrdinary,
		ActiveOnly: true,
	})
	if err != nil {
		return nil, err
	}
	busy, err := s.store.BusyRoomIDs(ctx, slot.DateKey(), slot.Begin, slot.End)
	if err != nil {
		return nil, err
	}

	free := make([]model.Room, 0, limit)
	for _, room := range rooms {
		if busy[room.ID] {
			continue
		}
		free = append(free, room)
		if len(free) == limit {
			break
		}
	}
	return free, nil
}

// SearchLibraries lists active library rooms matching q.
func (s *Service) SearchLibraries(ctx context.Context, q RoomQuery) ([]model.Room, error) {
	rooms, _, err := s.store.ListRooms(ctx, store.RoomFilter{
		BranchID:   q.BranchID,
		BuildingID: q.BuildingID,
		Kind:       model.RoomKindLibrary,
		ActiveOnly: true,
		Limit:      s.clampLimit(q.Limit),
	})
	return rooms, err
}

// FreeSlots lists the free gaps of roomID on the given date within operating hours.
func (s *Service) FreeSlots(ctx context.Context, roomID int64, year, month, day int, now time.Time) ([]calendar.Interval, error) {
	if err := s.policy.ValidateDate(now, year, month, day); err != nil {
		return nil, err
	}
	room, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		return nil, notFound(err, "room %d not found", roomID)
	}
	if err := bookable(room); err != nil {
		return nil, err
	}
	date := calendar.NewSlot(year, time.Month(month), day, 0, 0, s.policy.Location).DateKey()
	return s.avail.FreeSlots(ctx, roomID, date)
}

func (s *Service) checkFree(ctx context.Context, tx store.Store, userID, roomID int64, slot calendar.Slot, excludeOrderID int64) error {
	avail := s.avail.WithStore(tx)
	ok, err := avail.IsAvailable(ctx, roomID, slot, excludeOrderID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Conflict("room unavailable")
	}
	if err := tx.LockUser(ctx, userID); err != nil {
		return err
	}
	conflict, err := avail.HasUserConflict(ctx, userID, slot, excludeOrderID)
	if err != nil {
		return err
	}
	if conflict {
		return apperr.Conflict("you already have a reservation overlapping %s", slot)
	}
	return nil
}

func (s *Service) clampLimit(limit int) int {
	if limit <= 0 {
		return s.searchLimit
	}
	if limit > s.maxSearchLimit {
		return s.maxSearchLimit
	}
	return limit
}

// bookable rejects rooms that do not take timed reservations.
func bookable(room *model.Room) error {
	if !room.Active {
		return apperr.Policy("room %s is closed for booking", room.NoRoom)
	}
	if room.IsLibrary() {
		return apperr.Policy("room %s is a library room; check in without a reservation", room.NoRoom)
	}
	return nil
}
