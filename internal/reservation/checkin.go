package reservation

import (
	"context"
	"log"
	"time"

	"room-reservation-backend/internal/apperr"
	"room-reservation-backend/internal/guard"
	"room-reservation-backend/internal/model"
	"room-reservation-backend/internal/store"
)

// CheckIn checks userID into roomID using their reservation for today whose
// check-in window contains now.
func (s *Service) CheckIn(ctx context.Context, userID, roomID int64, now time.Time) (*model.UsedRoom, error) {
	date := s.today(now)

	var (
		order *model.Order
		used  *model.UsedRoom
	)
	keys := []string{guard.RoomKey(roomID, date), guard.UserKey(userID, "")}
	err := s.guard.Transition(ctx, roomID, keys, func(ctx context.Context, tx store.Store, room *model.Room) error {
		if room.IsLibrary() {
			return apperr.Policy("room %s is a library room; use library check-in", room.NoRoom)
		}
		orders, err := tx.ListOrders(ctx, store.OrderFilter{
			UserID:   userID,
			RoomID:   roomID,
			Date:     date,
			Statuses: model.BlockingStatuses,
		})
		if err != nil {
			return err
		}
		o, err := s.pickCheckInOrder(orders, roomID, now)
		if err != nil {
			return err
		}
		order = o
		used, err = s.checkInOrder(ctx, tx, o, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[INFO] user %d checked in to room %d with order %d", userID, roomID, order.ID)
	s.publish(ctx, occupancyEvent(EventBookingCheckedIn, used, now))
	return used, nil
}

// CheckInOrder checks userID in with an explicit order id.
func (s *Service) CheckInOrder(ctx context.Context, userID, orderID int64, now time.Time) (*model.UsedRoom, error) {
	current, err := loadOwnedOrder(ctx, s.store, orderID, userID)
	if err != nil {
		return nil, err
	}

	var used *model.UsedRoom
	keys := []string{guard.RoomKey(current.RoomID, current.Date), guard.UserKey(userID, "")}
	err = s.guard.Transition(ctx, current.RoomID, keys, func(ctx context.Context, tx store.Store, _ *model.Room) error {
		o, err := loadOwnedOrder(ctx, tx, orderID, userID)
		if err != nil {
			return err
		}
		if o.Status != model.OrderActive {
			return transition(o, model.OrderUsed)
		}
		slot, err := s.orderSlot(o)
		if err != nil {
			return err
		}
		if err := s.policy.CheckInWindow(now, slot); err != nil {
			return err
		}
		used, err = s.checkInOrder(ctx, tx, o, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[INFO] user %d checked in with order %d", userID, orderID)
	s.publish(ctx, occupancyEvent(EventBookingCheckedIn, used, now))
	return used, nil
}

// pickCheckInOrder chooses the active order whose window contains now. With no
// candidate it explains why: nothing booked, already checked in, or outside the window.
func (s *Service) pickCheckInOrder(orders []model.Order, roomID int64, now time.Time) (*model.Order, error) {
	var (
		windowErr error
		checkedIn bool
	)
	for i := range orders {
		o := &orders[i]
		if o.Status == model.OrderUsed {
			checkedIn = true
			continue
		}
		slot, err := s.orderSlot(o)
		if err != nil {
			return nil, err
		}
		err = s.policy.CheckInWindow(now, slot)
		if err == nil {
			return o, nil
		}
		if windowErr == nil {
			windowErr = err
		}
	}

	switch {
	case checkedIn && windowErr == nil:
		return nil, apperr.Conflict("you are already checked in to room %d", roomID)
	case windowErr != nil:
		return nil, windowErr
	default:
		return nil, apperr.NotFound("you have no reservation for room %d today", roomID)
	}
}

// checkInOrder marks o used and opens its occupancy record.
func (s *Service) checkInOrder(ctx context.Context, tx store.Store, o *model.Order, now time.Time) (*model.UsedRoom, error) {
	if err := s.ensureNoOpenOccupancy(ctx, tx, o.UserID); err != nil {
		return nil, err
	}
	if err := transition(o, model.OrderUsed); err != nil {
		return nil, err
	}
	if err := tx.SaveOrder(ctx, o); err != nil {
		return nil, err
	}

	orderID := o.ID
	used := &model.UsedRoom{
		OrderID:   &orderID,
		UserID:    o.UserID,
		RoomID:    o.RoomID,
		CheckinAt: now,
	}
	if err := tx.CreateUsedRoom(ctx, used); err != nil {
		return nil, err
	}
	return used, nil
}

// CheckOut closes the open occupancy of userID in roomID. The reservation
// behind it becomes completed, which is distinct from a user cancellation.
func (s *Service) CheckOut(ctx context.Context, userID, roomID int64, now time.Time) (*model.UsedRoom, error) {
	var (
		used  *model.UsedRoom
		order *model.Order
	)
	keys := []string{guard.RoomKey(roomID, s.today(now)), guard.UserKey(userID, "")}
	err := s.guard.Transition(ctx, roomID, keys, func(ctx context.Context, tx store.Store, _ *model.Room) error {
		u, err := s.openOccupancyIn(ctx, tx, userID, roomID)
		if err != nil {
			return err
		}
		if u.Library {
			return apperr.Policy("occupancy of room %d is a library visit; use library check-out", roomID)
		}
		if err := tx.CloseUsedRoom(ctx, u.ID, now); err != nil {
			return err
		}
		u.CheckoutAt = &now
		used = u

		if u.OrderID == nil {
			return nil
		}
		o, err := tx.GetOrder(ctx, *u.OrderID)
		if err != nil {
			return notFound(err, "order %d not found", *u.OrderID)
		}
		if err := transition(o, model.OrderCompleted); err != nil {
			return err
		}
		order = o
		return tx.SaveOrder(ctx, o)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[INFO] user %d checked out of room %d", userID, roomID)
	s.publish(ctx, occupancyEvent(EventBookingCheckedOut, used, now))
	if order != nil {
		s.roomFreed(roomID, order.Date, s.nextSlotBoundary(now), order.EndMinute)
	}
	return used, nil
}

// LibraryCheckIn opens a walk-in occupancy of a library room. No reservation
// is involved; the room's occupant counter bounds the number of visitors.
func (s *Service) LibraryCheckIn(ctx context.Context, userID, roomID int64, now time.Time) (*model.UsedRoom, error) {
	var used *model.UsedRoom
	keys := []string{guard.RoomKey(roomID, ""), guard.UserKey(userID, "")}
	err := s.guard.Transition(ctx, roomID, keys, func(ctx context.Context, tx store.Store, room *model.Room) error {
		if !room.IsLibrary() {
			return apperr.Policy("room %s is not a library room", room.NoRoom)
		}
		if !room.Active {
			return apperr.Policy("library %s is closed", room.NoRoom)
		}
		if err := s.ensureNoOpenOccupancy(ctx, tx, userID); err != nil {
			return err
		}
		allowed, err := s.avail.WithStore(tx).IsLibraryCheckinAllowed(ctx, roomID)
		if err != nil {
			return err
		}
		if allowed {
			allowed, err = tx.IncrementOccupants(ctx, roomID)
			if err != nil {
				return err
			}
		}
		if !allowed {
			return apperr.Conflict("library %s is full", room.NoRoom)
		}

		used = &model.UsedRoom{
			UserID:    userID,
			RoomID:    roomID,
			Library:   true,
			CheckinAt: now,
		}
		return tx.CreateUsedRoom(ctx, used)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[INFO] user %d checked in to library room %d", userID, roomID)
	s.publish(ctx, occupancyEvent(EventLibraryCheckedIn, used, now))
	return used, nil
}

// LibraryCheckOut closes the walk-in occupancy of userID in a library room.
func (s *Service) LibraryCheckOut(ctx context.Context, userID, roomID int64, now time.Time) (*model.UsedRoom, error) {
	var used *model.UsedRoom
	keys := []string{guard.RoomKey(roomID, ""), guard.UserKey(userID, "")}
	err := s.guard.Transition(ctx, roomID, keys, func(ctx context.Context, tx store.Store, room *model.Room) error {
		if !room.IsLibrary() {
			return apperr.Policy("room %s is not a library room", room.NoRoom)
		}
		u, err := s.openOccupancyIn(ctx, tx, userID, roomID)
		if err != nil {
			return err
		}
		if err := tx.CloseUsedRoom(ctx, u.ID, now); err != nil {
			return err
		}
		released, err := tx.DecrementOccupants(ctx, roomID)
		if err != nil {
			return err
		}
		if !released {
			log.Printf("[WARN] occupant counter of library room %d was already zero", roomID)
		}
		u.CheckoutAt = &now
		used = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[INFO] user %d checked out of library room %d", userID, roomID)
	s.publish(ctx, occupancyEvent(EventLibraryCheckedOut, used, now))
	_, close := s.policy.Hours()
	s.roomFreed(roomID, s.today(now), s.nextSlotBoundary(now), close)
	return used, nil
}

func (s *Service) ensureNoOpenOccupancy(ctx context.Context, tx store.Store, userID int64) error {
	open, err := tx.OpenUsedRoom(ctx, userID)
	if err == nil {
		return apperr.Conflict("you are already checked in to room %d", open.RoomID)
	}
	if !store.IsNotFound(err) {
		return err
	}
	return nil
}

// openOccupancyIn returns the open occupancy of userID, which must be in roomID.
func (s *Service) openOccupancyIn(ctx context.Context, tx store.Store, userID, roomID int64) (*model.UsedRoom, error) {
	u, err := tx.OpenUsedRoom(ctx, userID)
	if err != nil {
		return nil, notFound(err, "you are not checked in to any room")
	}
	if u.RoomID != roomID {
		return nil, apperr.NotFound("you are checked in to room %d, not room %d", u.RoomID, roomID)
	}
	return u, nil
}

// nextSlotBoundary rounds now up to the slot grid.
func (s *Service) nextSlotBoundary(now time.Time) int {
	m := s.minuteOf(now)
	if step := s.policy.SlotMinutes; step > 0 && m%step != 0 {
		m += step - m%step
	}
	return m
}
