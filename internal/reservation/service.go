// Package reservation implements the booking lifecycle: create, reschedule,
// cancel, check-in and check-out of ordered rooms, plus walk-in occupancy of
// library rooms. Every operation takes the acting user and the current time
// explicitly.
package reservation

import (
	"context"
	"log"
	"time"

	"room-reservation-backend/internal/apperr"
	"room-reservation-backend/internal/availability"
	"room-reservation-backend/internal/calendar"
	"room-reservation-backend/internal/guard"
	"room-reservation-backend/internal/model"
	"room-reservation-backend/internal/policy"
	"room-reservation-backend/internal/store"
)

// Publisher receives lifecycle events after a transition committed.
type Publisher interface {
	PublishJSON(ctx context.Context, routingKey string, v any) error
}

// Notifier is told when an interval of a room becomes free again.
type Notifier interface {
	NotifyRoomFreed(roomID int64, date string, begin, end int)
}

// SlotRequest is a requested date and interval, already split into integers.
// Begin and End are minutes since midnight.
type SlotRequest struct {
	Year  int
	Month int
	Day   int
	Begin int
	End   int
}

// RoomQuery filters room searches. Zero ids match everything.
type RoomQuery struct {
	BranchID   int64
	BuildingID int64
	TypeID     int64
	Limit      int
}

// Service is the reservation core.
type Service struct {
	store  store.Store
	policy policy.Policy
	avail  *availability.Checker
	guard  *guard.Guard
	events Publisher
	notify Notifier

	searchLimit    int
	maxSearchLimit int
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher sets the lifecycle event sink.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.events = p }
}

// WithNotifier sets the room-freed notifier.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notify = n }
}

// WithSearchLimits sets the default and maximum number of rooms a search returns.
func WithSearchLimits(def, max int) Option {
	return func(s *Service) {
		s.searchLimit = def
		s.maxSearchLimit = max
	}
}

// WithGuard replaces the conflict guard. Services sharing a store inside one
// process must share a guard.
func WithGuard(g *guard.Guard) Option {
	return func(s *Service) { s.guard = g }
}

// NewService wires the core over a store.
func NewService(s store.Store, p policy.Policy, opts ...Option) *Service {
	svc := &Service{
		store:          s,
		policy:         p,
		avail:          availability.New(s, p),
		searchLimit:    10,
		maxSearchLimit: 20,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.guard == nil {
		svc.guard = guard.New(s)
	}
	return svc
}

// Policy returns the timing rules the service enforces.
func (s *Service) Policy() policy.Policy {
	return s.policy
}

func (s *Service) slot(now time.Time, req SlotRequest) (calendar.Slot, error) {
	return s.policy.NewSlot(now, req.Year, req.Month, req.Day, req.Begin, req.End)
}

func (s *Service) orderSlot(o *model.Order) (calendar.Slot, error) {
	return s.policy.StoredSlot(o.Date, o.BeginMinute, o.EndMinute)
}

// loadOwnedOrder reads an order and checks that userID owns it.
func loadOwnedOrder(ctx context.Context, st store.Store, orderID, userID int64) (*model.Order, error) {
	order, err := st.GetOrder(ctx, orderID)
	if err != nil {
		return nil, notFound(err, "order %d not found", orderID)
	}
	if order.UserID != userID {
		return nil, apperr.Forbidden("order %d belongs to another user", orderID)
	}
	return order, nil
}

// transition moves order to next or reports why it cannot.
func transition(order *model.Order, next model.OrderStatus) error {
	if model.CanTransition(order.Status, next) {
		order.Status = next
		return nil
	}
	switch order.Status {
	case model.OrderCancelled:
		return apperr.Conflict("order %d is already cancelled", order.ID)
	case model.OrderUsed:
		return apperr.Conflict("order %d is already checked in", order.ID)
	case model.OrderCompleted:
		return apperr.Conflict("order %d is already completed", order.ID)
	default:
		return apperr.Conflict("order %d cannot move from %s to %s", order.ID, order.Status, next)
	}
}

// notFound turns a store miss into apperr.ErrNotFound and passes other errors through.
func notFound(err error, format string, args ...any) error {
	if store.IsNotFound(err) {
		return apperr.NotFound(format, args...)
	}
	return err
}

func (s *Service) minuteOf(now time.Time) int {
	local := now.In(s.policy.Location)
	return local.Hour()*60 + local.Minute()
}

func (s *Service) today(now time.Time) string {
	return s.policy.Today(now).Format(calendar.DateLayout)
}

func (s *Service) roomFreed(roomID int64, date string, begin, end int) {
	if s.notify == nil || begin >= end {
		return
	}
	s.notify.NotifyRoomFreed(roomID, date, begin, end)
}

func (s *Service) publish(ctx context.Context, ev Event) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishJSON(ctx, ev.Type, ev); err != nil {
		log.Printf("[WARN] failed to publish %s event: %v", ev.Type, err)
	}
}
