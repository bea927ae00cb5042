// Package guard serializes check-then-commit sections on a room timeline.
//
// A section holds an in-process lock per key (room/date and user/date) and runs
// inside one storage transaction that row-locks the room. On PostgreSQL the
// orders_no_overlap exclusion constraint protects the same invariant across
// processes; a violation there surfaces as a storage failure and is retried once.
package guard

import (
	"context"
	"errors"
	"fmt"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"room-reservation-backend/internal/apperr"
	"room-reservation-backend/internal/model"
	"room-reservation-backend/internal/store"
)

const tracerName = "room-reservation-backend/guard"

// commitAttempts is the number of tries a booking commit gets before it
// reports the room as unavailable.
const commitAttempts = 2

// Section is the body of a guarded operation. tx is bound to the transaction
// and room is the locked room row.
type Section func(ctx context.Context, tx store.Store, room *model.Room) error

// Guard runs Sections exclusively.
type Guard struct {
	store  store.Store
	locks  *keyedMutex
	tracer trace.Tracer
}

// New creates a Guard over s.
func New(s store.Store) *Guard {
	return &Guard{
		store:  s,
		locks:  newKeyedMutex(),
		tracer: otel.Tracer(tracerName),
	}
}

// RoomKey scopes a lock to one room on one date. An empty date scopes it to
// the room as a whole (library seat counter).
func RoomKey(roomID int64, date string) string {
	if date == "" {
		return fmt.Sprintf("room:%d", roomID)
	}
	return fmt.Sprintf("room:%d:%s", roomID, date)
}

// UserKey scopes a lock to one user on one date, or to the user as a whole.
func UserKey(userID int64, date string) string {
	if date == "" {
		return fmt.Sprintf("user:%d", userID)
	}
	return fmt.Sprintf("user:%d:%s", userID, date)
}

// Commit runs a create or reschedule. An unclassified failure is retried once;
// a second one is reported as apperr.ErrConflict "room unavailable".
func (g *Guard) Commit(ctx context.Context, roomID int64, keys []string, fn Section) error {
	return g.run(ctx, "guard.commit", roomID, keys, commitAttempts, fn)
}

// Transition runs a state change exactly once; failures are returned as-is.
func (g *Guard) Transition(ctx context.Context, roomID int64, keys []string, fn Section) error {
	return g.run(ctx, "guard.transition", roomID, keys, 1, fn)
}

func (g *Guard) run(ctx context.Context, name string, roomID int64, keys []string, attempts int, fn Section) (err error) {
	ctx, span := g.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.Int64("room.id", roomID),
		attribute.StringSlice("guard.keys", keys),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	unlock := g.locks.Lock(keys...)
	defer unlock()

	for attempt := 1; attempt <= attempts; attempt++ {
		if err = ctx.Err(); err != nil {
			return err
		}
		span.SetAttributes(attribute.Int("guard.attempt", attempt))

		err = g.store.Transaction(ctx, func(tx store.Store) error {
			room, err := tx.LockRoom(ctx, roomID)
			if err != nil {
				if store.IsNotFound(err) {
					return apperr.NotFound("room %d not found", roomID)
				}
				return err
			}
			return fn(ctx, tx, room)
		})
		if err == nil || !retryable(err) {
			return err
		}
		log.Printf("[WARN] %s on room %d failed (attempt %d/%d): %v", name, roomID, attempt, attempts, err)
	}

	if attempts > 1 {
		return apperr.Conflict("room unavailable")
	}
	return err
}

func retryable(err error) bool {
	if apperr.IsClassified(err) {
		return false
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
