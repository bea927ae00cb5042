package guard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"room-reservation-backend/internal/apperr"
	"room-reservation-backend/internal/model"
	"room-reservation-backend/internal/store"
)

// fakeStore fails the first `failures` transactions with a storage error.
// Methods not overridden panic through the nil embedded Store.
type fakeStore struct {
	store.Store
	mu       sync.Mutex
	failures int
	calls    int
	missing  bool
}

func (f *fakeStore) Transaction(ctx context.Context, fn func(tx store.Store) error) error {
	f.mu.Lock()
	f.calls++
	fail := f.failures > 0
	if fail {
		f.failures--
	}
	f.mu.Unlock()

	if err := fn(f); err != nil {
		return err
	}
	if fail {
		return errors.New("could not serialize access due to concurrent update")
	}
	return nil
}

func (f *fakeStore) LockRoom(ctx context.Context, id int64) (*model.Room, error) {
	if f.missing {
		return nil, fmt.Errorf("failed to lock room %d: %w", id, gorm.ErrRecordNotFound)
	}
	return &model.Room{ID: id}, nil
}

func noop(context.Context, store.Store, *model.Room) error { return nil }

func TestCommit_RetriesOnceThenSucceeds(t *testing.T) {
	fs := &fakeStore{failures: 1}
	g := New(fs)

	err := g.Commit(context.Background(), 101, []string{RoomKey(101, "2025-03-01")}, noop)
	require.NoError(t, err)
	assert.Equal(t, 2, fs.calls)
}

func TestCommit_SecondFailureIsConflict(t *testing.T) {
	fs := &fakeStore{failures: 2}
	g := New(fs)

	err := g.Commit(context.Background(), 101, []string{RoomKey(101, "2025-03-01")}, noop)
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.Equal(t, "room unavailable", err.Error())
	assert.Equal(t, 2, fs.calls)
}

func TestCommit_ClassifiedErrorsAreNotRetried(t *testing.T) {
	fs := &fakeStore{}
	g := New(fs)

	err := g.Commit(context.Background(), 101, nil, func(context.Context, store.Store, *model.Room) error {
		return apperr.Policy("cannot book in the past")
	})
	assert.ErrorIs(t, err, apperr.ErrPolicy)
	assert.Equal(t, 1, fs.calls)
}

func TestCommit_MissingRoom(t *testing.T) {
	g := New(&fakeStore{missing: true})

	err := g.Commit(context.Background(), 7, nil, noop)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCommit_CancelledContext(t *testing.T) {
	fs := &fakeStore{}
	g := New(fs)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := g.Commit(ctx, 101, nil, noop)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, fs.calls)
}

func TestTransition_DoesNotRetry(t *testing.T) {
	fs := &fakeStore{failures: 1}
	g := New(fs)

	err := g.Transition(context.Background(), 101, nil, noop)
	require.Error(t, err)
	assert.False(t, apperr.IsClassified(err))
	assert.Equal(t, 1, fs.calls)
}

func TestGuard_SerializesSameKey(t *testing.T) {
	g := New(&fakeStore{})
	key := RoomKey(101, "2025-03-01")

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = g.Commit(context.Background(), 101, []string{key}, func(context.Context, store.Store, *model.Room) error {
				n := atomic.AddInt32(&inside, 1)
				for {
					m := atomic.LoadInt32(&maxInside)
					if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&inside, -1)
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
	assert.Equal(t, 0, g.locks.size(), "released keys are dropped")
}

func TestKeyedMutex_OverlappingSetsDoNotDeadlock(t *testing.T) {
	k := newKeyedMutex()
	done := make(chan struct{})

	go func() {
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				k.Lock("room:1:2025-03-01", "user:9:2025-03-01")()
			}()
			go func() {
				defer wg.Done()
				k.Lock("user:9:2025-03-01", "room:1:2025-03-01", "room:1:2025-03-01")()
			}()
		}
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("keyed mutex deadlocked")
	}
	assert.Equal(t, 0, k.size())
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "room:101:2025-03-01", RoomKey(101, "2025-03-01"))
	assert.Equal(t, "room:5", RoomKey(5, ""))
	assert.Equal(t, "user:7:2025-03-01", UserKey(7, "2025-03-01"))
	assert.Equal(t, "user:7", UserKey(7, ""))
}
