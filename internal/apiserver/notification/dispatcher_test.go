package notification

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-admin/internal/shared/apperr"
	"library-admin/internal/shared/eventbus"
	"library-admin/internal/shared/model"
	"library-admin/internal/shared/storage/memstore"
	"library-admin/internal/shared/storage/storagetest"
	"library-admin/pkg/logging"
)

// flakyStore 对指定用户的通知写入失败
type flakyStore struct {
	*memstore.Store
	failFor   map[string]bool
	adminsErr error
}

func (s *flakyStore) CreateNotification(ctx context.Context, n *model.Notification) error {
	if s.failFor[n.UserID] {
		return errors.New("write failed")
	}
	return s.Store.CreateNotification(ctx, n)
}

func (s *flakyStore) ListAdmins(ctx context.Context) ([]*model.User, error) {
	if s.adminsErr != nil {
		return nil, s.adminsErr
	}
	return s.Store.ListAdmins(ctx)
}

func seedAdmins(t *testing.T, s *memstore.Store, ids ...string) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, s.CreateUser(context.Background(), storagetest.NewUser(id, id+"@example.com", true, true)))
	}
}

func TestCreateNotification(t *testing.T) {
	store := memstore.New()
	d := NewDispatcher(store, nil, nil)
	ctx := context.Background()

	d.CreateNotification(ctx, "usr-1", "hello", model.NotificationTypeAccountApproved)

	items, err := d.List(ctx, "usr-1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "hello", items[0].Message)
	assert.Equal(t, model.NotificationTypeAccountApproved, items[0].Type)
	assert.False(t, items[0].Read)
	assert.NotEmpty(t, items[0].ID)
}

func TestCreateNotification_StoreFailureIsSwallowed(t *testing.T) {
	var logs bytes.Buffer
	logger := logging.NewWithWriter(&logs, logging.ParseLevel("info"), "text", "notification")

	store := &flakyStore{Store: memstore.New(), failFor: map[string]bool{"usr-1": true}}
	d := NewDispatcher(store, nil, logger)

	assert.NotPanics(t, func() {
		d.CreateNotification(context.Background(), "usr-1", "hello", model.NotificationTypeReservationStatus)
	})
	assert.Contains(t, logs.String(), "failed to create notification")
	assert.Contains(t, logs.String(), "write failed")
}

func TestNotifyAdmins_OnePerAdmin(t *testing.T) {
	store := memstore.New()
	seedAdmins(t, store, "usr-a1", "usr-a2", "usr-a3")
	require.NoError(t, store.CreateUser(context.Background(), storagetest.NewUser("usr-u", "u@example.com", false, true)))

	d := NewDispatcher(store, nil, nil)
	ctx := context.Background()
	d.NotifyAdmins(ctx, "New user registered: Zed", model.NotificationTypeNewUser)

	for _, id := range []string{"usr-a1", "usr-a2", "usr-a3"} {
		items, err := d.List(ctx, id)
		require.NoError(t, err)
		require.Len(t, items, 1, id)
		assert.Equal(t, "New user registered: Zed", items[0].Message)
	}
	items, err := d.List(ctx, "usr-u")
	require.NoError(t, err)
	assert.Empty(t, items, "non-admins are not notified")
}

func TestNotifyAdmins_FailureIsIsolated(t *testing.T) {
	inner := memstore.New()
	seedAdmins(t, inner, "usr-a1", "usr-a2", "usr-a3")
	store := &flakyStore{Store: inner, failFor: map[string]bool{"usr-a2": true}}

	d := NewDispatcher(store, nil, nil)
	ctx := context.Background()
	d.NotifyAdmins(ctx, "msg", model.NotificationTypeNewReservation)

	for id, want := range map[string]int{"usr-a1": 1, "usr-a2": 0, "usr-a3": 1} {
		items, err := d.List(ctx, id)
		require.NoError(t, err)
		assert.Len(t, items, want, id)
	}
}

func TestNotifyAdmins_AdminLookupFailureIsSwallowed(t *testing.T) {
	store := &flakyStore{Store: memstore.New(), adminsErr: errors.New("db down")}
	d := NewDispatcher(store, nil, nil)

	assert.NotPanics(t, func() {
		d.NotifyAdmins(context.Background(), "msg", model.NotificationTypeNewUser)
	})
}

func TestList_NewestFirstAndEmpty(t *testing.T) {
	store := memstore.New()
	d := NewDispatcher(store, nil, nil)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	tick := 0
	d.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	empty, err := d.List(ctx, "usr-1")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	d.CreateNotification(ctx, "usr-1", "first", model.NotificationTypeNewUser)
	d.CreateNotification(ctx, "usr-1", "second", model.NotificationTypeNewUser)
	d.CreateNotification(ctx, "usr-1", "third", model.NotificationTypeNewUser)

	items, err := d.List(ctx, "usr-1")
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "third", items[0].Message)
	assert.Equal(t, "first", items[2].Message)
}

func TestMarkRead(t *testing.T) {
	store := memstore.New()
	d := NewDispatcher(store, nil, nil)
	ctx := context.Background()

	d.CreateNotification(ctx, "usr-1", "hello", model.NotificationTypeNewUser)
	items, err := d.List(ctx, "usr-1")
	require.NoError(t, err)
	require.Len(t, items, 1)

	assert.ErrorIs(t, d.MarkRead(ctx, "usr-2", items[0].ID), apperr.ErrNotFound, "other user's notification")
	assert.ErrorIs(t, d.MarkRead(ctx, "usr-1", "ntf-missing"), apperr.ErrNotFound)
	require.NoError(t, d.MarkRead(ctx, "usr-1", items[0].ID))

	items, err = d.List(ctx, "usr-1")
	require.NoError(t, err)
	assert.True(t, items[0].Read)
}

func TestCreateNotification_PublishesToBus(t *testing.T) {
	bus := eventbus.NewMemoryEventBus()
	defer bus.Close()
	d := NewDispatcher(memstore.New(), bus, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := d.Subscribe(ctx, "usr-1")
	require.NoError(t, err)

	d.CreateNotification(ctx, "usr-1", "live", model.NotificationTypeReservationStatus)

	select {
	case n := <-ch:
		assert.Equal(t, "live", n.Message)
	case <-time.After(time.Second):
		t.Fatal("notification was not published")
	}
}

func TestCreateNotification_FailedWriteIsNotPublished(t *testing.T) {
	bus := eventbus.NewMemoryEventBus()
	defer bus.Close()
	store := &flakyStore{Store: memstore.New(), failFor: map[string]bool{"usr-1": true}}
	d := NewDispatcher(store, bus, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := d.Subscribe(ctx, "usr-1")
	require.NoError(t, err)

	d.CreateNotification(ctx, "usr-1", "lost", model.NotificationTypeReservationStatus)

	select {
	case n := <-ch:
		t.Fatalf("unexpected notification %q", n.Message)
	case <-time.After(50 * time.Millisecond):
	}
}
