package memstore

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-admin/internal/shared/model"
	"library-admin/internal/shared/storage"
	"library-admin/internal/shared/storage/storagetest"
)

func TestStoreContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.PersistentStore {
		return New()
	})
}

// TestUpdateReservationStatus_Concurrent 并发状态更新不会丢失其他字段
func TestUpdateReservationStatus_Concurrent(t *testing.T) {
	s := New()
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		require.NoError(t, s.CreateReservation(ctx, &model.Reservation{
			ID:     fmt.Sprintf("rsv-%d", i),
			UserID: "u1",
			BookID: "book123",
			Status: model.ReservationStatusPending,
		}))
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		for _, status := range []model.ReservationStatus{model.ReservationStatusApproved, model.ReservationStatusRejected} {
			wg.Add(1)
			go func(id string, status model.ReservationStatus) {
				defer wg.Done()
				_, err := s.UpdateReservationStatus(ctx, id, status)
				assert.NoError(t, err)
			}(fmt.Sprintf("rsv-%d", i), status)
		}
	}
	wg.Wait()

	for i := 0; i < 20; i++ {
		r, err := s.GetReservation(ctx, fmt.Sprintf("rsv-%d", i))
		require.NoError(t, err)
		assert.True(t, r.Status.IsTerminal())
		assert.Equal(t, "u1", r.UserID)
		assert.Equal(t, "book123", r.BookID)
	}
}

// TestReturnedValuesAreCopies 返回值修改不影响存储内容
func TestReturnedValuesAreCopies(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, storagetest.NewUser("u1", "u1@example.com", false, false)))

	u, err := s.GetUserByID(ctx, "u1")
	require.NoError(t, err)
	u.IsAdmin = true

	u, err = s.GetUserByID(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, u.IsAdmin)
}
