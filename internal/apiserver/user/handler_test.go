package user

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-admin/internal/apiserver/auth"
	"library-admin/internal/apiserver/notification"
	"library-admin/internal/shared/model"
	"library-admin/internal/shared/storage/memstore"
	"library-admin/internal/shared/storage/storagetest"
)

func do(mux http.Handler, method, path, body string, u *auth.AuthUser) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if u != nil {
		req = req.WithContext(auth.WithAuthUser(req.Context(), u))
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func setup(t *testing.T) (*http.ServeMux, *memstore.Store) {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()
	require.NoError(t, store.CreateUser(ctx, storagetest.NewUser("admin", "admin@example.com", true, true)))
	require.NoError(t, store.CreateUser(ctx, storagetest.NewUser("u1", "u1@example.com", false, false)))
	require.NoError(t, store.CreateUser(ctx, storagetest.NewUser("u2", "u2@example.com", false, true)))

	mux := http.NewServeMux()
	NewHandler(store, notification.NewDispatcher(store, nil, nil), nil).RegisterRoutes(mux)
	return mux, store
}

func TestMe(t *testing.T) {
	mux, _ := setup(t)

	rec := do(mux, http.MethodGet, "/api/v1/users/me", "", &auth.AuthUser{ID: "u2"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "hash-u2", "password hash is never serialized")

	rec = do(mux, http.MethodGet, "/api/v1/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(mux, http.MethodGet, "/api/v1/users/me", "", &auth.AuthUser{ID: "ghost"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateMe(t *testing.T) {
	mux, _ := setup(t)
	me := &auth.AuthUser{ID: "u2"}

	rec := do(mux, http.MethodPut, "/api/v1/users/me", `{"phone_number":" 555-9999 "}`, me)
	require.Equal(t, http.StatusOK, rec.Code)
	var u model.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &u))
	assert.Equal(t, "555-9999", u.PhoneNumber)
	assert.Equal(t, "User u2", u.Name, "name untouched")

	rec = do(mux, http.MethodPut, "/api/v1/users/me", `{"name":""}`, me)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListPendingAndApprove(t *testing.T) {
	mux, store := setup(t)
	admin := &auth.AuthUser{ID: "admin", IsAdmin: true}

	rec := do(mux, http.MethodGet, "/api/v1/users?pending=true", "", &auth.AuthUser{ID: "u2"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(mux, http.MethodGet, "/api/v1/users?pending=true", "", admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":1`)
	assert.Contains(t, rec.Body.String(), `"u1"`)

	rec = do(mux, http.MethodPut, "/api/v1/users/u1/approve", "", admin)
	require.Equal(t, http.StatusOK, rec.Code)

	u, err := store.GetUserByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, u.IsApproved)

	items, err := store.ListNotifications(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Your account has been approved", items[0].Message)
	assert.Equal(t, model.NotificationTypeAccountApproved, items[0].Type)

	rec = do(mux, http.MethodPut, "/api/v1/users/ghost/approve", "", admin)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
