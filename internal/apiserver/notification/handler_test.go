package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-admin/internal/apiserver/auth"
	"library-admin/internal/shared/model"
	"library-admin/internal/shared/storage/memstore"
)

func serve(h http.Handler, method, path string, user *auth.AuthUser) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if user != nil {
		req = req.WithContext(auth.WithAuthUser(req.Context(), user))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandler_ListAndMarkRead(t *testing.T) {
	d := NewDispatcher(memstore.New(), nil, nil)
	d.CreateNotification(context.Background(), "usr-1", "hello", model.NotificationTypeAccountApproved)

	mux := http.NewServeMux()
	NewHandler(d, nil).RegisterRoutes(mux)
	me := &auth.AuthUser{ID: "usr-1"}

	rec := serve(mux, http.MethodGet, "/api/v1/notifications", me)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Notifications []*model.Notification `json:"notifications"`
		Count         int                   `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 1, body.Count)
	id := body.Notifications[0].ID

	rec = serve(mux, http.MethodPut, "/api/v1/notifications/"+id+"/read", &auth.AuthUser{ID: "usr-2"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(mux, http.MethodPut, "/api/v1/notifications/"+id+"/read", me)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_RequiresUser(t *testing.T) {
	mux := http.NewServeMux()
	NewHandler(NewDispatcher(memstore.New(), nil, nil), nil).RegisterRoutes(mux)

	rec := serve(mux, http.MethodGet, "/api/v1/notifications", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
