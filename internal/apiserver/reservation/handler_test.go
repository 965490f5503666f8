package reservation

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-admin/internal/apiserver/auth"
	"library-admin/internal/shared/model"
)

var (
	alice = &auth.AuthUser{ID: "u1"}
	bob   = &auth.AuthUser{ID: "u2"}
	admin = &auth.AuthUser{ID: "admin", IsAdmin: true}
)

func do(t *testing.T, mux http.Handler, method, path string, body string, user *auth.AuthUser) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if user != nil {
		req = req.WithContext(auth.WithAuthUser(req.Context(), user))
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHandler_Lifecycle(t *testing.T) {
	svc, _, notifier := newFixture(t)
	mux := http.NewServeMux()
	NewHandler(svc, nil).RegisterRoutes(mux)

	rec := do(t, mux, http.MethodPost, "/api/v1/reservations",
		`{"book_id":"book123","start_date":"2023-01-01","end_date":"2023-01-07"}`, alice)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created model.Reservation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, model.ReservationStatusPending, created.Status)

	// 非本人不可查看
	rec = do(t, mux, http.MethodGet, "/api/v1/reservations/"+created.ID, "", bob)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// 本人可查看已解析的详情
	rec = do(t, mux, http.MethodGet, "/api/v1/reservations/"+created.ID, "", alice)
	require.Equal(t, http.StatusOK, rec.Code)
	var detail model.ReservationDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	require.NotNil(t, detail.Book)
	assert.Equal(t, "Test Book", detail.Book.Title)
	assert.NotContains(t, rec.Body.String(), "password")

	// 普通用户不可审批、不可查看全部
	rec = do(t, mux, http.MethodPut, "/api/v1/reservations/"+created.ID+"/status", `{"status":"approved"}`, alice)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = do(t, mux, http.MethodGet, "/api/v1/reservations", "", alice)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// 管理员审批
	rec = do(t, mux, http.MethodPut, "/api/v1/reservations/"+created.ID+"/status", `{"status":"approved"}`, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	var updated model.Reservation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, model.ReservationStatusApproved, updated.Status)
	assert.Len(t, notifier.sent, 2, "admin broadcast + owner notification")

	rec = do(t, mux, http.MethodGet, "/api/v1/reservations", "", admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":1`)

	rec = do(t, mux, http.MethodGet, "/api/v1/reservations/mine", "", bob)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":0`)
}

func TestHandler_BadInput(t *testing.T) {
	svc, _, _ := newFixture(t)
	mux := http.NewServeMux()
	NewHandler(svc, nil).RegisterRoutes(mux)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed json", `{`, http.StatusBadRequest},
		{"bad date", `{"book_id":"book123","start_date":"01/01/2023","end_date":"2023-01-07"}`, http.StatusBadRequest},
		{"missing end", `{"book_id":"book123","start_date":"2023-01-01"}`, http.StatusBadRequest},
		{"rfc3339 accepted", `{"book_id":"book123","start_date":"2023-01-01T10:00:00Z","end_date":"2023-01-07T10:00:00Z"}`, http.StatusCreated},
		{"unknown book", `{"book_id":"nope","start_date":"2023-01-01","end_date":"2023-01-07"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, mux, http.MethodPost, "/api/v1/reservations", tt.body, alice)
			assert.Equal(t, tt.want, rec.Code)
		})
	}

	rec := do(t, mux, http.MethodPut, "/api/v1/reservations/rsv-x/status", `{"status":"pending"}`, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, mux, http.MethodPut, "/api/v1/reservations/rsv-x/status", `{"status":"approved"}`, admin)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
