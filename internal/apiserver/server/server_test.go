package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-admin/internal/apiserver/auth"
	"library-admin/internal/apiserver/metrics"
	"library-admin/internal/shared/infra"
	"library-admin/internal/shared/storage/memstore"
	"library-admin/pkg/logging"
)

const (
	adminEmail    = "admin@library.test"
	adminPassword = "admin-secret"
)

type testServer struct {
	*httptest.Server
	t *testing.T
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	in := infra.New(memstore.New(), nil)
	t.Cleanup(func() { _ = in.Close() })

	srv := New(in, auth.DefaultConfig("test-secret"), Options{
		Hasher:  auth.NewBcryptHasher(4),
		Metrics: metrics.NewWithRegisterer("library_test", prometheus.NewRegistry()),
		Logger:  logging.Discard(),
	})
	require.NoError(t, srv.AuthService().EnsureAdminUser(t.Context(), adminEmail, adminPassword))

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return &testServer{Server: ts, t: t}
}

func (ts *testServer) do(method, path, token string, body interface{}) (*http.Response, map[string]interface{}) {
	ts.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(ts.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, ts.URL+path, &buf)
	require.NoError(ts.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(ts.t, err)
	defer resp.Body.Close()

	out := map[string]interface{}{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func (ts *testServer) login(email, password string) string {
	ts.t.Helper()
	resp, body := ts.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": email, "password": password,
	})
	require.Equal(ts.t, http.StatusOK, resp.StatusCode, body)
	return body["token"].(string)
}

func TestHealthAndMetricsArePublic(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))

	metricsResp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer metricsResp.Body.Close()
	assert.Equal(t, http.StatusOK, metricsResp.StatusCode)
}

func TestRequestIDIsEchoed(t *testing.T) {
	ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set(RequestIDHeader, "req-42")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "req-42", resp.Header.Get(RequestIDHeader))
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := ts.do(http.MethodGet, "/api/v1/books", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = ts.do(http.MethodGet, "/api/v1/books", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := ts.do(http.MethodOptions, "/api/v1/reservations", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestUnknownRouteReturnsJSON404(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(adminEmail, adminPassword)

	resp, body := ts.do(http.MethodGet, "/api/v1/nothing-here", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not found", body["error"])
}

func TestReservationLifecycle(t *testing.T) {
	ts := newTestServer(t)
	adminToken := ts.login(adminEmail, adminPassword)

	// 注册后待审批，不能登录
	resp, body := ts.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": "Alice", "email": "alice@example.com", "phone_number": "555-0100", "password": "password123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	userID := body["user_id"].(string)
	require.NotEmpty(t, body["token"])

	resp, body = ts.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "password123",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, body)

	// 管理员收到注册通知
	_, body = ts.do(http.MethodGet, "/api/v1/notifications", adminToken, nil)
	require.EqualValues(t, 1, body["count"])
	first := body["notifications"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "New user registered: Alice", first["message"])
	assert.Equal(t, "new_user", first["type"])

	// 审批前的待审批列表
	_, body = ts.do(http.MethodGet, "/api/v1/users?pending=true", adminToken, nil)
	assert.EqualValues(t, 1, body["count"])

	resp, body = ts.do(http.MethodPut, "/api/v1/users/"+userID+"/approve", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, true, body["is_approved"])

	userToken := ts.login("alice@example.com", "password123")

	// 普通用户不能访问管理接口
	resp, _ = ts.do(http.MethodGet, "/api/v1/reservations", userToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = ts.do(http.MethodPost, "/api/v1/books", userToken, map[string]string{"title": "Nope"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body = ts.do(http.MethodPost, "/api/v1/books", adminToken, map[string]string{
		"title": "The Go Programming Language", "author": "Donovan & Kernighan",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	bookID := body["id"].(string)

	resp, body = ts.do(http.MethodPost, "/api/v1/reservations", userToken, map[string]string{
		"book_id": bookID, "start_date": "2024-01-01", "end_date": "2024-01-10",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	reservationID := body["id"].(string)
	assert.Equal(t, "pending", body["status"])
	assert.Equal(t, userID, body["user_id"])

	resp, _ = ts.do(http.MethodPost, "/api/v1/reservations", userToken, map[string]string{
		"book_id": "missing", "start_date": "2024-01-01", "end_date": "2024-01-10",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	_, body = ts.do(http.MethodGet, "/api/v1/reservations/mine", userToken, nil)
	assert.EqualValues(t, 1, body["count"])

	resp, body = ts.do(http.MethodPut, "/api/v1/reservations/"+reservationID+"/status", adminToken, map[string]string{
		"status": "approved",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "approved", body["status"])

	resp, body = ts.do(http.MethodGet, "/api/v1/reservations/"+reservationID, userToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "approved", body["status"])
	assert.Equal(t, "The Go Programming Language", body["book"].(map[string]interface{})["title"])

	// 用户收到账号审批与预约状态两条通知，新的在前
	_, body = ts.do(http.MethodGet, "/api/v1/notifications", userToken, nil)
	require.EqualValues(t, 2, body["count"])
	items := body["notifications"].([]interface{})
	latest := items[0].(map[string]interface{})
	assert.Equal(t, `Your reservation for "The Go Programming Language" has been approved`, latest["message"])
	assert.Equal(t, "reservation_status", latest["type"])

	resp, _ = ts.do(http.MethodPut, "/api/v1/notifications/"+latest["id"].(string)+"/read", userToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// 他人的通知不可标记
	resp, _ = ts.do(http.MethodPut, "/api/v1/notifications/"+latest["id"].(string)+"/read", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestNotificationWebSocketThroughRouter(t *testing.T) {
	ts := newTestServer(t)
	adminToken := ts.login(adminEmail, adminPassword)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/notifications?token=" + adminToken
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	regResp, body := ts.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": "Bob", "email": "bob@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusCreated, regResp.StatusCode, body)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg struct {
		Type string                 `json:"type"`
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "notification", msg.Type)
	assert.Equal(t, "New user registered: Bob", msg.Data["message"])
}

func TestNotificationWebSocketRejectsBadToken(t *testing.T) {
	ts := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/notifications?token=bogus"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
