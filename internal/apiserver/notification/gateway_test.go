package notification

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-admin/internal/apiserver/auth"
	"library-admin/internal/shared/eventbus"
	"library-admin/internal/shared/model"
	"library-admin/internal/shared/storage/memstore"
)

func newGatewayServer(t *testing.T) (*httptest.Server, *Dispatcher, auth.TokenSigner) {
	t.Helper()
	bus := eventbus.NewMemoryEventBus()
	t.Cleanup(func() { bus.Close() })

	d := NewDispatcher(memstore.New(), bus, nil)
	signer := auth.NewJWTSigner(auth.DefaultConfig("test-secret"))

	mux := http.NewServeMux()
	NewGateway(d, signer, nil).RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, d, signer
}

func wsURL(srv *httptest.Server, token string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/notifications?token=" + token
}

func TestGateway_RejectsBadToken(t *testing.T) {
	srv, _, _ := newGatewayServer(t)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, "junk"), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestGateway_PushesNotifications(t *testing.T) {
	srv, d, signer := newGatewayServer(t)

	token, err := signer.Sign(auth.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "usr-1"}})
	require.NoError(t, err)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, token), nil)
	require.NoError(t, err)
	defer conn.Close()

	// ping/pong 保证服务端已完成订阅
	require.NoError(t, conn.WriteJSON(map[string]string{"type": "ping"}))
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var pong map[string]string
	require.NoError(t, conn.ReadJSON(&pong))
	assert.Equal(t, "pong", pong["type"])

	d.CreateNotification(context.Background(), "usr-2", "not for you", model.NotificationTypeNewUser)
	d.CreateNotification(context.Background(), "usr-1", `Your reservation for "Test Book" has been approved`, model.NotificationTypeReservationStatus)

	var msg struct {
		Type string             `json:"type"`
		Data model.Notification `json:"data"`
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "notification", msg.Type)
	assert.Equal(t, "usr-1", msg.Data.UserID)
	assert.Equal(t, model.NotificationTypeReservationStatus, msg.Data.Type)
}
