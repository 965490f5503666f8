package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"library-admin/internal/apiserver/auth"
	"library-admin/internal/apiserver/httpx"
	"library-admin/internal/apiserver/metrics"
	"library-admin/internal/shared/model"
	"library-admin/pkg/logging"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
)

// upgrader WebSocket 升级器配置
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Gateway WebSocket 通知网关
//
// 客户端通过 GET /ws/notifications?token=<jwt> 建立连接，
// 网关订阅事件总线并推送该用户的新通知。
//
// 推送消息格式：
//
//	{"type": "notification", "data": {...}}
//
// 客户端消息：
//
//	心跳：{"type": "ping"} -> 响应 {"type": "pong"}
type Gateway struct {
	dispatcher *Dispatcher
	signer     auth.TokenSigner
	metrics    *metrics.Metrics
	logger     *logging.Logger
}

// NewGateway 创建网关
func NewGateway(dispatcher *Dispatcher, signer auth.TokenSigner, logger *logging.Logger) *Gateway {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Gateway{dispatcher: dispatcher, signer: signer, logger: logger}
}

// SetMetrics 设置指标
func (g *Gateway) SetMetrics(m *metrics.Metrics) {
	g.metrics = m
}

// RegisterRoutes 注册路由
func (g *Gateway) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws/notifications", g.HandleWebSocket)
}

// wsConn 串行化写操作（gorilla/websocket 不支持并发写）
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsConn) writeJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(v)
}

func (c *wsConn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.PingMessage, nil)
}

// HandleWebSocket 处理 WebSocket 连接请求
//
// 路由: GET /ws/notifications?token=<jwt>
func (g *Gateway) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	user, err := auth.Authenticate(g.signer, r.URL.Query().Get("token"))
	if err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// 先订阅再升级，订阅失败时仍能返回普通 HTTP 错误
	ch, err := g.dispatcher.Subscribe(ctx, user.ID)
	if err != nil {
		g.logger.WithUserID(user.ID).Error("subscribe notifications failed", "error", err.Error())
		httpx.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.WithUserID(user.ID).Warn("websocket upgrade failed", "error", err.Error())
		return
	}
	defer conn.Close()

	g.metrics.WSConnectionOpened()
	defer g.metrics.WSConnectionClosed()
	g.logger.WithUserID(user.ID).Debug("websocket client connected")

	c := &wsConn{conn: conn}
	go g.readPump(c, cancel)
	g.writePump(ctx, c, ch)
}

// readPump 读取客户端消息，连接关闭时取消上下文
func (g *Gateway) readPump(c *wsConn, cancel context.CancelFunc) {
	defer cancel()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				g.logger.Warn("websocket read error", "error", err.Error())
			}
			return
		}

		var req map[string]interface{}
		if json.Unmarshal(msg, &req) == nil && req["type"] == "ping" {
			if err := c.writeJSON(map[string]string{"type": "pong"}); err != nil {
				return
			}
		}
	}
}

// writePump 推送通知并定期发送 ping
func (g *Gateway) writePump(ctx context.Context, c *wsConn, ch <-chan *model.Notification) {
	pingTicker := time.NewTicker(pingInterval)
	defer pingTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-pingTicker.C:
			if err := c.ping(); err != nil {
				return
			}
		case n, ok := <-ch:
			if !ok {
				return
			}
			if err := c.writeJSON(map[string]interface{}{"type": "notification", "data": n}); err != nil {
				g.logger.Warn("websocket write error", "error", err.Error())
				return
			}
		}
	}
}
