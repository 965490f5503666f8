// Package server 路由配置与核心基础设施
//
// 本包组装各领域处理器并挂载公共中间件：
//   - middleware.go: 请求 ID、访问日志、panic 恢复、CORS
//   - metrics: Prometheus 指标（internal/apiserver/metrics）
package server

import (
	"net/http"

	"library-admin/internal/apiserver/auth"
	"library-admin/internal/apiserver/book"
	"library-admin/internal/apiserver/httpx"
	"library-admin/internal/apiserver/metrics"
	"library-admin/internal/apiserver/notification"
	"library-admin/internal/apiserver/reservation"
	"library-admin/internal/apiserver/user"
	"library-admin/internal/shared/infra"
	"library-admin/pkg/logging"
)

// Server API Server 组件集合
type Server struct {
	infra   *infra.Infrastructure
	logger  *logging.Logger
	metrics *metrics.Metrics

	signer       *auth.JWTSigner
	authService  *auth.Service
	dispatcher   *notification.Dispatcher
	reservations *reservation.Service
}

// Options 可选依赖
type Options struct {
	Hasher  auth.PasswordHasher // 默认 bcrypt
	Metrics *metrics.Metrics    // 默认新建独立 Registry
	Logger  *logging.Logger
}

// New 创建 Server
func New(in *infra.Infrastructure, authCfg auth.Config, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Default("api-server")
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New("library")
	}
	hasher := opts.Hasher
	if hasher == nil {
		hasher = auth.NewBcryptHasher(0)
	}

	signer := auth.NewJWTSigner(authCfg)

	dispatcher := notification.NewDispatcher(in.Storage, in.EventBus, logger.Named("notification"))
	dispatcher.SetMetrics(m)

	authService := auth.NewService(in.Storage, signer, hasher, dispatcher, logger.Named("auth"))
	authService.SetMetrics(m)

	reservations := reservation.NewService(in.Storage, dispatcher, logger.Named("reservation"))
	reservations.SetMetrics(m)

	return &Server{
		infra:        in,
		logger:       logger,
		metrics:      m,
		signer:       signer,
		authService:  authService,
		dispatcher:   dispatcher,
		reservations: reservations,
	}
}

// AuthService 返回认证服务（启动时创建管理员账号用）
func (s *Server) AuthService() *auth.Service {
	return s.authService
}

// Router 返回配置好的 HTTP 路由
//
// 路由规则：
//
// 健康检查 / 指标:
//   - GET  /health
//   - GET  /metrics
//
// 认证 (Auth):
//   - POST /api/v1/auth/register
//   - POST /api/v1/auth/login
//
// 用户 (User):
//   - GET  /api/v1/users/me
//   - PUT  /api/v1/users/me
//   - GET  /api/v1/users?pending=true     （管理员）
//   - PUT  /api/v1/users/{id}/approve     （管理员）
//
// 图书 (Book):
//   - GET  /api/v1/books
//   - GET  /api/v1/books/{id}
//   - POST /api/v1/books                  （管理员）
//
// 预约 (Reservation):
//   - POST /api/v1/reservations
//   - GET  /api/v1/reservations           （管理员）
//   - GET  /api/v1/reservations/mine
//   - GET  /api/v1/reservations/{id}
//   - PUT  /api/v1/reservations/{id}/status（管理员）
//
// 通知 (Notification):
//   - GET  /api/v1/notifications
//   - PUT  /api/v1/notifications/{id}/read
//
// WebSocket:
//   - GET  /ws/notifications?token=<jwt>
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.Health)
	mux.Handle("GET /metrics", s.metrics.Handler())

	auth.NewHandler(s.authService, s.logger.Named("auth")).RegisterRoutes(mux)
	user.NewHandler(s.infra.Storage, s.dispatcher, s.logger.Named("user")).RegisterRoutes(mux)
	book.NewHandler(s.infra.Storage, s.logger.Named("book")).RegisterRoutes(mux)
	reservation.NewHandler(s.reservations, s.logger.Named("reservation")).RegisterRoutes(mux)
	notification.NewHandler(s.dispatcher, s.logger.Named("notification")).RegisterRoutes(mux)

	// 未匹配的 API 路由统一返回 JSON 404
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteError(w, http.StatusNotFound, "not found")
	})

	// 应用指标中间件与认证中间件到 REST API
	apiHandler := s.metrics.Middleware(mux)
	authedHandler := auth.Middleware(s.signer, s.logger.Named("auth"))(apiHandler)
	corsHandler := corsMiddleware(authedHandler)

	// WebSocket 绕过 metrics 中间件（避免 http.Hijacker 问题）
	topMux := http.NewServeMux()
	gateway := notification.NewGateway(s.dispatcher, s.signer, s.logger.Named("ws"))
	gateway.SetMetrics(s.metrics)
	gateway.RegisterRoutes(topMux)
	topMux.Handle("/", corsHandler)

	return requestID(recoverer(s.logger, accessLog(s.logger, topMux)))
}

// Health 健康检查接口
//
// 路由: GET /health
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
