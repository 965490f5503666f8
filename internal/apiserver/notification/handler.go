package notification

import (
	"net/http"

	"library-admin/internal/apiserver/auth"
	"library-admin/internal/apiserver/httpx"
	"library-admin/pkg/logging"
)

// Handler 通知 HTTP 处理器
type Handler struct {
	dispatcher *Dispatcher
	logger     *logging.Logger
}

// NewHandler 创建处理器
func NewHandler(dispatcher *Dispatcher, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Handler{dispatcher: dispatcher, logger: logger}
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/notifications", h.List)
	mux.HandleFunc("PUT /api/v1/notifications/{id}/read", h.MarkRead)
}

// List 当前用户的通知列表
//
// 路由: GET /api/v1/notifications
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	user := auth.RequireUser(w, r)
	if user == nil {
		return
	}

	items, err := h.dispatcher.List(r.Context(), user.ID)
	if err != nil {
		httpx.WriteAppError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{"notifications": items, "count": len(items)})
}

// MarkRead 标记通知已读
//
// 路由: PUT /api/v1/notifications/{id}/read
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	user := auth.RequireUser(w, r)
	if user == nil {
		return
	}

	if err := h.dispatcher.MarkRead(r.Context(), user.ID, r.PathValue("id")); err != nil {
		httpx.WriteAppError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "notification marked as read"})
}
