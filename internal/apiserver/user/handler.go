// Package user 用户资料与管理员审批接口
package user

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"library-admin/internal/apiserver/auth"
	"library-admin/internal/apiserver/httpx"
	"library-admin/internal/shared/apperr"
	"library-admin/internal/shared/model"
	"library-admin/internal/shared/storage"
	"library-admin/pkg/logging"
)

// Notifier 通知接口（由 notification.Dispatcher 实现）
type Notifier interface {
	CreateNotification(ctx context.Context, userID, message string, notificationType model.NotificationType)
}

// Handler 用户 HTTP 处理器
type Handler struct {
	store    storage.UserStore
	notifier Notifier
	logger   *logging.Logger
}

// NewHandler 创建处理器
func NewHandler(store storage.UserStore, notifier Notifier, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Handler{store: store, notifier: notifier, logger: logger}
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/users/me", h.Me)
	mux.HandleFunc("PUT /api/v1/users/me", h.UpdateMe)
	mux.HandleFunc("GET /api/v1/users", auth.AdminOnly(h.List))
	mux.HandleFunc("PUT /api/v1/users/{id}/approve", auth.AdminOnly(h.Approve))
}

// Me 当前用户资料
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	me := auth.RequireUser(w, r)
	if me == nil {
		return
	}

	u, err := h.store.GetUserByID(r.Context(), me.ID)
	if err != nil {
		httpx.WriteAppError(w, r, h.logger, storeError("get user", err))
		return
	}
	httpx.WriteJSON(w, http.StatusOK, u)
}

// UpdateMe 修改姓名/电话
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	me := auth.RequireUser(w, r)
	if me == nil {
		return
	}

	var req model.UserProfileUpdate
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteAppError(w, r, h.logger, err)
		return
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			httpx.WriteAppError(w, r, h.logger, apperr.InvalidInput("name must not be empty"))
			return
		}
		req.Name = &name
	}
	if req.PhoneNumber != nil {
		phone := strings.TrimSpace(*req.PhoneNumber)
		req.PhoneNumber = &phone
	}

	u, err := h.store.UpdateUserProfile(r.Context(), me.ID, req)
	if err != nil {
		httpx.WriteAppError(w, r, h.logger, storeError("update profile", err))
		return
	}
	httpx.WriteJSON(w, http.StatusOK, u)
}

// List 用户列表（管理员），?pending=true 只看待审批
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter := storage.UserFilter{PendingOnly: r.URL.Query().Get("pending") == "true"}

	users, err := h.store.ListUsers(r.Context(), filter)
	if err != nil {
		httpx.WriteAppError(w, r, h.logger, apperr.Unexpected("list users", err))
		return
	}
	if users == nil {
		users = []*model.User{}
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{"users": users, "count": len(users)})
}

// Approve 审批用户（管理员），并通知该用户
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	u, err := h.store.ApproveUser(r.Context(), r.PathValue("id"))
	if err != nil {
		httpx.WriteAppError(w, r, h.logger, storeError("approve user", err))
		return
	}

	h.logger.WithContext(r.Context()).Info("user approved", "approved_user_id", u.ID)
	if h.notifier != nil {
		h.notifier.CreateNotification(r.Context(), u.ID, "Your account has been approved", model.NotificationTypeAccountApproved)
	}
	httpx.WriteJSON(w, http.StatusOK, u)
}

func storeError(op string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return apperr.NotFound("user not found")
	}
	return apperr.Unexpected(op, err)
}
