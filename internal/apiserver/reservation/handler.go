package reservation

import (
	"net/http"
	"strings"
	"time"

	"library-admin/internal/apiserver/auth"
	"library-admin/internal/apiserver/httpx"
	"library-admin/internal/shared/apperr"
	"library-admin/internal/shared/model"
	"library-admin/pkg/logging"
)

// dateLayouts 接受的日期格式
var dateLayouts = []string{"2006-01-02", time.RFC3339}

// Handler 预约 HTTP 处理器
type Handler struct {
	svc    *Service
	logger *logging.Logger
}

// NewHandler 创建处理器
func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Handler{svc: svc, logger: logger}
}

// RegisterRoutes 注册路由
//
//   - POST /api/v1/reservations              - 创建预约
//   - GET  /api/v1/reservations              - 全部预约（管理员）
//   - GET  /api/v1/reservations/mine         - 我的预约
//   - GET  /api/v1/reservations/{id}         - 预约详情（本人或管理员）
//   - PUT  /api/v1/reservations/{id}/status  - 审批/拒绝（管理员）
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/reservations", h.Create)
	mux.HandleFunc("GET /api/v1/reservations", auth.AdminOnly(h.List))
	mux.HandleFunc("GET /api/v1/reservations/mine", h.ListMine)
	mux.HandleFunc("GET /api/v1/reservations/{id}", h.Get)
	mux.HandleFunc("PUT /api/v1/reservations/{id}/status", auth.AdminOnly(h.UpdateStatus))
}

type createRequest struct {
	BookID    string `json:"book_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type updateStatusRequest struct {
	Status model.ReservationStatus `json:"status"`
}

// Create 创建预约
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	user := auth.RequireUser(w, r)
	if user == nil {
		return
	}

	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteAppError(w, r, h.logger, err)
		return
	}

	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		httpx.WriteAppError(w, r, h.logger, err)
		return
	}
	end, err := parseDate("end_date", req.EndDate)
	if err != nil {
		httpx.WriteAppError(w, r, h.logger, err)
		return
	}

	res, err := h.svc.Create(r.Context(), user.ID, CreateInput{BookID: req.BookID, StartDate: start, EndDate: end})
	if err != nil {
		httpx.WriteAppError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, res)
}

// List 全部预约
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.List(r.Context())
	if err != nil {
		httpx.WriteAppError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{"reservations": items, "count": len(items)})
}

// ListMine 当前用户的预约
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	user := auth.RequireUser(w, r)
	if user == nil {
		return
	}

	items, err := h.svc.ListMine(r.Context(), user.ID)
	if err != nil {
		httpx.WriteAppError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{"reservations": items, "count": len(items)})
}

// Get 预约详情
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	user := auth.RequireUser(w, r)
	if user == nil {
		return
	}

	d, err := h.svc.Get(r.Context(), r.PathValue("id"), *user)
	if err != nil {
		httpx.WriteAppError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, d)
}

// UpdateStatus 审批/拒绝预约
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteAppError(w, r, h.logger, err)
		return
	}

	res, err := h.svc.UpdateStatus(r.Context(), r.PathValue("id"), req.Status)
	if err != nil {
		httpx.WriteAppError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, res)
}

func parseDate(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, apperr.InvalidInput(field + " is required")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperr.InvalidInput(field + " must be YYYY-MM-DD or RFC3339")
}
