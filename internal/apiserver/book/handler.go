// Package book 图书目录接口
package book

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"library-admin/internal/apiserver/auth"
	"library-admin/internal/apiserver/httpx"
	"library-admin/internal/shared/apperr"
	"library-admin/internal/shared/model"
	"library-admin/internal/shared/storage"
	"library-admin/pkg/logging"
)

// Handler 图书 HTTP 处理器
type Handler struct {
	store  storage.BookStore
	logger *logging.Logger
	now    func() time.Time
}

// NewHandler 创建处理器
func NewHandler(store storage.BookStore, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Handler{store: store, logger: logger, now: time.Now}
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/books", h.List)
	mux.HandleFunc("GET /api/v1/books/{id}", h.Get)
	mux.HandleFunc("POST /api/v1/books", auth.AdminOnly(h.Create))
}

type createRequest struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	ISBN        string `json:"isbn"`
	Description string `json:"description"`
}

// List 图书列表
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	books, err := h.store.ListBooks(r.Context())
	if err != nil {
		httpx.WriteAppError(w, r, h.logger, apperr.Unexpected("list books", err))
		return
	}
	if books == nil {
		books = []*model.Book{}
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{"books": books, "count": len(books)})
}

// Get 图书详情
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	b, err := Lookup(r.Context(), h.store, r.PathValue("id"))
	if err != nil {
		httpx.WriteAppError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, b)
}

// Create 添加图书（管理员）
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteAppError(w, r, h.logger, err)
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		httpx.WriteAppError(w, r, h.logger, apperr.InvalidInput("title is required"))
		return
	}

	b := &model.Book{
		ID:          model.NewID(model.IDPrefixBook),
		Title:       req.Title,
		Author:      strings.TrimSpace(req.Author),
		ISBN:        strings.TrimSpace(req.ISBN),
		Description: req.Description,
		CreatedAt:   h.now().UTC(),
	}
	if err := h.store.CreateBook(r.Context(), b); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			httpx.WriteAppError(w, r, h.logger, apperr.Conflict("book already exists"))
			return
		}
		httpx.WriteAppError(w, r, h.logger, apperr.Unexpected("create book", err))
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, b)
}

// Lookup 按 ID 查询图书，不存在时返回 NotFound
func Lookup(ctx context.Context, store storage.BookStore, id string) (*model.Book, error) {
	b, err := store.GetBook(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.NotFound("book not found")
		}
		return nil, apperr.Unexpected("get book", err)
	}
	return b, nil
}
