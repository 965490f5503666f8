// Package httpx HTTP 响应辅助函数
//
// 业务错误（apperr）到状态码的映射集中在这里：
//
//	InvalidInput / Conflict / InvalidCredentials → 400
//	PendingApproval / Forbidden                  → 403
//	NotFound                                     → 404
//	Unexpected / 未分类错误                       → 500（通用消息，细节只写日志）
package httpx

import (
	"encoding/json"
	"net/http"

	"library-admin/internal/shared/apperr"
	"library-admin/pkg/logging"
)

// WriteJSON 将数据以 JSON 格式写入 HTTP 响应
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// WriteError 将错误信息以 JSON 格式写入 HTTP 响应
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}

// StatusOf 返回业务错误对应的 HTTP 状态码
func StatusOf(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindInvalidInput, apperr.KindConflict, apperr.KindInvalidCredentials:
		return http.StatusBadRequest
	case apperr.KindPendingApproval, apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// WriteAppError 按错误类别写响应；500 类错误记录完整原因
func WriteAppError(w http.ResponseWriter, r *http.Request, logger *logging.Logger, err error) {
	status := StatusOf(err)
	if status == http.StatusInternalServerError && logger != nil {
		logger.WithContext(r.Context()).Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err.Error(),
		)
	}
	WriteError(w, status, apperr.MessageOf(err))
}

// DecodeJSON 解析请求体，失败时返回 InvalidInput
func DecodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.InvalidInput("invalid request body")
	}
	return nil
}
