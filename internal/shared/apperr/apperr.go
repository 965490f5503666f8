// Package apperr 定义业务层错误分类
//
// 业务层返回 *Error（携带 Kind 与面向用户的消息），HTTP 边界按 Kind 映射状态码。
// 未分类的错误一律视为 KindUnexpected，对外只返回通用消息。
package apperr

import (
	"errors"
	"fmt"
)

// Kind 错误类别
type Kind string

const (
	KindNotFound           Kind = "not_found"
	KindConflict           Kind = "conflict"
	KindInvalidCredentials Kind = "invalid_credentials"
	KindPendingApproval    Kind = "pending_approval"
	KindForbidden          Kind = "forbidden"
	KindInvalidInput       Kind = "invalid_input"
	KindUnexpected         Kind = "unexpected"
)

// Error 业务错误
type Error struct {
	Kind    Kind
	Message string // 面向用户的消息
	Err     error  // 内部原因，只写日志
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is 同 Kind 的 *Error 视为相等，便于 errors.Is(err, apperr.ErrForbidden)
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// 各类别的哨兵错误（Message 为空，仅用于 errors.Is 比较）
var (
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrConflict           = &Error{Kind: KindConflict}
	ErrInvalidCredentials = &Error{Kind: KindInvalidCredentials}
	ErrPendingApproval    = &Error{Kind: KindPendingApproval}
	ErrForbidden          = &Error{Kind: KindForbidden}
	ErrInvalidInput       = &Error{Kind: KindInvalidInput}
	ErrUnexpected         = &Error{Kind: KindUnexpected}
)

func NotFound(message string) error {
	return &Error{Kind: KindNotFound, Message: message}
}

func Conflict(message string) error {
	return &Error{Kind: KindConflict, Message: message}
}

func InvalidCredentials(message string) error {
	return &Error{Kind: KindInvalidCredentials, Message: message}
}

func PendingApproval(message string) error {
	return &Error{Kind: KindPendingApproval, Message: message}
}

func Forbidden(message string) error {
	return &Error{Kind: KindForbidden, Message: message}
}

func InvalidInput(message string) error {
	return &Error{Kind: KindInvalidInput, Message: message}
}

// Unexpected 包装存储/签名等内部失败
func Unexpected(op string, err error) error {
	return &Error{Kind: KindUnexpected, Message: op, Err: err}
}

// KindOf 返回错误类别，非 *Error 一律为 KindUnexpected
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}

// MessageOf 返回面向用户的消息；Unexpected 类别不暴露内部细节
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindUnexpected && e.Message != "" {
		return e.Message
	}
	return "internal server error"
}
