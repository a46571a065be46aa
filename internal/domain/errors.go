package domain

import "errors"

// 业务错误分类，传输层统一映射为 HTTP 状态
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUnavailable marks store/cache failures caused by an unreachable backend.
	ErrUnavailable = errors.New("service unavailable")
)
