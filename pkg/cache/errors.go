package cache

import (
	apperr "minestats/pkg/error"
)

const (
	// ErrCacheCorrupted 表示缓存数据已损坏，无法反序列化。
	ErrCacheCorrupted apperr.ErrorCode = "CACHE_CORRUPTED"
	// ErrSerializeFailed 表示写入缓存前的序列化失败。
	ErrSerializeFailed apperr.ErrorCode = "SERIALIZE_FAILED"
	// ErrInvalidKind 表示使用了未注册的值类型标签。
	ErrInvalidKind apperr.ErrorCode = "CACHE_INVALID_KIND"
)

// NewCacheError 创建缓存错误
func NewCacheError(code apperr.ErrorCode, message string, cause error) *apperr.BaseError {
	return apperr.WrapError(code, message, cause)
}
