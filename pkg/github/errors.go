package github

import (
	"context"
	"errors"
	"net"

	apperr "minestats/pkg/error"
)

const (
	// ErrUpstreamUnavailable 网络错误、非 2xx 响应或熔断器打开
	ErrUpstreamUnavailable apperr.ErrorCode = "UPSTREAM_UNAVAILABLE"
	// ErrUpstreamTimeout 单次请求或整个聚合超出截止时间，可重试
	ErrUpstreamTimeout apperr.ErrorCode = "UPSTREAM_TIMEOUT"
	// ErrUserNotFound 上游不存在该用户
	ErrUserNotFound apperr.ErrorCode = "USER_NOT_FOUND"
	// ErrMalformedResponse 响应无法解析或缺少必需字段
	ErrMalformedResponse apperr.ErrorCode = "MALFORMED_RESPONSE"
)

func newUserNotFound(login string) error {
	return apperr.NewError(ErrUserNotFound, "user not found").WithContext("login", login)
}

func newMalformed(message string, cause error) error {
	return apperr.WrapError(ErrMalformedResponse, message, cause)
}

// classifyTransportError 区分超时与其他传输错误
func classifyTransportError(ctx context.Context, op string, err error) error {
	if isTimeout(ctx, err) {
		return apperr.WrapError(ErrUpstreamTimeout, op+" timed out", err)
	}
	return apperr.WrapError(ErrUpstreamUnavailable, op+" request failed", err)
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// IsRetryable 超时与上游不可用属于可重试错误，其余（用户不存在、响应格式错误）不可重试
func IsRetryable(err error) bool {
	return apperr.HasCode(err, ErrUpstreamTimeout) || apperr.HasCode(err, ErrUpstreamUnavailable)
}
