package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"minestats/pkg/cache"
	apperr "minestats/pkg/error"
	"minestats/pkg/github"
)

// ErrorResponse 错误响应体
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// StatusOf 把错误映射为 HTTP 状态码
func StatusOf(err error) int {
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	switch apperr.CodeOf(err) {
	case github.ErrUserNotFound:
		return http.StatusNotFound
	case github.ErrUpstreamTimeout:
		return http.StatusGatewayTimeout
	case github.ErrUpstreamUnavailable:
		return http.StatusBadGateway
	case apperr.ErrInvalidArgument:
		return http.StatusBadRequest
	case apperr.ErrForbidden:
		return http.StatusForbidden
	case github.ErrMalformedResponse, cache.ErrCacheCorrupted:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) abortWithError(c *gin.Context, err error) {
	status := StatusOf(err)
	code := apperr.CodeOf(err)

	message := err.Error()
	var be *apperr.BaseError
	if errors.As(err, &be) {
		message = be.Message
	}

	entry := s.log.WithError(err).WithField("request_id", c.GetString(requestIDKey))
	if status >= http.StatusInternalServerError {
		entry.Error("request failed")
	} else {
		entry.Info("request rejected")
	}

	c.AbortWithStatusJSON(status, ErrorResponse{Error: string(code), Message: message})
}
