package handlers

import (
	"errors"
	"net/http"
	"verdant/internal/services"
	"verdant/internal/store"

	"github.com/gin-gonic/gin"
)

// JSONError 统一的错误响应
func JSONError(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"error": message})
}

// voteErrorStatus 把投票服务的结构性错误映射成 HTTP 状态码
func voteErrorStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrTargetNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrSelfVote):
		return http.StatusForbidden
	case errors.Is(err, services.ErrInvalidVoteValue):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrVoterNotFound):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrConflict):
		// 事务已整体回滚，客户端可整单重试
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
