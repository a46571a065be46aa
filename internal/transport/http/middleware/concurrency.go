package middleware

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/semaphore"

	resp "go-gin-gorm-cms/internal/transport/http/response"
)

// ConcurrencyLimit 限制同时在处理的请求数（保护 DB / Redis 下游）
func ConcurrencyLimit(max int64) gin.HandlerFunc {
	sem := semaphore.NewWeighted(max)
	return func(c *gin.Context) {
		if !sem.TryAcquire(1) {
			// 满载时最多等到请求自身的超时
			if err := sem.Acquire(c.Request.Context(), 1); err != nil {
				resp.Abort(c, resp.CodeUnavailable, "server busy")
				return
			}
		}
		defer sem.Release(1)
		c.Next()
	}
}
