package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"go-gin-gorm-cms/internal/core/auth"
	"go-gin-gorm-cms/internal/domain"
	resp "go-gin-gorm-cms/internal/transport/http/response"
)

// gin.Context 中的身份键
const (
	KeyUserID = "userId"
	KeyRole   = "role"
	KeyUser   = "user"
)

// UserLoader 按 token 中的 ID 重新加载用户
type UserLoader func(ctx context.Context, id uint64) (*domain.User, error)

func AuthJWT(j *auth.JWTer, requireRole string, load UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		ah := c.GetHeader("Authorization")
		if !strings.HasPrefix(ah, "Bearer ") {
			resp.Abort(c, resp.CodeUnauthorized, "missing token")
			return
		}
		claims, err := j.Parse(strings.TrimPrefix(ah, "Bearer "))
		if err != nil {
			resp.Abort(c, resp.CodeUnauthorized, "invalid token")
			return
		}
		uid, err := claims.UserID()
		if err != nil {
			resp.Abort(c, resp.CodeUnauthorized, "invalid token")
			return
		}
		u, err := load(c.Request.Context(), uid)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			resp.Abort(c, resp.CodeUnauthorized, "user no longer exists")
			return
		case errors.Is(err, domain.ErrUnavailable):
			resp.Abort(c, resp.CodeUnavailable, "")
			return
		case err != nil:
			_ = c.Error(err)
			resp.Abort(c, resp.CodeServerError, "")
			return
		}
		// 角色以库中为准，token 里的可能已过期
		if requireRole != "" && u.Role != requireRole {
			resp.Abort(c, resp.CodeForbidden, "forbidden")
			return
		}
		c.Set("claims", claims)
		c.Set(KeyUserID, u.ID)
		c.Set(KeyRole, u.Role)
		c.Set(KeyUser, u)
		c.Next()
	}
}

// CurrentUser 返回 AuthJWT 写入的用户
func CurrentUser(c *gin.Context) (*domain.User, bool) {
	v, ok := c.Get(KeyUser)
	if !ok {
		return nil, false
	}
	u, ok := v.(*domain.User)
	return u, ok && u != nil
}
