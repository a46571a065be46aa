package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"go-gin-gorm-cms/internal/core/auth"
	"go-gin-gorm-cms/internal/core/config"
	"go-gin-gorm-cms/internal/core/server"
	mdw "go-gin-gorm-cms/internal/transport/http/middleware"
	resp "go-gin-gorm-cms/internal/transport/http/response"
)

// Check 就绪探针，例如 DB / Redis 的 Ping
type Check func(ctx context.Context) error

type Deps struct {
	Log    *zap.Logger
	JWT    *auth.JWTer
	Users  mdw.UserLoader
	Limits config.Limits
	Checks map[string]Check
}

func NewAPIEngine(d Deps, reg *Registry) *gin.Engine {
	r := server.NewRouter(d.Log)
	useChain(r, d)
	mountProbes(r, d.Checks)

	// 前缀
	api := r.Group("/api/v1")

	// 鉴权分组（/me 与写接口挂这里，才能拿到 userId）
	authed := api.Group("")
	authed.Use(mdw.AuthJWT(d.JWT, "", d.Users))

	reg.MountAPI(api, authed)
	return r
}

// 中间件
func useChain(r *gin.Engine, d Deps) {
	l := d.Limits
	timeout := time.Duration(l.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	chain := []gin.HandlerFunc{mdw.RequestID(), mdw.AccessLog(d.Log), mdw.Metrics()}
	if l.RPS > 0 {
		chain = append(chain, mdw.RateLimit(rate.Limit(l.RPS), l.Burst))
	}
	if l.PerIPRPS > 0 {
		chain = append(chain, mdw.RateLimitPerIP(rate.Limit(l.PerIPRPS), l.PerIPBurst))
	}
	if l.Concurrency > 0 {
		chain = append(chain, mdw.ConcurrencyLimit(l.Concurrency))
	}
	if l.MaxBodyBytes > 0 {
		chain = append(chain, mdw.MaxBodyBytes(l.MaxBodyBytes))
	}
	chain = append(chain, mdw.Timeout(timeout))
	r.Use(chain...)
}

// 健康检查 / 就绪检查 / 指标
func mountProbes(r *gin.Engine, checks map[string]Check) {
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/ready", func(c *gin.Context) {
		failed := gin.H{}
		for name, check := range checks {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			if err := check(ctx); err != nil {
				failed[name] = err.Error()
			}
			cancel()
		}
		if len(failed) > 0 {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, resp.New(resp.CodeUnavailable, resp.CodeMsgMap[resp.CodeUnavailable], failed))
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": 1})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
