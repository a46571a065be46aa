package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-gin-gorm-cms/internal/feature/user"
	httpez "go-gin-gorm-cms/internal/transport/http/ez"
	mdw "go-gin-gorm-cms/internal/transport/http/middleware"
)

type AuthHandler struct {
	svc *user.Service
	log *zap.Logger
}

func NewAuthHandler(svc *user.Service, l *zap.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, log: l}
}

func (h *AuthHandler) Priority() int { return 10 }

// MountAPI /auth/register、/auth/login（公共）和 /me（鉴权）
func (h *AuthHandler) MountAPI(public, authed *gin.RouterGroup) {
	pub := httpez.New(public, h.log)

	httpez.RegisterAction(pub, httpez.Action[user.RegisterInput, *user.AuthResult]{
		Method: http.MethodPost,
		Path:   "/auth/register",
		Binder: httpez.BindJSON,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *user.RegisterInput) (*user.AuthResult, error) {
			return h.svc.Register(c.Request.Context(), *in)
		},
	})

	httpez.RegisterAction(pub, httpez.Action[user.LoginInput, *user.AuthResult]{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, in *user.LoginInput) (*user.AuthResult, error) {
			return h.svc.Login(c.Request.Context(), *in)
		},
	})

	// /me 必须挂在带 AuthJWT 的分组，才能拿到 userId
	httpez.RegisterAction(httpez.New(authed, h.log), httpez.Action[struct{}, user.Summary]{
		Method: http.MethodGet,
		Path:   "/me",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (user.Summary, error) {
			u, ok := mdw.CurrentUser(c)
			if !ok {
				return user.Summary{}, httpez.Unauthorized("unauthorized")
			}
			return user.NewSummary(u), nil
		},
	})
}
