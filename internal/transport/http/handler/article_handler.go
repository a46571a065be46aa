package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-gin-gorm-cms/internal/domain"
	"go-gin-gorm-cms/internal/feature/article"
	httpez "go-gin-gorm-cms/internal/transport/http/ez"
	mdw "go-gin-gorm-cms/internal/transport/http/middleware"
)

type ArticleHandler struct {
	svc *article.Service
	log *zap.Logger
}

func NewArticleHandler(svc *article.Service, l *zap.Logger) *ArticleHandler {
	return &ArticleHandler{svc: svc, log: l}
}

func (h *ArticleHandler) Priority() int { return 20 }

// MountAPI GET 公开，写操作需要登录
func (h *ArticleHandler) MountAPI(public, authed *gin.RouterGroup) {
	pub := httpez.New(public, h.log)
	auth := httpez.New(authed, h.log)

	httpez.RegisterAction(pub, httpez.Action[article.ListParams, *article.ListResult]{
		Method: http.MethodGet,
		Path:   "/articles",
		Binder: httpez.BindQuery,
		Handler: func(c *gin.Context, in *article.ListParams) (*article.ListResult, error) {
			q, err := in.Query()
			if err != nil {
				return nil, err
			}
			return h.svc.FindAll(c.Request.Context(), q)
		},
	})

	httpez.RegisterAction(pub, httpez.Action[struct{}, *article.ArticleResponse]{
		Method: http.MethodGet,
		Path:   "/articles/:id",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (*article.ArticleResponse, error) {
			id, err := httpez.ParamID(c, "id")
			if err != nil {
				return nil, err
			}
			return h.svc.FindOne(c.Request.Context(), id)
		},
	})

	create := func(c *gin.Context, in *article.CreateInput) (*article.ArticleResponse, error) {
		u, ok := mdw.CurrentUser(c)
		if !ok {
			return nil, httpez.Unauthorized("unauthorized")
		}
		return h.svc.Create(c.Request.Context(), *in, u)
	}
	for _, m := range []string{http.MethodPut, http.MethodPost} {
		httpez.RegisterAction(auth, httpez.Action[article.CreateInput, *article.ArticleResponse]{
			Method:  m,
			Path:    "/articles",
			Binder:  httpez.BindJSON,
			Auth:    true,
			Status:  http.StatusCreated,
			Handler: create,
		})
	}

	httpez.RegisterAction(auth, httpez.Action[article.UpdateInput, *article.ArticleResponse]{
		Method: http.MethodPatch,
		Path:   "/articles/:id",
		Binder: httpez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *article.UpdateInput) (*article.ArticleResponse, error) {
			id, err := httpez.ParamID(c, "id")
			if err != nil {
				return nil, err
			}
			return h.svc.Update(c.Request.Context(), id, *in, c.GetUint64(mdw.KeyUserID))
		},
	})

	httpez.RegisterAction(auth, httpez.Action[struct{}, struct{}]{
		Method: http.MethodDelete,
		Path:   "/articles/:id",
		Binder: httpez.BindNone,
		Auth:   true,
		Status: http.StatusNoContent,
		Handler: func(c *gin.Context, _ *struct{}) (struct{}, error) {
			id, err := httpez.ParamID(c, "id")
			if err != nil {
				return struct{}{}, err
			}
			return struct{}{}, h.svc.Remove(c.Request.Context(), id, c.GetUint64(mdw.KeyUserID))
		},
	})
}

type flushOut struct {
	Deleted int `json:"deleted"`
}

// MountAdmin POST /admin/v1/cache/articles/flush
func (h *ArticleHandler) MountAdmin(admin *gin.RouterGroup) {
	httpez.RegisterAction(httpez.New(admin, h.log), httpez.Action[struct{}, flushOut]{
		Method: http.MethodPost,
		Path:   "/cache/articles/flush",
		Binder: httpez.BindNone,
		Auth:   true,
		Roles:  []string{domain.RoleAdmin},
		Handler: func(c *gin.Context, _ *struct{}) (flushOut, error) {
			n, err := h.svc.InvalidateAll(c.Request.Context())
			return flushOut{Deleted: n}, err
		},
	})
}
