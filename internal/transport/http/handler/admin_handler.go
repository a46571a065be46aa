package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-gin-gorm-cms/internal/domain"
	"go-gin-gorm-cms/internal/feature/user"
	httpez "go-gin-gorm-cms/internal/transport/http/ez"
)

// UserAdminHandler 管理端用户接口
type UserAdminHandler struct {
	svc *user.Service
	log *zap.Logger
}

func NewUserAdminHandler(svc *user.Service, l *zap.Logger) *UserAdminHandler {
	return &UserAdminHandler{svc: svc, log: l}
}

type userListQ struct {
	Offset int    `form:"offset,default=0"`
	Limit  int    `form:"limit,default=20"`
	Q      string `form:"q"` // 按 email/姓名 模糊搜
}

type userRow struct {
	ID        uint64    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

type userListOut struct {
	Total int64     `json:"total"`
	Items []userRow `json:"items"`
}

// MountAdmin GET /admin/v1/users 用户列表
func (h *UserAdminHandler) MountAdmin(admin *gin.RouterGroup) {
	httpez.RegisterAction(httpez.New(admin, h.log), httpez.Action[userListQ, userListOut]{
		Method: http.MethodGet,
		Path:   "/users",
		Binder: httpez.BindQuery,
		Auth:   true,
		Roles:  []string{domain.RoleAdmin},
		Handler: func(c *gin.Context, in *userListQ) (userListOut, error) {
			us, total, err := h.svc.List(c.Request.Context(), domain.UserQuery{Offset: in.Offset, Limit: in.Limit, Search: in.Q})
			if err != nil {
				return userListOut{}, err
			}
			out := userListOut{Total: total, Items: make([]userRow, 0, len(us))}
			for _, u := range us {
				out.Items = append(out.Items, userRow{
					ID: u.ID, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName, Role: u.Role, CreatedAt: u.CreatedAt,
				})
			}
			return out, nil
		},
	})
}
