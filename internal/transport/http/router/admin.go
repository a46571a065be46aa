package router

import (
	"github.com/gin-gonic/gin"

	"go-gin-gorm-cms/internal/core/server"
	"go-gin-gorm-cms/internal/domain"
	mdw "go-gin-gorm-cms/internal/transport/http/middleware"
)

func NewAdminEngine(d Deps, reg *Registry) *gin.Engine {
	r := server.NewRouter(d.Log)
	useChain(r, d)
	mountProbes(r, d.Checks)

	// 管理端 v1（统一要求 admin 角色）
	admin := r.Group("/admin/v1")
	admin.Use(mdw.AuthJWT(d.JWT, domain.RoleAdmin, d.Users))

	reg.MountAdmin(admin)
	return r
}
