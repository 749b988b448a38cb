package api

import (
	"github.com/gin-gonic/gin"

	"prikaz/internal/registry"
	"prikaz/internal/storage"
)

// NewRouter собирает gin-роутер поверх реестра. Статические meta-маршруты
// регистрируются раньше параметрических CRUD.
func NewRouter(reg *registry.Registry, client storage.Client) *gin.Engine {
	r := gin.New()
	r.Use(RequestLogger(), gin.Recovery())

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/meta", MetaHandler(reg))
		apiGroup.GET("/meta/routes", MetaRoutesHandler(reg))
		apiGroup.GET("/meta/:entity", MetaEntityHandler(reg))

		apiGroup.POST("/:entity", CreateHandler(reg, client))
		apiGroup.GET("/:entity", ListHandler(reg, client))
		apiGroup.GET("/:entity/stats", StatsHandler(reg, client))
		apiGroup.GET("/:entity/:id", GetOneHandler(reg, client))
		apiGroup.PUT("/:entity/:id", UpdateHandler(reg, client))
		apiGroup.DELETE("/:entity/:id", DeleteHandler(reg, client))
	}
	return r
}
