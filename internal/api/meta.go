package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"prikaz/internal/registry"
	"prikaz/internal/schema"
)

// ===== META HANDLERS =====
// Через эту границу уходят только plain-data дескрипторы: Hooks и
// Custom-правила помечены json:"-" и в ответ не попадают.

func MetaHandler(reg *registry.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"stats":     reg.Stats(),
			"endpoints": reg.APIEndpoints(),
		})
	}
}

func MetaRoutesHandler(reg *registry.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"routes": reg.AdminRoutes()})
	}
}

type metaEntity struct {
	Definition   *schema.EntityDefinition `json:"definition"`
	CreateFields []schema.Field           `json:"createFields"`
	UpdateFields []schema.Field           `json:"updateFields"`
	Query        schema.QueryShape        `json:"query"`
	Issues       []string                 `json:"issues,omitempty"`
}

func MetaEntityHandler(reg *registry.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := strings.ToLower(c.Param("entity"))
		def := reg.Get(name)
		if def == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Entity not found"})
			return
		}
		b := reg.Builder(name)
		c.JSON(http.StatusOK, metaEntity{
			Definition:   def,
			CreateFields: b.CreateFields(),
			UpdateFields: b.UpdateFields(),
			Query:        b.QueryShape(),
			Issues:       reg.ValidateEntity(name),
		})
	}
}
