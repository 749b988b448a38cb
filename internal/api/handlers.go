package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"prikaz/internal/registry"
	"prikaz/internal/service"
	"prikaz/internal/storage"
)

// entityService резолвит сервис по сегменту пути; nil — сущность не
// зарегистрирована, ответ уже записан.
func entityService(c *gin.Context, reg *registry.Registry, client storage.Client) *service.Service {
	name := strings.ToLower(c.Param("entity"))
	svc := reg.Service(name, client)
	if svc == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Entity not found"})
		return nil
	}
	return svc
}

// writeError — единое отображение отказов сервиса на HTTP.
func writeError(c *gin.Context, err error) {
	if se, ok := service.AsServiceError(err); ok {
		switch se.Code {
		case service.CodeValidation:
			c.JSON(http.StatusBadRequest, se)
		case service.CodeTenant:
			c.JSON(http.StatusForbidden, se)
		case service.CodeBusiness:
			c.JSON(http.StatusConflict, se)
		default:
			c.JSON(http.StatusInternalServerError, se)
		}
		return
	}
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
		return
	}
	logrus.WithError(err).Error("unhandled storage error")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

func CreateHandler(reg *registry.Registry, client storage.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		svc := entityService(c, reg, client)
		if svc == nil {
			return
		}
		var body map[string]any
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
			return
		}
		rec, err := svc.Create(c.Request.Context(), body, tenantID(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, rec)
	}
}

func ListHandler(reg *registry.Registry, client storage.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		svc := entityService(c, reg, client)
		if svc == nil {
			return
		}
		q, errs := parseListQuery(c.Request.URL.Query())
		if len(errs) > 0 {
			writeError(c, service.NewValidationError(errs...))
			return
		}
		res, err := svc.List(c.Request.Context(), q, tenantID(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

func GetOneHandler(reg *registry.Registry, client storage.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		svc := entityService(c, reg, client)
		if svc == nil {
			return
		}
		rec, err := svc.GetByID(c.Request.Context(), c.Param("id"), tenantID(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, rec)
	}
}

func UpdateHandler(reg *registry.Registry, client storage.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		svc := entityService(c, reg, client)
		if svc == nil {
			return
		}
		var body map[string]any
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
			return
		}
		rec, err := svc.Update(c.Request.Context(), c.Param("id"), body, tenantID(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, rec)
	}
}

func DeleteHandler(reg *registry.Registry, client storage.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		svc := entityService(c, reg, client)
		if svc == nil {
			return
		}
		deleted, err := svc.Delete(c.Request.Context(), c.Param("id"), tenantID(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": deleted})
	}
}

func StatsHandler(reg *registry.Registry, client storage.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		svc := entityService(c, reg, client)
		if svc == nil {
			return
		}
		st, err := svc.Stats(c.Request.Context(), tenantID(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, st)
	}
}
