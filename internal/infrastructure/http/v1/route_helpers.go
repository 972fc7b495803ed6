package v1

import (
	"github.com/gin-gonic/gin"
)

// ModelRouteHandler defines the interface for model handlers.
type ModelRouteHandler interface {
	List(c *gin.Context)
	Count(c *gin.Context)
	Get(c *gin.Context)
	Create(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
	DeleteAll(c *gin.Context)
	Restore(c *gin.Context)
}

// RegisterModelRoutes registers the standard routes of a model group whose
// path contains the :model parameter.
//
// Usage:
//
//	handler := handlers.NewModelHandler(baseHandler, models, deleters)
//	RegisterModelRoutes(api.Group("/:model"), handler)
func RegisterModelRoutes(group *gin.RouterGroup, handler ModelRouteHandler) {
	group.GET("", handler.List)
	group.POST("", handler.Create)
	group.DELETE("", handler.DeleteAll)
	group.GET("/count", handler.Count)
	group.GET("/:id", handler.Get)
	group.PATCH("/:id", handler.Update)
	group.DELETE("/:id", handler.Delete)
	group.POST("/:id/restore", handler.Restore)
}
