package http

import "github.com/gin-gonic/gin"

// Register attaches project routes to the given router group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("", h.requireUser, h.create)
	rg.GET("", h.list)
	rg.GET("/:id", h.get)
	rg.PATCH("/:id/update_status", h.requireUser, h.updateStatus)
	rg.PUT("/:id/update_project", h.requireUser, h.update)
	rg.DELETE("/:id", h.requireUser, h.delete)
}

// RegisterOwnerRoutes attaches the per-user project listing to the users group.
func (h *Handler) RegisterOwnerRoutes(users *gin.RouterGroup) {
	users.GET("/:id/projects", h.optionalUser, h.listByOwner)
}
