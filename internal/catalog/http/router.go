package http

import "github.com/gin-gonic/gin"

// Register attaches catalog routes to the API group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/skills", h.listSkills)
	rg.GET("/categories", h.listCategories)
}
