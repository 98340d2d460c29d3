package http

import "github.com/gin-gonic/gin"

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("", h.list)
	rg.GET("/my", h.requireUser, h.my)
	rg.POST("", h.requireUser, h.create)
	rg.PATCH("/:id", h.requireUser, h.update)
	rg.DELETE("/:id", h.requireUser, h.delete)
}
