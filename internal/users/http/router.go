package http

import "github.com/gin-gonic/gin"

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("", h.list)
	rg.GET("/me", h.requireUser, h.me)
	rg.PATCH("/me", h.requireUser, h.updateMe)
	rg.GET("/:id", h.get)
}
