package http

import "github.com/gin-gonic/gin"

// Register mounts /login and /auth/email/* on the API group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/login", h.loginLimit, h.Login)

	email := rg.Group("/auth/email", h.requireUser)
	email.POST("/request", h.RequestEmail)
	email.POST("/confirm", h.ConfirmEmail)
}
