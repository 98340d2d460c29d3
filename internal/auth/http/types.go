package http

import (
	"github.com/gin-gonic/gin"

	"github.com/campushub/campushub-backend/internal/auth/service"
)

type Handler struct {
	authService *service.AuthService
	requireUser gin.HandlerFunc
	loginLimit  gin.HandlerFunc
}

func New(authService *service.AuthService, requireUser, loginLimit gin.HandlerFunc) *Handler {
	return &Handler{
		authService: authService,
		requireUser: requireUser,
		loginLimit:  loginLimit,
	}
}
