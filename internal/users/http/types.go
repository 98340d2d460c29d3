package http

import (
	"github.com/gin-gonic/gin"

	"github.com/campushub/campushub-backend/internal/uploads"
	"github.com/campushub/campushub-backend/internal/users/service"
)

type Handler struct {
	svc         *service.UserService
	uploads     *uploads.Receiver
	requireUser gin.HandlerFunc
}

func New(svc *service.UserService, receiver *uploads.Receiver, requireUser gin.HandlerFunc) *Handler {
	return &Handler{svc: svc, uploads: receiver, requireUser: requireUser}
}
