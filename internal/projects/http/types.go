package http

import (
	"github.com/gin-gonic/gin"

	"github.com/campushub/campushub-backend/internal/projects/service"
	"github.com/campushub/campushub-backend/internal/uploads"
)

// Handler bundles the dependencies for projects HTTP endpoints.
type Handler struct {
	svc          *service.ProjectService
	uploads      *uploads.Receiver
	requireUser  gin.HandlerFunc
	optionalUser gin.HandlerFunc
}

func New(svc *service.ProjectService, receiver *uploads.Receiver, requireUser, optionalUser gin.HandlerFunc) *Handler {
	return &Handler{
		svc:          svc,
		uploads:      receiver,
		requireUser:  requireUser,
		optionalUser: optionalUser,
	}
}

type statusReq struct {
	Status string `json:"status" form:"status"`
}
