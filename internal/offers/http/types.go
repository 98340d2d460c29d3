package http

import (
	"github.com/gin-gonic/gin"

	"github.com/campushub/campushub-backend/internal/offers/service"
	"github.com/campushub/campushub-backend/internal/uploads"
)

type Handler struct {
	svc         *service.OfferService
	uploads     *uploads.Receiver
	requireUser gin.HandlerFunc
}

func New(svc *service.OfferService, receiver *uploads.Receiver, requireUser gin.HandlerFunc) *Handler {
	return &Handler{svc: svc, uploads: receiver, requireUser: requireUser}
}
