package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	httpapi "github.com/campushub/campushub-backend/internal/api/http"
	"github.com/campushub/campushub-backend/internal/apperr"
	"github.com/campushub/campushub-backend/internal/auth"
	"github.com/campushub/campushub-backend/internal/auth/service"
)

// Login exchanges a PC number and password for a token.
func (h *Handler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.WriteError(c, apperr.Validation("invalid request body", nil))
		return
	}
	req, err := service.ParseLogin(req)
	if err != nil {
		httpapi.WriteError(c, err)
		return
	}

	token, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		httpapi.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *Handler) RequestEmail(c *gin.Context) {
	var req service.EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.WriteError(c, apperr.Validation("invalid request body", nil))
		return
	}
	if err := h.authService.RequestEmailVerification(c.Request.Context(), auth.UserID(c), req); err != nil {
		httpapi.WriteError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"sent": true})
}

func (h *Handler) ConfirmEmail(c *gin.Context) {
	var req service.EmailConfirm
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.WriteError(c, apperr.Validation("invalid request body", nil))
		return
	}
	mail, err := h.authService.ConfirmEmail(c.Request.Context(), auth.UserID(c), req)
	if err != nil {
		httpapi.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"mail": mail, "mail_verified": true})
}
