package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	httpapi "github.com/campushub/campushub-backend/internal/api/http"
)

func (h *Handler) listSkills(c *gin.Context) {
	skills, err := h.repo.ListSkills(c.Request.Context())
	if err != nil {
		httpapi.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, skills)
}

func (h *Handler) listCategories(c *gin.Context) {
	categories, err := h.repo.ListCategories(c.Request.Context())
	if err != nil {
		httpapi.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}
