package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	httpapi "github.com/campushub/campushub-backend/internal/api/http"
	"github.com/campushub/campushub-backend/internal/apperr"
	"github.com/campushub/campushub-backend/internal/auth"
	"github.com/campushub/campushub-backend/internal/projects/service"
	"github.com/campushub/campushub-backend/internal/uploads"
)

const imageField = "image"

func (h *Handler) create(c *gin.Context) {
	files, err := h.uploads.Stage(c, imageField)
	if err != nil {
		httpapi.WriteError(c, err)
		return
	}
	// Whatever was not moved into the project directory leaves staging with the request.
	defer uploads.Discard(files)

	req, err := bindCreate(c)
	if err != nil {
		httpapi.WriteError(c, err)
		return
	}
	in, err := service.ParseCreate(req)
	if err != nil {
		httpapi.WriteError(c, err)
		return
	}

	p, err := h.svc.Create(c.Request.Context(), auth.UserID(c), in, files)
	if err != nil {
		httpapi.WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"project": p})
}

func (h *Handler) list(c *gin.Context) {
	f, err := service.ParseListQuery(service.ListQuery{
		Search:   c.Query("search"),
		Category: c.Query("category"),
		Status:   c.Query("status"),
		Skills:   append(c.QueryArray("skills"), c.QueryArray("skills[]")...),
		Page:     c.Query("page"),
		Limit:    c.Query("limit"),
	})
	if err != nil {
		httpapi.WriteError(c, err)
		return
	}

	page, err := h.svc.List(c.Request.Context(), f)
	if err != nil {
		httpapi.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) get(c *gin.Context) {
	p, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpapi.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": p})
}

func (h *Handler) updateStatus(c *gin.Context) {
	var req statusReq
	if err := c.ShouldBind(&req); err != nil || req.Status == "" {
		httpapi.WriteError(c, apperr.Validation("status is required", map[string]string{"status": "required"}))
		return
	}
	status, err := service.ParseStatus(req.Status)
	if err != nil {
		httpapi.WriteError(c, err)
		return
	}

	p, err := h.svc.UpdateStatus(c.Request.Context(), auth.UserID(c), c.Param("id"), status)
	if err != nil {
		httpapi.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": p})
}

func (h *Handler) update(c *gin.Context) {
	files, err := h.uploads.Stage(c, imageField)
	if err != nil {
		httpapi.WriteError(c, err)
		return
	}
	defer uploads.Discard(files)

	req, err := bindUpdate(c)
	if err != nil {
		httpapi.WriteError(c, err)
		return
	}
	in, err := service.ParseUpdate(req)
	if err != nil {
		httpapi.WriteError(c, err)
		return
	}

	p, err := h.svc.Update(c.Request.Context(), auth.UserID(c), c.Param("id"), in, files)
	if err != nil {
		httpapi.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": p})
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), auth.UserID(c), c.Param("id")); err != nil {
		httpapi.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// listByOwner serves /users/:id/projects; "me" resolves to the caller.
func (h *Handler) listByOwner(c *gin.Context) {
	ownerID := c.Param("id")
	if ownerID == "me" {
		ownerID = auth.UserID(c)
		if ownerID == "" {
			httpapi.WriteError(c, apperr.Unauthorized("user not authenticated"))
			return
		}
	}

	items, err := h.svc.ListByOwner(c.Request.Context(), ownerID)
	if err != nil {
		httpapi.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": items})
}
