package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	httpapi "github.com/campushub/campushub-backend/internal/api/http"
	"github.com/campushub/campushub-backend/internal/apperr"
	"github.com/campushub/campushub-backend/internal/auth"
	"github.com/campushub/campushub-backend/internal/offers/service"
	"github.com/campushub/campushub-backend/internal/uploads"
)

const photoField = "photo_path"

func (h *Handler) list(c *gin.Context) {
	f, err := service.ParseListQuery(service.ListQuery{
		Title:  c.Query("title"),
		Skills: append(c.QueryArray("skills"), c.QueryArray("skills[]")...),
		Offset: c.Query("offset"),
		Limit:  c.Query("limit"),
	})
	if err != nil {
		httpapi.WriteError(c, err)
		return
	}
	offers, err := h.svc.List(c.Request.Context(), f)
	if err != nil {
		httpapi.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"offers": offers})
}

func (h *Handler) my(c *gin.Context) {
	offers, err := h.svc.ListByOwner(c.Request.Context(), auth.UserID(c))
	if err != nil {
		httpapi.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"offers": offers})
}

func (h *Handler) create(c *gin.Context) {
	photo, err := h.uploads.StageSingle(c, photoField)
	if err != nil {
		httpapi.WriteError(c, err)
		return
	}
	if photo != nil {
		defer uploads.Discard([]uploads.StagedFile{*photo})
	}

	var req service.CreateRequest
	if err := bindOffer(c, &req, func(f formFields) {
		req.Title, _ = f.text("title")
		req.Description, _ = f.text("description")
		req.PhoneNumber, _ = f.text("phone_number")
		req.Price = f.price
		req.Skills = f.skills
	}); err != nil {
		httpapi.WriteError(c, err)
		return
	}
	in, err := service.ParseCreate(req)
	if err != nil {
		httpapi.WriteError(c, err)
		return
	}

	o, err := h.svc.Create(c.Request.Context(), auth.UserID(c), in, photo)
	if err != nil {
		httpapi.WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"offer": o})
}

func (h *Handler) update(c *gin.Context) {
	photo, err := h.uploads.StageSingle(c, photoField)
	if err != nil {
		httpapi.WriteError(c, err)
		return
	}
	if photo != nil {
		defer uploads.Discard([]uploads.StagedFile{*photo})
	}

	var req service.UpdateRequest
	if err := bindOffer(c, &req, func(f formFields) {
		req.Title = f.ptr("title")
		req.Description = f.ptr("description")
		req.PhoneNumber = f.ptr("phone_number")
		req.Price = f.price
		req.Skills = f.skills
	}); err != nil {
		httpapi.WriteError(c, err)
		return
	}
	in, err := service.ParseUpdate(req)
	if err != nil {
		httpapi.WriteError(c, err)
		return
	}

	o, err := h.svc.Update(c.Request.Context(), auth.UserID(c), c.Param("id"), in, photo)
	if err != nil {
		httpapi.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"offer": o})
}

func (h *Handler) delete(c *gin.Context) {
	o, err := h.svc.Delete(c.Request.Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		httpapi.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"offer": o})
}

// formFields is a multipart body already split into typed values.
type formFields struct {
	c      *gin.Context
	price  *float64
	skills []string
}

func (f formFields) text(key string) (string, bool) {
	return f.c.GetPostForm(key)
}

func (f formFields) ptr(key string) *string {
	if v, ok := f.c.GetPostForm(key); ok {
		return &v
	}
	return nil
}

// bindOffer decodes JSON bodies into dst directly; multipart bodies are
// parsed into formFields and handed to assign.
func bindOffer(c *gin.Context, dst any, assign func(formFields)) error {
	if strings.HasPrefix(c.ContentType(), "application/json") {
		if err := c.ShouldBindJSON(dst); err != nil {
			return apperr.Validation("invalid JSON body", nil)
		}
		return nil
	}

	f := formFields{c: c}
	if raw, ok := c.GetPostForm("price"); ok && strings.TrimSpace(raw) != "" {
		p, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return apperr.Validation("invalid price", map[string]string{"price": "must be a number"})
		}
		f.price = &p
	}

	values, ok := c.GetPostFormArray("skills")
	if !ok {
		values, ok = c.GetPostFormArray("skills[]")
	}
	if ok {
		f.skills = []string{}
		for _, v := range values {
			v = strings.TrimSpace(v)
			if strings.HasPrefix(v, "[") {
				var arr []string
				if err := json.Unmarshal([]byte(v), &arr); err != nil {
					return apperr.Validation("invalid skills", map[string]string{"skills": "must be a list of ids"})
				}
				f.skills = append(f.skills, arr...)
				continue
			}
			if v != "" {
				f.skills = append(f.skills, v)
			}
		}
	}

	assign(f)
	return nil
}
