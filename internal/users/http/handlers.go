package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	httpapi "github.com/campushub/campushub-backend/internal/api/http"
	"github.com/campushub/campushub-backend/internal/apperr"
	"github.com/campushub/campushub-backend/internal/auth"
	"github.com/campushub/campushub-backend/internal/uploads"
	"github.com/campushub/campushub-backend/internal/users/service"
)

const photoField = "photo_path"

func (h *Handler) list(c *gin.Context) {
	f, err := service.ParseListQuery(service.ListQuery{
		Department:   c.Query("department"),
		Class:        c.Query("class"),
		PCID:         c.Query("pc_id"),
		NameContains: c.Query("nameContains"),
		Offset:       c.Query("offset"),
		Limit:        c.Query("limit"),
	})
	if err != nil {
		httpapi.WriteError(c, err)
		return
	}

	users, err := h.svc.List(c.Request.Context(), f)
	if err != nil {
		httpapi.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *Handler) me(c *gin.Context) {
	u, err := h.svc.Get(c.Request.Context(), auth.UserID(c))
	if err != nil {
		httpapi.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) get(c *gin.Context) {
	u, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpapi.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) updateMe(c *gin.Context) {
	photo, err := h.uploads.StageSingle(c, photoField)
	if err != nil {
		httpapi.WriteError(c, err)
		return
	}
	if photo != nil {
		defer uploads.Discard([]uploads.StagedFile{*photo})
	}

	req, err := bindUpdateMe(c)
	if err != nil {
		httpapi.WriteError(c, err)
		return
	}
	in, err := service.ParseUpdateMe(req)
	if err != nil {
		httpapi.WriteError(c, err)
		return
	}

	u, err := h.svc.UpdateMe(c.Request.Context(), auth.UserID(c), in, photo)
	if err != nil {
		httpapi.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// bindUpdateMe accepts JSON or a multipart form whose text fields use the
// JSON names; skills may repeat or be a JSON array.
func bindUpdateMe(c *gin.Context) (service.UpdateMeRequest, error) {
	var req service.UpdateMeRequest
	if strings.HasPrefix(c.ContentType(), "application/json") {
		if err := c.ShouldBindJSON(&req); err != nil {
			return req, apperr.Validation("invalid JSON body", nil)
		}
		return req, nil
	}

	text := map[string]**string{
		"first_name":    &req.FirstName,
		"last_name":     &req.LastName,
		"description":   &req.Description,
		"department":    &req.Department,
		"class":         &req.Class,
		"github_link":   &req.GithubLink,
		"linkedin_link": &req.LinkedinLink,
		"banner_link":   &req.BannerLink,
	}
	for key, dst := range text {
		if v, ok := c.GetPostForm(key); ok {
			*dst = &v
		}
	}

	values, ok := c.GetPostFormArray("skills")
	if !ok {
		values, ok = c.GetPostFormArray("skills[]")
	}
	if ok {
		req.Skills = []string{}
		for _, v := range values {
			v = strings.TrimSpace(v)
			if strings.HasPrefix(v, "[") {
				var arr []string
				if err := json.Unmarshal([]byte(v), &arr); err != nil {
					return req, apperr.Validation("invalid skills", map[string]string{"skills": "must be a list of ids"})
				}
				req.Skills = append(req.Skills, arr...)
				continue
			}
			if v != "" {
				req.Skills = append(req.Skills, v)
			}
		}
	}
	return req, nil
}
