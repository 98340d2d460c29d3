package http

import (
	"encoding/json"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/campushub/campushub-backend/internal/apperr"
	"github.com/campushub/campushub-backend/internal/projects/service"
)

// Multipart bodies may carry the fields individually, as a JSON "data" field,
// or both; individual fields win.

func bindCreate(c *gin.Context) (service.CreateRequest, error) {
	var req service.CreateRequest
	if isJSON(c) {
		if err := c.ShouldBindJSON(&req); err != nil {
			return req, apperr.Validation("invalid JSON body", nil)
		}
		return req, nil
	}
	if err := decodeData(c, &req); err != nil {
		return req, err
	}

	if v, ok := c.GetPostForm("title"); ok {
		req.Title = v
	}
	if v, ok := firstForm(c, "categoryId", "category"); ok {
		req.CategoryID = v
	}
	if v, ok := c.GetPostForm("shortDescription"); ok {
		req.ShortDescription = v
	}
	if v, ok := c.GetPostForm("fullReadme"); ok {
		req.FullReadme = v
	}
	if v, ok := c.GetPostForm("deadline"); ok {
		req.Deadline = v
	}
	if skills, ok := formList(c, "skills"); ok {
		req.Skills = skills
	}
	return req, nil
}

func bindUpdate(c *gin.Context) (service.UpdateRequest, error) {
	var req service.UpdateRequest
	if isJSON(c) {
		if err := c.ShouldBindJSON(&req); err != nil {
			return req, apperr.Validation("invalid JSON body", nil)
		}
		return req, nil
	}
	if err := decodeData(c, &req); err != nil {
		return req, err
	}

	if v, ok := c.GetPostForm("title"); ok {
		req.Title = &v
	}
	if v, ok := firstForm(c, "categoryId", "category"); ok {
		req.CategoryID = &v
	}
	if v, ok := c.GetPostForm("shortDescription"); ok {
		req.ShortDescription = &v
	}
	if v, ok := c.GetPostForm("fullReadme"); ok {
		req.FullReadme = &v
	}
	if v, ok := c.GetPostForm("deadline"); ok {
		req.Deadline = &v
	}
	if v, ok := c.GetPostForm("status"); ok {
		req.Status = &v
	}
	if skills, ok := formList(c, "skills"); ok {
		req.Skills = skills
	}
	return req, nil
}

func isJSON(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "application/json")
}

func decodeData(c *gin.Context, dst any) error {
	raw, ok := c.GetPostForm("data")
	if !ok || strings.TrimSpace(raw) == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return apperr.Validation("invalid data field", map[string]string{"data": "must be a JSON object"})
	}
	return nil
}

func firstForm(c *gin.Context, keys ...string) (string, bool) {
	for _, k := range keys {
		if v, ok := c.GetPostForm(k); ok {
			return v, true
		}
	}
	return "", false
}

// formList reads a repeated field ("skills" or "skills[]"); a single value
// may also be a JSON array or a comma separated list.
func formList(c *gin.Context, key string) ([]string, bool) {
	values, ok := c.GetPostFormArray(key)
	if !ok {
		values, ok = c.GetPostFormArray(key + "[]")
	}
	if !ok {
		return nil, false
	}
	return splitList(values), true
}

func splitList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if strings.HasPrefix(v, "[") {
			var arr []string
			if err := json.Unmarshal([]byte(v), &arr); err == nil {
				out = append(out, arr...)
				continue
			}
		}
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
