package http

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	skillA = "1c0e8f3e-2a6b-4d2b-8b0e-5d4c3b2a1f01"
	skillB = "1c0e8f3e-2a6b-4d2b-8b0e-5d4c3b2a1f02"
)

func formContext(t *testing.T, fields map[string][]string) *gin.Context {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, vs := range fields {
		for _, v := range vs {
			require.NoError(t, w.WriteField(k, v))
		}
	}
	require.NoError(t, w.Close())

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPatch, "/api/users/me", &body)
	c.Request.Header.Set("Content-Type", w.FormDataContentType())
	return c
}

func TestBindUpdateMe(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("multipart text fields", func(t *testing.T) {
		c := formContext(t, map[string][]string{
			"first_name": {"Ana"},
			"class":      {""},
			"skills":     {skillA, skillB},
		})
		req, err := bindUpdateMe(c)
		require.NoError(t, err)
		require.NotNil(t, req.FirstName)
		assert.Equal(t, "Ana", *req.FirstName)
		require.NotNil(t, req.Class)
		assert.Empty(t, *req.Class)
		assert.Nil(t, req.LastName)
		assert.Equal(t, []string{skillA, skillB}, req.Skills)
	})

	t.Run("skills as json array", func(t *testing.T) {
		c := formContext(t, map[string][]string{"skills[]": {`["` + skillA + `"]`}})
		req, err := bindUpdateMe(c)
		require.NoError(t, err)
		assert.Equal(t, []string{skillA}, req.Skills)
	})

	t.Run("skills absent stays nil", func(t *testing.T) {
		c := formContext(t, map[string][]string{"department": {"CS"}})
		req, err := bindUpdateMe(c)
		require.NoError(t, err)
		assert.Nil(t, req.Skills)
	})

	t.Run("broken skills array", func(t *testing.T) {
		c := formContext(t, map[string][]string{"skills": {"[oops"}})
		_, err := bindUpdateMe(c)
		require.Error(t, err)
	})

	t.Run("json body", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodPatch, "/api/users/me",
			strings.NewReader(`{"last_name":"Lopez","skills":[]}`))
		c.Request.Header.Set("Content-Type", "application/json")

		req, err := bindUpdateMe(c)
		require.NoError(t, err)
		require.NotNil(t, req.LastName)
		assert.Equal(t, "Lopez", *req.LastName)
		assert.NotNil(t, req.Skills)
		assert.Empty(t, req.Skills)
	})
}
