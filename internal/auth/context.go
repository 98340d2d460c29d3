package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	CtxUserID = "user_id"
)

// UserID returns the authenticated user's id set by the auth middleware,
// or "" for anonymous requests.
func UserID(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(CtxUserID))
}

func SetUserID(c *gin.Context, id string) {
	c.Set(CtxUserID, id)
}
