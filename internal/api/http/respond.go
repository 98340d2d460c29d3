package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/campushub/campushub-backend/internal/apperr"
	"github.com/campushub/campushub-backend/internal/logging"
)

// WriteError renders err as {"error": ..., "fields": ...} with the status of
// its kind. Unclassified errors are logged and hidden behind a generic message.
func WriteError(c *gin.Context, err error) {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		logging.FromContext(c.Request.Context()).Error("unhandled error", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	status := ae.Kind.Status()
	if status >= http.StatusInternalServerError {
		logging.FromContext(c.Request.Context()).Error("request failed",
			zap.String("kind", ae.Kind.String()),
			zap.Error(err),
		)
	}

	body := gin.H{"error": ae.Error()}
	if len(ae.Fields) > 0 {
		body["fields"] = ae.Fields
	}
	c.AbortWithStatusJSON(status, body)
}
