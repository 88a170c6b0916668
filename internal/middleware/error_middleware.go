package middleware

import (
	"net/http"

	"filedrop/internal/transport/httpdto"
	"filedrop/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ErrorHandler turns errors attached with c.Error into a JSON body when the
// handler did not write one itself.
func ErrorHandler(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		if l != nil {
			l.Errorf("request error: %s", err.Error())
		}
		if c.Writer.Written() {
			return
		}
		status := c.Writer.Status()
		if status < http.StatusBadRequest {
			status = http.StatusInternalServerError
		}
		c.JSON(status, httpdto.NewErrorResponse("Internal server error", "INTERNAL_ERROR"))
	}
}

// NotFoundHandler answers unknown routes in the API's error format.
func NotFoundHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusNotFound, httpdto.NewErrorResponse("route not found", "NOT_FOUND"))
	}
}
