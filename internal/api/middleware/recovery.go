package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Wikid82/ballot/backend/internal/metrics"
)

// Recovery turns a handler panic into a 500 that carries the request id, so
// a voter can quote it when reporting the failure. The log entry names the
// route, the :id path parameter and the authenticated user. Verbose mode
// adds the stack and the redacted request headers.
func Recovery(verbose bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			route := routeLabel(c)
			metrics.IncPanic(route)

			fields := logrus.Fields{
				"route":  route,
				"method": c.Request.Method,
			}
			if id := c.Param("id"); id != "" {
				fields["resource_id"] = id
			}
			if uid := c.GetString(UserIDKey); uid != "" {
				fields["user_id"] = uid
			}
			entry := GetRequestLogger(c).WithFields(fields)
			if verbose {
				entry.WithFields(logrus.Fields{
					"path":    SanitizePath(c.Request.URL.Path),
					"headers": SanitizeHeaders(c.Request.Header),
				}).Errorf("PANIC: %v\nStacktrace:\n%s", r, debug.Stack())
			} else {
				entry.Errorf("PANIC: %v", r)
			}

			if c.Writer.Written() {
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":      "internal server error",
				"request_id": c.GetString(RequestIDKey),
			})
		}()
		c.Next()
	}
}
