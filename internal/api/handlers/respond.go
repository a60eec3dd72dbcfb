package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Wikid82/ballot/backend/internal/api/middleware"
	"github.com/Wikid82/ballot/backend/internal/services"
)

var kindStatus = map[services.Kind]int{
	services.KindValidation:    http.StatusBadRequest,
	services.KindAuth:          http.StatusUnauthorized,
	services.KindAuthorization: http.StatusForbidden,
	services.KindNotFound:      http.StatusNotFound,
	services.KindUpstream:      http.StatusInternalServerError,
}

// respondError writes err as {"error": msg} with the status of its kind.
// Upstream failures are logged and their raw message returned.
func respondError(c *gin.Context, err error) {
	kind := services.KindOf(err)
	status, ok := kindStatus[kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	if status == http.StatusInternalServerError {
		middleware.GetRequestLogger(c).WithError(err).Error("request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// bindJSON decodes the request body into dst, answering 400 on malformed JSON.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return false
	}
	return true
}
