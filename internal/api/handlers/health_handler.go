package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Wikid82/ballot/backend/internal/version"
)

type healthResponse struct {
	Status string `json:"status"`
	version.BuildInfo
}

// HealthHandler reports liveness plus the running build.
func HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{Status: "ok", BuildInfo: version.Info()})
}
