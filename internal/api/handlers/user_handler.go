package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Wikid82/ballot/backend/internal/api/middleware"
	"github.com/Wikid82/ballot/backend/internal/services"
)

type UserHandler struct {
	profiles *services.ProfileService
}

func NewUserHandler(profiles *services.ProfileService) *UserHandler {
	return &UserHandler{profiles: profiles}
}

// Profile handles GET /api/user/profile
func (h *UserHandler) Profile(c *gin.Context) {
	profile, err := h.profiles.Profile(c.Request.Context(), services.Identity{
		UserID:  c.GetString(middleware.UserIDKey),
		Email:   c.GetString(middleware.EmailKey),
		IsAdmin: c.GetBool(middleware.IsAdminKey),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// IsAdmin handles GET /api/user/is-admin. The answer comes from the token.
func (h *UserHandler) IsAdmin(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"is_admin": c.GetBool(middleware.IsAdminKey)})
}
