package handler

import (
	"errors"
	"net/http"

	"auth-gateway/internal/logger"
	"auth-gateway/internal/middleware"
	"auth-gateway/internal/user"

	"github.com/gin-gonic/gin"
)

// Me resolves the bearer token's subject to the current user record.
// A valid token can still point at a deleted account; that is the one
// case where an authenticated request ends in 404.
func (h *Handler) Me(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, authResponse{
			Success: false,
			Message: "authentication required",
		})
		return
	}

	u, err := h.users.FindByID(c.Request.Context(), userID)
	if errors.Is(err, user.ErrNotFound) {
		c.JSON(http.StatusNotFound, authResponse{
			Success: false,
			Message: "user not found",
		})
		return
	}
	if err != nil {
		logger.Error("me: lookup failed", map[string]any{
			"error": err.Error(),
		})
		c.JSON(http.StatusInternalServerError, authResponse{
			Success: false,
			Message: "failed to load user",
		})
		return
	}

	c.JSON(http.StatusOK, toUserInfo(u))
}
