package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Logout is stateless from the token's perspective: bearer tokens are
// not revocable and die at their expiry. The only server-side action is
// clearing any handshake cookies left by a federation round trip.
func (h *Handler) Logout(c *gin.Context) {
	clearStateCookie(c)
	clearPKCECookie(c)

	c.JSON(http.StatusOK, authResponse{
		Success: true,
		Message: "logged out",
	})
}
