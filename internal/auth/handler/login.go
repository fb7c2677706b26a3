package handler

import (
	"errors"
	"net/http"

	"auth-gateway/internal/logger"
	"auth-gateway/internal/user"

	"github.com/gin-gonic/gin"
)

// invalidCredentialsMessage is deliberately identical for unknown
// email and wrong password so the endpoint cannot be used to probe
// which accounts exist.
const invalidCredentialsMessage = "invalid email or password"

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, authResponse{
			Success: false,
			Message: "email and password are required",
		})
		return
	}

	u, err := h.users.FindByEmail(c.Request.Context(), req.Email)
	if errors.Is(err, user.ErrNotFound) {
		c.JSON(http.StatusUnauthorized, authResponse{
			Success: false,
			Message: invalidCredentialsMessage,
		})
		return
	}
	if err != nil {
		logger.Error("login: lookup failed", map[string]any{
			"error": err.Error(),
		})
		c.JSON(http.StatusInternalServerError, authResponse{
			Success: false,
			Message: "login failed",
		})
		return
	}

	ok, err := h.users.VerifyPassword(c.Request.Context(), u.ID, req.Password)
	if err != nil {
		logger.Error("login: password verify failed", map[string]any{
			"error": err.Error(),
		})
		c.JSON(http.StatusInternalServerError, authResponse{
			Success: false,
			Message: "login failed",
		})
		return
	}
	if !ok {
		c.JSON(http.StatusUnauthorized, authResponse{
			Success: false,
			Message: invalidCredentialsMessage,
		})
		return
	}

	tok, err := h.tokens.Issue(u)
	if err != nil {
		logger.Error("login: token issue failed", map[string]any{
			"error": err.Error(),
		})
		c.JSON(http.StatusInternalServerError, authResponse{
			Success: false,
			Message: "login failed",
		})
		return
	}

	c.JSON(http.StatusOK, authResponse{
		Success: true,
		Message: "login successful",
		Token:   tok,
		User:    toUserInfo(u),
	})
}
