package handler

import (
	"errors"
	"fmt"
	"net/http"

	"auth-gateway/internal/logger"
	"auth-gateway/internal/user"

	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, authResponse{
			Success: false,
			Message: "name, a valid email, and a password are required",
		})
		return
	}

	if len(req.Password) < h.minPassword {
		c.JSON(http.StatusBadRequest, authResponse{
			Success: false,
			Message: fmt.Sprintf("password must be at least %d characters", h.minPassword),
		})
		return
	}

	// Create the account before issuing the token: if the request dies
	// in between, the user can still log in afterwards.
	u, err := h.users.Create(c.Request.Context(), req.Name, req.Email, req.Password)

	if errors.Is(err, user.ErrDuplicateEmail) {
		c.JSON(http.StatusBadRequest, authResponse{
			Success: false,
			Message: "email already registered",
		})
		return
	}
	if err != nil {
		logger.Error("register: create user failed", map[string]any{
			"error": err.Error(),
		})
		c.JSON(http.StatusInternalServerError, authResponse{
			Success: false,
			Message: "failed to register user",
		})
		return
	}

	tok, err := h.tokens.Issue(u)
	if err != nil {
		logger.Error("register: token issue failed", map[string]any{
			"error": err.Error(),
		})
		c.JSON(http.StatusInternalServerError, authResponse{
			Success: false,
			Message: "failed to register user",
		})
		return
	}

	c.JSON(http.StatusCreated, authResponse{
		Success: true,
		Message: "user registered",
		Token:   tok,
		User:    toUserInfo(u),
	})
}
