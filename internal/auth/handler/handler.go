package handler

import (
	"log"

	"auth-gateway/internal/auth/provider"
	"auth-gateway/internal/handshake"
	"auth-gateway/internal/token"
	"auth-gateway/internal/user"

	"github.com/gin-gonic/gin"
)

const googleProvider = "google"

type Handler struct {
	providers   *provider.Registry
	users       user.Store
	tokens      *token.Service
	states      handshake.Store
	frontendURL string
	minPassword int
}

func NewHandler(
	registry *provider.Registry,
	users user.Store,
	tokens *token.Service,
	states handshake.Store,
	frontendURL string,
	minPasswordLength int,
) *Handler {
	return &Handler{
		providers:   registry,
		users:       users,
		tokens:      tokens,
		states:      states,
		frontendURL: frontendURL,
		minPassword: minPasswordLength,
	}
}

// RegisterRoutes mounts the session API and the federation endpoints.
// requireAuth guards the routes that need a valid bearer token.
func (h *Handler) RegisterRoutes(r *gin.Engine, requireAuth gin.HandlerFunc) {
	grp := r.Group("/auth")

	grp.POST("/register", h.Register)
	grp.POST("/login", h.Login)
	grp.POST("/logout", requireAuth, h.Logout)
	grp.GET("/me", requireAuth, h.Me)

	grp.GET("/google/login", h.federationLogin(googleProvider))
	grp.GET("/google/callback", h.federationCallback(googleProvider))

	for _, route := range r.Routes() {
		log.Printf("[ROUTE] %s %s", route.Method, route.Path)
	}
}

// authResponse is the uniform envelope for session API responses.
// Internal error detail never reaches the client through it.
type authResponse struct {
	Success bool      `json:"success"`
	Message string    `json:"message"`
	Token   string    `json:"token,omitempty"`
	User    *userInfo `json:"user,omitempty"`
}

type userInfo struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	IsActive bool   `json:"isActive"`
}

func toUserInfo(u *user.User) *userInfo {
	return &userInfo{
		ID:       u.ID,
		Name:     u.Name,
		Email:    u.Email,
		IsActive: u.IsActive,
	}
}
