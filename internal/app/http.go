package app

import (
	"context"

	"auth-gateway/internal/auth/handler"
	"auth-gateway/internal/auth/provider"
	"auth-gateway/internal/auth/provider/google"
	"auth-gateway/internal/config"
	"auth-gateway/internal/handshake"
	"auth-gateway/internal/logger"
	"auth-gateway/internal/middleware"
	"auth-gateway/internal/token"
	"auth-gateway/internal/user"

	"github.com/gin-gonic/gin"
)

func setupHTTP(ctx context.Context, cfg config.Config) (*gin.Engine, func() error, error) {

	infra, err := setupInfra(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	// ----------------------------
	// Dependencies
	// ----------------------------

	userStore := user.NewPostgresStore(infra.DB)

	tokenService, err := token.New(token.Config{
		Secret:   cfg.TokenSecret,
		Issuer:   cfg.TokenIssuer,
		Audience: cfg.TokenAudience,
		TTL:      cfg.TokenTTL,
	})
	if err != nil {
		return nil, nil, err
	}

	var stateStore handshake.Store
	if infra.Redis != nil {
		stateStore = handshake.NewRedisStore(infra.Redis.Client)
	} else {
		stateStore = handshake.NewMemoryStore()
	}

	var providers []provider.OAuthProvider

	if cfg.GoogleClientID != "" {
		googleProvider, err := google.New(
			ctx,
			cfg.GoogleClientID,
			cfg.GoogleClientSecret,
			cfg.GoogleRedirectURL,
		)
		if err != nil {
			return nil, nil, err
		}
		providers = append(providers, googleProvider)
	} else {
		// Validate() already requires google settings outside development.
		logger.Warn("google oauth not configured, federation disabled", nil)
	}

	registry := provider.NewRegistry(providers...)

	authHandler := handler.NewHandler(
		registry,
		userStore,
		tokenService,
		stateStore,
		cfg.FrontendURL,
		cfg.MinPasswordLength,
	)

	authMiddleware := middleware.NewAuthMiddleware(tokenService)

	// ----------------------------
	// Router
	// ----------------------------

	router := gin.New()
	router.Use(gin.Recovery())

	// ----------------------------
	// Routes
	// ----------------------------

	authHandler.RegisterRoutes(router, middleware.GinRequireAuth(authMiddleware))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ----------------------------
	// Cleanup
	// ----------------------------

	return router, func() error {
		return infra.DB.Close()
	}, nil
}
