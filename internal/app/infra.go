package app

import (
	"context"
	"database/sql"

	"auth-gateway/internal/config"
	"auth-gateway/internal/db"
	"auth-gateway/internal/logger"
	"auth-gateway/internal/redis"

	_ "github.com/lib/pq"
)

type Infra struct {
	DB    *db.DB
	Redis *redis.Client
}

func setupInfra(ctx context.Context, cfg config.Config) (*Infra, error) {
	sqlDB, err := sql.Open("postgres", cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, err
	}

	if err := db.RunGatewayMigration(ctx, sqlDB); err != nil {
		return nil, err
	}

	logger.Info("database ready", nil)

	redisClient, err := redis.New(cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		// Redis only backs the one-time handshake guard; a single
		// development instance can run on the in-memory fallback.
		if !cfg.IsDevelopment() {
			return nil, err
		}
		logger.Warn("redis unavailable, using in-memory handshake store", map[string]any{
			"error": err.Error(),
		})
		redisClient = nil
	} else {
		logger.Info("redis ready", nil)
	}

	return &Infra{
		DB:    &db.DB{DB: sqlDB},
		Redis: redisClient,
	}, nil
}
