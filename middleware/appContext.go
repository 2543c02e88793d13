package middleware

import (
	"context"

	"business-directory-backend/token"

	"github.com/redis/go-redis/v9"
)

// AppContext bundles the dependencies middleware needs
type AppContext struct {
	PasetoMaker token.Maker
	Ctx         context.Context
	RedisClient *redis.Client
}
