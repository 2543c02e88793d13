package controllers

import (
	"business-directory-backend/duplicates/services"

	"github.com/redis/go-redis/v9"
)

// DuplicateController bundles the duplicate review surface's dependencies.
type DuplicateController struct {
	GroupBuilder *services.GroupBuilder
	MergeEngine  *services.MergeEngine
	RedisClient  *redis.Client
}
