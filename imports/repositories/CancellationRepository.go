package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// cancelKeyTTL bounds how long an unobserved cancel flag lingers after a job
// finished.
const cancelKeyTTL = 24 * time.Hour

// RedisCancellationStore carries the cooperative cancel flag for running
// import jobs. Stored in Redis so any backend instance can request a cancel
// for a job processed by another.
type RedisCancellationStore struct {
	client *redis.Client
}

func NewRedisCancellationStore(client *redis.Client) *RedisCancellationStore {
	return &RedisCancellationStore{client: client}
}

func cancelKey(jobID uuid.UUID) string {
	return "import:cancel:" + jobID.String()
}

func (s *RedisCancellationStore) RequestCancel(ctx context.Context, jobID uuid.UUID) error {
	return s.client.Set(ctx, cancelKey(jobID), "true", cancelKeyTTL).Err()
}

func (s *RedisCancellationStore) IsCancelRequested(ctx context.Context, jobID uuid.UUID) (bool, error) {
	value, err := s.client.Get(ctx, cancelKey(jobID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return value == "true", nil
}

func (s *RedisCancellationStore) ClearCancel(ctx context.Context, jobID uuid.UUID) error {
	return s.client.Del(ctx, cancelKey(jobID)).Err()
}
