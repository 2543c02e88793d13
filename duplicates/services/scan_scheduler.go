package services

import (
	"context"
	"encoding/json"
	"time"

	imports "business-directory-backend/imports/services"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	scanLockKey     = "duplicates:scan:running"
	scanStatsKey    = "duplicates:scan:stats"
	scanLockTTL     = 2 * time.Hour
	scanStatsTTL    = 48 * time.Hour
	defaultScanSpec = "0 2 * * *" // nightly at 02:00
)

// ScanScheduler runs a nightly duplicate scan over the whole directory and
// caches the resulting stats snapshot in Redis for the dashboard. A Redis
// lock skips overlapping runs.
type ScanScheduler struct {
	builder *GroupBuilder
	redis   *redis.Client
	logger  *zap.Logger
	cron    *cron.Cron
}

func NewScanScheduler(builder *GroupBuilder, redisClient *redis.Client, logger *zap.Logger) *ScanScheduler {
	return &ScanScheduler{
		builder: builder,
		redis:   redisClient,
		logger:  logger,
		cron:    cron.New(),
	}
}

// Start registers the nightly scan and starts the cron loop.
func (s *ScanScheduler) Start(spec string) error {
	if spec == "" {
		spec = defaultScanSpec
	}
	if _, err := s.cron.AddFunc(spec, s.RunScan); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("Duplicate scan scheduled", zap.String("spec", spec))
	return nil
}

func (s *ScanScheduler) Stop() {
	s.cron.Stop()
}

// RunScan executes one scan pass. Safe to call manually.
func (s *ScanScheduler) RunScan() {
	ctx := context.Background()

	acquired, err := s.redis.SetNX(ctx, scanLockKey, "true", scanLockTTL).Result()
	if err != nil {
		s.logger.Error("Failed to acquire duplicate scan lock", zap.Error(err))
		return
	}
	if !acquired {
		s.logger.Info("Duplicate scan already running, skipping")
		return
	}
	defer s.redis.Del(ctx, scanLockKey)

	started := time.Now()
	_, stats, err := s.builder.BuildGroups(imports.StrictMatch, map[string]string{}, "unresolved")
	if err != nil {
		s.logger.Error("Scheduled duplicate scan failed", zap.Error(err))
		return
	}

	if snapshot, err := json.Marshal(stats); err == nil {
		if err := s.redis.Set(ctx, scanStatsKey, snapshot, scanStatsTTL).Err(); err != nil {
			s.logger.Warn("Failed to cache duplicate scan stats", zap.Error(err))
		}
	}

	s.logger.Info("Scheduled duplicate scan finished",
		zap.Int("unresolved_groups", stats.UnresolvedGroups),
		zap.Int("records_affected", stats.RecordsAffected),
		zap.Duration("took", time.Since(started)),
	)
}

// CachedStats returns the last scan snapshot, or nil when none is cached.
func CachedStats(ctx context.Context, redisClient *redis.Client) (*GroupStats, error) {
	data, err := redisClient.Get(ctx, scanStatsKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var stats GroupStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}
