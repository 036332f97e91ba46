package limiter

import (
	"context"
	"fmt"
	"time"

	"github.com/flowhook/core/internal/models"
	redisc "github.com/flowhook/core/internal/pkg/redis"
)

// Machine-readable reasons surfaced on 429 responses.
const (
	ReasonMinuteExceeded = "rate_limit_minute_exceeded"
	ReasonHourExceeded   = "rate_limit_hour_exceeded"
)

// Service enforces per-config, per-source rate ceilings with fixed
// Redis windows (INCR + PEXPIRE). Counters are the only record of
// rate-limited bursts; no event rows are written for them.
type Service struct {
	rc *redisc.Client
}

func NewService(rc *redisc.Client) *Service { return &Service{rc: rc} }

// Check enforces both ceilings from the config. A ceiling of zero or
// below disables that window.
func (s *Service) Check(ctx context.Context, cfg *models.WebhookConfigModel, sourceIP string) (bool, string, error) {
	now := time.Now()

	if cfg.RateLimitPerMinute > 0 {
		ok, err := s.bump(ctx, minuteKey(cfg.ID, sourceIP, now), int64(cfg.RateLimitPerMinute), time.Minute)
		if err != nil {
			return false, "", err
		}
		if !ok {
			return false, ReasonMinuteExceeded, nil
		}
	}

	if cfg.RateLimitPerHour > 0 {
		ok, err := s.bump(ctx, hourKey(cfg.ID, sourceIP, now), int64(cfg.RateLimitPerHour), time.Hour)
		if err != nil {
			return false, "", err
		}
		if !ok {
			return false, ReasonHourExceeded, nil
		}
	}

	return true, "", nil
}

func (s *Service) bump(ctx context.Context, key string, max int64, window time.Duration) (bool, error) {
	count, err := s.rc.Raw().Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		// Slack past the window edge so a counter never outlives its
		// window unexpired.
		s.rc.Raw().PExpire(ctx, key, window+time.Second)
	}
	return count <= max, nil
}

func minuteKey(configID, ip string, now time.Time) string {
	return fmt.Sprintf("fh:rl:%s:%s:m:%d", configID, ip, now.Unix()/60)
}

func hourKey(configID, ip string, now time.Time) string {
	return fmt.Sprintf("fh:rl:%s:%s:h:%d", configID, ip, now.Unix()/3600)
}
