package dedup

import (
	"context"
	"fmt"
	"time"

	redisc "github.com/flowhook/core/internal/pkg/redis"
)

const defaultWindow = 5 * time.Minute

// Service tracks recently seen idempotency keys per config. Membership
// is a Redis SETNX with the dedup window as TTL, so the first writer
// wins atomically across concurrent deliveries.
type Service struct {
	rc *redisc.Client
}

func NewService(rc *redisc.Client) *Service { return &Service{rc: rc} }

// FirstSeen reports whether (configID, eventID) has not been delivered
// within the window. A false return means duplicate.
func (s *Service) FirstSeen(ctx context.Context, configID, eventID string, window time.Duration) (bool, error) {
	if window <= 0 {
		window = defaultWindow
	}
	return s.rc.SetNX(ctx, key(configID, eventID), 1, window)
}

func key(configID, eventID string) string {
	return fmt.Sprintf("fh:dedup:%s:%s", configID, eventID)
}
