package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/KesOnPurpose/mind-insurance-standalone-sub014/internal/models"
)

const (
	inflightKeyPrefix = "engagement:inflight:"
	// inflightTTL bounds how long a crashed invocation can hold a key.
	inflightTTL = 2 * time.Minute
)

// InflightGuard keeps two overlapping invocations of the same trigger from
// both reaching the transport for the same (protocol, trigger, day). The
// notification log's unique index is the durable at-most-once guard; this
// is the short-lived gate in front of the transport call itself. A nil
// Redis client disables the guard and leaves only the log's guarantee.
type InflightGuard struct {
	client redis.UniversalClient
	logger *zap.Logger
}

func NewInflightGuard(client redis.UniversalClient, logger *zap.Logger) *InflightGuard {
	return &InflightGuard{client: client, logger: logger}
}

func inflightKey(protocolID string, trigger models.TriggerType, day int) string {
	return fmt.Sprintf("%s%s:%s:%d", inflightKeyPrefix, protocolID, trigger, day)
}

// Acquire takes the in-flight key. It returns false when another dispatch
// currently holds it. Redis being unreachable degrades to acquired: the
// DB guard still holds, and a paused scheduler would be worse than a rare
// duplicate transport attempt.
func (g *InflightGuard) Acquire(ctx context.Context, protocolID string, trigger models.TriggerType, day int) bool {
	if g.client == nil {
		return true
	}
	ok, err := g.client.SetNX(ctx, inflightKey(protocolID, trigger, day), 1, inflightTTL).Result()
	if err != nil {
		g.logger.Warn("In-flight guard unavailable, proceeding on DB guard only",
			zap.String("protocol_id", protocolID), zap.Error(err))
		return true
	}
	return ok
}

// Release frees the key once the attempt is logged. The TTL covers the
// crash case where Release never runs.
func (g *InflightGuard) Release(ctx context.Context, protocolID string, trigger models.TriggerType, day int) {
	if g.client == nil {
		return
	}
	if err := g.client.Del(ctx, inflightKey(protocolID, trigger, day)).Err(); err != nil {
		g.logger.Warn("Failed to release in-flight key",
			zap.String("protocol_id", protocolID), zap.Error(err))
	}
}
