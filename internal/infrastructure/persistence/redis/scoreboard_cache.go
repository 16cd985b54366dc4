package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/learnpath-hub/reward-service/internal/domain/reward"
)

// ══════════════════════════════════════════════════════════════════════════════
// SCOREBOARD CACHE
// One sorted set per course: member = user id, score = power value. The
// reward engine refreshes the set after every save and drops it when the
// course is deleted. Entries expire on their own so a stale mirror cannot
// outlive a retired course forever.
// ══════════════════════════════════════════════════════════════════════════════

// ScoreboardCache mirrors per-course power rankings in Redis sorted sets.
type ScoreboardCache struct {
	client *Client
	ttl    time.Duration
}

// NewScoreboardCache creates a scoreboard cache. A non-positive ttl disables
// expiry.
func NewScoreboardCache(client *Client, ttl time.Duration) *ScoreboardCache {
	return &ScoreboardCache{client: client, ttl: ttl}
}

func scoreboardKey(courseID uuid.UUID) string {
	return PrefixScoreboard + courseID.String()
}

// Update writes one user's power value into the course's sorted set.
func (c *ScoreboardCache) Update(ctx context.Context, courseID, userID uuid.UUID, powerValue int) error {
	key := scoreboardKey(courseID)

	if err := c.client.Redis().ZAdd(ctx, key, redis.Z{
		Score:  float64(powerValue),
		Member: userID.String(),
	}).Err(); err != nil {
		return fmt.Errorf("redis: update scoreboard %s: %w", courseID, err)
	}

	if c.ttl > 0 {
		if err := c.client.Redis().Expire(ctx, key, c.ttl).Err(); err != nil {
			return fmt.Errorf("redis: refresh scoreboard ttl %s: %w", courseID, err)
		}
	}
	return nil
}

// RemoveCourse drops the course's sorted set entirely.
func (c *ScoreboardCache) RemoveCourse(ctx context.Context, courseID uuid.UUID) error {
	if err := c.client.Redis().Del(ctx, scoreboardKey(courseID)).Err(); err != nil {
		return fmt.Errorf("redis: remove scoreboard %s: %w", courseID, err)
	}
	return nil
}

// Top reads the highest-ranked users of a course from the mirror. Callers
// that need guaranteed freshness should query the repository instead.
func (c *ScoreboardCache) Top(ctx context.Context, courseID uuid.UUID, limit int) ([]reward.ScoreboardItem, error) {
	if limit <= 0 {
		limit = 10
	}

	entries, err := c.client.Redis().ZRevRangeWithScores(ctx, scoreboardKey(courseID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: read scoreboard %s: %w", courseID, err)
	}

	items := make([]reward.ScoreboardItem, 0, len(entries))
	for _, entry := range entries {
		member, ok := entry.Member.(string)
		if !ok {
			continue
		}
		userID, err := uuid.Parse(member)
		if err != nil {
			continue
		}
		items = append(items, reward.ScoreboardItem{
			UserID:     userID,
			PowerValue: int(entry.Score),
		})
	}
	return items, nil
}
