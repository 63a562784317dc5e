package redis

import (
	"context"
	"encoding/json"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/claritytasks/backend/domain"
	"github.com/claritytasks/backend/repository"
)

const scoreboardKey = "leaderboard:global"

type scoreboardCache struct {
	client *redislib.Client
	ttl    time.Duration
}

// NewScoreboardCache stores the computed leaderboard in Redis. The TTL is a
// safety net; the refresher overwrites the key on every task change anyway.
func NewScoreboardCache(client *redislib.Client, ttl time.Duration) repository.ScoreboardCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &scoreboardCache{client: client, ttl: ttl}
}

func (c *scoreboardCache) Get(ctx context.Context) ([]domain.UserScore, error) {
	result, err := c.client.Get(ctx, scoreboardKey).Result()
	if err != nil {
		if err == redislib.Nil {
			return nil, domain.NewError(domain.ErrCodeNotFound, "leaderboard not cached")
		}
		return nil, err
	}

	var board []domain.UserScore
	if err := json.Unmarshal([]byte(result), &board); err != nil {
		return nil, err
	}
	return board, nil
}

func (c *scoreboardCache) Set(ctx context.Context, board []domain.UserScore) error {
	payload, err := json.Marshal(board)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, scoreboardKey, payload, c.ttl).Err()
}
