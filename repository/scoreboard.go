package repository

import (
	"context"

	"github.com/claritytasks/backend/domain"
)

// ScoreboardCache stores the most recently computed leaderboard so reads do
// not have to replay the scoring rules on every request. A cache miss is
// reported as domain.ErrCodeNotFound; callers fall back to a live recompute.
type ScoreboardCache interface {
	Get(ctx context.Context) ([]domain.UserScore, error)
	Set(ctx context.Context, board []domain.UserScore) error
}
