package scoring

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/claritytasks/backend/domain"
	"github.com/claritytasks/backend/repository"
)

// Service answers leaderboard and progress queries, keeping the computed
// board in a cache that the change hub invalidates by overwrite.
type Service struct {
	tasks  repository.TaskRepository
	cache  repository.ScoreboardCache
	logger *zap.Logger

	Now func() time.Time
}

func NewService(tasks repository.TaskRepository, cache repository.ScoreboardCache, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		tasks:  tasks,
		cache:  cache,
		logger: logger,
		Now:    time.Now,
	}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// ComputeLeaderboard serves the cached board when one exists and falls back
// to a live recompute (priming the cache) otherwise.
func (s *Service) ComputeLeaderboard(ctx context.Context) ([]domain.UserScore, error) {
	if s.cache != nil {
		board, err := s.cache.Get(ctx)
		if err == nil {
			return board, nil
		}
		if !domain.IsDomainError(err, domain.ErrCodeNotFound) {
			s.logger.Warn("leaderboard cache read failed", zap.Error(err))
		}
	}
	return s.RefreshLeaderboard(ctx)
}

// RefreshLeaderboard replays the scoring rules over the full task
// collection and stores the result. Safe to run redundantly: each call
// starts from the authoritative set.
func (s *Service) RefreshLeaderboard(ctx context.Context) ([]domain.UserScore, error) {
	tasks, err := s.tasks.List(ctx, repository.TaskFilter{})
	if err != nil {
		return nil, err
	}
	board := Leaderboard(tasks)
	if s.cache != nil {
		if err := s.cache.Set(ctx, board); err != nil {
			s.logger.Warn("leaderboard cache write failed", zap.Error(err))
		}
	}
	return board, nil
}

// OwnerScore computes the personal score summary for one owner.
func (s *Service) OwnerScore(ctx context.Context, owner string) (domain.UserScore, error) {
	if owner == "" {
		return domain.UserScore{}, domain.ErrUnauthorized
	}
	tasks, err := s.tasks.List(ctx, repository.TaskFilter{Owner: owner})
	if err != nil {
		return domain.UserScore{}, err
	}
	board := Leaderboard(tasks)
	if len(board) == 0 {
		return domain.UserScore{Owner: owner, DisplayName: DisplayName(owner)}, nil
	}
	return board[0], nil
}

// ComputeWeeklyProgress summarizes the owner's current calendar week.
func (s *Service) ComputeWeeklyProgress(ctx context.Context, owner string) (domain.WeeklyProgress, error) {
	if owner == "" {
		return domain.WeeklyProgress{}, domain.ErrUnauthorized
	}
	tasks, err := s.tasks.List(ctx, repository.TaskFilter{Owner: owner})
	if err != nil {
		return domain.WeeklyProgress{}, err
	}
	return WeeklyProgress(tasks, s.now()), nil
}
