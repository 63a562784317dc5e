package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/claritytasks/backend/internal/services/taskhub"
	"github.com/claritytasks/backend/usecase/scoring"
)

// ScoreboardRefresher holds a hub subscription and rebuilds the cached
// leaderboard whenever any task changes. Because every rebuild replays the
// full task set, duplicate or reordered notifications converge on the same
// board.
type ScoreboardRefresher struct {
	scores *scoring.Service
	hub    *taskhub.Hub
	sub    *taskhub.Subscription
	done   chan struct{}
	logger *zap.Logger
}

func NewScoreboardRefresher(scores *scoring.Service, hub *taskhub.Hub, logger *zap.Logger) *ScoreboardRefresher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScoreboardRefresher{
		scores: scores,
		hub:    hub,
		done:   make(chan struct{}),
		logger: logger,
	}
}

func (r *ScoreboardRefresher) Start() {
	r.sub = r.hub.Subscribe()
	go r.loop()
	r.logger.Info("scoreboard refresher started")
}

// Stop cancels the hub subscription and waits for the worker to drain.
func (r *ScoreboardRefresher) Stop(ctx context.Context) {
	if r.sub == nil {
		return
	}
	r.sub.Cancel()
	select {
	case <-r.done:
	case <-ctx.Done():
	}
	r.logger.Info("scoreboard refresher stopped")
}

func (r *ScoreboardRefresher) loop() {
	defer close(r.done)
	for change := range r.sub.C {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if _, err := r.scores.RefreshLeaderboard(ctx); err != nil {
			r.logger.Warn("leaderboard refresh failed",
				zap.Uint64("seq", change.Seq), zap.Error(err))
		}
		cancel()
	}
}
