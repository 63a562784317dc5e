package domain

import "time"

// Scoring weights applied per task when building the leaderboard.
const (
	ScorePerTask    = 5
	ScoreDoneBonus  = 15
	ScoreOverduePen = -2
)

// UserScore is one leaderboard row. It is derived from the task set on every
// change and never persisted as its own record.
type UserScore struct {
	Owner       string `json:"owner"`
	DisplayName string `json:"display_name"`
	Score       int    `json:"score"`
}

// WeeklyProgress summarizes one user's output for the current calendar week.
// The window is [most recent Sunday 00:00, next Sunday 00:00) local time;
// the upper bound is exclusive.
type WeeklyProgress struct {
	WeekStart         time.Time `json:"week_start"`
	WeekEnd           time.Time `json:"week_end"`
	Submitted         int       `json:"submitted"`
	Done              int       `json:"done"`
	CreatedAndDone    int       `json:"created_and_done"`
	OldTasksCompleted int       `json:"old_tasks_completed"`
	CompletionPct     int       `json:"completion_pct"`
}
