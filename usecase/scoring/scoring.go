// Package scoring derives leaderboard scores and weekly progress summaries
// from the task collection. Every computation replays the rules over the
// full set rather than maintaining incremental accumulators, so redundant
// or out-of-order refreshes always converge on the same result.
package scoring

import (
	"math"
	"strings"
	"time"

	"github.com/claritytasks/backend/domain"
)

// DisplayName derives a presentation name from an owner identity: the
// mailbox local part before the first '@', or the whole string when there
// is none.
func DisplayName(owner string) string {
	if at := strings.Index(owner, "@"); at >= 0 {
		return owner[:at]
	}
	return owner
}

// Leaderboard scores every distinct owner in the set: +5 per task, +15 for
// a done task, -2 for an overdue one. Rows come back sorted by score
// descending; ties keep the order owners were first observed in.
func Leaderboard(tasks []domain.Task) []domain.UserScore {
	scores := make(map[string]int)
	var order []string

	for _, t := range tasks {
		if t.Owner == "" {
			continue
		}
		if _, seen := scores[t.Owner]; !seen {
			order = append(order, t.Owner)
		}
		scores[t.Owner] += domain.ScorePerTask
		switch t.Status {
		case domain.StatusDone:
			scores[t.Owner] += domain.ScoreDoneBonus
		case domain.StatusOverdue:
			scores[t.Owner] += domain.ScoreOverduePen
		}
	}

	board := make([]domain.UserScore, 0, len(order))
	for _, owner := range order {
		board = append(board, domain.UserScore{
			Owner:       owner,
			DisplayName: DisplayName(owner),
			Score:       scores[owner],
		})
	}
	stableSortByScore(board)
	return board
}

func stableSortByScore(board []domain.UserScore) {
	// Insertion sort keeps input order on equal scores without pulling in
	// an extra comparator allocation for the tiny boards involved here.
	for i := 1; i < len(board); i++ {
		for j := i; j > 0 && board[j].Score > board[j-1].Score; j-- {
			board[j], board[j-1] = board[j-1], board[j]
		}
	}
}

// weekWindow returns the current calendar week as [most recent Sunday
// 00:00, next Sunday 00:00) in now's location. The upper bound is
// exclusive.
func weekWindow(now time.Time) (time.Time, time.Time) {
	daysSinceSunday := int(now.Weekday())
	start := time.Date(now.Year(), now.Month(), now.Day()-daysSinceSunday, 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 0, 7)
}

func inWindow(t *time.Time, start, end time.Time) bool {
	return t != nil && !t.Before(start) && t.Before(end)
}

// WeeklyProgress summarizes one user's task set against the calendar week
// containing now: how many tasks were opened, how many were finished, how
// many were both, and what share of this week's new tasks got done.
func WeeklyProgress(tasks []domain.Task, now time.Time) domain.WeeklyProgress {
	start, end := weekWindow(now)
	progress := domain.WeeklyProgress{WeekStart: start, WeekEnd: end}

	for _, t := range tasks {
		created := t.CreatedAt
		submitted := inWindow(&created, start, end)
		done := t.Status == domain.StatusDone && inWindow(t.CompletedAt, start, end)

		if submitted {
			progress.Submitted++
		}
		if done {
			progress.Done++
		}
		if submitted && done {
			progress.CreatedAndDone++
		}
	}

	progress.OldTasksCompleted = progress.Done - progress.CreatedAndDone
	if progress.Submitted > 0 {
		pct := int(math.Round(100 * float64(progress.CreatedAndDone) / float64(progress.Submitted)))
		if pct > 100 {
			pct = 100
		}
		if pct < 0 {
			pct = 0
		}
		progress.CompletionPct = pct
	}
	return progress
}
