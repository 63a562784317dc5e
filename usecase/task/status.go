package task

import (
	"math"
	"time"

	"github.com/claritytasks/backend/domain"
)

// startOfDay truncates a timestamp to local midnight. All due-date
// comparisons are calendar-day comparisons; time of day never matters.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// dueDay re-expresses the due date's calendar day as midnight in loc. Due
// dates arrive anchored to whatever zone the client wrote them in (bare
// dates parse at UTC midnight); comparing calendars only works when both
// sides use the engine clock's location.
func dueDay(due time.Time, loc *time.Location) time.Time {
	return time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, loc)
}

// statusForDueDate applies the creation/edit rule: a due date strictly
// before today makes the task overdue, anything else (including no due
// date) leaves it pending.
func statusForDueDate(due *time.Time, today time.Time) domain.TaskStatus {
	if due != nil && dueDay(*due, today.Location()).Before(today) {
		return domain.StatusOverdue
	}
	return domain.StatusPending
}

// overdueDays returns how many whole calendar days the due date lies in the
// past, never negative. Rounding absorbs DST offsets in the subtraction.
func overdueDays(due *time.Time, today time.Time) int {
	if due == nil {
		return 0
	}
	days := int(math.Round(today.Sub(dueDay(*due, today.Location())).Hours() / 24))
	if days < 0 {
		return 0
	}
	return days
}
