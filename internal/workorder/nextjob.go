package workorder

import (
	"sort"
	"time"

	"github.com/uncleisme/mobile-app/internal/models"
)

// StatusRank orders statuses for next-job selection; lower ranks first.
func StatusRank(s Status) int {
	switch s {
	case StatusInProgress:
		return 0
	case StatusReview:
		return 3
	case StatusDone:
		return 4
	default:
		return 1
	}
}

// SortForNextJob sorts in place by (rank asc, created desc, due asc).
// Orders without a due date sort after those with one on the final key.
func SortForNextJob(list []models.WorkOrder) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		ra, rb := StatusRank(NormalizeStatus(a.Status)), StatusRank(NormalizeStatus(b.Status))
		if ra != rb {
			return ra < rb
		}
		if !a.CreatedDate.Equal(b.CreatedDate) {
			return a.CreatedDate.After(b.CreatedDate)
		}
		switch {
		case a.DueDate == nil && b.DueDate == nil:
			return false
		case a.DueDate == nil:
			return false
		case b.DueDate == nil:
			return true
		default:
			return a.DueDate.Before(*b.DueDate)
		}
	})
}

// DueOn reports whether due falls on the calendar day of now, in now's location.
func DueOn(due *time.Time, now time.Time) bool {
	if due == nil || due.IsZero() {
		return false
	}
	d := due.In(now.Location())
	y1, m1, d1 := d.Date()
	y2, m2, d2 := now.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// Today returns the open orders due on now's calendar day, in input order.
func Today(list []models.WorkOrder, now time.Time) []models.WorkOrder {
	out := make([]models.WorkOrder, 0)
	for _, wo := range list {
		if NormalizeStatus(wo.Status) == StatusDone {
			continue
		}
		if DueOn(wo.DueDate, now) {
			out = append(out, wo)
		}
	}
	return out
}

// SelectNextJob picks the first of today's orders in next-job order, else the
// first of all orders, else nothing. The input slice is left untouched.
func SelectNextJob(list []models.WorkOrder, now time.Time) (models.WorkOrder, bool) {
	if today := Today(list, now); len(today) > 0 {
		SortForNextJob(today)
		return today[0], true
	}
	if len(list) == 0 {
		return models.WorkOrder{}, false
	}
	all := make([]models.WorkOrder, len(list))
	copy(all, list)
	SortForNextJob(all)
	return all[0], true
}

// CurrentJob is SelectNextJob with a done pick reported as no job.
func CurrentJob(list []models.WorkOrder, now time.Time) (models.WorkOrder, bool) {
	wo, ok := SelectNextJob(list, now)
	if !ok || NormalizeStatus(wo.Status) == StatusDone {
		return models.WorkOrder{}, false
	}
	return wo, true
}
