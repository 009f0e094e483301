// Package workorder derives dashboard state from raw work-order rows:
// canonical status and priority, overdue flags, the next job and aggregates.
package workorder

import (
	"strings"
	"time"
)

type Status string

const (
	StatusActive     Status = "active"
	StatusInProgress Status = "in_progress"
	StatusReview     Status = "review"
	StatusDone       Status = "done"
)

// NormalizeStatus maps free-text database status onto the four canonical states.
// Matching is by substring, first hit wins; anything unrecognised is active.
func NormalizeStatus(raw string) Status {
	v := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case v == "":
		return StatusActive
	case strings.Contains(v, "done"), strings.Contains(v, "complete"), strings.Contains(v, "closed"):
		return StatusDone
	case strings.Contains(v, "review"):
		return StatusReview
	case strings.Contains(v, "progress"), strings.Contains(v, "started"), strings.Contains(v, "working"):
		return StatusInProgress
	default:
		return StatusActive
	}
}

// IsOverdue is computed against now and never stored. A work order without a
// due date is never overdue.
func IsOverdue(due *time.Time, rawStatus string, now time.Time) bool {
	if due == nil || due.IsZero() {
		return false
	}
	if NormalizeStatus(rawStatus) == StatusDone {
		return false
	}
	return due.Before(now)
}

// Completable reports whether a technician may submit the order for review.
func Completable(s Status) bool { return s == StatusActive || s == StatusInProgress }

// Reviewable reports whether an admin may approve or send back the order.
func Reviewable(s Status) bool { return s == StatusReview }

// Label is the badge text for a status.
func (s Status) Label() string {
	switch s {
	case StatusInProgress:
		return "In Progress"
	case StatusReview:
		return "Review"
	case StatusDone:
		return "Done"
	default:
		return "Active"
	}
}
