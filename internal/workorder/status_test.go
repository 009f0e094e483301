package workorder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want Status
	}{
		{"Completed", StatusDone},
		{"done", StatusDone},
		{"CLOSED", StatusDone},
		{"Review", StatusReview},
		{"in review", StatusReview},
		{"In_Progress", StatusInProgress},
		{"started", StatusInProgress},
		{"Working on it", StatusInProgress},
		{"", StatusActive},
		{"   ", StatusActive},
		{"Pending", StatusActive},
		{"something odd", StatusActive},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := NormalizeStatus(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, NormalizeStatus(string(got)), "canonical label must map to itself")
		})
	}
}

func TestIsOverdue(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	assert.False(t, IsOverdue(&past, "done", now), "done is never overdue")
	assert.False(t, IsOverdue(&past, "Completed", now))
	assert.True(t, IsOverdue(&past, "Pending", now))
	assert.True(t, IsOverdue(&past, "in progress", now))
	assert.False(t, IsOverdue(&future, "active", now))
	assert.False(t, IsOverdue(nil, "active", now), "no due date is never overdue")
	assert.False(t, IsOverdue(&now, "active", now), "due exactly now is not yet overdue")
}

func TestGating(t *testing.T) {
	assert.True(t, Completable(StatusActive))
	assert.True(t, Completable(StatusInProgress))
	assert.False(t, Completable(StatusReview))
	assert.False(t, Completable(StatusDone))

	assert.True(t, Reviewable(StatusReview))
	assert.False(t, Reviewable(StatusActive))
	assert.False(t, Reviewable(StatusDone))
}

func TestPendingYesterdayScenario(t *testing.T) {
	now := time.Now()
	yesterday := now.Add(-24 * time.Hour)

	s := NormalizeStatus("Pending")
	assert.Equal(t, StatusActive, s)
	assert.True(t, IsOverdue(&yesterday, "Pending", now))
	assert.True(t, Completable(s))
	assert.False(t, Reviewable(s))
}

func TestNormalizePriority(t *testing.T) {
	tests := []struct {
		raw   string
		want  Priority
		known bool
	}{
		{"Critical", PriorityCritical, true},
		{"CRIT", PriorityCritical, true},
		{"high", PriorityHigh, true},
		{"Very High", PriorityHigh, true},
		{"low", PriorityLow, true},
		{"Medium", PriorityMedium, true},
		{"", PriorityMedium, true},
		{"p1", PriorityMedium, false},
		{"urgent-ish", PriorityMedium, false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, known := ParsePriority(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.known, known)
			assert.Equal(t, got, NormalizePriority(tt.raw))
		})
	}
}
