package workorder

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uncleisme/mobile-app/internal/models"
)

func assigned(status string, to *uuid.UUID) models.WorkOrder {
	return models.WorkOrder{ID: uuid.New(), Status: status, AssignedTo: to}
}

func TestCountByStatus(t *testing.T) {
	list := []models.WorkOrder{
		{Status: "Pending"},
		{Status: "in progress"},
		{Status: "review"},
		{Status: "Completed"},
		{Status: "closed"},
		{Status: ""},
	}
	c := CountByStatus(list)
	assert.Equal(t, Counts{ActivePending: 3, Review: 1, Done: 2}, c)
	assert.Equal(t, len(list), c.Total())

	assert.Equal(t, 0, CountByStatus(nil).Total())
}

func TestAggregateByTechnician(t *testing.T) {
	alice := uuid.New()
	bob := uuid.New()
	carol := uuid.New()

	list := []models.WorkOrder{
		assigned("active", &alice),
		assigned("review", &alice),
		assigned("done", &alice),
		assigned("active", &bob),
		assigned("in_progress", &bob),
		assigned("done", &bob),
		assigned("active", &carol),
		assigned("active", nil),
		assigned("review", nil),
	}
	names := map[string]string{
		alice.String(): "Alice",
		bob.String():   "Bob",
	}

	got := AggregateByTechnician(list, names)
	require.Len(t, got, 4)

	assert.Equal(t, "Alice", got[0].Name, "ties on total sort by name")
	assert.Equal(t, "Bob", got[1].Name)
	assert.Equal(t, Unassigned, got[2].TechnicianID)
	assert.Equal(t, carol.String(), got[3].Name, "unknown names fall back to the id")

	assert.Equal(t, 2, got[1].Active, "in progress folds into active")

	sum := 0
	for _, g := range got {
		assert.Equal(t, g.Active+g.Review+g.Done, g.Total)
		sum += g.Total
	}
	assert.Equal(t, len(list), sum)
}

func TestSummarizeAndFilter(t *testing.T) {
	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)
	today := now.Add(3 * time.Hour)

	list := []models.WorkOrder{
		{Status: "Pending", DueDate: &yesterday},
		{Status: "done", DueDate: &yesterday},
		{Status: "in progress", DueDate: &today},
		{Status: "review"},
	}

	s := Summarize(list, now)
	assert.Equal(t, 1, s.Overdue)
	assert.Equal(t, 1, s.DueToday)
	assert.Equal(t, 4, s.Counts.Total())

	assert.Len(t, Filter(list, "all", now), 4)
	assert.Len(t, Filter(list, "overdue", now), 1)
	assert.Len(t, Filter(list, "in_progress", now), 1)
	assert.Len(t, Filter(list, "done", now), 1)
	assert.Len(t, Filter(list, "active", now), 1)
}
