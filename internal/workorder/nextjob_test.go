package workorder

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uncleisme/mobile-app/internal/models"
)

func wo(status string, created time.Time, due *time.Time) models.WorkOrder {
	return models.WorkOrder{ID: uuid.New(), Status: status, CreatedDate: created, DueDate: due}
}

func ptr(t time.Time) *time.Time { return &t }

func TestSelectNextJob_RankDominates(t *testing.T) {
	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	t0 := now.AddDate(0, 0, -3)
	t1 := now.AddDate(0, 0, 4)
	t2 := now.AddDate(0, 0, -1)

	done := wo("done", now.AddDate(0, -1, 0), &t0)
	inProgress := wo("in_progress", now.AddDate(0, -2, 0), &t1)
	active := wo("active", t2, nil)

	orders := [][]models.WorkOrder{
		{done, inProgress, active},
		{active, done, inProgress},
		{inProgress, active, done},
		{active, inProgress, done},
	}
	for _, list := range orders {
		got, ok := SelectNextJob(list, now)
		require.True(t, ok)
		assert.Equal(t, inProgress.ID, got.ID)
	}
}

func TestSelectNextJob_PrefersToday(t *testing.T) {
	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	laterToday := now.Add(6 * time.Hour)
	nextWeek := now.AddDate(0, 0, 7)

	inProgressLater := wo("in progress", now.AddDate(0, 0, -1), &nextWeek)
	activeToday := wo("pending", now.AddDate(0, 0, -5), &laterToday)

	got, ok := SelectNextJob([]models.WorkOrder{inProgressLater, activeToday}, now)
	require.True(t, ok)
	assert.Equal(t, activeToday.ID, got.ID)
}

func TestSelectNextJob_TieBreaks(t *testing.T) {
	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	older := wo("active", now.AddDate(0, 0, -10), ptr(now.AddDate(0, 0, 2)))
	newer := wo("active", now.AddDate(0, 0, -1), ptr(now.AddDate(0, 0, 9)))

	got, ok := SelectNextJob([]models.WorkOrder{older, newer}, now)
	require.True(t, ok)
	assert.Equal(t, newer.ID, got.ID, "most recently created wins among equal rank")

	created := now.AddDate(0, 0, -2)
	dueLate := wo("active", created, ptr(now.AddDate(0, 0, 5)))
	dueSoon := wo("active", created, ptr(now.AddDate(0, 0, 3)))
	noDue := wo("active", created, nil)

	got, ok = SelectNextJob([]models.WorkOrder{noDue, dueLate, dueSoon}, now)
	require.True(t, ok)
	assert.Equal(t, dueSoon.ID, got.ID, "earliest due date breaks remaining ties")
}

func TestSelectNextJob_Empty(t *testing.T) {
	_, ok := SelectNextJob(nil, time.Now())
	assert.False(t, ok)
}

func TestSelectNextJob_DoesNotMutateInput(t *testing.T) {
	now := time.Now()
	a := wo("done", now, nil)
	b := wo("in_progress", now, nil)
	list := []models.WorkOrder{a, b}

	_, _ = SelectNextJob(list, now)
	assert.Equal(t, a.ID, list[0].ID)
	assert.Equal(t, b.ID, list[1].ID)
}

func TestSelectNextJob_Deterministic(t *testing.T) {
	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	created := now.AddDate(0, 0, -1)
	list := []models.WorkOrder{wo("active", created, nil), wo("active", created, nil), wo("review", created, nil)}

	first, _ := SelectNextJob(list, now)
	for i := 0; i < 10; i++ {
		again, _ := SelectNextJob(list, now)
		assert.Equal(t, first.ID, again.ID)
	}
}

func TestCurrentJob_DoneIsNoJob(t *testing.T) {
	now := time.Now()
	_, ok := CurrentJob([]models.WorkOrder{wo("closed", now, nil), wo("Completed", now, nil)}, now)
	assert.False(t, ok)

	open := wo("review", now, nil)
	got, ok := CurrentJob([]models.WorkOrder{wo("done", now, nil), open}, now)
	require.True(t, ok)
	assert.Equal(t, open.ID, got.ID)
}

func TestToday_ExcludesDone(t *testing.T) {
	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	today := now.Add(2 * time.Hour)
	list := []models.WorkOrder{wo("done", now, &today), wo("active", now, &today), wo("active", now, ptr(now.AddDate(0, 0, 1)))}

	assert.Len(t, Today(list, now), 1)
}
