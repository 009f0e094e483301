package session

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uncleisme/mobile-app/internal/models"
)

func newTestStore(now time.Time) *Store {
	s := NewStore()
	s.now = func() time.Time { return now }
	return s
}

func TestCreateGetDelete(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	s := newTestStore(now)
	uid := uuid.New()

	id := s.Create(models.Session{UserID: uid, Role: models.RoleTechnician, Expiry: now.Add(time.Hour)})
	got, ok := s.Get(id)
	require.True(t, ok)
	assert.Equal(t, uid, got.UserID)

	s.Delete(id)
	_, ok = s.Get(id)
	assert.False(t, ok)
}

func TestExpiredSessionIsDroppedOnGet(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	s := newTestStore(now)
	id := s.Create(models.Session{UserID: uuid.New(), Expiry: now.Add(-time.Second)})

	_, ok := s.Get(id)
	assert.False(t, ok)
	assert.Empty(t, s.List())
}

func TestUpdate(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	s := newTestStore(now)
	id := s.Create(models.Session{UserID: uuid.New(), Expiry: now.Add(time.Hour)})

	require.True(t, s.Update(id, func(sess *models.Session) { sess.MFA = true }))
	got, _ := s.Get(id)
	assert.True(t, got.MFA)

	assert.False(t, s.Update("missing", func(*models.Session) {}))
}

func TestSweepAndDeleteUser(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	s := newTestStore(now)
	uid := uuid.New()
	s.Create(models.Session{UserID: uid, Expiry: now.Add(time.Hour)})
	s.Create(models.Session{UserID: uid, Expiry: now.Add(2 * time.Hour)})
	s.Create(models.Session{UserID: uuid.New(), Expiry: now.Add(-time.Minute)})

	assert.Equal(t, 1, s.Sweep())
	assert.Len(t, s.List(), 2)
	assert.Equal(t, 2, s.DeleteUser(uid))
	assert.Empty(t, s.List())
}
