package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adspot/adspot/internal/models"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()

	db, err := Connect(filepath.Join(t.TempDir(), "data", "adspot.db"))
	require.NoError(t, err)
	require.NoError(t, db.Initialize())
	t.Cleanup(func() { db.Close() })

	return NewRepository(db)
}

func muteAt(ts time.Time, muted bool) *models.MuteEvent {
	return &models.MuteEvent{
		Timestamp:   ts,
		Muted:       muted,
		RunID:       "run-1",
		Target:      "spotify.exe",
		WindowTitle: "Advertisement",
		Backend:     "test",
	}
}

func TestConnectEmptyPath(t *testing.T) {
	_, err := Connect("")
	assert.Error(t, err)
}

func TestCreateAndQueryEvents(t *testing.T) {
	repo := newTestRepo(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.CreateMuteEvent(muteAt(base.Add(2*time.Minute), false)))
	require.NoError(t, repo.CreateMuteEvent(muteAt(base, true)))
	require.NoError(t, repo.CreateMuteEvent(muteAt(base.Add(-time.Hour), true)))

	events, err := repo.GetEventsSince(base)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.True(t, events[0].Muted)
	assert.False(t, events[1].Muted)

	recent, err := repo.GetRecentEvents(base.Add(-2*time.Hour), 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.True(t, recent[0].Timestamp.Equal(base.Add(2*time.Minute)))

	latest, err := repo.GetLatest()
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.False(t, latest.Muted)

	before, err := repo.GetLatestBefore(base)
	require.NoError(t, err)
	require.NotNil(t, before)
	assert.True(t, before.Timestamp.Equal(base.Add(-time.Hour)))
}

func TestCreateMuteEventDefaultsTimestamp(t *testing.T) {
	repo := newTestRepo(t)
	ev := &models.MuteEvent{Muted: true, RunID: "r", Target: "t", WindowTitle: "w", Backend: "b"}
	require.NoError(t, repo.CreateMuteEvent(ev))
	assert.False(t, ev.Timestamp.IsZero())
	assert.NotZero(t, ev.ID)
}

func TestGetLatestEmpty(t *testing.T) {
	repo := newTestRepo(t)

	latest, err := repo.GetLatest()
	require.NoError(t, err)
	assert.Nil(t, latest)

	before, err := repo.GetLatestBefore(time.Now())
	require.NoError(t, err)
	assert.Nil(t, before)
}

func TestDeleteOldEvents(t *testing.T) {
	repo := newTestRepo(t)
	now := time.Now()

	require.NoError(t, repo.CreateMuteEvent(muteAt(now.Add(-48*time.Hour), true)))
	require.NoError(t, repo.CreateMuteEvent(muteAt(now.Add(-47*time.Hour), false)))
	require.NoError(t, repo.CreateMuteEvent(muteAt(now, true)))

	n, err := repo.DeleteOldEvents(now.Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	events, err := repo.GetEventsSince(now.Add(-72 * time.Hour))
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestErrorLogs(t *testing.T) {
	repo := newTestRepo(t)
	now := time.Now()

	require.NoError(t, repo.CreateErrorLog(&models.ErrorLog{Timestamp: now.Add(-time.Hour), Source: "tick", ErrorMsg: "old"}))
	require.NoError(t, repo.CreateErrorLog(&models.ErrorLog{Timestamp: now, Source: "tick", ErrorMsg: "device unavailable"}))

	logs, err := repo.GetErrorsSince(now.Add(-time.Minute))
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "device unavailable", logs[0].ErrorMsg)

	count, err := repo.CountErrorsBetween(now.Add(-2*time.Hour), now.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestClear(t *testing.T) {
	repo := newTestRepo(t)
	now := time.Now()

	require.NoError(t, repo.CreateMuteEvent(muteAt(now, true)))
	require.NoError(t, repo.CreateErrorLog(&models.ErrorLog{Timestamp: now, ErrorMsg: "x"}))

	require.NoError(t, repo.Clear())

	latest, err := repo.GetLatest()
	require.NoError(t, err)
	assert.Nil(t, latest)

	logs, err := repo.GetErrorsSince(now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Empty(t, logs)
}
