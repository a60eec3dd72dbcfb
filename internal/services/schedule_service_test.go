package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Wikid82/ballot/backend/internal/models"
)

func TestScheduleService_SweepExpired(t *testing.T) {
	s, db := setupStore(t)
	sched := NewScheduleService(s)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	sched.now = func() time.Time { return now }

	past := now.Add(-48 * time.Hour)
	future := now.Add(48 * time.Hour)
	expired := &models.Election{Title: "Expired", IsActive: true, EndDate: &past}
	running := &models.Election{Title: "Running", IsActive: true, EndDate: &future}
	open := &models.Election{Title: "Open", IsActive: true}
	for _, e := range []*models.Election{expired, running, open} {
		require.NoError(t, db.Create(e).Error)
	}

	n, err := sched.SweepExpired(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	isActive := func(id string) bool {
		var got models.Election
		require.NoError(t, db.First(&got, "id = ?", id).Error)
		return got.IsActive
	}
	assert.False(t, isActive(expired.ID))
	assert.True(t, isActive(running.ID))
	assert.True(t, isActive(open.ID))

	n, err = sched.SweepExpired(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestScheduleService_Start(t *testing.T) {
	s, _ := setupStore(t)
	sched := NewScheduleService(s)

	assert.Error(t, sched.Start("not a schedule"))
	sched.Stop()

	require.NoError(t, sched.Start("@every 1h"))
	assert.Len(t, sched.cron.Entries(), 1)
	sched.Stop()
}
