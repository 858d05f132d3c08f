package cron

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skiff-ai/skiff/pkg/bus"
)

func newTestService(t *testing.T) (*Service, *bus.MessageBus) {
	t.Helper()
	mb := bus.NewMessageBus()
	t.Cleanup(mb.Close)
	store := filepath.Join(t.TempDir(), "cron.json")
	return NewService(store, mb), mb
}

func TestNextRun(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("at", func(t *testing.T) {
		next, err := NextRun(Schedule{Kind: ScheduleKindAt, At: "2026-03-02T09:00:00Z"}, now)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), next.UTC())
	})

	t.Run("every", func(t *testing.T) {
		next, err := NextRun(Schedule{Kind: ScheduleKindEvery, EveryMs: 60000}, now)
		require.NoError(t, err)
		assert.Equal(t, now.Add(time.Minute), next)
	})

	t.Run("cron", func(t *testing.T) {
		next, err := NextRun(Schedule{Kind: ScheduleKindCron, Expr: "0 9 * * *"}, now)
		require.NoError(t, err)
		assert.Equal(t, 9, next.UTC().Hour())
		assert.True(t, next.After(now))
	})

	t.Run("invalid cron", func(t *testing.T) {
		_, err := NextRun(Schedule{Kind: ScheduleKindCron, Expr: "not a cron"}, now)
		assert.Error(t, err)
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := NextRun(Schedule{Kind: "weird"}, now)
		assert.Error(t, err)
	})
}

func TestAddListRemove(t *testing.T) {
	s, _ := newTestService(t)

	job, err := s.Add("standup", Schedule{Kind: ScheduleKindCron, Expr: "0 9 * * 1-5"}, "Post the standup reminder", "telegram", "42")
	require.NoError(t, err)
	assert.True(t, job.Enabled)
	assert.NotEmpty(t, job.ID)
	assert.Greater(t, job.NextRunMs, time.Now().UnixMilli())

	jobs := s.List()
	require.Len(t, jobs, 1)
	assert.Equal(t, "standup", jobs[0].Name)

	assert.True(t, s.Remove(job.ID))
	assert.Empty(t, s.List())
	assert.False(t, s.Remove(job.ID))
}

func TestPersistenceAcrossRestart(t *testing.T) {
	mb := bus.NewMessageBus()
	defer mb.Close()
	store := filepath.Join(t.TempDir(), "cron.json")

	s1 := NewService(store, mb)
	job, err := s1.Add("nightly", Schedule{Kind: ScheduleKindCron, Expr: "0 2 * * *"}, "run nightly", "", "")
	require.NoError(t, err)

	s2 := NewService(store, mb)
	reloaded, ok := s2.Get(job.ID)
	require.True(t, ok)
	assert.Equal(t, "nightly", reloaded.Name)
	assert.Equal(t, job.NextRunMs, reloaded.NextRunMs)
}

func TestFireDueDeliversAndReschedules(t *testing.T) {
	s, mb := newTestService(t)

	job, err := s.Add("ping", Schedule{Kind: ScheduleKindEvery, EveryMs: 3600_000}, "ping the user", "telegram", "7")
	require.NoError(t, err)

	// Force the job to be due.
	s.mu.Lock()
	s.jobs[job.ID].NextRunMs = time.Now().Add(-time.Second).UnixMilli()
	s.mu.Unlock()

	s.fireDue(time.Now())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	msg, ok := mb.ConsumeInbound(ctx)
	require.True(t, ok)
	assert.Equal(t, "telegram", msg.Channel)
	assert.Equal(t, "7", msg.ChatID)
	assert.Equal(t, "ping the user", msg.Content)
	assert.Equal(t, job.ID, msg.Metadata["cron_job_id"])

	rescheduled, ok := s.Get(job.ID)
	require.True(t, ok)
	assert.Greater(t, rescheduled.NextRunMs, time.Now().UnixMilli())
	assert.NotZero(t, rescheduled.LastRunMs)
}

func TestFireDueRemovesOneShot(t *testing.T) {
	s, mb := newTestService(t)

	job, err := s.Add("once", Schedule{Kind: ScheduleKindAt, At: time.Now().Add(-time.Minute).Format(time.RFC3339)}, "one shot", "", "")
	require.NoError(t, err)

	s.fireDue(time.Now())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	msg, ok := mb.ConsumeInbound(ctx)
	require.True(t, ok)
	assert.Equal(t, "cron", msg.Channel)
	assert.Equal(t, "one shot", msg.Content)

	_, ok = s.Get(job.ID)
	assert.False(t, ok, "one-shot job should be removed after firing")
}

func TestDisabledJobDoesNotFire(t *testing.T) {
	s, mb := newTestService(t)

	job, err := s.Add("muted", Schedule{Kind: ScheduleKindEvery, EveryMs: 1000}, "should not fire", "", "")
	require.NoError(t, err)
	require.True(t, s.SetEnabled(job.ID, false))

	s.mu.Lock()
	s.jobs[job.ID].NextRunMs = time.Now().Add(-time.Second).UnixMilli()
	s.mu.Unlock()

	s.fireDue(time.Now())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, ok := mb.ConsumeInbound(ctx)
	assert.False(t, ok)
}
