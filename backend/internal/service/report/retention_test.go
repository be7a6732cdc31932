package report

import (
	"context"
	"testing"
	"time"

	domain "inventory-app/backend/internal/domain/report"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetentionRunOnceWithoutRedis(t *testing.T) {
	now := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	svc, repo := newTestService(t, WithClock(func() time.Time { return now }))
	ctx := context.Background()

	require.NoError(t, svc.RecordBatch(ctx, []domain.Report{
		event(domain.TypeRecipeUsed, 1, "old", now.AddDate(0, 0, -40), 1),
		event(domain.TypeRecipeUsed, 1, "recent", now.AddDate(0, 0, -5), 1),
	}))

	job, err := NewRetention(svc, nil, RetentionConfig{Retention: 30 * 24 * time.Hour})
	require.NoError(t, err)

	result, err := job.RunOnce(ctx)
	require.NoError(t, err)
	assert.False(t, result.Skipped)
	assert.EqualValues(t, 1, result.Removed)
	assert.True(t, result.Cutoff.Equal(now.AddDate(0, 0, -30)))

	left, _ := repo.FindAll(ctx)
	require.Len(t, left, 1)
	assert.Equal(t, "recent", left[0].EntityName)
}

func TestRetentionSkipsWhenLockHeld(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	svc, repo := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.RecordBatch(ctx, []domain.Report{
		event(domain.TypeRecipeUsed, 1, "old", day(1, 0), 1),
	}))

	job, err := NewRetention(svc, client, RetentionConfig{Retention: time.Hour})
	require.NoError(t, err)

	require.NoError(t, mr.Set(DefaultRetentionLockKey, "other-instance"))
	result, err := job.PurgeBefore(ctx, day(10, 0))
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	left, _ := repo.FindAll(ctx)
	assert.Len(t, left, 1)

	mr.Del(DefaultRetentionLockKey)
	result, err = job.PurgeBefore(ctx, day(10, 0))
	require.NoError(t, err)
	assert.False(t, result.Skipped)
	assert.EqualValues(t, 1, result.Removed)
	assert.False(t, mr.Exists(DefaultRetentionLockKey), "lock must be released after the run")
}

func TestNewRetentionValidatesSchedule(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := NewRetention(svc, nil, RetentionConfig{Schedule: "every tuesday"})
	assert.Error(t, err)

	job, err := NewRetention(svc, nil, RetentionConfig{})
	require.NoError(t, err)
	result, err := job.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Skipped)
}

func TestRetentionStartStopsWithContext(t *testing.T) {
	svc, _ := newTestService(t)
	job, err := NewRetention(svc, nil, RetentionConfig{Retention: time.Hour, Schedule: "*/5 * * * *"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, job.Start(ctx))
	assert.Len(t, job.scheduler.Entries(), 1)
	cancel()
	job.Stop()
}
