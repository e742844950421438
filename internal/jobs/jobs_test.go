package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sweeperFunc func(before time.Time) (int64, error)

func (f sweeperFunc) SweepTimedOut(before time.Time) (int64, error) { return f(before) }

type purgerFunc func(before time.Time) (int64, error)

func (f purgerFunc) DeleteOldEvents(before time.Time) (int64, error) { return f(before) }

func TestSweepStaleSessionsUsesWindow(t *testing.T) {
	var got time.Time
	job := NewSessionTimeoutJob(sweeperFunc(func(before time.Time) (int64, error) {
		got = before
		return 2, nil
	}))

	count, err := job.SweepStaleSessions(context.Background(), 30*time.Minute)

	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.WithinDuration(t, time.Now().Add(-30*time.Minute), got, time.Second)
}

func TestSweepStaleSessionsPropagatesError(t *testing.T) {
	job := NewSessionTimeoutJob(sweeperFunc(func(time.Time) (int64, error) {
		return 0, errors.New("db down")
	}))

	_, err := job.SweepStaleSessions(context.Background(), time.Minute)

	assert.Error(t, err)
}

func TestPurgeOldEventsUsesRetention(t *testing.T) {
	var got time.Time
	job := NewSyncEventCleanupJob(purgerFunc(func(before time.Time) (int64, error) {
		got = before
		return 7, nil
	}))

	count, err := job.PurgeOldEvents(context.Background(), 90)

	require.NoError(t, err)
	assert.Equal(t, int64(7), count)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, -90), got, time.Second)
}

func TestPurgeOldEventsPropagatesError(t *testing.T) {
	job := NewSyncEventCleanupJob(purgerFunc(func(time.Time) (int64, error) {
		return 0, errors.New("db down")
	}))

	_, err := job.PurgeOldEvents(context.Background(), 30)

	assert.Error(t, err)
}
