package jobs

import (
	"context"
	"log"
	"time"
)

type sessionSweeper interface {
	SweepTimedOut(before time.Time) (int64, error)
}

// SessionTimeoutJob marks sync sessions that never reached a terminal state
// as timed out. Changes applied before the timeout stay applied; the device
// re-initiates and resubmits only the unacknowledged remainder, which the
// offline-id ledger deduplicates.
type SessionTimeoutJob struct {
	sessions sessionSweeper
}

// NewSessionTimeoutJob creates a new session timeout job handler
func NewSessionTimeoutJob(sessions sessionSweeper) *SessionTimeoutJob {
	return &SessionTimeoutJob{
		sessions: sessions,
	}
}

// SweepStaleSessions times out sessions older than the given window.
// This should be called by a periodic cron job.
func (j *SessionTimeoutJob) SweepStaleSessions(ctx context.Context, window time.Duration) (int64, error) {
	cutoff := time.Now().Add(-window)
	log.Printf("[SessionTimeoutJob] Sweeping sessions started before %s", cutoff.Format(time.RFC3339))

	count, err := j.sessions.SweepTimedOut(cutoff)
	if err != nil {
		log.Printf("[SessionTimeoutJob] Error sweeping sessions: %v", err)
		return 0, err
	}

	if count > 0 {
		log.Printf("[SessionTimeoutJob] Timed out %d stale sessions", count)
	}
	return count, nil
}
