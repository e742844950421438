package jobs

import (
	"context"
	"log"
	"time"
)

type eventPurger interface {
	DeleteOldEvents(before time.Time) (int64, error)
}

// SyncEventCleanupJob trims the committed-change feed. A device that has not
// synced within the retention window can no longer catch up incrementally
// and must pull from epoch.
type SyncEventCleanupJob struct {
	events eventPurger
}

// NewSyncEventCleanupJob creates a new sync event cleanup job handler
func NewSyncEventCleanupJob(events eventPurger) *SyncEventCleanupJob {
	return &SyncEventCleanupJob{
		events: events,
	}
}

// PurgeOldEvents removes feed entries older than the given number of days.
// This should be called by a daily cron job.
func (j *SyncEventCleanupJob) PurgeOldEvents(ctx context.Context, days int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -days)
	log.Printf("[SyncEventCleanupJob] Purging sync events older than %d days", days)

	count, err := j.events.DeleteOldEvents(cutoff)
	if err != nil {
		log.Printf("[SyncEventCleanupJob] Error purging sync events: %v", err)
		return 0, err
	}

	log.Printf("[SyncEventCleanupJob] Purged %d sync events", count)
	return count, nil
}
