package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/gigmarket-backend/pkg/logger"
)

const (
	outboxRetentionDays       = 30
	notificationRetentionDays = 90
)

type purgeFunc func(ctx context.Context, cutoff time.Time) (int64, error)

// retentionJob deletes rows older than a fixed window through purge.
type retentionJob struct {
	name      string
	logg      *logger.Logger
	purge     purgeFunc
	retention int
	now       func() time.Time
}

func newRetentionJob(name string, logg *logger.Logger, purge purgeFunc, retention, fallback int) (*retentionJob, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if purge == nil {
		return nil, fmt.Errorf("%s: repository required", name)
	}
	if retention <= 0 {
		retention = fallback
	}
	return &retentionJob{
		name:      name,
		logg:      logg,
		purge:     purge,
		retention: retention,
		now:       time.Now,
	}, nil
}

func (j *retentionJob) Name() string { return j.name }

func (j *retentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().AddDate(0, 0, -j.retention)
	deleted, err := j.purge(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("%s: %w", j.name, err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"retention_days": j.retention,
		"rows_deleted":   deleted,
	})
	j.logg.Info(logCtx, "retention cleanup complete")
	return nil
}

type outboxRetentionRepo interface {
	DeletePublishedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type OutboxRetentionJobParams struct {
	Logger     *logger.Logger
	Repository outboxRetentionRepo
	Retention  int
}

// NewOutboxRetentionJob prunes outbox rows published more than Retention days ago.
func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	return newRetentionJob("outbox-retention", params.Logger, params.Repository.DeletePublishedBefore, params.Retention, outboxRetentionDays)
}

type notificationCleanupRepo interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type NotificationCleanupJobParams struct {
	Logger     *logger.Logger
	Repository notificationCleanupRepo
	Retention  int
}

// NewNotificationCleanupJob removes read notifications older than Retention days.
func NewNotificationCleanupJob(params NotificationCleanupJobParams) (Job, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	return newRetentionJob("notification-cleanup", params.Logger, params.Repository.DeleteOlderThan, params.Retention, notificationRetentionDays)
}
