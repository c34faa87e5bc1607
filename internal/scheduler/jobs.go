// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// Job names.
const (
	JobEventLogRetention = "event-log-retention"
	JobGeoIPReload       = "geoip-reload"
	JobLockoutCleanup    = "lockout-cleanup"
)

// EventLogPruner deletes audit entries older than a given age.
type EventLogPruner interface {
	DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Reloader reopens an on-disk database.
type Reloader interface {
	Reload() error
}

// Cleaner drops expired state and returns how many entries it removed.
type Cleaner interface {
	Cleanup() int
}

// EventLogRetention deletes audit events older than days every night.
func EventLogRetention(pruner EventLogPruner, days int, logger *slog.Logger) Job {
	return Job{
		Name:        JobEventLogRetention,
		Description: "Delete audit log entries past the retention period",
		Schedule:    "30 3 * * *",
		Run: func(ctx context.Context) error {
			n, err := pruner.DeleteOldEvents(ctx, time.Duration(days)*24*time.Hour)
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Info("pruned event log", "deleted", n, "retention_days", days)
			}
			return nil
		},
	}
}

// GeoIPReload reopens the GeoIP database once a day to pick up updates.
func GeoIPReload(r Reloader) Job {
	return Job{
		Name:        JobGeoIPReload,
		Description: "Reload the GeoIP country database",
		Schedule:    "15 4 * * *",
		Run: func(context.Context) error {
			return r.Reload()
		},
	}
}

// LockoutCleanup removes expired login lockouts and idle rate limiters.
func LockoutCleanup(c Cleaner, logger *slog.Logger) Job {
	return Job{
		Name:        JobLockoutCleanup,
		Description: "Forget expired login lockouts",
		Schedule:    "*/10 * * * *",
		Run: func(context.Context) error {
			if n := c.Cleanup(); n > 0 {
				logger.Debug("cleaned login protection state", "removed", n)
			}
			return nil
		},
	}
}
