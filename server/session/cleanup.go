package session

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	// DefaultRetentionDays is the default number of days to retain idle
	// conversations.
	DefaultRetentionDays = 7
	// DefaultCleanupInterval is the default interval between cleanup runs.
	DefaultCleanupInterval = time.Hour
)

// ExpiringStore is a Store that can drop states idle past a retention window.
type ExpiringStore interface {
	Store
	CleanupExpired(ctx context.Context, retentionDays int) (int64, error)
}

// CleanupConfig holds configuration for the cleanup job.
type CleanupConfig struct {
	RetentionDays   int
	CleanupInterval time.Duration
}

// DefaultCleanupConfig returns the default cleanup configuration.
func DefaultCleanupConfig() CleanupConfig {
	return CleanupConfig{
		RetentionDays:   DefaultRetentionDays,
		CleanupInterval: DefaultCleanupInterval,
	}
}

// CleanupJob periodically removes idle conversation states from a persistent
// backing.
type CleanupJob struct {
	store  ExpiringStore
	config CleanupConfig

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
}

// NewCleanupJob creates a cleanup job for the given store.
func NewCleanupJob(store ExpiringStore, config CleanupConfig) *CleanupJob {
	if config.RetentionDays <= 0 {
		config.RetentionDays = DefaultRetentionDays
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = DefaultCleanupInterval
	}

	return &CleanupJob{
		store:  store,
		config: config,
	}
}

// Start begins the periodic cleanup job. Non-blocking; the loop runs in a
// goroutine until Stop is called or ctx is done.
func (j *CleanupJob) Start(ctx context.Context) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.running {
		return
	}

	j.running = true
	j.stopChan = make(chan struct{})

	go j.run(ctx)

	slog.Info("session cleanup job started",
		"retention_days", j.config.RetentionDays,
		"interval", j.config.CleanupInterval)
}

// Stop stops the cleanup job.
func (j *CleanupJob) Stop() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !j.running {
		return
	}

	close(j.stopChan)
	j.running = false

	slog.Info("session cleanup job stopped")
}

// RunOnce executes a single cleanup run immediately.
func (j *CleanupJob) RunOnce(ctx context.Context) (int64, error) {
	return j.store.CleanupExpired(ctx, j.config.RetentionDays)
}

// IsRunning returns whether the cleanup job is currently running.
func (j *CleanupJob) IsRunning() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.running
}

func (j *CleanupJob) run(ctx context.Context) {
	ticker := time.NewTicker(j.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-j.stopChan:
			return
		case <-ticker.C:
			if deleted, err := j.RunOnce(ctx); err != nil {
				slog.Error("session cleanup failed", "error", err)
			} else if deleted > 0 {
				slog.Info("session cleanup completed", "deleted", deleted)
			}
		}
	}
}
