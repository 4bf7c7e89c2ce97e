package background

import (
	"context"
	"log/slog"
	"time"
)

// CleanupStore is the slice of user persistence the cleanup loop needs.
type CleanupStore interface {
	ClearExpiredResetTokens(ctx context.Context) (int64, error)
	ClearExpiredLocks(ctx context.Context) (int64, error)
}

// CleanupManager periodically clears expired password reset tokens and
// elapsed login lockouts.
type CleanupManager struct {
	store    CleanupStore
	logger   *slog.Logger
	interval time.Duration
	stopCh   chan struct{}
}

// NewCleanupManager creates a new cleanup manager
func NewCleanupManager(store CleanupStore, logger *slog.Logger, interval time.Duration) *CleanupManager {
	return &CleanupManager{
		store:    store,
		logger:   logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic cleanup task
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	// Run immediately on startup
	cm.runCleanup(ctx)

	for {
		select {
		case <-ticker.C:
			cm.runCleanup(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

// Stop signals the cleanup loop to exit
func (cm *CleanupManager) Stop() {
	close(cm.stopCh)
}

func (cm *CleanupManager) runCleanup(ctx context.Context) {
	cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	tokens, err := cm.store.ClearExpiredResetTokens(cleanupCtx)
	if err != nil {
		cm.logger.Error("failed to clear expired reset tokens", slog.Any("error", err))
	} else if tokens > 0 {
		cm.logger.Info("cleared expired reset tokens", slog.Int64("count", tokens))
	}

	locks, err := cm.store.ClearExpiredLocks(cleanupCtx)
	if err != nil {
		cm.logger.Error("failed to clear expired account locks", slog.Any("error", err))
	} else if locks > 0 {
		cm.logger.Info("cleared expired account locks", slog.Int64("count", locks))
	}
}
