package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/riverqueue/river"
)

// TokenCleaner deletes expired and revoked refresh tokens
type TokenCleaner interface {
	CleanupExpiredTokens(ctx context.Context) (int64, error)
}

// RefreshTokenCleanupArgs defines the daily refresh token cleanup
type RefreshTokenCleanupArgs struct{}

func (RefreshTokenCleanupArgs) Kind() string { return JobKindRefreshTokenCleanup }

// RefreshTokenCleanupWorker keeps the refresh_tokens table from growing forever
type RefreshTokenCleanupWorker struct {
	river.WorkerDefaults[RefreshTokenCleanupArgs]
	Cleaner TokenCleaner
	Logger  *slog.Logger
}

func (w *RefreshTokenCleanupWorker) Work(ctx context.Context, job *river.Job[RefreshTokenCleanupArgs]) error {
	if w.Cleaner == nil {
		return fmt.Errorf("token cleaner not configured")
	}

	start := time.Now()
	deleted, err := w.Cleaner.CleanupExpiredTokens(ctx)
	if err != nil {
		return fmt.Errorf("cleanup refresh tokens: %w", err)
	}

	if w.Logger != nil {
		w.Logger.Info("refresh token cleanup completed", "deleted_count", deleted, "duration_ms", time.Since(start).Milliseconds())
	}
	return nil
}
