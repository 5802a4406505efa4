package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/yigit/unievents/internal/pkg/email"
)

const (
	JobKindSendEmail           = "send_email"
	JobKindRefreshTokenCleanup = "refresh_token_cleanup"
)

const (
	SendEmailMaxAttempts = 5
	DefaultMaxAttempts   = 3
)

// Dependencies are the collaborators the workers need
type Dependencies struct {
	// Sender performs the actual delivery; never the Queue itself
	Sender       email.Sender
	TokenCleaner TokenCleaner
	Logger       *slog.Logger
}

// NewWorkers registers every worker
func NewWorkers(deps Dependencies) *river.Workers {
	workers := river.NewWorkers()
	river.AddWorker(workers, &SendEmailWorker{Sender: deps.Sender, Logger: deps.Logger})
	river.AddWorker(workers, &RefreshTokenCleanupWorker{Cleaner: deps.TokenCleaner, Logger: deps.Logger})
	return workers
}

// NewPeriodicJobs creates the periodic job schedule.
// Currently includes:
// - Expired refresh token cleanup: daily
func NewPeriodicJobs() []*river.PeriodicJob {
	return []*river.PeriodicJob{
		river.NewPeriodicJob(
			river.PeriodicInterval(24*time.Hour),
			func() (river.JobArgs, *river.InsertOpts) {
				return RefreshTokenCleanupArgs{}, nil
			},
			&river.PeriodicJobOpts{RunOnStart: true},
		),
	}
}

// NewClientConfig builds a River client configuration
func NewClientConfig(workers *river.Workers, maxWorkers int, logger *slog.Logger) *river.Config {
	if maxWorkers <= 0 {
		maxWorkers = 5
	}
	config := &river.Config{
		Workers:      workers,
		MaxAttempts:  DefaultMaxAttempts,
		PeriodicJobs: NewPeriodicJobs(),
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: maxWorkers},
		},
	}
	if logger != nil {
		config.Logger = logger
	}
	return config
}

// NewClient creates a River client using pgx v5
func NewClient(pool *pgxpool.Pool, deps Dependencies, maxWorkers int) (*river.Client[pgx.Tx], error) {
	client, err := river.NewClient(riverpgxv5.New(pool), NewClientConfig(NewWorkers(deps), maxWorkers, deps.Logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create river client: %w", err)
	}
	return client, nil
}

// Migrate installs or upgrades River's own tables
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return fmt.Errorf("failed to create river migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, &rivermigrate.MigrateOpts{}); err != nil {
		return fmt.Errorf("failed to run river migrations: %w", err)
	}
	return nil
}
