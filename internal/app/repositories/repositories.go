package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/unievents/internal/pkg/logger"
)

// Repositories holds all the repository instances
type Repositories struct {
	UserRepository         *UserRepository
	TokenRepository        *TokenRepository
	EventRepository        *EventRepository
	RegistrationRepository *RegistrationRepository
	AttendanceRepository   *AttendanceRepository
	CertificateRepository  *CertificateRepository
	ClubRepository         *ClubRepository
	BusRepository          *BusRepository
	NotificationRepository *NotificationRepository
	FeedbackRepository     *FeedbackRepository
	ContactRepository      *ContactRepository
	ReportRepository       *ReportRepository
}

// NewRepositories initializes all repositories
func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		UserRepository:         NewUserRepository(db),
		TokenRepository:        NewTokenRepository(db),
		EventRepository:        NewEventRepository(db),
		RegistrationRepository: NewRegistrationRepository(db),
		AttendanceRepository:   NewAttendanceRepository(db),
		CertificateRepository:  NewCertificateRepository(db),
		ClubRepository:         NewClubRepository(db),
		BusRepository:          NewBusRepository(db),
		NotificationRepository: NewNotificationRepository(db),
		FeedbackRepository:     NewFeedbackRepository(db),
		ContactRepository:      NewContactRepository(db),
		ReportRepository:       NewReportRepository(db),
	}
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func newStatementBuilder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// buildError logs a squirrel ToSql failure and wraps it
func buildError(err error, what string) error {
	logger.Error().Err(err).Msgf("Error building %s SQL", what)
	return fmt.Errorf("failed to build %s query: %w", what, err)
}

// countRows runs a COUNT(*) builder and returns the single value
func countRows(ctx context.Context, q querier, builder squirrel.SelectBuilder, what string) (int64, error) {
	sql, args, err := builder.ToSql()
	if err != nil {
		return 0, buildError(err, what)
	}

	var total int64
	if err := q.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		logger.Error().Err(err).Str("query", what).Msg("Error executing count query")
		return 0, fmt.Errorf("error counting %s: %w", what, err)
	}
	return total, nil
}
