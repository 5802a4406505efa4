package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/unievents/internal/app/models"
	"github.com/yigit/unievents/internal/pkg/logger"
)

// ReportRepository runs the aggregate queries behind the admin reports
type ReportRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewReportRepository creates a new ReportRepository
func NewReportRepository(db *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{
		db: db,
		sb: newStatementBuilder(),
	}
}

// SystemStatistics counts events, users and participation across the system
func (r *ReportRepository) SystemStatistics(ctx context.Context, now time.Time) (*models.SystemStatistics, error) {
	sql, args, err := r.sb.Select(
		"(SELECT COUNT(*) FROM events)",
		"(SELECT COUNT(*) FROM events WHERE is_approved)",
		"(SELECT COUNT(*) FROM events WHERE NOT is_approved)",
	).
		Column("(SELECT COUNT(*) FROM events WHERE event_date >= ?)", now).
		Column("(SELECT COUNT(*) FROM events WHERE event_date < ?)", now).
		Columns(
			"(SELECT COUNT(*) FROM users)",
			"(SELECT COUNT(*) FROM registrations)",
			"(SELECT COUNT(*) FROM attendances WHERE is_present)",
			"(SELECT COUNT(*) FROM certificates)",
			"(SELECT COUNT(*) FROM feedbacks)",
			"(SELECT COALESCE(AVG(rating), 0)::float8 FROM feedbacks)",
		).
		ToSql()
	if err != nil {
		return nil, buildError(err, "system statistics")
	}

	s := &models.SystemStatistics{}
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&s.TotalEvents, &s.ApprovedEvents, &s.PendingEvents, &s.UpcomingEvents, &s.PastEvents,
		&s.TotalUsers, &s.TotalRegistrations, &s.TotalAttendance, &s.TotalCertificates,
		&s.TotalFeedback, &s.AverageRating,
	)
	if err != nil {
		logger.Error().Err(err).Msg("Error scanning system statistics")
		return nil, fmt.Errorf("error computing system statistics: %w", err)
	}

	s.AverageRating = models.Round2(s.AverageRating)
	s.AttendanceRate = models.Percentage(int(s.TotalAttendance), int(s.TotalRegistrations))
	return s, nil
}

// EventCounts fills the participation numbers of an event report. The event
// itself is loaded by the caller.
func (r *ReportRepository) EventCounts(ctx context.Context, report *models.EventReport) error {
	eventID := report.Event.ID
	sql, args, err := r.sb.Select().
		Column("(SELECT COUNT(*) FROM registrations WHERE event_id = ?)", eventID).
		Column("(SELECT COUNT(*) FROM registrations WHERE event_id = ? AND status = 'Confirmed')", eventID).
		Column("(SELECT COUNT(*) FROM registrations WHERE event_id = ? AND status = 'Waitlist')", eventID).
		Column("(SELECT COUNT(*) FROM attendances WHERE event_id = ? AND is_present)", eventID).
		Column("(SELECT COUNT(*) FROM feedbacks WHERE event_id = ?)", eventID).
		Column("(SELECT COALESCE(AVG(rating), 0)::float8 FROM feedbacks WHERE event_id = ?)", eventID).
		Column("(SELECT COUNT(*) FROM certificates WHERE event_id = ?)", eventID).
		ToSql()
	if err != nil {
		return buildError(err, "event report")
	}

	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&report.TotalRegistrations, &report.ConfirmedRegistrations, &report.WaitlistRegistrations,
		&report.PresentAttendance, &report.FeedbackCount, &report.AverageRating, &report.CertificatesIssued,
	)
	if err != nil {
		logger.Error().Err(err).Int64("eventID", eventID).Msg("Error scanning event report")
		return fmt.Errorf("error computing event report: %w", err)
	}

	report.AverageRating = models.Round2(report.AverageRating)
	report.AttendanceRate = models.Percentage(report.PresentAttendance, report.TotalRegistrations)
	report.VolunteerHours = report.Event.VolunteerHours
	return nil
}

// UserRows returns the participation totals of every user
func (r *ReportRepository) UserRows(ctx context.Context) ([]*models.UserReportRow, error) {
	sql, args, err := r.sb.Select(
		"u.id", "u.first_name || ' ' || u.last_name", "u.email",
		"(SELECT COUNT(*) FROM registrations reg WHERE reg.user_id = u.id)",
		"(SELECT COUNT(*) FROM attendances a WHERE a.user_id = u.id AND a.is_present)",
		"(SELECT COUNT(*) FROM certificates c WHERE c.user_id = u.id)",
		"u.total_volunteer_hours", "u.join_date",
	).
		From("users u").
		OrderBy("u.last_name ASC", "u.first_name ASC", "u.id ASC").
		ToSql()
	if err != nil {
		return nil, buildError(err, "user report")
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing user report query")
		return nil, fmt.Errorf("error computing user report: %w", err)
	}
	defer rows.Close()

	list := make([]*models.UserReportRow, 0)
	for rows.Next() {
		row := &models.UserReportRow{}
		if err := rows.Scan(&row.UserID, &row.FullName, &row.Email, &row.TotalRegistrations,
			&row.TotalAttendance, &row.TotalCertificates, &row.TotalVolunteerHours, &row.JoinDate); err != nil {
			return nil, fmt.Errorf("error scanning user report row: %w", err)
		}
		list = append(list, row)
	}
	return list, rows.Err()
}

// EventRows returns the participation totals of every event, latest first
func (r *ReportRepository) EventRows(ctx context.Context) ([]*models.EventReportRow, error) {
	sql, args, err := r.sb.Select(
		"e.id", "e.title", "e.event_date",
		"(SELECT COUNT(*) FROM registrations reg WHERE reg.event_id = e.id)",
		"(SELECT COUNT(*) FROM attendances a WHERE a.event_id = e.id AND a.is_present)",
		"(SELECT COALESCE(AVG(f.rating), 0)::float8 FROM feedbacks f WHERE f.event_id = e.id)",
		"(SELECT COUNT(*) FROM feedbacks f WHERE f.event_id = e.id)",
	).
		From("events e").
		OrderBy("e.event_date DESC", "e.id DESC").
		ToSql()
	if err != nil {
		return nil, buildError(err, "event rows report")
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing event rows report query")
		return nil, fmt.Errorf("error computing event report: %w", err)
	}
	defer rows.Close()

	list := make([]*models.EventReportRow, 0)
	for rows.Next() {
		row := &models.EventReportRow{}
		if err := rows.Scan(&row.EventID, &row.Title, &row.EventDate, &row.TotalRegistrations,
			&row.TotalAttendance, &row.AverageRating, &row.FeedbackCount); err != nil {
			return nil, fmt.Errorf("error scanning event report row: %w", err)
		}
		row.AverageRating = models.Round2(row.AverageRating)
		row.AttendanceRate = models.Percentage(row.TotalAttendance, row.TotalRegistrations)
		list = append(list, row)
	}
	return list, rows.Err()
}
