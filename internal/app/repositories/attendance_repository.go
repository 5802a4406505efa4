package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/unievents/internal/app/models"
	"github.com/yigit/unievents/internal/pkg/apperrors"
	"github.com/yigit/unievents/internal/pkg/logger"
)

var attendanceColumns = []string{
	"a.id", "a.event_id", "a.user_id", "a.check_in_time", "a.qr_code", "a.is_present",
}

func attendanceDest(a *models.Attendance) []any {
	return []any{&a.ID, &a.EventID, &a.UserID, &a.CheckInTime, &a.QRCode, &a.IsPresent}
}

// AttendanceRepository handles attendance database operations
type AttendanceRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewAttendanceRepository creates a new AttendanceRepository
func NewAttendanceRepository(db *pgxpool.Pool) *AttendanceRepository {
	return &AttendanceRepository{
		db: db,
		sb: newStatementBuilder(),
	}
}

// Get returns the attendance row of a user at an event
func (r *AttendanceRepository) Get(ctx context.Context, eventID, userID int64) (*models.Attendance, error) {
	sql, args, err := r.sb.Select(attendanceColumns...).
		From("attendances a").
		Where(squirrel.Eq{"a.event_id": eventID, "a.user_id": userID}).
		ToSql()
	if err != nil {
		return nil, buildError(err, "get attendance")
	}

	a := &models.Attendance{}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(attendanceDest(a)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrAttendanceNotFound
		}
		logger.Error().Err(err).Int64("eventID", eventID).Int64("userID", userID).Msg("Error scanning attendance row")
		return nil, fmt.Errorf("error retrieving attendance: %w", err)
	}
	return a, nil
}

// CheckIn marks the user present. A new row is inserted with qrCode, an
// absent row is flipped to present, and an already present row is left as
// is. The returned flag is true only when this call changed the user to present.
func (r *AttendanceRepository) CheckIn(ctx context.Context, eventID, userID int64, qrCode string, now time.Time) (*models.Attendance, bool, error) {
	sql, args, err := r.sb.Insert("attendances").
		Columns("event_id", "user_id", "check_in_time", "qr_code", "is_present").
		Values(eventID, userID, now, qrCode, true).
		Suffix(`ON CONFLICT ON CONSTRAINT attendances_event_user_key DO UPDATE
			SET is_present = TRUE, check_in_time = EXCLUDED.check_in_time
			WHERE attendances.is_present = FALSE
			RETURNING id, event_id, user_id, check_in_time, qr_code, is_present`).
		ToSql()
	if err != nil {
		return nil, false, buildError(err, "check in")
	}

	a := &models.Attendance{}
	err = r.db.QueryRow(ctx, sql, args...).Scan(attendanceDest(a)...)
	if err == nil {
		return a, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		logger.Error().Err(err).Int64("eventID", eventID).Int64("userID", userID).Msg("Error executing check in query")
		return nil, false, fmt.Errorf("error checking in: %w", err)
	}

	// Satır zaten "present"; güncelleme yapılmadı
	existing, err := r.Get(ctx, eventID, userID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// Mark sets the presence flag of a user at an event, creating the row if needed
func (r *AttendanceRepository) Mark(ctx context.Context, eventID, userID int64, isPresent bool, qrCode string, now time.Time) (*models.Attendance, error) {
	sql, args, err := r.sb.Insert("attendances").
		Columns("event_id", "user_id", "check_in_time", "qr_code", "is_present").
		Values(eventID, userID, now, qrCode, isPresent).
		Suffix(`ON CONFLICT ON CONSTRAINT attendances_event_user_key DO UPDATE
			SET is_present = EXCLUDED.is_present
			RETURNING id, event_id, user_id, check_in_time, qr_code, is_present`).
		ToSql()
	if err != nil {
		return nil, buildError(err, "mark attendance")
	}

	a := &models.Attendance{}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(attendanceDest(a)...); err != nil {
		logger.Error().Err(err).Int64("eventID", eventID).Int64("userID", userID).Msg("Error executing mark attendance query")
		return nil, fmt.Errorf("error marking attendance: %w", err)
	}
	return a, nil
}

// ListByEvent returns the attendance rows of an event with their users
func (r *AttendanceRepository) ListByEvent(ctx context.Context, eventID int64) ([]*models.Attendance, error) {
	sql, args, err := r.sb.Select(append(append([]string{}, attendanceColumns...), userColumns...)...).
		From("attendances a").
		Join("users u ON u.id = a.user_id").
		Where(squirrel.Eq{"a.event_id": eventID}).
		OrderBy("a.check_in_time ASC").
		ToSql()
	if err != nil {
		return nil, buildError(err, "event attendance")
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("eventID", eventID).Msg("Error executing event attendance query")
		return nil, fmt.Errorf("error listing attendance: %w", err)
	}
	defer rows.Close()

	records := make([]*models.Attendance, 0)
	for rows.Next() {
		a := &models.Attendance{}
		u := &models.User{}
		if err := rows.Scan(append(attendanceDest(a), userDest(u)...)...); err != nil {
			return nil, fmt.Errorf("error scanning attendance: %w", err)
		}
		a.User = u
		records = append(records, a)
	}
	return records, rows.Err()
}

// ListByUser returns a user's attendance rows with their events, latest event first
func (r *AttendanceRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Attendance, error) {
	sql, args, err := r.sb.Select(append(append([]string{}, eventColumns...), attendanceColumns...)...).
		From("attendances a").
		Join("events e ON e.id = a.event_id").
		Where(squirrel.Eq{"a.user_id": userID}).
		OrderBy("e.event_date DESC").
		ToSql()
	if err != nil {
		return nil, buildError(err, "user attendance")
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("userID", userID).Msg("Error executing user attendance query")
		return nil, fmt.Errorf("error listing attendance: %w", err)
	}
	defer rows.Close()

	records := make([]*models.Attendance, 0)
	for rows.Next() {
		a := &models.Attendance{}
		event, err := scanEvent(rows, attendanceDest(a)...)
		if err != nil {
			return nil, fmt.Errorf("error scanning attendance: %w", err)
		}
		a.Event = event
		records = append(records, a)
	}
	return records, rows.Err()
}

// ListPresentWithoutCertificate returns the users present at an event who
// hold no certificate for it yet
func (r *AttendanceRepository) ListPresentWithoutCertificate(ctx context.Context, eventID int64) ([]int64, error) {
	sql, args, err := r.sb.Select("a.user_id").
		From("attendances a").
		Where(squirrel.Eq{"a.event_id": eventID, "a.is_present": true}).
		Where("NOT EXISTS (SELECT 1 FROM certificates c WHERE c.event_id = a.event_id AND c.user_id = a.user_id)").
		OrderBy("a.user_id").
		ToSql()
	if err != nil {
		return nil, buildError(err, "uncertified attendees")
	}
	return collectIDs(ctx, r.db, sql, args)
}

// CountPresentByUser returns how many events the user attended
func (r *AttendanceRepository) CountPresentByUser(ctx context.Context, userID int64) (int64, error) {
	return countRows(ctx, r.db, r.sb.Select("COUNT(*)").
		From("attendances").
		Where(squirrel.Eq{"user_id": userID, "is_present": true}), "user attendance")
}
