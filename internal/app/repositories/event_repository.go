package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/unievents/internal/app/models"
	"github.com/yigit/unievents/internal/pkg/apperrors"
	"github.com/yigit/unievents/internal/pkg/dberrors"
	"github.com/yigit/unievents/internal/pkg/logger"
)

var eventColumns = []string{
	"e.id", "e.title", "e.description", "e.event_date", "e.venue", "e.created_by", "e.is_approved",
	"e.max_capacity", "e.event_type", "e.created_date", "e.image_url", "e.volunteer_hours", "e.secret",
}

func scanEvent(row pgx.Row, extra ...any) (*models.Event, error) {
	e := &models.Event{}
	dest := []any{
		&e.ID, &e.Title, &e.Description, &e.EventDate, &e.Venue, &e.CreatedBy, &e.IsApproved,
		&e.MaxCapacity, &e.EventType, &e.CreatedDate, &e.ImageURL, &e.VolunteerHours, &e.Secret,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return e, nil
}

// EventRepository handles event database operations
type EventRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewEventRepository creates a new EventRepository
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{
		db: db,
		sb: newStatementBuilder(),
	}
}

// Create inserts an event and fills in its ID and created date
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	sql, args, err := r.sb.Insert("events").
		Columns("title", "description", "event_date", "venue", "created_by", "is_approved",
			"max_capacity", "event_type", "image_url", "volunteer_hours", "secret").
		Values(event.Title, event.Description, event.EventDate, event.Venue, event.CreatedBy, event.IsApproved,
			event.MaxCapacity, event.EventType, event.ImageURL, event.VolunteerHours, event.Secret).
		Suffix("RETURNING id, created_date").
		ToSql()
	if err != nil {
		return buildError(err, "create event")
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&event.ID, &event.CreatedDate); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "events_secret_key") {
			return apperrors.NewConflictError("event secret collision, please retry")
		}
		logger.Error().Err(err).Str("title", event.Title).Msg("Error executing create event query")
		return fmt.Errorf("error creating event: %w", err)
	}
	return nil
}

func (r *EventRepository) getOne(ctx context.Context, where squirrel.Sqlizer) (*models.Event, error) {
	sql, args, err := r.sb.Select(eventColumns...).From("events e").Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, buildError(err, "get event")
	}

	event, err := scanEvent(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrEventNotFound
		}
		logger.Error().Err(err).Msg("Error scanning event row")
		return nil, fmt.Errorf("error retrieving event: %w", err)
	}
	return event, nil
}

// GetByID retrieves an event by ID
func (r *EventRepository) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	return r.getOne(ctx, squirrel.Eq{"e.id": id})
}

// GetBySecret retrieves an event by its QR check-in secret
func (r *EventRepository) GetBySecret(ctx context.Context, secret string) (*models.Event, error) {
	return r.getOne(ctx, squirrel.Eq{"e.secret": secret})
}

// Update writes the editable event fields
func (r *EventRepository) Update(ctx context.Context, event *models.Event) error {
	return r.update(ctx, event.ID, "update event", map[string]interface{}{
		"title":           event.Title,
		"description":     event.Description,
		"event_date":      event.EventDate,
		"venue":           event.Venue,
		"max_capacity":    event.MaxCapacity,
		"event_type":      event.EventType,
		"volunteer_hours": event.VolunteerHours,
	})
}

// Approve marks an event approved
func (r *EventRepository) Approve(ctx context.Context, id int64) error {
	return r.update(ctx, id, "approve event", map[string]interface{}{"is_approved": true})
}

// SetImageURL stores the uploaded image location
func (r *EventRepository) SetImageURL(ctx context.Context, id int64, url string) error {
	return r.update(ctx, id, "set event image", map[string]interface{}{"image_url": url})
}

// SetSecret replaces the QR check-in secret
func (r *EventRepository) SetSecret(ctx context.Context, id int64, secret string) error {
	return r.update(ctx, id, "set event secret", map[string]interface{}{"secret": secret})
}

func (r *EventRepository) update(ctx context.Context, id int64, what string, values map[string]interface{}) error {
	sql, args, err := r.sb.Update("events").SetMap(values).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return buildError(err, what)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, "events_secret_key") {
			return apperrors.NewConflictError("event secret collision, please retry")
		}
		logger.Error().Err(err).Int64("eventID", id).Str("operation", what).Msg("Error executing event update")
		return fmt.Errorf("error executing %s: %w", what, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrEventNotFound
	}
	return nil
}

// Delete removes an event; registrations, attendance, certificates,
// buses and feedback cascade with it.
func (r *EventRepository) Delete(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Delete("events").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return buildError(err, "delete event")
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("eventID", id).Msg("Error executing delete event query")
		return fmt.Errorf("error deleting event: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrEventNotFound
	}
	return nil
}

func eventFilterConditions(filter models.EventFilter) squirrel.And {
	conds := squirrel.And{}
	if filter.OnlyApproved {
		conds = append(conds, squirrel.Eq{"e.is_approved": true})
	}
	if q := strings.TrimSpace(filter.Search); q != "" {
		pattern := "%" + q + "%"
		conds = append(conds, squirrel.Or{
			squirrel.ILike{"e.title": pattern},
			squirrel.ILike{"e.description": pattern},
		})
	}
	if filter.EventType != "" {
		conds = append(conds, squirrel.Eq{"e.event_type": filter.EventType})
	}
	return conds
}

// List returns one page of events, latest date first, plus the total
func (r *EventRepository) List(ctx context.Context, filter models.EventFilter, offset, limit uint64) ([]*models.Event, int64, error) {
	conds := eventFilterConditions(filter)

	total, err := countRows(ctx, r.db, r.sb.Select("COUNT(*)").From("events e").Where(conds), "events")
	if err != nil {
		return nil, 0, err
	}

	events, err := r.query(ctx, "list events", r.sb.Select(eventColumns...).
		From("events e").
		Where(conds).
		OrderBy("e.event_date DESC", "e.id DESC").
		Offset(offset).
		Limit(limit))
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

// ListUpcoming returns approved events starting at or after now, soonest
// first. A zero limit returns all of them.
func (r *EventRepository) ListUpcoming(ctx context.Context, now time.Time, limit uint64) ([]*models.Event, error) {
	builder := r.sb.Select(eventColumns...).
		From("events e").
		Where(squirrel.Eq{"e.is_approved": true}).
		Where(squirrel.GtOrEq{"e.event_date": now}).
		OrderBy("e.event_date ASC", "e.id ASC")
	if limit > 0 {
		builder = builder.Limit(limit)
	}
	return r.query(ctx, "upcoming events", builder)
}

// ListUpcomingForUser returns the events starting after now that the user
// holds a confirmed registration for.
func (r *EventRepository) ListUpcomingForUser(ctx context.Context, userID int64, now time.Time, limit uint64) ([]*models.Event, error) {
	builder := r.sb.Select(eventColumns...).
		From("events e").
		Join("registrations reg ON reg.event_id = e.id").
		Where(squirrel.Eq{"reg.user_id": userID, "reg.status": models.RegistrationConfirmed}).
		Where(squirrel.GtOrEq{"e.event_date": now}).
		OrderBy("e.event_date ASC", "e.id ASC")
	if limit > 0 {
		builder = builder.Limit(limit)
	}
	return r.query(ctx, "user upcoming events", builder)
}

// ListAttendedByUser returns the events the user was marked present at, latest first
func (r *EventRepository) ListAttendedByUser(ctx context.Context, userID int64) ([]*models.Event, error) {
	return r.query(ctx, "attended events", r.sb.Select(eventColumns...).
		From("events e").
		Join("attendances a ON a.event_id = e.id").
		Where(squirrel.Eq{"a.user_id": userID, "a.is_present": true}).
		OrderBy("e.event_date DESC"))
}

func (r *EventRepository) query(ctx context.Context, what string, builder squirrel.SelectBuilder) ([]*models.Event, error) {
	sql, args, err := builder.ToSql()
	if err != nil {
		return nil, buildError(err, what)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("query", what).Msg("Error executing event query")
		return nil, fmt.Errorf("error querying %s: %w", what, err)
	}
	defer rows.Close()

	events := make([]*models.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}
	return events, nil
}

// Stats aggregates seats and ratings for the event details page
func (r *EventRepository) Stats(ctx context.Context, eventID int64) (*models.EventStats, error) {
	sql, args, err := r.sb.Select(
		"(SELECT COUNT(*) FROM registrations WHERE event_id = e.id AND status = 'Confirmed')",
		"(SELECT COUNT(*) FROM registrations WHERE event_id = e.id AND status = 'Waitlist')",
		"(SELECT COALESCE(AVG(rating), 0)::float8 FROM feedbacks WHERE event_id = e.id)",
		"(SELECT COUNT(*) FROM feedbacks WHERE event_id = e.id)",
	).
		From("events e").
		Where(squirrel.Eq{"e.id": eventID}).
		ToSql()
	if err != nil {
		return nil, buildError(err, "event stats")
	}

	stats := &models.EventStats{}
	err = r.db.QueryRow(ctx, sql, args...).Scan(&stats.ConfirmedCount, &stats.WaitlistCount, &stats.AverageRating, &stats.FeedbackCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrEventNotFound
		}
		logger.Error().Err(err).Int64("eventID", eventID).Msg("Error scanning event stats")
		return nil, fmt.Errorf("error retrieving event stats: %w", err)
	}
	stats.AverageRating = models.Round2(stats.AverageRating)
	return stats, nil
}

// Count returns the number of events
func (r *EventRepository) Count(ctx context.Context) (int64, error) {
	return countRows(ctx, r.db, r.sb.Select("COUNT(*)").From("events"), "events")
}
