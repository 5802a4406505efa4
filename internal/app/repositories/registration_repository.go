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
	"github.com/yigit/unievents/internal/db"
	"github.com/yigit/unievents/internal/pkg/apperrors"
	"github.com/yigit/unievents/internal/pkg/dberrors"
	"github.com/yigit/unievents/internal/pkg/logger"
)

var registrationColumns = []string{
	"reg.id", "reg.event_id", "reg.user_id", "reg.registration_date", "reg.status", "reg.guest_count",
}

func registrationDest(reg *models.Registration) []any {
	return []any{&reg.ID, &reg.EventID, &reg.UserID, &reg.RegistrationDate, &reg.Status, &reg.GuestCount}
}

// RegistrationRepository handles event registration database operations
type RegistrationRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewRegistrationRepository creates a new RegistrationRepository
func NewRegistrationRepository(db *pgxpool.Pool) *RegistrationRepository {
	return &RegistrationRepository{
		db: db,
		sb: newStatementBuilder(),
	}
}

// Register creates a registration for userID. The event row is locked while
// the confirmed seats are counted, so concurrent registrations cannot both
// take the last seat.
func (r *RegistrationRepository) Register(ctx context.Context, eventID, userID int64, guestCount int, now time.Time) (*models.Registration, error) {
	reg := &models.Registration{EventID: eventID, UserID: userID, GuestCount: guestCount, RegistrationDate: now}

	err := db.RunInTx(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		maxCapacity, err := r.lockEvent(ctx, tx, eventID)
		if err != nil {
			return err
		}

		if _, err := r.active(ctx, tx, eventID, userID); err == nil {
			return apperrors.ErrAlreadyRegistered
		} else if !errors.Is(err, apperrors.ErrRegistrationNotFound) {
			return err
		}

		confirmed, err := countRows(ctx, tx, r.sb.Select("COUNT(*)").
			From("registrations").
			Where(squirrel.Eq{"event_id": eventID, "status": models.RegistrationConfirmed}), "confirmed registrations")
		if err != nil {
			return err
		}
		reg.Status = models.DecideRegistrationStatus(int(confirmed), maxCapacity)

		sql, args, err := r.sb.Insert("registrations").
			Columns("event_id", "user_id", "registration_date", "status", "guest_count").
			Values(eventID, userID, now, reg.Status, guestCount).
			Suffix("RETURNING id").
			ToSql()
		if err != nil {
			return buildError(err, "create registration")
		}
		if err := tx.QueryRow(ctx, sql, args...).Scan(&reg.ID); err != nil {
			if dberrors.IsDuplicateConstraintError(err, "registrations_active_idx") {
				return apperrors.ErrAlreadyRegistered
			}
			logger.Error().Err(err).Int64("eventID", eventID).Int64("userID", userID).Msg("Error executing create registration query")
			return fmt.Errorf("error creating registration: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reg, nil
}

func (r *RegistrationRepository) lockEvent(ctx context.Context, tx pgx.Tx, eventID int64) (int, error) {
	sql, args, err := r.sb.Select("max_capacity").
		From("events").
		Where(squirrel.Eq{"id": eventID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return 0, buildError(err, "lock event")
	}

	var maxCapacity int
	if err := tx.QueryRow(ctx, sql, args...).Scan(&maxCapacity); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperrors.ErrEventNotFound
		}
		return 0, fmt.Errorf("error locking event: %w", err)
	}
	return maxCapacity, nil
}

// Cancel cancels the registration regID owned by userID. When a confirmed
// seat is released the earliest waitlisted registration is confirmed and
// returned as promoted, otherwise promoted is nil.
func (r *RegistrationRepository) Cancel(ctx context.Context, regID, userID int64) (cancelled, promoted *models.Registration, err error) {
	err = db.RunInTx(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		// event first, then registrations: the same order Register uses
		peek, err := r.getOne(ctx, tx, squirrel.Eq{"reg.id": regID}, false)
		if err != nil {
			return err
		}
		if _, err := r.lockEvent(ctx, tx, peek.EventID); err != nil {
			return err
		}
		reg, err := r.getOne(ctx, tx, squirrel.Eq{"reg.id": regID}, true)
		if err != nil {
			return err
		}
		if reg.UserID != userID {
			return apperrors.ErrRegistrationNotFound
		}
		if reg.Status == models.RegistrationCancelled {
			return apperrors.ErrRegistrationCancelled
		}

		wasConfirmed := reg.Status == models.RegistrationConfirmed
		if err := r.setStatus(ctx, tx, reg.ID, models.RegistrationCancelled); err != nil {
			return err
		}
		reg.Status = models.RegistrationCancelled
		cancelled = reg

		if !wasConfirmed {
			return nil
		}

		next, err := r.getOne(ctx, tx, squirrel.Eq{"reg.event_id": reg.EventID, "reg.status": models.RegistrationWaitlist}, true)
		if errors.Is(err, apperrors.ErrRegistrationNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := r.setStatus(ctx, tx, next.ID, models.RegistrationConfirmed); err != nil {
			return err
		}
		next.Status = models.RegistrationConfirmed
		promoted = next
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return cancelled, promoted, nil
}

func (r *RegistrationRepository) setStatus(ctx context.Context, q querier, id int64, status models.RegistrationStatus) error {
	sql, args, err := r.sb.Update("registrations").Set("status", status).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return buildError(err, "set registration status")
	}
	cmdTag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("registrationID", id).Msg("Error executing registration status update")
		return fmt.Errorf("error updating registration: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrRegistrationNotFound
	}
	return nil
}

// getOne returns the oldest registration matching where, optionally locking it
func (r *RegistrationRepository) getOne(ctx context.Context, q querier, where squirrel.Sqlizer, lock bool) (*models.Registration, error) {
	builder := r.sb.Select(registrationColumns...).
		From("registrations reg").
		Where(where).
		OrderBy("reg.registration_date ASC", "reg.id ASC").
		Limit(1)
	if lock {
		builder = builder.Suffix("FOR UPDATE")
	}
	sql, args, err := builder.ToSql()
	if err != nil {
		return nil, buildError(err, "get registration")
	}

	reg := &models.Registration{}
	if err := q.QueryRow(ctx, sql, args...).Scan(registrationDest(reg)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrRegistrationNotFound
		}
		logger.Error().Err(err).Msg("Error scanning registration row")
		return nil, fmt.Errorf("error retrieving registration: %w", err)
	}
	return reg, nil
}

func (r *RegistrationRepository) active(ctx context.Context, q querier, eventID, userID int64) (*models.Registration, error) {
	return r.getOne(ctx, q, squirrel.And{
		squirrel.Eq{"reg.event_id": eventID, "reg.user_id": userID},
		squirrel.NotEq{"reg.status": models.RegistrationCancelled},
	}, false)
}

// GetByID retrieves a registration by ID
func (r *RegistrationRepository) GetByID(ctx context.Context, id int64) (*models.Registration, error) {
	return r.getOne(ctx, r.db, squirrel.Eq{"reg.id": id}, false)
}

// GetActive returns the user's non-cancelled registration for an event
func (r *RegistrationRepository) GetActive(ctx context.Context, eventID, userID int64) (*models.Registration, error) {
	return r.active(ctx, r.db, eventID, userID)
}

// ListByUser returns a user's registrations with their events, latest event first
func (r *RegistrationRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Registration, error) {
	sql, args, err := r.sb.Select(append(append([]string{}, eventColumns...), registrationColumns...)...).
		From("registrations reg").
		Join("events e ON e.id = reg.event_id").
		Where(squirrel.Eq{"reg.user_id": userID}).
		OrderBy("e.event_date DESC", "reg.id DESC").
		ToSql()
	if err != nil {
		return nil, buildError(err, "user registrations")
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("userID", userID).Msg("Error executing user registrations query")
		return nil, fmt.Errorf("error listing registrations: %w", err)
	}
	defer rows.Close()

	regs := make([]*models.Registration, 0)
	for rows.Next() {
		reg := &models.Registration{}
		event, err := scanEvent(rows, registrationDest(reg)...)
		if err != nil {
			return nil, fmt.Errorf("error scanning registration: %w", err)
		}
		reg.Event = event
		regs = append(regs, reg)
	}
	return regs, rows.Err()
}

// ListByEvent returns an event's registrations with their users, in registration order
func (r *RegistrationRepository) ListByEvent(ctx context.Context, eventID int64) ([]*models.Registration, error) {
	sql, args, err := r.sb.Select(append(append([]string{}, registrationColumns...), userColumns...)...).
		From("registrations reg").
		Join("users u ON u.id = reg.user_id").
		Where(squirrel.Eq{"reg.event_id": eventID}).
		OrderBy("reg.registration_date ASC", "reg.id ASC").
		ToSql()
	if err != nil {
		return nil, buildError(err, "event registrations")
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("eventID", eventID).Msg("Error executing event registrations query")
		return nil, fmt.Errorf("error listing registrations: %w", err)
	}
	defer rows.Close()

	regs := make([]*models.Registration, 0)
	for rows.Next() {
		reg := &models.Registration{}
		u := &models.User{}
		if err := rows.Scan(append(registrationDest(reg), userDest(u)...)...); err != nil {
			return nil, fmt.Errorf("error scanning registration: %w", err)
		}
		reg.User = u
		regs = append(regs, reg)
	}
	return regs, rows.Err()
}

// ListActiveUserIDs returns the users holding a non-cancelled registration for an event
func (r *RegistrationRepository) ListActiveUserIDs(ctx context.Context, eventID int64) ([]int64, error) {
	sql, args, err := r.sb.Select("DISTINCT user_id").
		From("registrations").
		Where(squirrel.Eq{"event_id": eventID}).
		Where(squirrel.NotEq{"status": models.RegistrationCancelled}).
		OrderBy("user_id").
		ToSql()
	if err != nil {
		return nil, buildError(err, "registrant ids")
	}
	return collectIDs(ctx, r.db, sql, args)
}

// Count returns the number of registrations
func (r *RegistrationRepository) Count(ctx context.Context) (int64, error) {
	return countRows(ctx, r.db, r.sb.Select("COUNT(*)").From("registrations"), "registrations")
}
