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

var busColumns = []string{
	"b.id", "b.event_id", "b.bus_number", "b.capacity", "b.departure_time",
	"b.departure_location", "b.destination_location", "b.current_passengers",
}

func busDest(b *models.Bus) []any {
	return []any{&b.ID, &b.EventID, &b.BusNumber, &b.Capacity, &b.DepartureTime,
		&b.DepartureLocation, &b.DestinationLocation, &b.CurrentPassengers}
}

var reservationColumns = []string{
	"br.id", "br.bus_id", "br.user_id", "br.reservation_date", "br.passenger_count", "br.status",
}

func reservationDest(res *models.BusReservation) []any {
	return []any{&res.ID, &res.BusID, &res.UserID, &res.ReservationDate, &res.PassengerCount, &res.Status}
}

// BusRepository handles bus and seat reservation database operations
type BusRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewBusRepository creates a new BusRepository
func NewBusRepository(db *pgxpool.Pool) *BusRepository {
	return &BusRepository{
		db: db,
		sb: newStatementBuilder(),
	}
}

// Create inserts a bus with no passengers
func (r *BusRepository) Create(ctx context.Context, bus *models.Bus) error {
	sql, args, err := r.sb.Insert("buses").
		Columns("event_id", "bus_number", "capacity", "departure_time", "departure_location", "destination_location", "current_passengers").
		Values(bus.EventID, bus.BusNumber, bus.Capacity, bus.DepartureTime, bus.DepartureLocation, bus.DestinationLocation, 0).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return buildError(err, "create bus")
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&bus.ID); err != nil {
		if dberrors.IsForeignKeyError(err) {
			return apperrors.ErrEventNotFound
		}
		logger.Error().Err(err).Int64("eventID", bus.EventID).Msg("Error executing create bus query")
		return fmt.Errorf("error creating bus: %w", err)
	}
	bus.CurrentPassengers = 0
	return nil
}

func (r *BusRepository) getBus(ctx context.Context, q querier, id int64, lock bool) (*models.Bus, error) {
	builder := r.sb.Select(busColumns...).From("buses b").Where(squirrel.Eq{"b.id": id})
	if lock {
		builder = builder.Suffix("FOR UPDATE")
	}
	sql, args, err := builder.ToSql()
	if err != nil {
		return nil, buildError(err, "get bus")
	}

	bus := &models.Bus{}
	if err := q.QueryRow(ctx, sql, args...).Scan(busDest(bus)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrBusNotFound
		}
		logger.Error().Err(err).Int64("busID", id).Msg("Error scanning bus row")
		return nil, fmt.Errorf("error retrieving bus: %w", err)
	}
	return bus, nil
}

// GetByID retrieves a bus by ID
func (r *BusRepository) GetByID(ctx context.Context, id int64) (*models.Bus, error) {
	return r.getBus(ctx, r.db, id, false)
}

// Update writes the editable bus fields. The capacity may not fall below
// the seats already reserved.
func (r *BusRepository) Update(ctx context.Context, bus *models.Bus) error {
	sql, args, err := r.sb.Update("buses").
		SetMap(map[string]interface{}{
			"event_id":             bus.EventID,
			"bus_number":           bus.BusNumber,
			"capacity":             bus.Capacity,
			"departure_time":       bus.DepartureTime,
			"departure_location":   bus.DepartureLocation,
			"destination_location": bus.DestinationLocation,
		}).
		Where(squirrel.Eq{"id": bus.ID}).
		Where(squirrel.LtOrEq{"current_passengers": bus.Capacity}).
		ToSql()
	if err != nil {
		return buildError(err, "update bus")
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		if dberrors.IsForeignKeyError(err) {
			return apperrors.ErrEventNotFound
		}
		logger.Error().Err(err).Int64("busID", bus.ID).Msg("Error executing update bus query")
		return fmt.Errorf("error updating bus: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, bus.ID); err != nil {
			return err
		}
		return apperrors.ErrCapacityBelowLoad
	}
	return nil
}

// Delete removes a bus and its reservations
func (r *BusRepository) Delete(ctx context.Context, id int64) error {
	return db.RunInTx(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		sql, args, err := r.sb.Delete("bus_reservations").Where(squirrel.Eq{"bus_id": id}).ToSql()
		if err != nil {
			return buildError(err, "delete bus reservations")
		}
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("error deleting bus reservations: %w", err)
		}

		sql, args, err = r.sb.Delete("buses").Where(squirrel.Eq{"id": id}).ToSql()
		if err != nil {
			return buildError(err, "delete bus")
		}
		cmdTag, err := tx.Exec(ctx, sql, args...)
		if err != nil {
			logger.Error().Err(err).Int64("busID", id).Msg("Error executing delete bus query")
			return fmt.Errorf("error deleting bus: %w", err)
		}
		if cmdTag.RowsAffected() == 0 {
			return apperrors.ErrBusNotFound
		}
		return nil
	})
}

// ListByEvent returns the buses serving an event by departure time
func (r *BusRepository) ListByEvent(ctx context.Context, eventID int64) ([]*models.Bus, error) {
	sql, args, err := r.sb.Select(busColumns...).
		From("buses b").
		Where(squirrel.Eq{"b.event_id": eventID}).
		OrderBy("b.departure_time ASC", "b.id ASC").
		ToSql()
	if err != nil {
		return nil, buildError(err, "event buses")
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("eventID", eventID).Msg("Error executing event buses query")
		return nil, fmt.Errorf("error listing buses: %w", err)
	}
	defer rows.Close()

	buses := make([]*models.Bus, 0)
	for rows.Next() {
		bus := &models.Bus{}
		if err := rows.Scan(busDest(bus)...); err != nil {
			return nil, fmt.Errorf("error scanning bus: %w", err)
		}
		buses = append(buses, bus)
	}
	return buses, rows.Err()
}

// Reserve books passengerCount seats on busID for userID. The bus row stays
// locked until the passenger count is updated.
func (r *BusRepository) Reserve(ctx context.Context, busID, userID int64, passengerCount int, now time.Time) (*models.BusReservation, error) {
	res := &models.BusReservation{
		BusID:           busID,
		UserID:          userID,
		ReservationDate: now,
		PassengerCount:  passengerCount,
		Status:          models.ReservationConfirmed,
	}

	err := db.RunInTx(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		bus, err := r.getBus(ctx, tx, busID, true)
		if err != nil {
			return err
		}

		existing, err := countRows(ctx, tx, r.sb.Select("COUNT(*)").
			From("bus_reservations").
			Where(squirrel.Eq{"bus_id": busID, "user_id": userID, "status": models.ReservationConfirmed}), "user reservations")
		if err != nil {
			return err
		}
		if existing > 0 {
			return apperrors.ErrAlreadyReserved
		}
		if bus.CurrentPassengers+passengerCount > bus.Capacity {
			return fmt.Errorf("%w: %d seats left", apperrors.ErrBusFull, bus.AvailableSeats())
		}

		if err := r.adjustPassengers(ctx, tx, busID, passengerCount); err != nil {
			return err
		}

		sql, args, err := r.sb.Insert("bus_reservations").
			Columns("bus_id", "user_id", "reservation_date", "passenger_count", "status").
			Values(busID, userID, now, passengerCount, models.ReservationConfirmed).
			Suffix("RETURNING id").
			ToSql()
		if err != nil {
			return buildError(err, "create reservation")
		}
		if err := tx.QueryRow(ctx, sql, args...).Scan(&res.ID); err != nil {
			if dberrors.IsDuplicateConstraintError(err, "bus_reservations_active_idx") {
				return apperrors.ErrAlreadyReserved
			}
			logger.Error().Err(err).Int64("busID", busID).Int64("userID", userID).Msg("Error executing create reservation query")
			return fmt.Errorf("error creating reservation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (r *BusRepository) adjustPassengers(ctx context.Context, tx pgx.Tx, busID int64, delta int) error {
	sql, args, err := r.sb.Update("buses").
		Set("current_passengers", squirrel.Expr("GREATEST(current_passengers + ?, 0)", delta)).
		Where(squirrel.Eq{"id": busID}).
		ToSql()
	if err != nil {
		return buildError(err, "adjust passengers")
	}

	if _, err := tx.Exec(ctx, sql, args...); err != nil {
		if dberrors.IsCheckConstraintError(err, "buses_load_check") {
			return apperrors.ErrBusFull
		}
		logger.Error().Err(err).Int64("busID", busID).Msg("Error adjusting bus passengers")
		return fmt.Errorf("error updating bus passengers: %w", err)
	}
	return nil
}

// CancelReservation cancels a confirmed reservation owned by userID and
// frees its seats
func (r *BusRepository) CancelReservation(ctx context.Context, reservationID, userID int64) (*models.BusReservation, error) {
	var res *models.BusReservation
	err := db.RunInTx(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		res, err = r.getReservation(ctx, tx, reservationID, true)
		if err != nil {
			return err
		}
		if res.UserID != userID || res.Status != models.ReservationConfirmed {
			return apperrors.ErrReservationNotFound
		}
		if _, err := r.getBus(ctx, tx, res.BusID, true); err != nil {
			return err
		}

		sql, args, err := r.sb.Update("bus_reservations").
			Set("status", models.ReservationCancelled).
			Where(squirrel.Eq{"id": reservationID}).
			ToSql()
		if err != nil {
			return buildError(err, "cancel reservation")
		}
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			logger.Error().Err(err).Int64("reservationID", reservationID).Msg("Error executing cancel reservation query")
			return fmt.Errorf("error cancelling reservation: %w", err)
		}
		res.Status = models.ReservationCancelled
		return r.adjustPassengers(ctx, tx, res.BusID, -res.PassengerCount)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (r *BusRepository) getReservation(ctx context.Context, q querier, id int64, lock bool) (*models.BusReservation, error) {
	builder := r.sb.Select(reservationColumns...).From("bus_reservations br").Where(squirrel.Eq{"br.id": id})
	if lock {
		builder = builder.Suffix("FOR UPDATE")
	}
	sql, args, err := builder.ToSql()
	if err != nil {
		return nil, buildError(err, "get reservation")
	}

	res := &models.BusReservation{}
	if err := q.QueryRow(ctx, sql, args...).Scan(reservationDest(res)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrReservationNotFound
		}
		logger.Error().Err(err).Int64("reservationID", id).Msg("Error scanning reservation row")
		return nil, fmt.Errorf("error retrieving reservation: %w", err)
	}
	return res, nil
}

// ListReservationsByUser returns the user's confirmed reservations with their buses
func (r *BusRepository) ListReservationsByUser(ctx context.Context, userID int64) ([]*models.BusReservation, error) {
	sql, args, err := r.sb.Select(append(append([]string{}, reservationColumns...), busColumns...)...).
		From("bus_reservations br").
		Join("buses b ON b.id = br.bus_id").
		Where(squirrel.Eq{"br.user_id": userID, "br.status": models.ReservationConfirmed}).
		OrderBy("b.departure_time ASC").
		ToSql()
	if err != nil {
		return nil, buildError(err, "user reservations")
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("userID", userID).Msg("Error executing user reservations query")
		return nil, fmt.Errorf("error listing reservations: %w", err)
	}
	defer rows.Close()

	list := make([]*models.BusReservation, 0)
	for rows.Next() {
		res := &models.BusReservation{}
		bus := &models.Bus{}
		if err := rows.Scan(append(reservationDest(res), busDest(bus)...)...); err != nil {
			return nil, fmt.Errorf("error scanning reservation: %w", err)
		}
		res.Bus = bus
		list = append(list, res)
	}
	return list, rows.Err()
}

// ListReservationsByBus returns every reservation on a bus with its user
func (r *BusRepository) ListReservationsByBus(ctx context.Context, busID int64) ([]*models.BusReservation, error) {
	sql, args, err := r.sb.Select(append(append([]string{}, reservationColumns...), userColumns...)...).
		From("bus_reservations br").
		Join("users u ON u.id = br.user_id").
		Where(squirrel.Eq{"br.bus_id": busID}).
		OrderBy("br.reservation_date ASC", "br.id ASC").
		ToSql()
	if err != nil {
		return nil, buildError(err, "bus reservations")
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("busID", busID).Msg("Error executing bus reservations query")
		return nil, fmt.Errorf("error listing reservations: %w", err)
	}
	defer rows.Close()

	list := make([]*models.BusReservation, 0)
	for rows.Next() {
		res := &models.BusReservation{}
		u := &models.User{}
		if err := rows.Scan(append(reservationDest(res), userDest(u)...)...); err != nil {
			return nil, fmt.Errorf("error scanning reservation: %w", err)
		}
		res.User = u
		list = append(list, res)
	}
	return list, rows.Err()
}
