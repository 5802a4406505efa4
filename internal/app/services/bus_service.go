package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/unievents/internal/app/models"
	"github.com/yigit/unievents/internal/app/models/dto"
	"github.com/yigit/unievents/internal/pkg/apperrors"
	"github.com/yigit/unievents/internal/pkg/sanitize"
)

// BusService defines event transport operations
type BusService interface {
	ListByEvent(ctx context.Context, eventID int64) ([]*models.Bus, error)
	Get(ctx context.Context, id int64) (*models.Bus, error)
	Reserve(ctx context.Context, busID, userID int64, passengerCount int) (*models.BusReservation, error)
	CancelReservation(ctx context.Context, reservationID, userID int64) (*models.BusReservation, error)
	ListMine(ctx context.Context, userID int64) ([]*models.BusReservation, error)

	Create(ctx context.Context, req *dto.BusRequest) (*models.Bus, error)
	Update(ctx context.Context, id int64, req *dto.BusRequest) (*models.Bus, error)
	Delete(ctx context.Context, id int64) error
	ListReservations(ctx context.Context, busID int64) ([]*models.BusReservation, error)
}

type busServiceImpl struct {
	busRepo       BusRepository
	eventRepo     EventRepository
	notifications NotificationService
	now           Clock
	logger        zerolog.Logger
}

// NewBusService creates a new BusService
func NewBusService(
	busRepo BusRepository,
	eventRepo EventRepository,
	notifications NotificationService,
	logger zerolog.Logger,
) BusService {
	return &busServiceImpl{
		busRepo:       busRepo,
		eventRepo:     eventRepo,
		notifications: notifications,
		now:           time.Now,
		logger:        logger,
	}
}

// ListByEvent returns the buses serving an event
func (s *busServiceImpl) ListByEvent(ctx context.Context, eventID int64) ([]*models.Bus, error) {
	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		return nil, err
	}
	return s.busRepo.ListByEvent(ctx, eventID)
}

// Get returns one bus
func (s *busServiceImpl) Get(ctx context.Context, id int64) (*models.Bus, error) {
	return s.busRepo.GetByID(ctx, id)
}

// Reserve books seats for the caller. The seat count and duplicate checks run under the bus row lock.
func (s *busServiceImpl) Reserve(ctx context.Context, busID, userID int64, passengerCount int) (*models.BusReservation, error) {
	if passengerCount < 1 {
		return nil, apperrors.NewBadRequestError("passengerCount must be at least 1")
	}

	bus, err := s.busRepo.GetByID(ctx, busID)
	if err != nil {
		return nil, err
	}

	res, err := s.busRepo.Reserve(ctx, busID, userID, passengerCount, s.now())
	if err != nil {
		return nil, err
	}
	bus.CurrentPassengers += passengerCount
	res.Bus = bus

	s.logger.Info().Int64("busID", busID).Int64("userID", userID).Int("passengers", passengerCount).Msg("Bus seats reserved")

	msg := fmt.Sprintf("Reserved %d seat(s) on bus %s leaving %s at %s.",
		passengerCount, bus.BusNumber, bus.DepartureLocation, bus.DepartureTime.Format("02 Jan 2006 15:04"))
	if err := s.notifications.SendToUser(ctx, userID, msg, models.NotificationBusReservation, &bus.EventID); err != nil {
		s.logger.Warn().Err(err).Int64("userID", userID).Msg("Failed to send bus reservation notification")
	}
	return res, nil
}

// CancelReservation cancels the caller's reservation and frees its seats
func (s *busServiceImpl) CancelReservation(ctx context.Context, reservationID, userID int64) (*models.BusReservation, error) {
	res, err := s.busRepo.CancelReservation(ctx, reservationID, userID)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("reservationID", reservationID).Int64("userID", userID).Msg("Bus reservation cancelled")
	return res, nil
}

// ListMine returns the caller's confirmed reservations
func (s *busServiceImpl) ListMine(ctx context.Context, userID int64) ([]*models.BusReservation, error) {
	return s.busRepo.ListReservationsByUser(ctx, userID)
}

// Create adds a bus to an event
func (s *busServiceImpl) Create(ctx context.Context, req *dto.BusRequest) (*models.Bus, error) {
	bus := &models.Bus{
		EventID:             req.EventID,
		BusNumber:           sanitize.Text(req.BusNumber),
		Capacity:            req.Capacity,
		DepartureTime:       req.DepartureTime,
		DepartureLocation:   sanitize.Text(req.DepartureLocation),
		DestinationLocation: sanitize.Text(req.DestinationLocation),
	}
	if err := validateBus(bus); err != nil {
		return nil, err
	}
	if err := s.busRepo.Create(ctx, bus); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("busID", bus.ID).Int64("eventID", bus.EventID).Msg("Bus created")
	return bus, nil
}

// Update edits a bus. The capacity may not drop below the seats already reserved.
func (s *busServiceImpl) Update(ctx context.Context, id int64, req *dto.BusRequest) (*models.Bus, error) {
	bus, err := s.busRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.EventID != bus.EventID {
		if _, err := s.eventRepo.GetByID(ctx, req.EventID); err != nil {
			return nil, err
		}
	}

	bus.EventID = req.EventID
	bus.BusNumber = sanitize.Text(req.BusNumber)
	bus.Capacity = req.Capacity
	bus.DepartureTime = req.DepartureTime
	bus.DepartureLocation = sanitize.Text(req.DepartureLocation)
	bus.DestinationLocation = sanitize.Text(req.DestinationLocation)
	if err := validateBus(bus); err != nil {
		return nil, err
	}
	if bus.Capacity < bus.CurrentPassengers {
		return nil, apperrors.ErrCapacityBelowLoad
	}

	if err := s.busRepo.Update(ctx, bus); err != nil {
		return nil, err
	}
	return bus, nil
}

// Delete removes a bus and its reservations
func (s *busServiceImpl) Delete(ctx context.Context, id int64) error {
	if err := s.busRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("busID", id).Msg("Bus deleted")
	return nil
}

// ListReservations returns every reservation of a bus
func (s *busServiceImpl) ListReservations(ctx context.Context, busID int64) ([]*models.BusReservation, error) {
	if _, err := s.busRepo.GetByID(ctx, busID); err != nil {
		return nil, err
	}
	return s.busRepo.ListReservationsByBus(ctx, busID)
}

func validateBus(b *models.Bus) error {
	if b.BusNumber == "" {
		return apperrors.NewBadRequestError("busNumber must not be empty")
	}
	if b.Capacity < 1 {
		return apperrors.NewBadRequestError("capacity must be at least 1")
	}
	if b.DepartureLocation == "" || b.DestinationLocation == "" {
		return apperrors.NewBadRequestError("departure and destination locations are required")
	}
	return nil
}
