package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/unievents/internal/app/models/dto"
	"github.com/yigit/unievents/internal/app/services"
	"github.com/yigit/unievents/internal/middleware"
)

// BusController handles event shuttle buses and seat reservations
type BusController struct {
	busService services.BusService
	logger     zerolog.Logger
}

// NewBusController creates a new BusController
func NewBusController(busService services.BusService, logger zerolog.Logger) *BusController {
	return &BusController{
		busService: busService,
		logger:     logger,
	}
}

// ListByEvent lists the buses of an event
// @Summary Event buses
// @Tags buses
// @Produce json
// @Param id path int true "Event ID"
// @Success 200 {object} dto.APIResponse{data=[]models.Bus}
// @Router /events/{id}/buses [get]
func (c *BusController) ListByEvent(ctx *gin.Context) {
	eventID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	buses, err := c.busService.ListByEvent(ctx.Request.Context(), eventID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(buses))
}

// GetBus returns one bus
// @Summary Bus details
// @Tags buses
// @Produce json
// @Param id path int true "Bus ID"
// @Success 200 {object} dto.APIResponse{data=models.Bus}
// @Failure 404 {object} dto.ErrorResponse "Bus not found"
// @Router /buses/{id} [get]
func (c *BusController) GetBus(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	bus, err := c.busService.Get(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(bus))
}

// Reserve books seats on a bus
// @Summary Reserve seats
// @Tags buses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Bus ID"
// @Param request body dto.ReserveSeatRequest true "Passengers"
// @Success 201 {object} dto.APIResponse{data=models.BusReservation}
// @Failure 409 {object} dto.ErrorResponse "Bus full or already reserved"
// @Router /buses/{id}/reservations [post]
func (c *BusController) Reserve(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	busID, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req dto.ReserveSeatRequest
	if !bindJSON(ctx, c.logger, &req) {
		return
	}

	res, err := c.busService.Reserve(ctx.Request.Context(), busID, userID, req.PassengerCount)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(res))
}

// CancelReservation cancels one of the caller's reservations
// @Summary Cancel reservation
// @Tags buses
// @Produce json
// @Security BearerAuth
// @Param id path int true "Reservation ID"
// @Success 200 {object} dto.APIResponse{data=models.BusReservation}
// @Failure 404 {object} dto.ErrorResponse "Reservation not found"
// @Router /bus-reservations/{id} [delete]
func (c *BusController) CancelReservation(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	res, err := c.busService.CancelReservation(ctx.Request.Context(), id, userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(res))
}

// ListMine lists the caller's confirmed reservations
// @Summary My reservations
// @Tags buses
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.BusReservation}
// @Router /bus-reservations/me [get]
func (c *BusController) ListMine(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	list, err := c.busService.ListMine(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(list))
}

// CreateBus adds a bus to an event
// @Summary Create bus
// @Tags admin-buses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.BusRequest true "Bus"
// @Success 201 {object} dto.APIResponse{data=models.Bus}
// @Failure 404 {object} dto.ErrorResponse "Event not found"
// @Router /admin/buses [post]
func (c *BusController) CreateBus(ctx *gin.Context) {
	var req dto.BusRequest
	if !bindJSON(ctx, c.logger, &req) {
		return
	}

	bus, err := c.busService.Create(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(bus))
}

// UpdateBus edits a bus
// @Summary Update bus
// @Tags admin-buses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Bus ID"
// @Param request body dto.BusRequest true "Bus"
// @Success 200 {object} dto.APIResponse{data=models.Bus}
// @Failure 409 {object} dto.ErrorResponse "Capacity below booked seats"
// @Router /admin/buses/{id} [put]
func (c *BusController) UpdateBus(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req dto.BusRequest
	if !bindJSON(ctx, c.logger, &req) {
		return
	}

	bus, err := c.busService.Update(ctx.Request.Context(), id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(bus))
}

// DeleteBus removes a bus and its reservations
// @Summary Delete bus
// @Tags admin-buses
// @Produce json
// @Security BearerAuth
// @Param id path int true "Bus ID"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Router /admin/buses/{id} [delete]
func (c *BusController) DeleteBus(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if err := c.busService.Delete(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.SuccessResponse{Message: "Bus deleted"}))
}

// ListReservations lists a bus's reservations
// @Summary Bus reservations
// @Tags admin-buses
// @Produce json
// @Security BearerAuth
// @Param id path int true "Bus ID"
// @Success 200 {object} dto.APIResponse{data=[]models.BusReservation}
// @Router /admin/buses/{id}/reservations [get]
func (c *BusController) ListReservations(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	list, err := c.busService.ListReservations(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(list))
}
