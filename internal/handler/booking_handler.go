package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/workshophub/workshop-booking/internal/dto"
	"github.com/workshophub/workshop-booking/internal/middleware"
	"github.com/workshophub/workshop-booking/internal/models"
	"github.com/workshophub/workshop-booking/internal/repository"
	"github.com/workshophub/workshop-booking/internal/service"
)

type BookingHandler struct {
	svc service.BookingService
}

func NewBookingHandler(svc service.BookingService) *BookingHandler {
	return &BookingHandler{svc: svc}
}

func (h *BookingHandler) RegisterRoutes(e *echo.Echo, auth, admin echo.MiddlewareFunc) {
	g := e.Group("/api/bookings")
	g.POST("", h.CreateBooking, auth)
	g.GET("", h.ListBookings, auth, admin)
	g.GET("/my", h.MyBookings, auth)
	g.PUT("/:id", h.EditBooking, auth)
	g.PUT("/:id/timeslot", h.ReassignTimeSlot, auth)
	g.DELETE("/:id", h.CancelBooking, auth)
	g.GET("/:confirmationId", h.GetByCode)
}

func (h *BookingHandler) CreateBooking(c echo.Context) error {
	var req dto.CreateBookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	booking, err := h.svc.CreateBooking(c.Request().Context(), middleware.UserID(c), req)
	if err != nil {
		return bookingError(err)
	}

	return c.JSON(http.StatusOK, dto.ConfirmationResponse{ConfirmationID: booking.BookingCode})
}

func (h *BookingHandler) ListBookings(c echo.Context) error {
	filter := repository.BookingFilter{
		Search:     c.QueryParam("search"),
		Status:     models.BookingStatus(c.QueryParam("status")),
		WorkshopID: c.QueryParam("workshopId"),
		Page:       intQueryParam(c, "page", 1),
		Limit:      intQueryParam(c, "limit", 10),
	}
	if from, err := time.Parse(time.RFC3339, c.QueryParam("startDate")); err == nil {
		if to, err := time.Parse(time.RFC3339, c.QueryParam("endDate")); err == nil {
			filter.StartDate = &from
			filter.EndDate = &to
		}
	}

	bookings, total, err := h.svc.List(c.Request().Context(), filter)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch bookings")
	}

	resp := dto.BookingListResponse{
		Bookings: make([]dto.BookingResponse, len(bookings)),
		Total:    total,
	}
	for i, b := range bookings {
		resp.Bookings[i] = dto.ToBookingResponse(&b)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *BookingHandler) MyBookings(c echo.Context) error {
	bookings, err := h.svc.ListForUser(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch bookings")
	}

	resp := make([]dto.BookingResponse, len(bookings))
	for i, b := range bookings {
		resp[i] = dto.ToBookingResponse(&b)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *BookingHandler) EditBooking(c echo.Context) error {
	var req dto.UpdateBookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	booking, err := h.svc.EditBooking(c.Request().Context(), c.Param("id"), middleware.UserID(c), middleware.IsAdmin(c), req)
	if err != nil {
		return bookingError(err)
	}
	return c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}

func (h *BookingHandler) ReassignTimeSlot(c echo.Context) error {
	var req dto.ReassignTimeSlotRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.TimeSlotID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "timeSlotId is required")
	}

	booking, err := h.svc.ReassignTimeSlot(c.Request().Context(), c.Param("id"), middleware.UserID(c), middleware.IsAdmin(c), req.TimeSlotID)
	if err != nil {
		return bookingError(err)
	}
	return c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}

func (h *BookingHandler) CancelBooking(c echo.Context) error {
	err := h.svc.CancelBooking(c.Request().Context(), c.Param("id"), middleware.UserID(c), middleware.IsAdmin(c))
	if err != nil {
		return bookingError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Booking canceled successfully"})
}

func (h *BookingHandler) GetByCode(c echo.Context) error {
	booking, err := h.svc.GetByCode(c.Request().Context(), c.Param("confirmationId"))
	if err != nil {
		return bookingError(err)
	}
	return c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}

func bookingError(err error) error {
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrCapacityExhausted),
		errors.Is(err, service.ErrAlreadyCanceled),
		errors.Is(err, service.ErrImmutableAfterCancel):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrBookingNotFound),
		errors.Is(err, service.ErrSlotNotFound),
		errors.Is(err, service.ErrWorkshopNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrConflict):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func intQueryParam(c echo.Context, name string, fallback int) int {
	n, err := strconv.Atoi(c.QueryParam(name))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
