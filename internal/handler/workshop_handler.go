package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/workshophub/workshop-booking/internal/dto"
	"github.com/workshophub/workshop-booking/internal/repository"
	"github.com/workshophub/workshop-booking/internal/service"
)

type WorkshopHandler struct {
	workshops service.WorkshopService
	slots     service.TimeSlotService
}

func NewWorkshopHandler(workshops service.WorkshopService, slots service.TimeSlotService) *WorkshopHandler {
	return &WorkshopHandler{workshops: workshops, slots: slots}
}

func (h *WorkshopHandler) RegisterRoutes(e *echo.Echo, auth, admin echo.MiddlewareFunc) {
	w := e.Group("/api/workshops")
	w.GET("", h.ListWorkshops)
	w.GET("/:id", h.GetWorkshop)
	w.POST("", h.CreateWorkshop, auth, admin)
	w.PUT("/:id", h.UpdateWorkshop, auth, admin)
	w.DELETE("/:id", h.DeleteWorkshop, auth, admin)

	s := e.Group("/api/timeslots", auth, admin)
	s.GET("", h.ListTimeSlots)
	s.POST("", h.CreateTimeSlot)
	s.PUT("/:id", h.UpdateTimeSlot)
	s.DELETE("/:id", h.DeleteTimeSlot)
}

func (h *WorkshopHandler) ListWorkshops(c echo.Context) error {
	filter := repository.WorkshopFilter{
		Search:   c.QueryParam("search"),
		Category: c.QueryParam("category"),
		Page:     intQueryParam(c, "page", 1),
		Limit:    intQueryParam(c, "limit", 8),
	}

	workshops, total, err := h.workshops.List(c.Request().Context(), filter)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch workshops")
	}
	return c.JSON(http.StatusOK, dto.WorkshopListResponse{Workshops: workshops, Total: total})
}

func (h *WorkshopHandler) GetWorkshop(c echo.Context) error {
	workshop, err := h.workshops.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return workshopError(err)
	}
	return c.JSON(http.StatusOK, workshop)
}

func (h *WorkshopHandler) CreateWorkshop(c echo.Context) error {
	var req dto.WorkshopRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	workshop, err := h.workshops.Create(c.Request().Context(), req)
	if err != nil {
		return workshopError(err)
	}
	return c.JSON(http.StatusOK, workshop)
}

func (h *WorkshopHandler) UpdateWorkshop(c echo.Context) error {
	var req dto.WorkshopRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	workshop, err := h.workshops.Update(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return workshopError(err)
	}
	return c.JSON(http.StatusOK, workshop)
}

func (h *WorkshopHandler) DeleteWorkshop(c echo.Context) error {
	if err := h.workshops.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return workshopError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Workshop deleted"})
}

func (h *WorkshopHandler) ListTimeSlots(c echo.Context) error {
	filter := service.TimeSlotFilter{
		Search:     c.QueryParam("search"),
		WorkshopID: c.QueryParam("workshopId"),
		Status:     c.QueryParam("status"),
	}

	slots, err := h.slots.List(c.Request().Context(), filter)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch time slots")
	}
	return c.JSON(http.StatusOK, slots)
}

func (h *WorkshopHandler) CreateTimeSlot(c echo.Context) error {
	var req dto.TimeSlotRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	slot, err := h.slots.Create(c.Request().Context(), req)
	if err != nil {
		return workshopError(err)
	}
	return c.JSON(http.StatusOK, slot)
}

func (h *WorkshopHandler) UpdateTimeSlot(c echo.Context) error {
	var req dto.TimeSlotRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	slot, err := h.slots.Update(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return workshopError(err)
	}
	return c.JSON(http.StatusOK, slot)
}

func (h *WorkshopHandler) DeleteTimeSlot(c echo.Context) error {
	if err := h.slots.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return workshopError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Time slot deleted"})
}

func workshopError(err error) error {
	switch {
	case errors.Is(err, service.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrWorkshopNotFound), errors.Is(err, service.ErrSlotNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
