package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/workshophub/workshop-booking/internal/dto"
	"github.com/workshophub/workshop-booking/internal/middleware"
	"github.com/workshophub/workshop-booking/internal/models"
	"github.com/workshophub/workshop-booking/internal/repository"
	"github.com/workshophub/workshop-booking/internal/service"
	"gorm.io/gorm"
)

// AdminHandler serves the admin panel: user management, notifications and
// dashboard stats.
type AdminHandler struct {
	users         repository.UserRepository
	notifications repository.NotificationRepository
	stats         service.StatsService
}

func NewAdminHandler(users repository.UserRepository, notifications repository.NotificationRepository, stats service.StatsService) *AdminHandler {
	return &AdminHandler{users: users, notifications: notifications, stats: stats}
}

func (h *AdminHandler) RegisterRoutes(e *echo.Echo, auth, admin echo.MiddlewareFunc) {
	u := e.Group("/api/users", auth, admin)
	u.GET("", h.ListUsers)
	u.PUT("/:id/approve", h.ApproveUser)

	n := e.Group("/api/notifications", auth, admin)
	n.GET("", h.ListNotifications)
	n.PUT("/:id/read", h.MarkNotificationRead)

	s := e.Group("/api/stats", auth, admin)
	s.GET("/overview", h.StatsOverview)
	s.GET("/monthly", h.StatsMonthly)
	s.GET("/popularity", h.StatsPopularity)
	s.GET("/recent-bookings", h.StatsRecentBookings)
}

func (h *AdminHandler) ListUsers(c echo.Context) error {
	users, err := h.users.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch users")
	}

	resp := make([]dto.UserInfo, len(users))
	for i, u := range users {
		resp[i] = dto.ToUserInfo(&u)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *AdminHandler) ApproveUser(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := h.users.FindByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to approve user")
	}
	if user.Status != models.UserPendingAdmin {
		return echo.NewHTTPError(http.StatusBadRequest, "user is not pending admin approval")
	}

	if err := h.users.Promote(ctx, user.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to approve user")
	}
	user.Role = models.RoleAdmin
	user.Status = models.UserActive
	return c.JSON(http.StatusOK, dto.ToUserInfo(user))
}

func (h *AdminHandler) ListNotifications(c echo.Context) error {
	notifications, err := h.notifications.ListForAdmin(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch notifications")
	}
	return c.JSON(http.StatusOK, notifications)
}

func (h *AdminHandler) MarkNotificationRead(c echo.Context) error {
	ok, err := h.notifications.MarkRead(c.Request().Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update notification")
	}
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "notification not found")
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Notification marked as read"})
}

func (h *AdminHandler) StatsOverview(c echo.Context) error {
	overview, err := h.stats.Overview(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch overview stats")
	}
	return c.JSON(http.StatusOK, overview)
}

func (h *AdminHandler) StatsMonthly(c echo.Context) error {
	monthly, err := h.stats.Monthly(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch monthly stats")
	}
	return c.JSON(http.StatusOK, monthly)
}

func (h *AdminHandler) StatsPopularity(c echo.Context) error {
	popularity, err := h.stats.Popularity(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch popularity stats")
	}
	return c.JSON(http.StatusOK, popularity)
}

func (h *AdminHandler) StatsRecentBookings(c echo.Context) error {
	recent, err := h.stats.RecentBookings(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch recent bookings")
	}
	return c.JSON(http.StatusOK, recent)
}
