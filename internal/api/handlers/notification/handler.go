package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/booking-notifier/internal/api/dto"
	"github.com/aliskhannn/booking-notifier/internal/api/respond"
	"github.com/aliskhannn/booking-notifier/internal/model"
	"github.com/aliskhannn/booking-notifier/internal/repository/notification"
)

const defaultPendingLimit = 10

type notificationService interface {
	GetAllNotifications(ctx context.Context) ([]model.Notification, error)
	GetNotificationsByUserID(ctx context.Context, userID int64) ([]model.Notification, error)
	GetNotificationsByBookingID(ctx context.Context, bookingID int64) ([]model.Notification, error)
	GetNotificationsByStatus(ctx context.Context, status model.Status) ([]model.Notification, error)
	GetNotificationByID(ctx context.Context, id uuid.UUID) (model.Notification, error)
	GetNotificationStatusByID(ctx context.Context, id uuid.UUID) (string, error)
	CreateTestNotification(ctx context.Context, n model.Notification) (model.Notification, error)
}

type pinger interface {
	PingContext(ctx context.Context) error
}

type Handler struct {
	service   notificationService
	validator *validator.Validate
	db        pinger
}

func NewHandler(s notificationService, v *validator.Validate, db pinger) *Handler {
	return &Handler{service: s, validator: v, db: db}
}

func (h *Handler) GetAll(c *ginext.Context) {
	notifications, err := h.service.GetAllNotifications(c.Request.Context())
	if err != nil {
		if errors.Is(err, notification.ErrNoNotificationsFound) {
			respond.Fail(c.Writer, http.StatusNotFound, fmt.Errorf("no notifications found"))
			return
		}

		zlog.Logger.Error().Err(err).Msg("failed to get notifications")
		respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	respond.OK(c.Writer, notifications)
}

func (h *Handler) GetByUser(c *ginext.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("invalid user id"))
		return
	}

	notifications, err := h.service.GetNotificationsByUserID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, notification.ErrNoNotificationsFound) {
			respond.Fail(c.Writer, http.StatusNotFound, fmt.Errorf("no notifications found"))
			return
		}

		zlog.Logger.Error().Err(err).Int64("user_id", userID).Msg("failed to get user notifications")
		respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	respond.OK(c.Writer, notifications)
}

func (h *Handler) GetByBooking(c *ginext.Context) {
	bookingID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("invalid booking id"))
		return
	}

	notifications, err := h.service.GetNotificationsByBookingID(c.Request.Context(), bookingID)
	if err != nil {
		if errors.Is(err, notification.ErrNoNotificationsFound) {
			respond.Fail(c.Writer, http.StatusNotFound, fmt.Errorf("no notifications found"))
			return
		}

		zlog.Logger.Error().Err(err).Int64("booking_id", bookingID).Msg("failed to get booking notifications")
		respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	respond.OK(c.Writer, notifications)
}

func (h *Handler) GetByStatus(c *ginext.Context) {
	status := model.Status(strings.ToUpper(c.Param("status")))
	if !status.Valid() {
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("invalid status"))
		return
	}

	notifications, err := h.service.GetNotificationsByStatus(c.Request.Context(), status)
	if err != nil {
		if errors.Is(err, notification.ErrNoNotificationsFound) {
			respond.Fail(c.Writer, http.StatusNotFound, fmt.Errorf("no notifications found"))
			return
		}

		zlog.Logger.Error().Err(err).Str("status", string(status)).Msg("failed to get notifications by status")
		respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	respond.OK(c.Writer, map[string]any{
		"count":         len(notifications),
		"status_type":   status,
		"notifications": notifications,
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) GetPending(c *ginext.Context) {
	limit := defaultPendingLimit
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		limit = v
	}

	notifications, err := h.service.GetNotificationsByStatus(c.Request.Context(), model.StatusPending)
	if err != nil && !errors.Is(err, notification.ErrNoNotificationsFound) {
		zlog.Logger.Error().Err(err).Msg("failed to get pending notifications")
		respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	total := len(notifications)
	if len(notifications) > limit {
		notifications = notifications[:limit]
	}

	respond.OK(c.Writer, map[string]any{
		"count":         len(notifications),
		"total_pending": total,
		"limit":         limit,
		"notifications": notifications,
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) GetByID(c *ginext.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("invalid id"))
		return
	}

	n, err := h.service.GetNotificationByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, notification.ErrNotificationNotFound) {
			respond.Fail(c.Writer, http.StatusNotFound, fmt.Errorf("notification not found"))
			return
		}

		zlog.Logger.Error().Err(err).Str("id", id.String()).Msg("failed to get notification")
		respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	respond.OK(c.Writer, n)
}

func (h *Handler) GetStatus(c *ginext.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("invalid id"))
		return
	}

	status, err := h.service.GetNotificationStatusByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, notification.ErrNotificationNotFound) {
			respond.Fail(c.Writer, http.StatusNotFound, fmt.Errorf("notification not found"))
			return
		}

		zlog.Logger.Error().Err(err).Str("id", id.String()).Msg("failed to get notification status")
		respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	respond.OK(c.Writer, status)
}

// CreateTest builds a notification with a random booking id and runs it
// through the regular processing path.
func (h *Handler) CreateTest(c *ginext.Context) {
	var req dto.TestNotificationRequest

	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to decode request body")
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("invalid request body"))
		return
	}

	if err := h.validator.Struct(req); err != nil {
		zlog.Logger.Warn().Err(err).Msg("failed to validate request body")
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("validation error: %s", err.Error()))
		return
	}

	status := model.Status(strings.ToUpper(req.Status))
	if !status.Valid() {
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("invalid status"))
		return
	}

	n := model.Notification{
		BookingID:        rand.Int63n(10000),
		UserID:           req.UserID,
		UserEmail:        req.UserEmail,
		EventID:          req.EventID,
		EventName:        req.EventName,
		Tickets:          req.Tickets,
		TotalPrice:       req.TotalPrice,
		Status:           status,
		NotificationType: model.Channel(req.NotificationType),
	}

	stored, err := h.service.CreateTestNotification(c.Request.Context(), n)
	if err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to create test notification")
		respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	respond.Created(c.Writer, stored)
}

func (h *Handler) Health(c *ginext.Context) {
	dbStatus := "connected"
	if err := h.db.PingContext(c.Request.Context()); err != nil {
		dbStatus = "disconnected"
	}

	respond.OK(c.Writer, map[string]string{
		"status":   "UP",
		"database": dbStatus,
	})
}
