// Package notification is the processing core: it validates normalized
// booking messages, persists them, drives channel dispatch for settled
// bookings, and serves the read operations behind the query API.
package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/booking-notifier/internal/apperrors"
	"github.com/aliskhannn/booking-notifier/internal/dispatcher"
	"github.com/aliskhannn/booking-notifier/internal/model"
	"github.com/aliskhannn/booking-notifier/internal/payload"
	"github.com/aliskhannn/booking-notifier/internal/rabbitmq/consumer"
)

type notificationRepository interface {
	CreateNotification(ctx context.Context, n model.Notification) (uuid.UUID, error)
	MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error
	GetNotificationByID(ctx context.Context, id uuid.UUID) (model.Notification, error)
	GetAllNotifications(ctx context.Context) ([]model.Notification, error)
	GetNotificationsByUserID(ctx context.Context, userID int64) ([]model.Notification, error)
	GetNotificationsByBookingID(ctx context.Context, bookingID int64) ([]model.Notification, error)
	GetNotificationsByStatus(ctx context.Context, status model.Status) ([]model.Notification, error)
}

type notificationDispatcher interface {
	Dispatch(ctx context.Context, n model.Notification) (dispatcher.Receipt, error)
}

type cache interface {
	GetWithRetry(ctx context.Context, strategy retry.Strategy, key string) (string, error)
	SetWithRetry(ctx context.Context, strategy retry.Strategy, key string, value interface{}) error
}

type Service struct {
	repo       notificationRepository
	dispatcher notificationDispatcher
	cache      cache
	strategy   retry.Strategy
}

func NewService(repo notificationRepository, d notificationDispatcher, c cache, strategy retry.Strategy) *Service {
	return &Service{
		repo:       repo,
		dispatcher: d,
		cache:      c,
		strategy:   strategy,
	}
}

// ProcessMessage runs one raw queue message through
// normalize → validate → persist → dispatch → mark-sent and returns the
// settlement decision for the delivery. Persist and dispatch carry no
// timeout: a hung dependency stalls the consumer rather than losing the
// message.
func (s *Service) ProcessMessage(ctx context.Context, raw []byte) consumer.Outcome {
	cand, err := payload.Normalize(raw)
	if err != nil {
		zlog.Logger.Error().Err(err).Msg("dropping unparseable message")
		return consumer.Drop
	}

	if missing := cand.MissingFields(); len(missing) > 0 {
		verr := apperrors.Validation(missing, nil)
		zlog.Logger.Warn().Err(verr).Strs("missing_fields", missing).Msg("dropping invalid message")
		return consumer.Drop
	}

	if _, err := s.processRecord(ctx, cand.Record); err != nil {
		return outcomeFor(err)
	}

	return consumer.Ack
}

// processRecord persists the record and, for settled bookings, dispatches
// the notification and marks it sent. Errors keep the classification chosen
// at their point of failure.
func (s *Service) processRecord(ctx context.Context, n model.Notification) (model.Notification, error) {
	id, err := s.repo.CreateNotification(ctx, n)
	if err != nil {
		zlog.Logger.Error().Err(err).Int64("booking_id", n.BookingID).Msg("failed to persist notification")
		return model.Notification{}, fmt.Errorf("persist notification: %w", err)
	}

	n.ID = id
	zlog.Logger.Info().
		Str("id", id.String()).
		Int64("booking_id", n.BookingID).
		Str("status", string(n.Status)).
		Msg("notification saved")

	s.cacheStatus(ctx, id, string(n.Status))

	if n.Status != model.StatusConfirmed && n.Status != model.StatusCancelled {
		return n, nil
	}

	receipt, err := s.dispatcher.Dispatch(ctx, n)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("id", id.String()).Msg("failed to dispatch notification")
		return model.Notification{}, fmt.Errorf("dispatch notification: %w", err)
	}

	sentAt := time.Now().UTC()
	if err := s.repo.MarkSent(ctx, id, sentAt); err != nil {
		zlog.Logger.Error().Err(err).Str("id", id.String()).Msg("failed to mark notification sent")
		return model.Notification{}, fmt.Errorf("mark notification sent: %w", err)
	}

	n.Sent = true
	n.SentAt = &sentAt

	zlog.Logger.Info().
		Str("id", id.String()).
		Str("receipt", receipt.MessageID).
		Msg("notification dispatched")

	return n, nil
}

// CreateTestNotification runs an already-built record through the regular
// persist/dispatch path. Used by the test endpoint of the query API.
func (s *Service) CreateTestNotification(ctx context.Context, n model.Notification) (model.Notification, error) {
	if n.NotificationType == "" {
		n.NotificationType = model.ChannelEmail
	}
	if n.Timestamp == "" {
		n.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	return s.processRecord(ctx, n)
}

// GetNotificationStatusByID returns a notification's booking status,
// preferring the cache and falling back to the store.
func (s *Service) GetNotificationStatusByID(ctx context.Context, id uuid.UUID) (string, error) {
	status, err := s.cache.GetWithRetry(ctx, s.strategy, id.String())
	if err != nil && !errors.Is(err, redis.Nil) {
		zlog.Logger.Printf("failed to get notification status from cache %s: %v", id, err)
	}

	if err != nil {
		n, err := s.repo.GetNotificationByID(ctx, id)
		if err != nil {
			return "", fmt.Errorf("get notification status: %w", err)
		}

		status = string(n.Status)
		s.cacheStatus(ctx, id, status)
	}

	return status, nil
}

// GetNotificationByID returns a single stored notification.
func (s *Service) GetNotificationByID(ctx context.Context, id uuid.UUID) (model.Notification, error) {
	n, err := s.repo.GetNotificationByID(ctx, id)
	if err != nil {
		return model.Notification{}, fmt.Errorf("get notification: %w", err)
	}

	return n, nil
}

// GetAllNotifications returns every stored notification, newest first.
func (s *Service) GetAllNotifications(ctx context.Context) ([]model.Notification, error) {
	notifications, err := s.repo.GetAllNotifications(ctx)
	if err != nil {
		return nil, fmt.Errorf("get all notifications: %w", err)
	}

	return notifications, nil
}

// GetNotificationsByUserID returns a user's notifications, newest first.
func (s *Service) GetNotificationsByUserID(ctx context.Context, userID int64) ([]model.Notification, error) {
	notifications, err := s.repo.GetNotificationsByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get notifications by user: %w", err)
	}

	return notifications, nil
}

// GetNotificationsByBookingID returns a booking's notifications, newest first.
func (s *Service) GetNotificationsByBookingID(ctx context.Context, bookingID int64) ([]model.Notification, error) {
	notifications, err := s.repo.GetNotificationsByBookingID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("get notifications by booking: %w", err)
	}

	return notifications, nil
}

// GetNotificationsByStatus returns notifications in a booking status, newest first.
func (s *Service) GetNotificationsByStatus(ctx context.Context, status model.Status) ([]model.Notification, error) {
	notifications, err := s.repo.GetNotificationsByStatus(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("get notifications by status: %w", err)
	}

	return notifications, nil
}

func (s *Service) cacheStatus(ctx context.Context, id uuid.UUID, status string) {
	if s.cache == nil {
		return
	}

	if err := s.cache.SetWithRetry(ctx, s.strategy, id.String(), status); err != nil {
		zlog.Logger.Printf("failed to cache notification %s: %v", id, err)
	}
}

// outcomeFor maps a processing error onto the delivery decision: malformed
// and validation-class failures drop the message, everything else requeues
// it for immediate redelivery.
func outcomeFor(err error) consumer.Outcome {
	if apperrors.IsMalformed(err) || apperrors.IsValidation(err) {
		return consumer.Drop
	}

	return consumer.Requeue
}
