package notification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/wb-go/wbf/dbpg"

	"github.com/aliskhannn/booking-notifier/internal/apperrors"
	"github.com/aliskhannn/booking-notifier/internal/model"
)

var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrNoNotificationsFound = errors.New("no notifications found")
)

const notificationColumns = `
		id, booking_id, user_id, user_email, event_id, event_name,
		tickets, total_price, status, notification_type, sent, sent_at,
		"timestamp", created_at`

// Repository provides methods to interact with the booking_notifications table.
type Repository struct {
	db *dbpg.DB
}

// NewRepository creates a new notification repository.
func NewRepository(db *dbpg.DB) *Repository {
	return &Repository{db: db}
}

// CreateNotification inserts a new notification and returns its ID. Records
// are always created unsent; sent_at stays NULL until MarkSent. Schema
// rejections come back as a ValidationError, everything else as a
// TransientError.
func (r *Repository) CreateNotification(ctx context.Context, n model.Notification) (uuid.UUID, error) {
	query := `
		INSERT INTO booking_notifications (
		    booking_id, user_id, user_email, event_id, event_name,
		    tickets, total_price, status, notification_type, sent, "timestamp"
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, FALSE, $10)
		RETURNING id;
    `

	var id uuid.UUID
	err := r.db.QueryRowContext(
		ctx, query,
		n.BookingID, n.UserID, n.UserEmail, n.EventID, n.EventName,
		n.Tickets, n.TotalPrice, n.Status, n.NotificationType, n.Timestamp,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, classify(fmt.Errorf("failed to create notification: %w", err))
	}

	return id, nil
}

// MarkSent flips a notification to sent with the given dispatch time. This
// is the record's only mutation.
func (r *Repository) MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error {
	query := `
		UPDATE booking_notifications
		SET sent = TRUE, sent_at = $1
		WHERE id = $2;
    `

	res, err := r.db.ExecContext(ctx, query, sentAt, id)
	if err != nil {
		return apperrors.Transient(fmt.Errorf("failed to mark notification sent: %w", err))
	}

	rows, _ := res.RowsAffected()

	if rows == 0 {
		return ErrNotificationNotFound
	}

	return nil
}

// GetNotificationByID retrieves a single notification.
func (r *Repository) GetNotificationByID(ctx context.Context, id uuid.UUID) (model.Notification, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM booking_notifications
		WHERE id = $1;
    `

	n, err := scanNotification(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Notification{}, ErrNotificationNotFound
		}

		return model.Notification{}, fmt.Errorf("failed to get notification: %w", err)
	}

	return n, nil
}

// GetAllNotifications retrieves all notifications, newest first.
func (r *Repository) GetAllNotifications(ctx context.Context) ([]model.Notification, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM booking_notifications
		ORDER BY created_at DESC;
    `

	return r.list(ctx, query)
}

// GetNotificationsByUserID retrieves a user's notifications, newest first.
func (r *Repository) GetNotificationsByUserID(ctx context.Context, userID int64) ([]model.Notification, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM booking_notifications
		WHERE user_id = $1
		ORDER BY created_at DESC;
    `

	return r.list(ctx, query, userID)
}

// GetNotificationsByBookingID retrieves a booking's notifications, newest first.
func (r *Repository) GetNotificationsByBookingID(ctx context.Context, bookingID int64) ([]model.Notification, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM booking_notifications
		WHERE booking_id = $1
		ORDER BY created_at DESC;
    `

	return r.list(ctx, query, bookingID)
}

// GetNotificationsByStatus retrieves notifications in a booking status, newest first.
func (r *Repository) GetNotificationsByStatus(ctx context.Context, status model.Status) ([]model.Notification, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM booking_notifications
		WHERE status = $1
		ORDER BY created_at DESC;
    `

	return r.list(ctx, query, status)
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]model.Notification, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var notifications []model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}

		notifications = append(notifications, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read notifications: %w", err)
	}

	if len(notifications) == 0 {
		return nil, ErrNoNotificationsFound
	}

	return notifications, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNotification(row rowScanner) (model.Notification, error) {
	var (
		n      model.Notification
		sentAt sql.NullTime
	)

	err := row.Scan(
		&n.ID, &n.BookingID, &n.UserID, &n.UserEmail, &n.EventID, &n.EventName,
		&n.Tickets, &n.TotalPrice, &n.Status, &n.NotificationType, &n.Sent, &sentAt,
		&n.Timestamp, &n.CreatedAt,
	)
	if err != nil {
		return model.Notification{}, err
	}

	if sentAt.Valid {
		n.SentAt = &sentAt.Time
	}

	return n, nil
}

// classify maps a store failure onto the message-level taxonomy: integrity
// and data-exception errors are schema rejections (drop), everything else —
// connectivity, timeouts — is transient (requeue).
func classify(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "22", "23":
			return apperrors.Validation(nil, err)
		}
	}

	return apperrors.Transient(err)
}
