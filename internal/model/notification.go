package model

import (
	"time"

	"github.com/google/uuid"
)

// Status of the booking a notification refers to.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
)

// Valid reports whether s is one of the known booking statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

// Channel is the delivery channel for a notification.
type Channel string

const (
	ChannelEmail Channel = "EMAIL"
	ChannelSMS   Channel = "SMS"
)

// Notification is a single booking-notification record.
//
// A record is created with Sent=false and transitions to Sent=true with
// SentAt populated exactly once, after a successful dispatch. Nothing else
// mutates a stored record.
type Notification struct {
	ID               uuid.UUID  `json:"id"`
	BookingID        int64      `json:"booking_id"`
	UserID           int64      `json:"user_id"`
	UserEmail        string     `json:"user_email"`
	EventID          string     `json:"event_id"`
	EventName        string     `json:"event_name"`
	Tickets          int        `json:"tickets"`
	TotalPrice       float64    `json:"total_price"`
	Status           Status     `json:"status"`
	NotificationType Channel    `json:"notification_type"`
	Sent             bool       `json:"sent"`
	SentAt           *time.Time `json:"sent_at"`
	Timestamp        string     `json:"timestamp"`
	CreatedAt        time.Time  `json:"created_at"`
}
