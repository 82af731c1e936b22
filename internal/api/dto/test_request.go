package dto

// TestNotificationRequest creates a synthetic booking notification through
// the regular processing path. Only used by the test endpoint.
type TestNotificationRequest struct {
	UserID           int64   `json:"user_id" validate:"required"`
	UserEmail        string  `json:"user_email" validate:"required,email"`
	EventID          string  `json:"event_id" validate:"required"`
	EventName        string  `json:"event_name" validate:"required"`
	Tickets          int     `json:"tickets" validate:"required"`
	TotalPrice       float64 `json:"total_price" validate:"required"`
	Status           string  `json:"status" validate:"required"`
	NotificationType string  `json:"notification_type"`
}
