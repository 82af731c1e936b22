// Package channels implements the EMAIL and SMS delivery channels.
//
// The reference behavior logs the rendered message and returns a synthetic
// receipt without transmitting anything; a real transport can be plugged in
// behind the same contract via the sender interfaces.
package channels

import (
	"context"
	"fmt"
	"time"

	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/booking-notifier/internal/apperrors"
	"github.com/aliskhannn/booking-notifier/internal/dispatcher"
	"github.com/aliskhannn/booking-notifier/internal/model"
)

// EmailSender delivers a rendered email. pkg/email.Client implements it.
type EmailSender interface {
	Send(to, subject, body string) error
}

// EmailHandler renders and sends booking emails. With a nil sender it only
// logs the intent.
type EmailHandler struct {
	sender EmailSender
}

// NewEmailHandler creates the EMAIL channel handler. sender may be nil.
func NewEmailHandler(sender EmailSender) *EmailHandler {
	return &EmailHandler{sender: sender}
}

func (h *EmailHandler) Send(ctx context.Context, n model.Notification) (dispatcher.Receipt, error) {
	subject := emailSubject(n)
	body := emailBody(n)

	zlog.Logger.Info().
		Str("to", n.UserEmail).
		Str("subject", subject).
		Int64("booking_id", n.BookingID).
		Msg("sending email notification")

	if h.sender != nil {
		if err := h.sender.Send(n.UserEmail, subject, body); err != nil {
			return dispatcher.Receipt{}, apperrors.Transient(fmt.Errorf("send email: %w", err))
		}
	}

	return dispatcher.Receipt{
		MessageID: fmt.Sprintf("email-%d", time.Now().UnixNano()),
		Response:  "email notification sent",
	}, nil
}

func emailSubject(n model.Notification) string {
	if n.Status == model.StatusCancelled {
		return fmt.Sprintf("Your Booking Cancellation #%d", n.BookingID)
	}
	return fmt.Sprintf("Your Booking Confirmation #%d", n.BookingID)
}

func emailBody(n model.Notification) string {
	action := "confirmed"
	closing := "Thank you for your booking!"
	if n.Status == model.StatusCancelled {
		action = "cancelled"
		closing = "If you did not request this cancellation, please contact our support team."
	}

	return fmt.Sprintf(`Dear Customer,

Your booking for %s has been %s.

Booking Details:
- Booking ID: %d
- Event: %s
- Tickets: %d
- Total Price: $%.2f

%s

Best regards,
The Event Booking Team
`, n.EventName, action, n.BookingID, n.EventName, n.Tickets, n.TotalPrice, closing)
}
