package channels

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/booking-notifier/internal/apperrors"
	"github.com/aliskhannn/booking-notifier/internal/dispatcher"
	"github.com/aliskhannn/booking-notifier/internal/model"
)

// SMSSender delivers a rendered text message. pkg/sms.Client implements it.
type SMSSender interface {
	Send(to, text string) error
}

// SMSHandler renders and sends booking texts. With a nil sender it only logs
// the intent.
type SMSHandler struct {
	sender SMSSender
}

// NewSMSHandler creates the SMS channel handler. sender may be nil.
func NewSMSHandler(sender SMSSender) *SMSHandler {
	return &SMSHandler{sender: sender}
}

func (h *SMSHandler) Send(ctx context.Context, n model.Notification) (dispatcher.Receipt, error) {
	text := smsText(n)

	zlog.Logger.Info().
		Int64("user_id", n.UserID).
		Int64("booking_id", n.BookingID).
		Msg("sending sms notification")

	if h.sender != nil {
		to := strconv.FormatInt(n.UserID, 10)
		if err := h.sender.Send(to, text); err != nil {
			return dispatcher.Receipt{}, apperrors.Transient(fmt.Errorf("send sms: %w", err))
		}
	}

	return dispatcher.Receipt{
		MessageID: fmt.Sprintf("sms-%d", time.Now().UnixNano()),
		Response:  "sms notification sent",
	}, nil
}

func smsText(n model.Notification) string {
	if n.Status == model.StatusCancelled {
		return fmt.Sprintf(
			"Your booking #%d for %s has been cancelled. If you did not request this cancellation, please contact our support team.",
			n.BookingID, n.EventName,
		)
	}

	return fmt.Sprintf(
		"Your booking #%d for %s has been confirmed. Tickets: %d, Total: $%.2f",
		n.BookingID, n.EventName, n.Tickets, n.TotalPrice,
	)
}
