// Package dispatcher routes a notification to its delivery channel and
// reports a receipt. A send either fully succeeds with a receipt or fails;
// there is no partial success.
package dispatcher

import (
	"context"
	"fmt"

	"github.com/aliskhannn/booking-notifier/internal/apperrors"
	"github.com/aliskhannn/booking-notifier/internal/model"
)

// Receipt is the opaque proof of a dispatched notification.
type Receipt struct {
	MessageID string `json:"message_id"`
	Response  string `json:"response"`
}

// ChannelHandler sends one notification over a concrete channel.
type ChannelHandler interface {
	Send(ctx context.Context, n model.Notification) (Receipt, error)
}

// Dispatcher holds the channel capability set, keyed by notification type.
type Dispatcher struct {
	handlers map[model.Channel]ChannelHandler
}

// New creates a dispatcher over the given channel handlers.
func New(handlers map[model.Channel]ChannelHandler) *Dispatcher {
	return &Dispatcher{handlers: handlers}
}

// Dispatch sends n over the channel named by its notification type. An
// unknown channel is a validation failure, not a retryable one.
func (d *Dispatcher) Dispatch(ctx context.Context, n model.Notification) (Receipt, error) {
	h, ok := d.handlers[n.NotificationType]
	if !ok {
		return Receipt{}, apperrors.Validation(nil, fmt.Errorf("unknown notification channel: %s", n.NotificationType))
	}

	return h.Send(ctx, n)
}
