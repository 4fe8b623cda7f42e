package email

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const sendTimeout = 5 * time.Second

// SendBookingEmail delivers a booking email asynchronously. Delivery is
// best effort: failures are logged and never surface to the caller.
func SendBookingEmail(ctx context.Context, sender Sender, recipient string, msg Message, logger *zerolog.Logger) {
	if sender == nil {
		return
	}
	if msg.Subject == "" || msg.Body == "" {
		return
	}
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return
	}

	go func() {
		sendCtx, cancel := newEmailContext(ctx, sendTimeout)
		defer cancel()
		if err := sender.Send(sendCtx, recipient, msg.Subject, msg.Body); err != nil && logger != nil {
			logger.Error().Err(err).Str("recipient", recipient).Msg("Failed to send booking email")
		}
	}()
}

func newEmailContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	// Detach cancellation so handler-scoped contexts don't abort async sends.
	parent = context.WithoutCancel(parent)
	return context.WithTimeout(parent, timeout)
}
