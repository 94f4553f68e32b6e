package authgate

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

const notificationSender = "PULSE Analytics <noreply@pulse.kjo.com>"

// maskAddress keeps the first three characters of the local part and hides
// the rest: abc.def@host becomes abc***@host. Addresses without an @ or
// with a local part shorter than three characters pass through unchanged.
func maskAddress(address string) string {
	at := strings.Index(address, "@")
	if at < 0 || at < 3 {
		return address
	}
	return address[:3] + "***" + address[at:]
}

// NoOpNotifier discards notifications.
type NoOpNotifier struct{}

// Deliver describes the deliver operation and its observable behavior.
//
// Deliver may return an error when input validation, dependency calls, or security checks fail.
// Deliver does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (NoOpNotifier) Deliver(context.Context, OTPNotification) {}

// ChannelNotifier writes notifications into a buffered channel.
type ChannelNotifier struct {
	deliveries chan OTPNotification
}

// NewChannelNotifier creates a [ChannelNotifier] with the given buffer
// capacity.
func NewChannelNotifier(buffer int) *ChannelNotifier {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelNotifier{
		deliveries: make(chan OTPNotification, buffer),
	}
}

// Deliver describes the deliver operation and its observable behavior.
//
// Deliver may return an error when input validation, dependency calls, or security checks fail.
// Deliver does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (n *ChannelNotifier) Deliver(ctx context.Context, notification OTPNotification) {
	select {
	case n.deliveries <- notification:
	case <-ctx.Done():
	}
}

// Deliveries returns the channel of delivered notifications.
func (n *ChannelNotifier) Deliveries() <-chan OTPNotification {
	return n.deliveries
}

// LogNotifier renders the simulated delivery as a structured log line. It
// is the default notifier when none is configured, so codes surface during
// development without real transport.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a [LogNotifier] over the given logger.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

// Deliver describes the deliver operation and its observable behavior.
//
// Deliver may return an error when input validation, dependency calls, or security checks fail.
// Deliver does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (n *LogNotifier) Deliver(_ context.Context, notification OTPNotification) {
	if n == nil || n.logger == nil {
		return
	}
	n.logger.Info("simulated otp email",
		zap.String("to", notification.MaskedAddress),
		zap.String("from", notificationSender),
		zap.String("identity", notification.Identity),
		zap.String("code", notification.Code),
		zap.Time("issued_at", notification.IssuedAt),
		zap.Time("expires_at", notification.ExpiresAt),
	)
}
