// Package notify provides a multi-channel notification system. Alerts are
// dispatched to all registered senders (Telegram, Discord, etc.); routine
// alerts respect a configurable quiet-hours window while critical alerts
// always go out.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alanyoungcy/hedgebot/internal/domain"
)

// Sender is the interface that each notification channel must implement.
type Sender interface {
	// Send delivers a notification with the given title and message body.
	Send(ctx context.Context, title, message string) error
	// Name returns a human-readable identifier for the sender (e.g. "telegram").
	Name() string
}

// QuietHours suppresses routine alerts between StartHour and EndHour in
// local time. A window that wraps midnight (e.g. 23 to 7) is supported.
// Start == End disables the window.
type QuietHours struct {
	StartHour int
	EndHour   int
}

// Active reports whether hour falls inside the quiet window.
func (q QuietHours) Active(hour int) bool {
	if q.StartHour == q.EndHour {
		return false
	}
	if q.StartHour < q.EndHour {
		return hour >= q.StartHour && hour < q.EndHour
	}
	return hour >= q.StartHour || hour < q.EndHour
}

// Notifier dispatches alerts to one or more Senders. It implements
// domain.Notifier.
type Notifier struct {
	senders []Sender
	quiet   QuietHours
	clock   domain.Clock
	logger  *slog.Logger
}

// NewNotifier creates a Notifier that delivers to the given senders.
func NewNotifier(senders []Sender, quiet QuietHours, clock domain.Clock, logger *slog.Logger) *Notifier {
	return &Notifier{
		senders: senders,
		quiet:   quiet,
		clock:   clock,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// Notify sends a routine alert unless quiet hours are active.
func (n *Notifier) Notify(ctx context.Context, subject, body string) error {
	hour := n.clock.Now().Hour()
	if n.quiet.Active(hour) {
		n.logger.DebugContext(ctx, "alert suppressed by quiet hours",
			slog.String("subject", subject),
			slog.Int("hour", hour),
		)
		return nil
	}
	return n.dispatch(ctx, subject, body)
}

// Critical sends an alert regardless of quiet hours. Used for conditions
// an operator must see immediately, such as unhedged exposure.
func (n *Notifier) Critical(ctx context.Context, subject, body string) error {
	return n.dispatch(ctx, subject, body)
}

// dispatch iterates over all senders and sends the notification. Errors from
// individual senders are collected and returned as a combined error; a single
// sender failure does not prevent delivery to the remaining senders.
func (n *Notifier) dispatch(ctx context.Context, title, message string) error {
	if len(n.senders) == 0 {
		return nil
	}

	var errs []string
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
		} else {
			n.logger.DebugContext(ctx, "notification sent",
				slog.String("sender", s.Name()),
				slog.String("title", title),
			)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}

// Compile-time interface check.
var _ domain.Notifier = (*Notifier)(nil)
