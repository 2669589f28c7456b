package notify

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/hedgebot/internal/domain"
)

type fakeSender struct {
	name string
	sent []string
	err  error
}

func (f *fakeSender) Send(ctx context.Context, title, message string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, title)
	return nil
}

func (f *fakeSender) Name() string { return f.name }

func clockAtHour(hour int) domain.Clock {
	return domain.ClockFunc(func() time.Time {
		return time.Date(2026, 9, 1, hour, 30, 0, 0, time.UTC)
	})
}

func TestQuietHoursWindow(t *testing.T) {
	q := QuietHours{StartHour: 23, EndHour: 7}
	assert.True(t, q.Active(23))
	assert.True(t, q.Active(3))
	assert.False(t, q.Active(7))
	assert.False(t, q.Active(12))

	daytime := QuietHours{StartHour: 9, EndHour: 17}
	assert.True(t, daytime.Active(12))
	assert.False(t, daytime.Active(8))

	disabled := QuietHours{}
	assert.False(t, disabled.Active(0))
}

func TestNotifySuppressedDuringQuietHours(t *testing.T) {
	s := &fakeSender{name: "telegram"}
	n := NewNotifier([]Sender{s}, QuietHours{StartHour: 23, EndHour: 7}, clockAtHour(2), slog.Default())

	require.NoError(t, n.Notify(context.Background(), "opportunity", "body"))
	assert.Empty(t, s.sent)
}

func TestCriticalBypassesQuietHours(t *testing.T) {
	s := &fakeSender{name: "telegram"}
	n := NewNotifier([]Sender{s}, QuietHours{StartHour: 23, EndHour: 7}, clockAtHour(2), slog.Default())

	require.NoError(t, n.Critical(context.Background(), "UNHEDGED EXPOSURE", "body"))
	assert.Equal(t, []string{"UNHEDGED EXPOSURE"}, s.sent)
}

func TestDispatchContinuesPastFailedSender(t *testing.T) {
	bad := &fakeSender{name: "discord", err: errors.New("webhook down")}
	good := &fakeSender{name: "telegram"}
	n := NewNotifier([]Sender{bad, good}, QuietHours{}, clockAtHour(12), slog.Default())

	err := n.Notify(context.Background(), "opportunity", "body")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "discord")
	assert.Equal(t, []string{"opportunity"}, good.sent)
}
