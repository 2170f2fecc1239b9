package calendar

import (
	"context"
	"errors"
	"time"

	"morningfocus/services/scheduler"
)

// DefaultEventDescription is attached to every event created from a confirmed schedule.
const DefaultEventDescription = "Auto-scheduled by Morning Focus"

var (
	// ErrNotConnected means the provider has no usable credentials.
	ErrNotConnected = errors.New("calendar not connected")
	// ErrProviderDisabled means the user turned the provider off.
	ErrProviderDisabled = errors.New("calendar provider is disabled")
)

// Event is a calendar event to create.
type Event struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
}

// Provider is an external calendar the scheduler reads busy time from and writes focus blocks to.
type Provider interface {
	Name() string
	Connected(ctx context.Context) bool
	FetchBusy(ctx context.Context, timeMin, timeMax time.Time) ([]scheduler.BusyInterval, error)
	// CreateEvent returns the provider's id for the new event.
	CreateEvent(ctx context.Context, ev Event) (string, error)
}
