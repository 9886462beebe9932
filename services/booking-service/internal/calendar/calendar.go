// Package calendar mirrors confirmed appointments to an external calendar.
package calendar

import (
	"context"
	"time"
)

// Event is the remote calendar entry created on confirmation.
type Event struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	TimeZone    string
}

// Creator creates an event and returns its remote id.
type Creator interface {
	CreateEvent(ctx context.Context, evt Event) (string, error)
}

// Noop accepts every event without storing it.
type Noop struct{}

func (Noop) CreateEvent(context.Context, Event) (string, error) { return "", nil }
