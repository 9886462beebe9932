package booking

import (
	"context"

	"github.com/salonbook/agenda/services/booking-service/internal/model"
)

// Store is the persistence contract the allocator and lifecycle rely on.
//
// Insert must refuse, with ErrSlotConflict, a second active appointment for
// the same (date, time) even under concurrent callers. UpdateStatus is a
// compare-and-set: it changes the row only while its status equals from and
// reports how many rows it changed.
type Store interface {
	OccupiedTimes(ctx context.Context, date string) (map[string]struct{}, error)
	Insert(ctx context.Context, appt *model.Appointment) error
	Get(ctx context.Context, id string) (model.Appointment, error)
	UpdateStatus(ctx context.Context, id string, from, to model.Status) (int64, error)
	SetCalendarEventID(ctx context.Context, id, eventID string) error
	ListAll(ctx context.Context) ([]model.Appointment, error)
	ListForClient(ctx context.Context, clientID string) ([]model.Appointment, error)
	// ListByStatus filters by status and, when date is non-empty, by date.
	ListByStatus(ctx context.Context, status model.Status, date string) ([]model.Appointment, error)
}

// Notifier is told about new requests. Implementations must not block the caller.
type Notifier interface {
	AppointmentRequested(ctx context.Context, appt model.Appointment)
}

type noopNotifier struct{}

func (noopNotifier) AppointmentRequested(context.Context, model.Appointment) {}
