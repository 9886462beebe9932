package booking

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/salonbook/agenda/services/booking-service/internal/availability"
	"github.com/salonbook/agenda/services/booking-service/internal/calendar"
	"github.com/salonbook/agenda/services/booking-service/internal/model"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Lifecycle moves pending appointments to confirmed or rejected. Callers
// are expected to have checked the admin role already.
type Lifecycle struct {
	store    Store
	calendar calendar.Creator
	logger   *slog.Logger
	loc      *time.Location
}

// NewLifecycle defaults to calendar.Noop and the business timezone when cal or loc is nil.
func NewLifecycle(store Store, cal calendar.Creator, logger *slog.Logger, loc *time.Location) *Lifecycle {
	if cal == nil {
		cal = calendar.Noop{}
	}
	if loc == nil {
		loc = availability.Location()
	}
	return &Lifecycle{store: store, calendar: cal, logger: logger, loc: loc}
}

// Confirm marks id confirmed and creates its calendar event. When only the
// calendar step fails the confirmation stands and a *CalendarSyncError is
// returned together with the confirmed appointment.
func (l *Lifecycle) Confirm(ctx context.Context, id string) (model.Appointment, error) {
	ctx, span := tracer.Start(ctx, "booking.Confirm", trace.WithAttributes(attribute.String("booking.appointment_id", id)))
	defer span.End()

	appt, err := l.transition(ctx, id, model.StatusConfirmed)
	if err != nil {
		return model.Appointment{}, fail(span, err)
	}

	start, err := availability.SlotStart(appt.Date, appt.Time, l.loc)
	if err != nil {
		return appt, fail(span, &CalendarSyncError{AppointmentID: id, Err: err})
	}
	eventID, err := l.calendar.CreateEvent(ctx, EventFor(appt, start))
	if err != nil {
		l.logger.Error("calendar sync failed", "appointment_id", id, "err", err)
		return appt, fail(span, &CalendarSyncError{AppointmentID: id, Err: err})
	}
	if eventID != "" {
		if err := l.store.SetCalendarEventID(ctx, id, eventID); err != nil {
			l.logger.Warn("record calendar event id failed", "appointment_id", id, "event_id", eventID, "err", err)
		}
		appt.CalendarEventID = eventID
	}
	l.logger.Info("appointment confirmed", "appointment_id", id, "event_id", eventID)
	return appt, nil
}

// Reject marks id rejected, releasing its slot. No external side effects.
func (l *Lifecycle) Reject(ctx context.Context, id string) (model.Appointment, error) {
	ctx, span := tracer.Start(ctx, "booking.Reject", trace.WithAttributes(attribute.String("booking.appointment_id", id)))
	defer span.End()

	appt, err := l.transition(ctx, id, model.StatusRejected)
	if err != nil {
		return model.Appointment{}, fail(span, err)
	}
	l.logger.Info("appointment rejected", "appointment_id", id)
	return appt, nil
}

func (l *Lifecycle) transition(ctx context.Context, id string, to model.Status) (model.Appointment, error) {
	appt, err := l.store.Get(ctx, id)
	if err != nil {
		return model.Appointment{}, storeError("get appointment", err)
	}
	if appt.Status != model.StatusPending {
		return model.Appointment{}, fmt.Errorf("%s is %s: %w", id, appt.Status, ErrInvalidTransition)
	}
	n, err := l.store.UpdateStatus(ctx, id, model.StatusPending, to)
	if err != nil {
		return model.Appointment{}, storeError("update status", err)
	}
	if n == 0 {
		// Another admin moved it between Get and UpdateStatus.
		return model.Appointment{}, fmt.Errorf("%s changed concurrently: %w", id, ErrInvalidTransition)
	}
	appt.Status = to
	return appt, nil
}

// EventFor builds the calendar entry of a confirmed appointment starting at start.
func EventFor(appt model.Appointment, start time.Time) calendar.Event {
	name := appt.ClientName
	if name == "" {
		name = "Client"
	}
	return calendar.Event{
		Summary:     appt.Service + " - " + name,
		Description: appt.Note,
		Start:       start,
		End:         start.Add(availability.SlotLength),
		TimeZone:    availability.Timezone,
	}
}
