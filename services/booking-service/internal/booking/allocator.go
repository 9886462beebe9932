package booking

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/salonbook/agenda/services/booking-service/internal/availability"
	"github.com/salonbook/agenda/services/booking-service/internal/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/salonbook/agenda/services/booking-service/internal/booking")

// Request is a client's booking attempt. ClientID and ClientName come from
// the authenticated caller, never from the request body.
type Request struct {
	ClientID   string
	ClientName string
	Service    string
	Date       string
	Time       string
	Note       string
}

// AllocatorConfig holds the optional booking policies. The zero value opens
// every day and accepts any well-formed date.
type AllocatorConfig struct {
	// ClosedWeekdays are days with no bookable slots.
	ClosedWeekdays []time.Weekday
	// RejectPast refuses dates before today and, on the current day, slots
	// that already started.
	RejectPast bool
	Location   *time.Location
	Now        func() time.Time
}

// Allocator hands out slots, guaranteeing at most one active appointment
// per (date, time). The last word on conflicts belongs to Store.Insert.
type Allocator struct {
	store    Store
	notifier Notifier
	logger   *slog.Logger
	loc        *time.Location
	closed     map[time.Weekday]bool
	rejectPast bool
	now        func() time.Time
}

func NewAllocator(store Store, notifier Notifier, logger *slog.Logger, cfg AllocatorConfig) *Allocator {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if cfg.Location == nil {
		cfg.Location = availability.Location()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	closed := map[time.Weekday]bool{}
	for _, d := range cfg.ClosedWeekdays {
		closed[d] = true
	}
	return &Allocator{
		store:      store,
		notifier:   notifier,
		logger:     logger,
		loc:        cfg.Location,
		closed:     closed,
		rejectPast: cfg.RejectPast,
		now:        cfg.Now,
	}
}

// DaySlots lists every slot of date with its state. A closed day has no
// slots; with RejectPast, slots that already started are busy.
func (a *Allocator) DaySlots(ctx context.Context, date string) ([]model.Slot, error) {
	ctx, span := tracer.Start(ctx, "booking.DaySlots", trace.WithAttributes(attribute.String("booking.date", date)))
	defer span.End()

	day, err := availability.ParseDate(strings.TrimSpace(date), a.loc)
	if err != nil {
		return nil, fail(span, invalid("date", err.Error()))
	}
	if a.closed[day.Weekday()] {
		return []model.Slot{}, nil
	}
	occupied, err := a.store.OccupiedTimes(ctx, day.Format(availability.DateLayout))
	if err != nil {
		return nil, fail(span, storeError("occupied times", err))
	}

	now := a.now().In(a.loc)
	all := availability.DaySlots(day)
	out := make([]model.Slot, 0, len(all))
	for _, s := range all {
		state := model.SlotFree
		if _, busy := occupied[s]; busy || (a.rejectPast && a.started(day, s, now)) {
			state = model.SlotBusy
		}
		out = append(out, model.Slot{Time: s, State: state})
	}
	return out, nil
}

// FreeSlots is DaySlots reduced to the free start times.
func (a *Allocator) FreeSlots(ctx context.Context, date string) ([]string, error) {
	slots, err := a.DaySlots(ctx, date)
	if err != nil {
		return nil, err
	}
	free := make([]string, 0, len(slots))
	for _, s := range slots {
		if s.State == model.SlotFree {
			free = append(free, s.Time)
		}
	}
	return free, nil
}

// Book validates req and records a pending appointment.
func (a *Allocator) Book(ctx context.Context, req Request) (model.Appointment, error) {
	ctx, span := tracer.Start(ctx, "booking.Book", trace.WithAttributes(
		attribute.String("booking.date", req.Date),
		attribute.String("booking.time", req.Time),
	))
	defer span.End()

	req = normalize(req)
	if err := a.validate(req); err != nil {
		return model.Appointment{}, fail(span, err)
	}

	occupied, err := a.store.OccupiedTimes(ctx, req.Date)
	if err != nil {
		return model.Appointment{}, fail(span, storeError("occupied times", err))
	}
	if _, taken := occupied[req.Time]; taken {
		return model.Appointment{}, fail(span, fmt.Errorf("%s %s: %w", req.Date, req.Time, ErrSlotConflict))
	}

	appt := model.Appointment{
		ClientID:   req.ClientID,
		ClientName: req.ClientName,
		Service:    req.Service,
		Date:       req.Date,
		Time:       req.Time,
		Note:       req.Note,
		Status:     model.StatusPending,
	}
	if err := a.store.Insert(ctx, &appt); err != nil {
		return model.Appointment{}, fail(span, storeError("insert appointment", err))
	}
	span.SetAttributes(attribute.String("booking.appointment_id", appt.ID))

	a.logger.Info("appointment requested",
		"appointment_id", appt.ID,
		"client_id", appt.ClientID,
		"date", appt.Date,
		"time", appt.Time,
	)
	a.notifier.AppointmentRequested(ctx, appt)
	return appt, nil
}

func (a *Allocator) validate(req Request) error {
	switch {
	case req.ClientID == "":
		return invalid("client_id", "required")
	case req.Service == "":
		return invalid("service", "required")
	case req.Date == "":
		return invalid("date", "required")
	case req.Time == "":
		return invalid("time", "required")
	}
	day, err := availability.ParseDate(req.Date, a.loc)
	if err != nil {
		return invalid("date", err.Error())
	}
	if !availability.IsSlot(req.Time) {
		return invalid("time", fmt.Sprintf("%q is not a bookable slot", req.Time))
	}
	if a.closed[day.Weekday()] {
		return invalid("date", fmt.Sprintf("closed on %s", strings.ToLower(day.Weekday().String())))
	}
	if !a.rejectPast {
		return nil
	}
	now := a.now().In(a.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, a.loc)
	if day.Before(today) {
		return invalid("date", "in the past")
	}
	if a.started(day, req.Time, now) {
		return invalid("time", "slot already started")
	}
	return nil
}

func (a *Allocator) started(day time.Time, hhmm string, now time.Time) bool {
	start, err := availability.SlotStart(day.Format(availability.DateLayout), hhmm, a.loc)
	return err == nil && !start.After(now)
}

func normalize(req Request) Request {
	req.ClientID = strings.TrimSpace(req.ClientID)
	req.ClientName = strings.TrimSpace(req.ClientName)
	req.Service = strings.TrimSpace(req.Service)
	req.Date = strings.TrimSpace(req.Date)
	req.Time = strings.TrimSpace(req.Time)
	req.Note = strings.TrimSpace(req.Note)
	return req
}

// ParseWeekdays accepts full or three letter English day names.
func ParseWeekdays(names []string) ([]time.Weekday, error) {
	var out []time.Weekday
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" {
			continue
		}
		found := false
		for d := time.Sunday; d <= time.Saturday; d++ {
			full := strings.ToLower(d.String())
			if n == full || n == full[:3] {
				out = append(out, d)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown weekday %q", n)
		}
	}
	return out, nil
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
