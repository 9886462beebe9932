// Package agenda pushes the day's confirmed appointments to admins on a cron schedule.
package agenda

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/salonbook/agenda/libs/auth"
	"github.com/salonbook/agenda/services/booking-service/internal/availability"
	"github.com/salonbook/agenda/services/booking-service/internal/model"
	"github.com/salonbook/agenda/services/booking-service/internal/notify"
)

type Lister interface {
	ListByStatus(ctx context.Context, status model.Status, date string) ([]model.Appointment, error)
}

type Broadcaster interface {
	Broadcast(ctx context.Context, role string, msg notify.Message) (int, error)
}

type Digest struct {
	store  Lister
	out    Broadcaster
	logger *slog.Logger
	loc    *time.Location
	now    func() time.Time
}

func NewDigest(store Lister, out Broadcaster, logger *slog.Logger, loc *time.Location) *Digest {
	if loc == nil {
		loc = availability.Location()
	}
	return &Digest{store: store, out: out, logger: logger, loc: loc, now: time.Now}
}

// Message summarises the confirmed appointments of date.
func Message(date string, appts []model.Appointment) notify.Message {
	msg := notify.Message{
		Title: "Today's agenda",
		Data:  map[string]string{"date": date},
	}
	if len(appts) == 0 {
		msg.Body = "No confirmed appointments today"
		return msg
	}
	parts := make([]string, 0, len(appts))
	for _, a := range appts {
		label := a.Time + " " + a.Service
		if a.ClientName != "" {
			label += " (" + a.ClientName + ")"
		}
		parts = append(parts, label)
	}
	noun := "appointments"
	if len(appts) == 1 {
		noun = "appointment"
	}
	msg.Body = fmt.Sprintf("%d confirmed %s: %s", len(appts), noun, strings.Join(parts, ", "))
	return msg
}

// Send pushes today's digest once.
func (d *Digest) Send(ctx context.Context) error {
	date := d.now().In(d.loc).Format(availability.DateLayout)
	appts, err := d.store.ListByStatus(ctx, model.StatusConfirmed, date)
	if err != nil {
		return fmt.Errorf("list confirmed appointments: %w", err)
	}
	sent, err := d.out.Broadcast(ctx, auth.RoleAdmin, Message(date, appts))
	if err != nil {
		return err
	}
	d.logger.Info("agenda digest sent", "date", date, "appointments", len(appts), "deliveries", sent)
	return nil
}

// Schedule registers Send under spec (standard 5-field cron, business
// timezone) on a new cron runner. The caller starts and stops it.
func (d *Digest) Schedule(ctx context.Context, spec string) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(d.loc))
	_, err := c.AddFunc(spec, func() {
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Minute)
		defer cancel()
		if err := d.Send(runCtx); err != nil {
			d.logger.Error("agenda digest failed", "err", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("agenda schedule %q: %w", spec, err)
	}
	return c, nil
}
