// Package notify fans admin notifications out to registered push devices.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/salonbook/agenda/libs/auth"
	"github.com/salonbook/agenda/services/booking-service/internal/model"
)

// ErrGone means the push service no longer knows the device; the
// subscription is deleted after the failed send.
var ErrGone = errors.New("push subscription gone")

type Message struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

type Sender interface {
	Kind() model.SubscriptionKind
	Send(ctx context.Context, sub model.PushSubscription, msg Message) error
}

type SubscriptionStore interface {
	ListForRole(ctx context.Context, role string) ([]model.PushSubscription, error)
	Delete(ctx context.Context, id string) error
}

// Dispatcher delivers messages to every subscription of a role. Deliveries
// started with Go run detached from the caller; Wait drains them.
type Dispatcher struct {
	store   SubscriptionStore
	senders map[model.SubscriptionKind]Sender
	logger  *slog.Logger
	timeout time.Duration

	wg sync.WaitGroup
}

func NewDispatcher(store SubscriptionStore, logger *slog.Logger, timeout time.Duration, senders ...Sender) *Dispatcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	d := &Dispatcher{
		store:   store,
		senders: map[model.SubscriptionKind]Sender{},
		logger:  logger,
		timeout: timeout,
	}
	for _, s := range senders {
		if s != nil {
			d.senders[s.Kind()] = s
		}
	}
	return d
}

// AppointmentRequested tells every admin device about a new request without
// blocking the booking.
func (d *Dispatcher) AppointmentRequested(ctx context.Context, appt model.Appointment) {
	d.Go(ctx, auth.RoleAdmin, RequestMessage(appt))
}

func RequestMessage(appt model.Appointment) Message {
	name := appt.ClientName
	if name == "" {
		name = "A client"
	}
	return Message{
		Title: "New appointment request",
		Body:  fmt.Sprintf("%s requested %s on %s at %s", name, appt.Service, appt.Date, appt.Time),
		Data:  map[string]string{"appointmentId": appt.ID},
	}
}

// Go broadcasts in the background. ctx only contributes its values; the
// delivery has its own timeout and outlives the request.
func (d *Dispatcher) Go(ctx context.Context, role string, msg Message) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()
		if _, err := d.Broadcast(ctx, role, msg); err != nil {
			d.logger.Error("notification broadcast failed", "role", role, "err", err)
		}
	}()
}

// Broadcast sends msg to each subscription of role and returns how many
// deliveries succeeded. Per-device failures are logged, not returned.
func (d *Dispatcher) Broadcast(ctx context.Context, role string, msg Message) (int, error) {
	subs, err := d.store.ListForRole(ctx, role)
	if err != nil {
		return 0, fmt.Errorf("list subscriptions: %w", err)
	}
	sent := 0
	for _, sub := range subs {
		sender, ok := d.senders[sub.Kind]
		if !ok {
			d.logger.Warn("no sender for subscription kind", "kind", sub.Kind, "subscription_id", sub.ID)
			continue
		}
		err := sender.Send(ctx, sub, msg)
		if err == nil {
			sent++
			continue
		}
		d.logger.Warn("push delivery failed", "kind", sub.Kind, "subscription_id", sub.ID, "user_id", sub.UserID, "err", err)
		if errors.Is(err, ErrGone) {
			if err := d.store.Delete(ctx, sub.ID); err != nil {
				d.logger.Warn("prune subscription failed", "subscription_id", sub.ID, "err", err)
			} else {
				d.logger.Info("pruned stale subscription", "subscription_id", sub.ID)
			}
		}
	}
	return sent, nil
}

// Wait blocks until background deliveries finish or ctx ends.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
