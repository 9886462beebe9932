package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/salonbook/agenda/services/booking-service/internal/booking"
	"github.com/salonbook/agenda/services/booking-service/internal/model"
)

func TestMemoryAppointments_ActiveSlotGuard(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	appts := mem.Appointments

	first := &model.Appointment{ClientID: "u1", Service: "Haircut", Date: "2025-12-24", Time: "09:00"}
	if err := appts.Insert(ctx, first); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if first.ID == "" || first.Status != model.StatusPending || first.CreatedAt.IsZero() {
		t.Fatalf("Insert did not fill defaults: %+v", first)
	}
	dup := &model.Appointment{ClientID: "u2", Service: "Color", Date: "2025-12-24", Time: "09:00"}
	if err := appts.Insert(ctx, dup); !errors.Is(err, booking.ErrSlotConflict) {
		t.Fatalf("expected ErrSlotConflict, got %v", err)
	}

	n, err := appts.UpdateStatus(ctx, first.ID, model.StatusPending, model.StatusRejected)
	if err != nil || n != 1 {
		t.Fatalf("UpdateStatus = %d, %v", n, err)
	}
	if n, _ := appts.UpdateStatus(ctx, first.ID, model.StatusPending, model.StatusConfirmed); n != 0 {
		t.Fatal("compare-and-set must not change a rejected row")
	}
	if err := appts.Insert(ctx, dup); err != nil {
		t.Fatalf("rejected slot should be free again: %v", err)
	}
	occupied, _ := appts.OccupiedTimes(ctx, "2025-12-24")
	if len(occupied) != 1 {
		t.Fatalf("expected one occupied time, got %v", occupied)
	}
}

func TestMemoryAppointments_JoinAndOrder(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	user := &model.User{Username: "anna", Role: "client"}
	if err := mem.Users.Create(ctx, user); err != nil {
		t.Fatalf("Create user failed: %v", err)
	}
	for _, slot := range []string{"15:00", "08:30"} {
		if err := mem.Appointments.Insert(ctx, &model.Appointment{ClientID: user.ID, Service: "Haircut", Date: "2025-12-24", Time: slot}); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}
	list, _ := mem.Appointments.ListForClient(ctx, user.ID)
	if len(list) != 2 || list[0].Time != "08:30" || list[0].ClientName != "anna" {
		t.Fatalf("unexpected list %+v", list)
	}
	if _, err := mem.Appointments.Get(ctx, "missing"); !errors.Is(err, booking.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryUsersAndSubscriptions(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	admin := &model.User{Username: "admin", Role: "admin", PasswordHash: "x"}
	client := &model.User{Username: "marco", Role: "client", PasswordHash: "x"}
	_ = mem.Users.Create(ctx, admin)
	_ = mem.Users.Create(ctx, client)
	if err := mem.Users.Create(ctx, &model.User{Username: "admin"}); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
	if _, err := mem.Users.GetByUsername(ctx, "nobody"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	users, _ := mem.Users.List(ctx)
	if len(users) != 2 || users[0].PasswordHash != "" {
		t.Fatalf("List must hide hashes: %+v", users)
	}

	sub := &model.PushSubscription{UserID: admin.ID, Kind: model.SubscriptionWebPush, Endpoint: "https://push/1"}
	_ = mem.Subscriptions.Save(ctx, sub)
	again := &model.PushSubscription{UserID: admin.ID, Kind: model.SubscriptionWebPush, Endpoint: "https://push/1", Auth: "new"}
	_ = mem.Subscriptions.Save(ctx, again)
	if again.ID != sub.ID {
		t.Fatal("saving a known endpoint should update in place")
	}
	_ = mem.Subscriptions.Save(ctx, &model.PushSubscription{UserID: client.ID, Kind: model.SubscriptionExpo, Endpoint: "ExponentPushToken[x]"})

	subs, _ := mem.Subscriptions.ListForRole(ctx, "admin")
	if len(subs) != 1 || subs[0].Auth != "new" {
		t.Fatalf("unexpected admin subscriptions %+v", subs)
	}
	_ = mem.Subscriptions.Delete(ctx, sub.ID)
	if subs, _ := mem.Subscriptions.ListForRole(ctx, "admin"); len(subs) != 0 {
		t.Fatal("subscription not deleted")
	}
}
