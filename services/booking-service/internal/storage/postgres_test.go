package storage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/salonbook/agenda/libs/auth"
	"github.com/salonbook/agenda/libs/db"
	"github.com/salonbook/agenda/services/booking-service/internal/booking"
	"github.com/salonbook/agenda/services/booking-service/internal/model"
	"github.com/salonbook/agenda/services/booking-service/internal/outbox"
)

// openTestPool connects to DATABASE_URL and applies the schema. Tests using it
// are skipped when the variable is unset.
func openTestPool(t *testing.T) *db.Pool {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := db.Open(ctx, url, db.PoolOptions{MaxConns: 8})
	if err != nil {
		t.Fatalf("open pool: %v", err)
	}
	t.Cleanup(pool.Close)
	if _, err := db.NewMigrator(pool, Migrations).Up(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return pool
}

func createTestClient(t *testing.T, pool *db.Pool) model.User {
	t.Helper()
	u := model.User{Username: "client-" + uuid.NewString(), PasswordHash: "x", Role: auth.RoleClient}
	if err := NewUserRepository(pool).Create(context.Background(), &u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	t.Cleanup(func() {
		ctx := context.Background()
		_, _ = pool.Exec(ctx, `DELETE FROM appointments WHERE client_id = $1`, u.ID)
		_, _ = pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, u.ID)
	})
	return u
}

// unusedDate picks a far-future day so reruns against the same database do not collide.
func unusedDate() string {
	day := time.Date(2090, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, rand.IntN(365*50))
	return day.Format(time.DateOnly)
}

func TestPostgresConcurrentInsertsHaveOneWinner(t *testing.T) {
	pool := openTestPool(t)
	client := createTestClient(t, pool)
	repo := NewAppointmentRepository(pool, outbox.NewRepository())
	date := unusedDate()

	const n = 6
	var (
		wg   sync.WaitGroup
		errs = make([]error, n)
		ids  = make([]string, n)
	)
	for i := range n {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			appt := model.Appointment{ClientID: client.ID, Service: "cut", Date: date, Time: "09:00"}
			errs[i] = repo.Insert(context.Background(), &appt)
			ids[i] = appt.ID
		}(i)
	}
	wg.Wait()

	winner := ""
	for i, err := range errs {
		switch {
		case err == nil:
			if winner != "" {
				t.Fatalf("two inserts succeeded for %s 09:00", date)
			}
			winner = ids[i]
		case !errors.Is(err, booking.ErrSlotConflict):
			t.Fatalf("insert %d: expected ErrSlotConflict, got %v", i, err)
		}
	}
	if winner == "" {
		t.Fatal("expected one insert to succeed")
	}

	occupied, err := repo.OccupiedTimes(context.Background(), date)
	if err != nil {
		t.Fatalf("OccupiedTimes: %v", err)
	}
	if _, ok := occupied["09:00"]; !ok || len(occupied) != 1 {
		t.Fatalf("expected only 09:00 occupied, got %v", occupied)
	}
}

func TestPostgresDoubleConfirm(t *testing.T) {
	pool := openTestPool(t)
	client := createTestClient(t, pool)
	repo := NewAppointmentRepository(pool, outbox.NewRepository())
	ctx := context.Background()

	appt := model.Appointment{ClientID: client.ID, Service: "color", Date: unusedDate(), Time: "10:00"}
	if err := repo.Insert(ctx, &appt); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	changed, err := repo.UpdateStatus(ctx, appt.ID, model.StatusPending, model.StatusConfirmed)
	if err != nil || changed != 1 {
		t.Fatalf("first confirm: changed=%d err=%v", changed, err)
	}
	changed, err = repo.UpdateStatus(ctx, appt.ID, model.StatusPending, model.StatusConfirmed)
	if err != nil || changed != 0 {
		t.Fatalf("second confirm: expected no change, got changed=%d err=%v", changed, err)
	}

	lc := booking.NewLifecycle(repo, nil, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	if _, err := lc.Confirm(ctx, appt.ID); !errors.Is(err, booking.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	got, err := repo.Get(ctx, appt.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != model.StatusConfirmed {
		t.Fatalf("expected confirmed, got %s", got.Status)
	}
}
