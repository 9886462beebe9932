package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/salonbook/agenda/libs/db"
	"github.com/salonbook/agenda/services/booking-service/internal/booking"
	"github.com/salonbook/agenda/services/booking-service/internal/model"
	"github.com/salonbook/agenda/services/booking-service/internal/outbox"
)

// AppointmentRepository is the Postgres booking.Store. Every state change
// writes its outbox event in the same transaction.
type AppointmentRepository struct {
	pool   *db.Pool
	outbox *outbox.Repository
}

func NewAppointmentRepository(pool *db.Pool, ob *outbox.Repository) *AppointmentRepository {
	return &AppointmentRepository{pool: pool, outbox: ob}
}

var _ booking.Store = (*AppointmentRepository)(nil)

const appointmentColumns = `
	a.id::text, a.client_id::text, COALESCE(u.username, ''), a.service,
	to_char(a.date, 'YYYY-MM-DD'), a.time, a.note, a.status, a.calendar_event_id, a.created_at`

const appointmentFrom = `
	FROM appointments a
	LEFT JOIN users u ON u.id = a.client_id`

func (r *AppointmentRepository) OccupiedTimes(ctx context.Context, date string) (map[string]struct{}, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT time
		FROM appointments
		WHERE date = $1::date AND status IN ('pending', 'confirmed')
	`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]struct{}{}
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		out[t] = struct{}{}
	}
	return out, rows.Err()
}

func (r *AppointmentRepository) Insert(ctx context.Context, appt *model.Appointment) error {
	appt.ID = uuid.NewString()
	if appt.Status == "" {
		appt.Status = model.StatusPending
	}
	return r.pool.InTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO appointments (id, client_id, service, date, time, note, status)
			VALUES ($1, $2, $3, $4::date, $5, $6, $7)
			RETURNING created_at
		`, appt.ID, appt.ClientID, appt.Service, appt.Date, appt.Time, appt.Note, appt.Status).Scan(&appt.CreatedAt)
		if IsUniqueViolation(err, activeSlotIndex) {
			return booking.ErrSlotConflict
		}
		if err != nil {
			return err
		}
		return r.writeEvent(ctx, tx, outbox.AppointmentRequested, *appt)
	})
}

func (r *AppointmentRepository) Get(ctx context.Context, id string) (model.Appointment, error) {
	appt, err := scanAppointment(r.pool.QueryRow(ctx, `SELECT `+appointmentColumns+appointmentFrom+` WHERE a.id = $1`, id))
	if IsNotFound(err) {
		return model.Appointment{}, booking.ErrNotFound
	}
	return appt, err
}

func (r *AppointmentRepository) UpdateStatus(ctx context.Context, id string, from, to model.Status) (int64, error) {
	eventType := outbox.AppointmentConfirmed
	if to == model.StatusRejected {
		eventType = outbox.AppointmentRejected
	}
	var changed int64
	err := r.pool.InTx(ctx, func(tx pgx.Tx) error {
		appt := model.Appointment{ID: id, Status: to}
		err := tx.QueryRow(ctx, `
			UPDATE appointments
			SET status = $3
			WHERE id = $1 AND status = $2
			RETURNING client_id::text, service, to_char(date, 'YYYY-MM-DD'), time
		`, id, from, to).Scan(&appt.ClientID, &appt.Service, &appt.Date, &appt.Time)
		if IsNotFound(err) {
			return nil
		}
		if err != nil {
			return err
		}
		changed = 1
		return r.writeEvent(ctx, tx, eventType, appt)
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}

func (r *AppointmentRepository) SetCalendarEventID(ctx context.Context, id, eventID string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE appointments SET calendar_event_id = $2 WHERE id = $1`, id, eventID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return booking.ErrNotFound
	}
	return nil
}

func (r *AppointmentRepository) ListAll(ctx context.Context) ([]model.Appointment, error) {
	return r.list(ctx, `SELECT `+appointmentColumns+appointmentFrom+` ORDER BY a.date, a.time, a.created_at`)
}

func (r *AppointmentRepository) ListForClient(ctx context.Context, clientID string) ([]model.Appointment, error) {
	if _, err := uuid.Parse(clientID); err != nil {
		return []model.Appointment{}, nil
	}
	return r.list(ctx, `SELECT `+appointmentColumns+appointmentFrom+` WHERE a.client_id = $1 ORDER BY a.date, a.time`, clientID)
}

func (r *AppointmentRepository) ListByStatus(ctx context.Context, status model.Status, date string) ([]model.Appointment, error) {
	if date == "" {
		return r.list(ctx, `SELECT `+appointmentColumns+appointmentFrom+` WHERE a.status = $1 ORDER BY a.date, a.time`, status)
	}
	return r.list(ctx, `SELECT `+appointmentColumns+appointmentFrom+` WHERE a.status = $1 AND a.date = $2::date ORDER BY a.time`, status, date)
}

func (r *AppointmentRepository) list(ctx context.Context, query string, args ...any) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	appts := []model.Appointment{}
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, appt)
	}
	return appts, rows.Err()
}

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var appt model.Appointment
	var status string
	err := row.Scan(
		&appt.ID,
		&appt.ClientID,
		&appt.ClientName,
		&appt.Service,
		&appt.Date,
		&appt.Time,
		&appt.Note,
		&status,
		&appt.CalendarEventID,
		&appt.CreatedAt,
	)
	if err != nil {
		return model.Appointment{}, err
	}
	appt.Status = model.Status(status)
	return appt, nil
}

func (r *AppointmentRepository) writeEvent(ctx context.Context, tx pgx.Tx, eventType string, appt model.Appointment) error {
	if r.outbox == nil {
		return nil
	}
	evt, err := outbox.NewAppointmentEvent(eventType, outbox.AppointmentPayload{
		AppointmentID: appt.ID,
		ClientID:      appt.ClientID,
		Service:       appt.Service,
		Date:          appt.Date,
		Time:          appt.Time,
		Status:        string(appt.Status),
		OccurredAt:    time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	if err := r.outbox.Insert(ctx, tx, evt); err != nil {
		return fmt.Errorf("write outbox event: %w", err)
	}
	return nil
}
