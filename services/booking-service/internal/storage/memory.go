package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/salonbook/agenda/services/booking-service/internal/booking"
	"github.com/salonbook/agenda/services/booking-service/internal/model"
)

// Memory is a process-local store for development (STORE=memory) and tests.
// The three repositories share one lock so the username join stays consistent.
type Memory struct {
	Appointments  *MemoryAppointments
	Users         *MemoryUsers
	Subscriptions *MemorySubscriptions
}

type memoryState struct {
	mu    sync.Mutex
	now   func() time.Time
	appts map[string]*model.Appointment
	users map[string]*model.User
	subs  map[string]*model.PushSubscription
}

func NewMemory() *Memory {
	st := &memoryState{
		now:   time.Now,
		appts: map[string]*model.Appointment{},
		users: map[string]*model.User{},
		subs:  map[string]*model.PushSubscription{},
	}
	return &Memory{
		Appointments:  &MemoryAppointments{st: st},
		Users:         &MemoryUsers{st: st},
		Subscriptions: &MemorySubscriptions{st: st},
	}
}

type MemoryAppointments struct{ st *memoryState }

var _ booking.Store = (*MemoryAppointments)(nil)

func (m *MemoryAppointments) OccupiedTimes(_ context.Context, date string) (map[string]struct{}, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	out := map[string]struct{}{}
	for _, a := range m.st.appts {
		if a.Date == date && a.Status.Active() {
			out[a.Time] = struct{}{}
		}
	}
	return out, nil
}

func (m *MemoryAppointments) Insert(_ context.Context, appt *model.Appointment) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	for _, a := range m.st.appts {
		if a.Date == appt.Date && a.Time == appt.Time && a.Status.Active() {
			return booking.ErrSlotConflict
		}
	}
	appt.ID = uuid.NewString()
	appt.CreatedAt = m.st.now().UTC()
	if appt.Status == "" {
		appt.Status = model.StatusPending
	}
	stored := *appt
	m.st.appts[appt.ID] = &stored
	return nil
}

func (m *MemoryAppointments) Get(_ context.Context, id string) (model.Appointment, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	a, ok := m.st.appts[id]
	if !ok {
		return model.Appointment{}, booking.ErrNotFound
	}
	return m.st.joined(a), nil
}

func (m *MemoryAppointments) UpdateStatus(_ context.Context, id string, from, to model.Status) (int64, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	a, ok := m.st.appts[id]
	if !ok || a.Status != from {
		return 0, nil
	}
	a.Status = to
	return 1, nil
}

func (m *MemoryAppointments) SetCalendarEventID(_ context.Context, id, eventID string) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	a, ok := m.st.appts[id]
	if !ok {
		return booking.ErrNotFound
	}
	a.CalendarEventID = eventID
	return nil
}

func (m *MemoryAppointments) ListAll(context.Context) ([]model.Appointment, error) {
	return m.st.filter(func(*model.Appointment) bool { return true }), nil
}

func (m *MemoryAppointments) ListForClient(_ context.Context, clientID string) ([]model.Appointment, error) {
	return m.st.filter(func(a *model.Appointment) bool { return a.ClientID == clientID }), nil
}

func (m *MemoryAppointments) ListByStatus(_ context.Context, status model.Status, date string) ([]model.Appointment, error) {
	return m.st.filter(func(a *model.Appointment) bool {
		return a.Status == status && (date == "" || a.Date == date)
	}), nil
}

func (st *memoryState) filter(keep func(*model.Appointment) bool) []model.Appointment {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := []model.Appointment{}
	for _, a := range st.appts {
		if keep(a) {
			out = append(out, st.joined(a))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		if out[i].Time != out[j].Time {
			return out[i].Time < out[j].Time
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// joined mirrors the users join of the SQL store. Callers hold mu.
func (st *memoryState) joined(a *model.Appointment) model.Appointment {
	out := *a
	if u, ok := st.users[a.ClientID]; ok {
		out.ClientName = u.Username
	}
	return out
}

type MemoryUsers struct{ st *memoryState }

func (m *MemoryUsers) Create(_ context.Context, u *model.User) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	for _, existing := range m.st.users {
		if existing.Username == u.Username {
			return ErrUsernameTaken
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.CreatedAt = m.st.now().UTC()
	stored := *u
	m.st.users[u.ID] = &stored
	return nil
}

func (m *MemoryUsers) GetByUsername(_ context.Context, username string) (model.User, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	for _, u := range m.st.users {
		if u.Username == username {
			return *u, nil
		}
	}
	return model.User{}, ErrUserNotFound
}

func (m *MemoryUsers) List(context.Context) ([]model.User, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	out := make([]model.User, 0, len(m.st.users))
	for _, u := range m.st.users {
		c := *u
		c.PasswordHash = ""
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Username < out[j].Username
	})
	return out, nil
}

type MemorySubscriptions struct{ st *memoryState }

func (m *MemorySubscriptions) Save(_ context.Context, s *model.PushSubscription) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	for id, existing := range m.st.subs {
		if existing.Endpoint == s.Endpoint {
			s.ID = id
			s.CreatedAt = existing.CreatedAt
			stored := *s
			m.st.subs[id] = &stored
			return nil
		}
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	s.CreatedAt = m.st.now().UTC()
	stored := *s
	m.st.subs[s.ID] = &stored
	return nil
}

func (m *MemorySubscriptions) ListForRole(_ context.Context, role string) ([]model.PushSubscription, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var out []model.PushSubscription
	for _, s := range m.st.subs {
		if u, ok := m.st.users[s.UserID]; ok && u.Role == role {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Endpoint < out[j].Endpoint })
	return out, nil
}

func (m *MemorySubscriptions) Delete(_ context.Context, id string) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	delete(m.st.subs, id)
	return nil
}
