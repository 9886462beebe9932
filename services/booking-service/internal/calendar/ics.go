package calendar

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"
)

// ICSFeed keeps confirmed appointments in memory and renders them as an
// iCalendar feed that calendar apps can subscribe to.
type ICSFeed struct {
	name     string
	timeZone string
	now      func() time.Time

	mu     sync.RWMutex
	events map[string]feedEvent
}

type feedEvent struct {
	Event
	created time.Time
}

func NewICSFeed(name, timeZone string) *ICSFeed {
	return &ICSFeed{
		name:     name,
		timeZone: timeZone,
		now:      time.Now,
		events:   map[string]feedEvent{},
	}
}

func (f *ICSFeed) CreateEvent(_ context.Context, evt Event) (string, error) {
	id := uuid.NewString()
	f.Add(id, evt)
	return id, nil
}

// Add stores evt under a known id, used to seed the feed at start-up.
func (f *ICSFeed) Add(id string, evt Event) {
	f.mu.Lock()
	f.events[id] = feedEvent{Event: evt, created: f.now()}
	f.mu.Unlock()
}

func (f *ICSFeed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.events)
}

// Serialize renders the feed, events ordered by start time.
func (f *ICSFeed) Serialize() string {
	f.mu.RLock()
	ids := make([]string, 0, len(f.events))
	for id := range f.events {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := f.events[ids[i]].Start, f.events[ids[j]].Start
		if a.Equal(b) {
			return ids[i] < ids[j]
		}
		return a.Before(b)
	})

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//salonbook//agenda//EN")
	cal.SetXWRCalName(f.name)
	cal.SetXWRTimezone(f.timeZone)
	for _, id := range ids {
		e := f.events[id]
		ve := cal.AddEvent(id)
		ve.SetCreatedTime(e.created)
		ve.SetDtStampTime(e.created)
		ve.SetStartAt(e.Start)
		ve.SetEndAt(e.End)
		ve.SetSummary(e.Summary)
		if e.Description != "" {
			ve.SetDescription(e.Description)
		}
	}
	f.mu.RUnlock()
	return cal.Serialize()
}

func (f *ICSFeed) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="agenda.ics"`)
	_, _ = w.Write([]byte(f.Serialize()))
}
