package calendar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"
)

func TestICSFeedRendersEvents(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	feed := NewICSFeed("Agenda", "Europe/Rome")
	late := time.Date(2025, 12, 24, 15, 0, 0, 0, loc)
	early := time.Date(2025, 12, 24, 9, 0, 0, 0, loc)

	if _, err := feed.CreateEvent(context.Background(), Event{Summary: "Color - Anna", Start: late, End: late.Add(30 * time.Minute)}); err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}
	id, err := feed.CreateEvent(context.Background(), Event{Summary: "Haircut - Marco", Description: "short", Start: early, End: early.Add(30 * time.Minute)})
	if err != nil || id == "" {
		t.Fatalf("CreateEvent failed: %q %v", id, err)
	}

	cal, err := ical.ParseCalendar(strings.NewReader(feed.Serialize()))
	if err != nil {
		t.Fatalf("ParseCalendar failed: %v", err)
	}
	events := cal.Events()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if got := events[0].GetProperty(ical.ComponentPropertySummary).Value; got != "Haircut - Marco" {
		t.Fatalf("first event summary = %q", got)
	}
	start, err := events[0].GetStartAt()
	if err != nil {
		t.Fatalf("GetStartAt failed: %v", err)
	}
	if !start.Equal(early) {
		t.Fatalf("start = %s, want %s", start, early)
	}
}

func TestICSFeedServeHTTP(t *testing.T) {
	feed := NewICSFeed("Agenda", "Europe/Rome")
	feed.Add("seed-1", Event{Summary: "Haircut - Marco", Start: time.Now(), End: time.Now().Add(30 * time.Minute)})

	rr := httptest.NewRecorder()
	feed.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/calendar.ics", nil))
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Fatalf("content type = %q", ct)
	}
	if !strings.Contains(rr.Body.String(), "UID:seed-1") {
		t.Fatalf("feed missing seeded event: %s", rr.Body.String())
	}
}

func TestToGoogleEvent(t *testing.T) {
	start := time.Date(2025, 12, 24, 9, 0, 0, 0, time.UTC)
	ge := toGoogleEvent(Event{Summary: "s", Description: "d", Start: start, End: start.Add(30 * time.Minute), TimeZone: "Europe/Rome"})
	if ge.Start.DateTime != "2025-12-24T09:00:00Z" || ge.End.DateTime != "2025-12-24T09:30:00Z" {
		t.Fatalf("unexpected times %+v %+v", ge.Start, ge.End)
	}
	if ge.Start.TimeZone != "Europe/Rome" || ge.Summary != "s" || ge.Description != "d" {
		t.Fatalf("unexpected event %+v", ge)
	}
}
