package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// Google writes events to a Google Calendar using an installed-app OAuth
// client (credentials.json) and a previously authorised token (token.json).
type Google struct {
	events     *gcal.EventsService
	calendarID string
}

type GoogleConfig struct {
	CredentialsFile string
	TokenFile       string
	CalendarID      string
}

func NewGoogle(ctx context.Context, cfg GoogleConfig) (*Google, error) {
	if cfg.CredentialsFile == "" || cfg.TokenFile == "" {
		return nil, errors.New("google calendar: credentials and token files are required")
	}
	raw, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("google calendar: read credentials: %w", err)
	}
	oauthCfg, err := google.ConfigFromJSON(raw, gcal.CalendarEventsScope)
	if err != nil {
		return nil, fmt.Errorf("google calendar: parse credentials: %w", err)
	}
	tok, err := readToken(cfg.TokenFile)
	if err != nil {
		return nil, err
	}
	svc, err := gcal.NewService(ctx, option.WithTokenSource(oauthCfg.TokenSource(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("google calendar: new service: %w", err)
	}
	id := cfg.CalendarID
	if id == "" {
		id = "primary"
	}
	return &Google{events: svc.Events, calendarID: id}, nil
}

func readToken(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("google calendar: open token: %w", err)
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("google calendar: decode token: %w", err)
	}
	return tok, nil
}

func (g *Google) CreateEvent(ctx context.Context, evt Event) (string, error) {
	created, err := g.events.Insert(g.calendarID, toGoogleEvent(evt)).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("google calendar: insert event: %w", err)
	}
	return created.Id, nil
}

func toGoogleEvent(evt Event) *gcal.Event {
	return &gcal.Event{
		Summary:     evt.Summary,
		Description: evt.Description,
		Start:       &gcal.EventDateTime{DateTime: evt.Start.Format(time.RFC3339), TimeZone: evt.TimeZone},
		End:         &gcal.EventDateTime{DateTime: evt.End.Format(time.RFC3339), TimeZone: evt.TimeZone},
	}
}
