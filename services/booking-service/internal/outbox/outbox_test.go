package outbox

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/salonbook/agenda/libs/kafkax"
	otelx "github.com/salonbook/agenda/libs/otel"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

func TestNewAppointmentEvent(t *testing.T) {
	at := time.Date(2025, 12, 24, 9, 0, 0, 0, time.UTC)
	evt, err := NewAppointmentEvent(AppointmentRequested, AppointmentPayload{
		AppointmentID: "a-1", ClientID: "u-1", Service: "Haircut", Date: "2025-12-24", Time: "09:00",
		Status: "pending", OccurredAt: at,
	})
	if err != nil {
		t.Fatalf("NewAppointmentEvent failed: %v", err)
	}
	if evt.AggregateType != AggregateAppointment || evt.AggregateID != "a-1" || evt.EventType != AppointmentRequested {
		t.Fatalf("unexpected envelope %+v", evt)
	}
	var p AppointmentPayload
	if err := json.Unmarshal(evt.Payload, &p); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if p.Time != "09:00" || !p.OccurredAt.Equal(at) {
		t.Fatalf("unexpected payload %+v", p)
	}
}

func TestMessagesCarryMetadata(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	records := []Record{
		{ID: 1, EventID: "e-1", AggregateID: "a-1", EventType: AppointmentConfirmed, Payload: []byte(`{}`),
			Trace: otelx.StoredTrace{Parent: "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"}},
		{ID: 2, EventID: "e-2", AggregateID: "a-2", EventType: AppointmentRejected, Payload: []byte(`{}`)},
	}
	msgs := Messages(context.Background(), records)
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Topic != AppointmentConfirmed || string(msgs[0].Key) != "a-1" {
		t.Fatalf("unexpected message %+v", msgs[0])
	}
	if kafkax.HeaderValue(msgs[1].Headers, kafkax.HeaderEventID) != "e-2" {
		t.Fatalf("missing event id header: %v", msgs[1].Headers)
	}
	if kafkax.HeaderValue(msgs[1].Headers, kafkax.HeaderEventType) != AppointmentRejected {
		t.Fatalf("missing event type header: %v", msgs[1].Headers)
	}
	if got := kafkax.HeaderValue(msgs[0].Headers, "traceparent"); got != records[0].Trace.Parent {
		t.Fatalf("expected stored traceparent on message, got %q", got)
	}
	if got := kafkax.HeaderValue(msgs[1].Headers, "traceparent"); got != "" {
		t.Fatalf("row without trace should not get a traceparent, got %q", got)
	}
}
