package grpcserver

import (
	"context"
	"net"
	"testing"

	"github.com/salonbook/agenda/libs/grpcx"
	"github.com/salonbook/agenda/services/booking-service/internal/booking"
	"github.com/salonbook/agenda/services/booking-service/internal/model"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type fakeLister struct{}

func (fakeLister) DaySlots(_ context.Context, date string) ([]model.Slot, error) {
	if date == "" {
		return nil, &booking.ValidationError{Field: "date", Reason: "required"}
	}
	return []model.Slot{
		{Time: "08:30", State: model.SlotBusy},
		{Time: "09:00", State: model.SlotFree},
	}, nil
}

func dial(t *testing.T) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpcx.ServerOptions()...)
	Register(srv, fakeLister{})
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpcx.NewClient("passthrough:///bufnet", grpcx.DialOptions{},
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) { return lis.Dial() }))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestListSlots(t *testing.T) {
	conn := dial(t)

	slots, err := ListSlots(context.Background(), conn, "2025-12-02")
	if err != nil {
		t.Fatalf("ListSlots: %v", err)
	}
	if len(slots) != 2 || slots[0].Time != "08:30" || slots[0].State != model.SlotBusy || slots[1].State != model.SlotFree {
		t.Fatalf("unexpected slots: %+v", slots)
	}

	_, err = ListSlots(context.Background(), conn, "")
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}

func TestHealth(t *testing.T) {
	conn := dial(t)
	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		t.Fatalf("health check: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("expected SERVING, got %v", resp.GetStatus())
	}
}
