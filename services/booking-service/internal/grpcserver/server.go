package grpcserver

import (
	"context"
	"errors"

	"github.com/salonbook/agenda/services/booking-service/internal/booking"
	"github.com/salonbook/agenda/services/booking-service/internal/model"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName     = "agenda.v1.AvailabilityService"
	ListSlotsMethod = "/" + ServiceName + "/ListSlots"
)

// SlotLister is the part of the allocator the availability service reads.
type SlotLister interface {
	DaySlots(ctx context.Context, date string) ([]model.Slot, error)
}

// AvailabilityServer exposes day slots with google.protobuf.Struct messages,
// so no generated stubs are needed.
type AvailabilityServer interface {
	ListSlots(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

type server struct {
	slots SlotLister
}

func Register(grpcServer *grpc.Server, slots SlotLister) *health.Server {
	grpcServer.RegisterService(&serviceDesc, &server{slots: slots})

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, hs)
	return hs
}

func (s *server) ListSlots(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	date := req.GetFields()["date"].GetStringValue()
	slots, err := s.slots.DaySlots(ctx, date)
	if err != nil {
		return nil, toStatus(err)
	}

	list := make([]any, 0, len(slots))
	for _, sl := range slots {
		list = append(list, map[string]any{"time": sl.Time, "state": string(sl.State)})
	}
	resp, err := structpb.NewStruct(map[string]any{"date": date, "slots": list})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return resp, nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, booking.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, booking.ErrStoreUnavailable):
		return status.Error(codes.Unavailable, "store unavailable")
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func listSlotsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AvailabilityServer).ListSlots(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ListSlotsMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AvailabilityServer).ListSlots(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AvailabilityServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListSlots", Handler: listSlotsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "agenda/v1/availability.proto",
}

// ListSlots calls the availability service over cc.
func ListSlots(ctx context.Context, cc grpc.ClientConnInterface, date string) ([]model.Slot, error) {
	req, err := structpb.NewStruct(map[string]any{"date": date})
	if err != nil {
		return nil, err
	}
	resp := new(structpb.Struct)
	if err := cc.Invoke(ctx, ListSlotsMethod, req, resp); err != nil {
		return nil, err
	}
	var out []model.Slot
	for _, v := range resp.GetFields()["slots"].GetListValue().GetValues() {
		f := v.GetStructValue().GetFields()
		out = append(out, model.Slot{
			Time:  f["time"].GetStringValue(),
			State: model.SlotState(f["state"].GetStringValue()),
		})
	}
	return out, nil
}
