package grpcx

import (
	"context"
	"testing"

	"github.com/salonbook/agenda/libs/httpx"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

func TestServerInterceptorReadsIncomingID(t *testing.T) {
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(RequestIDMetadataKey, "abc"))
	var seen string
	_, err := UnaryServerRequestIDInterceptor()(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/x/Y"},
		func(ctx context.Context, _ any) (any, error) {
			seen = httpx.RequestIDFromContext(ctx)
			return nil, nil
		})
	if err != nil {
		t.Fatalf("interceptor returned %v", err)
	}
	if seen != "abc" {
		t.Fatalf("request id = %q, want abc", seen)
	}
}

func TestServerInterceptorMintsID(t *testing.T) {
	var seen string
	_, _ = UnaryServerRequestIDInterceptor()(context.Background(), nil, &grpc.UnaryServerInfo{},
		func(ctx context.Context, _ any) (any, error) {
			seen = httpx.RequestIDFromContext(ctx)
			return nil, nil
		})
	if seen == "" {
		t.Fatal("expected a generated request id")
	}
}

func TestClientInterceptorForwardsID(t *testing.T) {
	ctx := httpx.ContextWithRequestID(context.Background(), "req-9")
	err := UnaryClientRequestIDInterceptor()(ctx, "/x/Y", nil, nil, nil,
		func(ctx context.Context, _ string, _, _ any, _ *grpc.ClientConn, _ ...grpc.CallOption) error {
			md, _ := metadata.FromOutgoingContext(ctx)
			if got := md.Get(RequestIDMetadataKey); len(got) != 1 || got[0] != "req-9" {
				t.Fatalf("outgoing metadata = %v", md)
			}
			return nil
		})
	if err != nil {
		t.Fatalf("interceptor returned %v", err)
	}
}
