package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/salonbook/agenda/libs/grpcx"
	"github.com/salonbook/agenda/services/booking-service/internal/availability"
	"github.com/salonbook/agenda/services/booking-service/internal/grpcserver"
)

func main() {
	var (
		addr    = flag.String("addr", getenv("BOOKING_GRPC_ADDR", "localhost:9090"), "booking-service gRPC address")
		date    = flag.String("date", time.Now().In(availability.Location()).Format(availability.DateLayout), "day to list (YYYY-MM-DD)")
		timeout = flag.Duration("timeout", 5*time.Second, "request timeout")
	)
	flag.Parse()

	conn, err := grpcx.NewClient(*addr, grpcx.DialOptions{})
	if err != nil {
		fatal(err.Error())
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	slots, err := grpcserver.ListSlots(ctx, conn, *date)
	if err != nil {
		fatal(err.Error())
	}
	if len(slots) == 0 {
		fmt.Printf("%s: closed\n", *date)
		return
	}
	fmt.Printf("%s\n", *date)
	for _, s := range slots {
		fmt.Printf("  %s  %s\n", s.Time, s.State)
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
