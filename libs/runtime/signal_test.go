package runtime

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestShutdownRunsEveryStep(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	var order []string
	step := func(name string, err error) Stopper {
		return Stopper{Name: name, Stop: func(ctx context.Context) error {
			if _, ok := ctx.Deadline(); !ok {
				t.Fatalf("%s: expected a deadline", name)
			}
			order = append(order, name)
			return err
		}}
	}
	Shutdown(time.Second, logger, step("http", nil), step("notify", errors.New("boom")), step("cron", nil))

	if strings.Join(order, ",") != "http,notify,cron" {
		t.Fatalf("unexpected order %v", order)
	}
	if !strings.Contains(buf.String(), "step=notify") || !strings.Contains(buf.String(), "boom") {
		t.Fatalf("expected failed step to be logged, got %q", buf.String())
	}
}
