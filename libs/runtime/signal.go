package runtime

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"
)

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// Stopper is one step of an ordered shutdown.
type Stopper struct {
	Name string
	Stop func(context.Context) error
}

// Shutdown runs steps in order under one shared deadline. A failing step is
// logged and the remaining steps still run.
func Shutdown(timeout time.Duration, logger *slog.Logger, steps ...Stopper) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	for _, s := range steps {
		if err := s.Stop(ctx); err != nil {
			logger.Error("shutdown step failed", "step", s.Name, "err", err)
			continue
		}
		logger.Info("stopped", "step", s.Name)
	}
}
