package tracking

import (
	"context"
	"io"
	"log/slog"
	"time"
)

// CallEvent describes one finished remote call.
type CallEvent struct {
	Op        string
	RequestID string
	Epoch     int
	Duration  time.Duration
	Success   bool
	// Stale is set when the session had moved on and dropped the result.
	Stale bool
	Err   error
}

// Observer receives remote call telemetry.
type Observer interface {
	ObserveCall(ctx context.Context, event CallEvent)
}

// NoopObserver ignores all events.
type NoopObserver struct{}

func (NoopObserver) ObserveCall(context.Context, CallEvent) {}

type logObserver struct {
	logger *slog.Logger
}

// NewLogObserver writes call events to w as slog text records.
func NewLogObserver(w io.Writer) Observer {
	if w == nil {
		return NoopObserver{}
	}
	return &logObserver{
		logger: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})),
	}
}

func (o *logObserver) ObserveCall(ctx context.Context, event CallEvent) {
	attrs := []any{
		"op", event.Op,
		"request_id", event.RequestID,
		"epoch", event.Epoch,
		"duration_ms", event.Duration.Milliseconds(),
		"success", event.Success,
		"stale", event.Stale,
	}
	if event.Err != nil {
		attrs = append(attrs, "error", event.Err.Error())
		o.logger.WarnContext(ctx, "redmine_call", attrs...)
		return
	}
	o.logger.InfoContext(ctx, "redmine_call", attrs...)
}
