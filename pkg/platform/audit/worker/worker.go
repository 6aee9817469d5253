package worker

import (
	"context"
	"log/slog"

	audit "faircircle/pkg/platform/audit"
)

// Appender receives a copy of every event the worker processes. Sinks are
// best-effort: a sink failure is logged but never blocks persistence.
type Appender interface {
	Append(ctx context.Context, event audit.Event) error
}

// Worker consumes audit events from a channel, persists them to the store,
// and fans them out to any configured sinks.
type Worker struct {
	store  audit.Store
	sinks  []Appender
	inbox  <-chan audit.Event
	logger *slog.Logger
}

func NewWorker(store audit.Store, inbox <-chan audit.Event, logger *slog.Logger, sinks ...Appender) *Worker {
	return &Worker{store: store, sinks: sinks, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			// A failed write loses that event but keeps the worker alive;
			// audit persistence must not take the service down.
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.Error("audit store append failed", "action", event.Action, "error", err)
				continue
			}
			for _, sink := range w.sinks {
				if err := sink.Append(ctx, event); err != nil {
					w.logger.Error("audit sink append failed", "action", event.Action, "error", err)
				}
			}
		}
	}
}
