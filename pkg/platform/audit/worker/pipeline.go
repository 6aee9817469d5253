package worker

import (
	"context"
	"log/slog"
	"time"

	audit "faircircle/pkg/platform/audit"
	"faircircle/pkg/platform/audit/publisher"
)

// Emitter is the service-facing side of an audit pipeline. It stamps and
// enqueues events; the paired Worker persists them and fans them out.
type Emitter struct {
	inbox  chan<- audit.Event
	logger *slog.Logger
}

// Emit enqueues an audit event. A full buffer drops the event rather than
// blocking the request path.
func (e *Emitter) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}

	select {
	case e.inbox <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		e.logger.Warn("audit event dropped", "action", event.Action, "circle_id", event.CircleID)
		return publisher.ErrBufferFull
	}
}

// NewPipeline builds a buffered audit pipeline. The Emitter is handed to
// services; the Worker must be driven by the caller via Run.
func NewPipeline(store audit.Store, buffer int, logger *slog.Logger, sinks ...Appender) (*Emitter, *Worker) {
	inbox := make(chan audit.Event, buffer)
	emitter := &Emitter{inbox: inbox, logger: logger}
	return emitter, NewWorker(store, inbox, logger, sinks...)
}
