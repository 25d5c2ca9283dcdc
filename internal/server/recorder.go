package server

import (
	"context"
	"log/slog"

	"github.com/playperu/wildkids/internal/progress"
	"github.com/playperu/wildkids/internal/store"
	"github.com/playperu/wildkids/internal/tracker"
)

// Recorder records completions and pushes the new stats to the guest's
// event streams. Signed-in streams get theirs from the remote store.
type Recorder struct {
	tracker *tracker.Tracker
	broker  *Broker
	logger  *slog.Logger
}

func NewRecorder(t *tracker.Tracker, b *Broker, logger *slog.Logger) *Recorder {
	return &Recorder{tracker: t, broker: b, logger: logger}
}

func (rec *Recorder) RecordCompletion(ctx context.Context, id store.Identity, c progress.Completion) (tracker.Outcome, error) {
	out, err := rec.tracker.RecordCompletion(ctx, id, c)
	if err != nil {
		return out, err
	}
	if id.IsGuest() {
		if err := rec.broker.Publish(id.Topic(), "stats", out.Stats); err != nil {
			rec.logger.Debug("stats event not published", "topic", id.Topic(), "error", err)
		}
	}
	return out, nil
}
