package observer

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/vnykmshr/streamvis/pkg/streaming/event"
)

// LogObserver writes one structured log line per event.
type LogObserver struct {
	logger zerolog.Logger
	level  zerolog.Level
}

// NewLogObserver logs events at level. Progress ticks are logged one level
// lower so they can be filtered out separately.
func NewLogObserver(logger zerolog.Logger, level zerolog.Level) *LogObserver {
	return &LogObserver{logger: logger, level: level}
}

// Observe implements Observer.
func (l *LogObserver) Observe(_ context.Context, e event.Event) error {
	e.Accept(&logVisitor{l: l})
	return nil
}

type logVisitor struct {
	l *LogObserver
}

func (v *logVisitor) VisitCreated(e event.Created) {
	v.l.logger.WithLevel(v.l.level).
		Uint64("item", uint64(e.ID)).
		Int("stage", int(e.StageID)).
		Str("value", e.Value.String()).
		Msg("created")
}

func (v *logVisitor) VisitValueChanged(e event.ValueChanged) {
	level := v.l.level
	if e.Value.Kind == event.ValueInProgress && level > zerolog.TraceLevel {
		level--
	}
	v.l.logger.WithLevel(level).
		Uint64("item", uint64(e.ID)).
		Str("value", e.Value.String()).
		Msg("value changed")
}

func (v *logVisitor) VisitStageAdvanced(e event.StageAdvanced) {
	v.l.logger.WithLevel(v.l.level).
		Uint64("item", uint64(e.ID)).
		Int("from", int(e.From)).
		Int("to", int(e.To)).
		Msg("stage advanced")
}

func (v *logVisitor) VisitRejected(e event.Rejected) {
	v.l.logger.WithLevel(v.l.level).
		Uint64("item", uint64(e.ID)).
		Msg("rejected")
}
