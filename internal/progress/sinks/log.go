package sinks

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/JakeFAU/tracklog/internal/progress"
)

// LogSink writes each entry's formatted text as a zap message at the entry's
// level. Tracker metadata travels as structured fields; the message text is
// left exactly as the tracker rendered it.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink wires a zap logger to the sink interface.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Consume logs every entry in the batch.
func (s *LogSink) Consume(_ context.Context, batch []progress.Entry) error {
	for _, e := range batch {
		fields := []zap.Field{
			zap.String("tracker", e.Name),
			zap.Int("depth", e.Depth),
			zap.String("kind", string(e.Kind)),
		}
		if e.Kind == progress.KindStep {
			fields = append(fields, zap.Int("step", e.Step))
		}
		if ce := s.logger.Check(zapLevel(e.Level), e.Text); ce != nil {
			if !e.TS.IsZero() {
				ce.Time = e.TS
			}
			ce.Write(fields...)
		}
	}
	return nil
}

// Close flushes buffered log output.
func (s *LogSink) Close(context.Context) error {
	// Sync commonly fails on terminals (ENOTTY/EINVAL); there is nothing to
	// recover at shutdown.
	_ = s.logger.Sync()
	return nil
}

func zapLevel(l progress.Level) zapcore.Level {
	if l == progress.LevelError {
		return zapcore.ErrorLevel
	}
	return zapcore.InfoLevel
}
