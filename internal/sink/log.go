// internal/sink/log.go
package sink

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/tamzrod/meter-poller/internal/poller"
)

// Log writes one structured line per reading and per cycle.
type Log struct {
	log *zap.Logger
}

func NewLog(log *zap.Logger) *Log {
	return &Log{log: log.Named("readings")}
}

func (l *Log) Emit(r poller.Reading) {
	fields := []zap.Field{
		zap.Uint8("unit", r.UnitID),
		zap.String("profile", r.Profile),
		zap.String("field", r.Field),
		zap.String("addr", fmt.Sprintf("0x%04X", r.Address)),
		zap.Duration("duration", r.Duration),
		zap.Stringer("cycle", r.CycleID),
	}

	if r.Err != nil {
		l.log.Warn("read failed", append(fields,
			zap.String("kind", ErrorKind(r.Err)),
			zap.Error(r.Err))...)
		return
	}

	l.log.Info("read", append(fields, zap.Float64("value", r.Value))...)
}

func (l *Log) CycleDone(c poller.Cycle) {
	if c.Skipped {
		l.log.Warn("cycle skipped", zap.Stringer("cycle", c.ID))
		return
	}
	l.log.Info("cycle done",
		zap.Stringer("cycle", c.ID),
		zap.Int("reads", c.Reads),
		zap.Int("failures", c.Failures),
		zap.Duration("elapsed", c.Elapsed()))
}
