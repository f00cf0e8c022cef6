// internal/poller/runner.go
package poller

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Run polls until ctx is cancelled, then disconnects the bus exactly once.
// Cycles start every Period; an overrunning cycle is followed immediately
// by the next one. Cancellation is honoured between cycles and during waits.
func (p *Poller) Run(ctx context.Context) {
	defer func() {
		if err := p.bus.Disconnect(); err != nil {
			p.log.Warn("disconnect failed", zap.Error(err))
		}
		p.log.Info("poller stopped")
	}()

	p.log.Info("poller started",
		zap.Duration("period", p.cfg.Period),
		zap.Int("units", len(p.cfg.Units)))

	for ctx.Err() == nil {
		if !p.bus.EnsureConnected(ctx) {
			if ctx.Err() != nil {
				return
			}
			p.log.Error("could not reconnect, cooling down", zap.Duration("cooldown", p.cfg.Cooldown))

			now := p.now()
			p.observe(Cycle{ID: uuid.New(), Start: now, End: now, Skipped: true})

			if err := p.sleep(ctx, p.cfg.Cooldown); err != nil {
				return
			}
			continue
		}

		c := p.PollOnce()

		wait := p.cfg.Period - c.Elapsed()
		if wait < 0 {
			wait = 0
		}
		p.log.Debug("cycle finished",
			zap.Duration("elapsed", c.Elapsed()),
			zap.Duration("wait", wait))

		if err := p.sleep(ctx, wait); err != nil {
			return
		}
	}
}
