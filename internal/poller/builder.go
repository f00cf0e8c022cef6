// internal/poller/builder.go
package poller

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	cfg "github.com/tamzrod/meter-poller/internal/config"
	"github.com/tamzrod/meter-poller/internal/register"
)

// BuildConfig resolves the unit table against the device profiles.
// Assumes config has already passed validation.
func BuildConfig(m cfg.MeterPollConfig) (Config, error) {
	units := make([]Unit, 0, len(m.Units))

	for _, u := range m.Units {
		profile, ok := m.Profiles[u.Profile]
		if !ok {
			return Config{}, fmt.Errorf("poller: unit %d references unknown profile %q", u.ID, u.Profile)
		}

		fields := make([]Field, 0, len(profile))
		for _, f := range profile {
			fields = append(fields, Field{
				Name: f.Name,
				Register: register.Descriptor{
					Address:   f.Address,
					Scaling:   f.Scaling,
					WordCount: f.Count,
				},
			})
		}

		units = append(units, Unit{
			ID:      u.ID,
			Profile: u.Profile,
			Fields:  fields,
		})
	}

	return Config{
		Period:   time.Duration(m.Poll.IntervalMs) * time.Millisecond,
		Cooldown: time.Duration(m.Poll.CooldownMs) * time.Millisecond,
		Units:    units,
	}, nil
}

// Build constructs a Poller from validated config.
// The bus connection lifecycle stays with the caller's Bus.
func Build(m cfg.MeterPollConfig, bus Bus, sink Sink, log *zap.Logger) (*Poller, error) {
	pc, err := BuildConfig(m)
	if err != nil {
		return nil, err
	}
	return New(pc, bus, sink, log)
}
