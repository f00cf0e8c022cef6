// internal/config/normalize.go
package config

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	for ui := range cfg.MeterPoll.Units {
		u := &cfg.MeterPoll.Units[ui]

		// Device name is packed into 8 registers: max 16 ASCII characters.
		if len(u.DeviceName) > 16 {
			u.DeviceName = u.DeviceName[:16]
		}
	}
}
