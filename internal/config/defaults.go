// internal/config/defaults.go
package config

// Reference values.
const (
	DefaultPort              = 502
	DefaultTimeoutMs         = 1000
	DefaultIntervalMs        = 5000
	DefaultCooldownMs        = 10000
	DefaultReconnectAttempts = 5
	DefaultReconnectDelayMs  = 2000

	DefaultBaudRate = 9600
	DefaultDataBits = 8
	DefaultParity   = "N"
	DefaultStopBits = 1

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// ApplyDefaults fills zero values. It runs before Validate.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}
	m := &cfg.MeterPoll

	if m.Source.Transport == "" {
		m.Source.Transport = TransportTCP
	}
	if m.Source.Port == 0 {
		m.Source.Port = DefaultPort
	}
	if m.Source.TimeoutMs == 0 {
		m.Source.TimeoutMs = DefaultTimeoutMs
	}

	s := &m.Source.Serial
	if s.BaudRate == 0 {
		s.BaudRate = DefaultBaudRate
	}
	if s.DataBits == 0 {
		s.DataBits = DefaultDataBits
	}
	if s.Parity == "" {
		s.Parity = DefaultParity
	}
	if s.StopBits == 0 {
		s.StopBits = DefaultStopBits
	}

	if m.Poll.IntervalMs == 0 {
		m.Poll.IntervalMs = DefaultIntervalMs
	}
	if m.Poll.CooldownMs == 0 {
		m.Poll.CooldownMs = DefaultCooldownMs
	}
	if m.Reconnect.Attempts == 0 {
		m.Reconnect.Attempts = DefaultReconnectAttempts
	}
	if m.Reconnect.DelayMs == 0 {
		m.Reconnect.DelayMs = DefaultReconnectDelayMs
	}

	if m.Mirror != nil && m.Mirror.TimeoutMs == 0 {
		m.Mirror.TimeoutMs = m.Source.TimeoutMs
	}

	if m.Log.Level == "" {
		m.Log.Level = DefaultLogLevel
	}
	if m.Log.Format == "" {
		m.Log.Format = DefaultLogFormat
	}
}

// Default returns the reference deployment: two ABB meters behind one
// Modbus TCP gateway.
func Default() *Config {
	meter := []FieldConfig{
		{Name: "voltage_l1", Address: 0x5B02, Scaling: 0.1, Count: 2},
		{Name: "frequency", Address: 0x5B32, Scaling: 0.01, Count: 1},
	}

	cfg := &Config{
		MeterPoll: MeterPollConfig{
			Source: SourceConfig{
				Transport: TransportTCP,
				Address:   "192.168.180.55",
				Port:      DefaultPort,
			},
			Profiles: map[string][]FieldConfig{
				"m4m": meter,
				"m1m": append([]FieldConfig(nil), meter...),
			},
			Units: []UnitConfig{
				{ID: 1, Profile: "m4m"},
				{ID: 2, Profile: "m1m"},
			},
		},
	}

	ApplyDefaults(cfg)
	return cfg
}
