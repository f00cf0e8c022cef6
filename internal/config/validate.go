// internal/config/validate.go
package config

import (
	"errors"
	"fmt"

	"github.com/tamzrod/meter-poller/internal/register"
)

// statusBlockRegs mirrors status.SlotsPerDevice; config must not import runtime packages.
const statusBlockRegs = 20

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config: nil")
	}
	m := &cfg.MeterPoll

	if err := validateSource(m.Source); err != nil {
		return err
	}

	// ------------------------------------------------------------
	// TIMING
	// ------------------------------------------------------------

	if m.Poll.IntervalMs <= 0 {
		return fmt.Errorf("poll.interval_ms must be > 0, got %d", m.Poll.IntervalMs)
	}
	// ApplyDefaults has already replaced zero timing values.
	if m.Poll.CooldownMs <= 0 {
		return fmt.Errorf("poll.cooldown_ms must be > 0, got %d", m.Poll.CooldownMs)
	}
	if m.Reconnect.Attempts <= 0 {
		return fmt.Errorf("reconnect.attempts must be > 0, got %d", m.Reconnect.Attempts)
	}
	if m.Reconnect.DelayMs <= 0 {
		return fmt.Errorf("reconnect.delay_ms must be > 0, got %d", m.Reconnect.DelayMs)
	}

	// ------------------------------------------------------------
	// DEVICE PROFILES
	// ------------------------------------------------------------

	if len(m.Profiles) == 0 {
		return errors.New("at least one device profile is required")
	}
	for name, fields := range m.Profiles {
		if err := validateProfile(name, fields); err != nil {
			return err
		}
	}

	// ------------------------------------------------------------
	// UNIT TABLE
	// ------------------------------------------------------------

	if len(m.Units) == 0 {
		return errors.New("at least one unit is required")
	}

	seen := make(map[uint8]struct{}, len(m.Units))
	for _, u := range m.Units {
		if u.ID < 1 || u.ID > 247 {
			return fmt.Errorf("unit %d: id must be in 1..247", u.ID)
		}
		if _, dup := seen[u.ID]; dup {
			return fmt.Errorf("unit %d: duplicate id", u.ID)
		}
		seen[u.ID] = struct{}{}

		if _, ok := m.Profiles[u.Profile]; !ok {
			return fmt.Errorf("unit %d: unknown profile %q", u.ID, u.Profile)
		}

		// device_name sanity (ASCII only)
		for i := 0; i < len(u.DeviceName); i++ {
			if u.DeviceName[i] > 0x7F {
				return fmt.Errorf("unit %d: device_name must contain ASCII characters only", u.ID)
			}
		}
	}

	if err := validateMirror(m); err != nil {
		return err
	}

	switch m.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q: want debug, info, warn or error", m.Log.Level)
	}
	switch m.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format %q: want json or console", m.Log.Format)
	}

	return nil
}

func validateSource(s SourceConfig) error {
	if s.TimeoutMs <= 0 {
		return fmt.Errorf("source.timeout_ms must be > 0, got %d", s.TimeoutMs)
	}

	switch s.Transport {
	case TransportTCP:
		if s.Address == "" {
			return errors.New("source.address is required for tcp transport")
		}
		if s.Port < 1 || s.Port > 65535 {
			return fmt.Errorf("source.port %d out of range", s.Port)
		}
	case TransportRTU:
		sc := s.Serial
		if sc.Device == "" {
			return errors.New("source.serial.device is required for rtu transport")
		}
		if sc.BaudRate <= 0 {
			return fmt.Errorf("source.serial.baud_rate must be > 0, got %d", sc.BaudRate)
		}
		if sc.DataBits < 5 || sc.DataBits > 8 {
			return fmt.Errorf("source.serial.data_bits %d out of range 5..8", sc.DataBits)
		}
		if sc.StopBits != 1 && sc.StopBits != 2 {
			return fmt.Errorf("source.serial.stop_bits must be 1 or 2, got %d", sc.StopBits)
		}
		switch sc.Parity {
		case "N", "E", "O":
		default:
			return fmt.Errorf("source.serial.parity %q: want N, E or O", sc.Parity)
		}
	default:
		return fmt.Errorf("source.transport %q: want tcp or rtu", s.Transport)
	}

	return nil
}

func validateProfile(name string, fields []FieldConfig) error {
	if name == "" {
		return errors.New("profile name must not be empty")
	}
	if len(fields) == 0 {
		return fmt.Errorf("profile %q: at least one field is required", name)
	}

	names := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if f.Name == "" {
			return fmt.Errorf("profile %q: field at 0x%04X has no name", name, f.Address)
		}
		if _, dup := names[f.Name]; dup {
			return fmt.Errorf("profile %q: duplicate field %q", name, f.Name)
		}
		names[f.Name] = struct{}{}

		d := register.Descriptor{Address: f.Address, Scaling: f.Scaling, WordCount: f.Count}
		if err := d.Validate(); err != nil {
			return fmt.Errorf("profile %q field %q: %w", name, f.Name, err)
		}
		if int(f.Address)+f.Count-1 > 0xFFFF {
			return fmt.Errorf("profile %q field %q: register range exceeds 0xFFFF", name, f.Name)
		}
	}
	return nil
}

func validateMirror(m *MeterPollConfig) error {
	type span struct {
		start int
		end   int
		owner string
	}

	for _, u := range m.Units {
		if u.StatusSlot != nil && (m.Mirror == nil || m.Mirror.StatusUnitID == nil) {
			return fmt.Errorf("unit %d: status_slot is set but mirror.status_unit_id is not", u.ID)
		}
	}
	if m.Mirror == nil {
		return nil
	}

	mc := m.Mirror
	if mc.Endpoint == "" {
		return errors.New("mirror.endpoint is required")
	}
	if mc.TimeoutMs <= 0 {
		return fmt.Errorf("mirror.timeout_ms must be > 0, got %d", mc.TimeoutMs)
	}

	// ------------------------------------------------------------
	// DESTINATION MEMORY GEOMETRY VALIDATION
	// ------------------------------------------------------------

	// key = destination unit id
	spans := make(map[uint8][]span)

	claim := func(unit uint8, start, end int, owner string) error {
		if end > 0xFFFF {
			return fmt.Errorf("mirror: %s range %d-%d exceeds 0xFFFF", owner, start, end)
		}
		for _, s := range spans[unit] {
			// overlap check (inclusive)
			if !(end < s.start || start > s.end) {
				return fmt.Errorf(
					"mirror overlap: unit=%d range=%d-%d (%s) overlaps %d-%d (%s)",
					unit, start, end, owner, s.start, s.end, s.owner,
				)
			}
		}
		spans[unit] = append(spans[unit], span{start: start, end: end, owner: owner})
		return nil
	}

	for _, u := range m.Units {
		dst := u.ID
		if v, ok := mc.UnitMap[u.ID]; ok {
			dst = v
		}
		for _, f := range m.Profiles[u.Profile] {
			start := int(mc.Offset) + int(f.Address)
			owner := fmt.Sprintf("unit %d field %s", u.ID, f.Name)
			if err := claim(dst, start, start+f.Count-1, owner); err != nil {
				return err
			}
		}
	}

	// ------------------------------------------------------------
	// DEVICE STATUS BLOCK VALIDATION (OPT-IN)
	// ------------------------------------------------------------

	if mc.StatusUnitID == nil {
		return nil
	}
	for _, u := range m.Units {
		if u.StatusSlot == nil {
			continue
		}
		start := int(*u.StatusSlot) * statusBlockRegs
		owner := fmt.Sprintf("unit %d status_slot %d", u.ID, *u.StatusSlot)
		if err := claim(*mc.StatusUnitID, start, start+statusBlockRegs-1, owner); err != nil {
			return err
		}
	}

	return nil
}
