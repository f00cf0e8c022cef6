// internal/config/validate_test.go
package config

import (
	"strings"
	"testing"
)

// helper to build a valid config quickly
func baseConfig() *Config {
	cfg := &Config{
		MeterPoll: MeterPollConfig{
			Source: SourceConfig{Address: "10.0.0.1"},
			Profiles: map[string][]FieldConfig{
				"m4m": {
					{Name: "voltage_l1", Address: 0x5B02, Scaling: 0.1, Count: 2},
					{Name: "frequency", Address: 0x5B32, Scaling: 0.01, Count: 1},
				},
			},
			Units: []UnitConfig{
				{ID: 1, Profile: "m4m"},
				{ID: 2, Profile: "m4m"},
			},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}

func u16(v uint16) *uint16 { return &v }
func u8(v uint8) *uint8 { return &v }

func expectErr(t *testing.T, cfg *Config, substr string) {
	t.Helper()
	err := Validate(cfg)
	if err == nil {
		t.Fatalf("expected error containing %q, got nil", substr)
	}
	if !strings.Contains(err.Error(), substr) {
		t.Fatalf("expected error containing %q, got %v", substr, err)
	}
}

// ---- tests ----

func TestValidate_Base(t *testing.T) {
	if err := Validate(baseConfig()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_DefaultConfig(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Fatalf("reference config must validate: %v", err)
	}
}

func TestValidate_UnknownProfile(t *testing.T) {
	cfg := baseConfig()
	cfg.MeterPoll.Units[1].Profile = "m9m"
	expectErr(t, cfg, "unknown profile")
}

func TestValidate_UnitIDRange(t *testing.T) {
	cfg := baseConfig()
	cfg.MeterPoll.Units[0].ID = 0
	expectErr(t, cfg, "1..247")

	cfg = baseConfig()
	cfg.MeterPoll.Units[0].ID = 248
	expectErr(t, cfg, "1..247")
}

func TestValidate_DuplicateUnit(t *testing.T) {
	cfg := baseConfig()
	cfg.MeterPoll.Units[1].ID = 1
	expectErr(t, cfg, "duplicate id")
}

func TestValidate_UnsupportedWordCountRejectedUpfront(t *testing.T) {
	cfg := baseConfig()
	cfg.MeterPoll.Profiles["m4m"][0].Count = 3
	expectErr(t, cfg, "unsupported word count")
}

func TestValidate_DuplicateFieldName(t *testing.T) {
	cfg := baseConfig()
	cfg.MeterPoll.Profiles["m4m"][1].Name = "voltage_l1"
	expectErr(t, cfg, "duplicate field")
}

func TestValidate_RTURequiresDevice(t *testing.T) {
	cfg := baseConfig()
	cfg.MeterPoll.Source.Transport = TransportRTU
	expectErr(t, cfg, "serial.device")

	cfg.MeterPoll.Source.Serial.Device = "/dev/ttyUSB0"
	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_UnknownTransport(t *testing.T) {
	cfg := baseConfig()
	cfg.MeterPoll.Source.Transport = "udp"
	expectErr(t, cfg, "want tcp or rtu")
}

func TestValidate_StatusSlotRequiresMirror(t *testing.T) {
	cfg := baseConfig()
	cfg.MeterPoll.Units[0].StatusSlot = u16(0)
	expectErr(t, cfg, "status_unit_id")
}

func TestValidate_MirrorNoOverlapDifferentUnits(t *testing.T) {
	cfg := baseConfig()
	cfg.MeterPoll.Mirror = &MirrorConfig{Endpoint: "127.0.0.1:1502", TimeoutMs: 500}

	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_MirrorOverlapViaUnitMap(t *testing.T) {
	cfg := baseConfig()
	cfg.MeterPoll.Mirror = &MirrorConfig{
		Endpoint:  "127.0.0.1:1502",
		TimeoutMs: 500,
		UnitMap:   map[uint8]uint8{2: 1}, // both units land on mirror unit 1
	}
	expectErr(t, cfg, "mirror overlap")
}

func TestValidate_StatusSlotCollision(t *testing.T) {
	cfg := baseConfig()
	cfg.MeterPoll.Mirror = &MirrorConfig{
		Endpoint:     "127.0.0.1:1502",
		TimeoutMs:    500,
		StatusUnitID: u8(100),
	}
	cfg.MeterPoll.Units[0].StatusSlot = u16(3)
	cfg.MeterPoll.Units[1].StatusSlot = u16(3)
	expectErr(t, cfg, "mirror overlap")

	cfg.MeterPoll.Units[1].StatusSlot = u16(4) // touching blocks are fine
	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_DeviceNameASCII(t *testing.T) {
	cfg := baseConfig()
	cfg.MeterPoll.Units[0].DeviceName = "Zähler"
	expectErr(t, cfg, "ASCII")
}

func TestValidate_LogFormat(t *testing.T) {
	cfg := baseConfig()
	cfg.MeterPoll.Log.Format = "xml"
	expectErr(t, cfg, "log.format")
}

func TestNormalize_TruncatesDeviceName(t *testing.T) {
	cfg := baseConfig()
	cfg.MeterPoll.Units[0].DeviceName = "ABCDEFGHIJKLMNOPQRST"

	Normalize(cfg)

	if got := cfg.MeterPoll.Units[0].DeviceName; got != "ABCDEFGHIJKLMNOP" {
		t.Fatalf("unexpected device name %q", got)
	}
}

func TestValidate_TimingMustBePositive(t *testing.T) {
	cfg := baseConfig()
	cfg.MeterPoll.Poll.CooldownMs = 0
	expectErr(t, cfg, "poll.cooldown_ms must be > 0")

	cfg = baseConfig()
	cfg.MeterPoll.Reconnect.DelayMs = -1
	expectErr(t, cfg, "reconnect.delay_ms must be > 0")
}
