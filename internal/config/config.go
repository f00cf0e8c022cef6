// internal/config/config.go
package config

import (
	"net"
	"strconv"
	"time"
)

type Config struct {
	MeterPoll MeterPollConfig `yaml:"meterpoll"`
}

type MeterPollConfig struct {
	Source    SourceConfig             `yaml:"source"`
	Poll      PollConfig               `yaml:"poll"`
	Reconnect ReconnectConfig          `yaml:"reconnect"`
	Profiles  map[string][]FieldConfig `yaml:"profiles"`
	Units     []UnitConfig             `yaml:"units"`
	Mirror    *MirrorConfig            `yaml:"mirror"`
	Metrics   MetricsConfig            `yaml:"metrics"`
	Log       LogConfig                `yaml:"log"`
}

// ---- SOURCE ----

const (
	TransportTCP = "tcp"
	TransportRTU = "rtu"
)

type SourceConfig struct {
	Transport string       `yaml:"transport"` // tcp | rtu
	Address   string       `yaml:"address"`
	Port      int          `yaml:"port"`
	Serial    SerialConfig `yaml:"serial"`
	TimeoutMs int          `yaml:"timeout_ms"`
}

// Endpoint is the host:port of a TCP source.
func (s SourceConfig) Endpoint() string {
	return net.JoinHostPort(s.Address, strconv.Itoa(s.Port))
}

func (s SourceConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutMs) * time.Millisecond
}

type SerialConfig struct {
	Device   string `yaml:"device"`
	BaudRate int    `yaml:"baud_rate"`
	DataBits int    `yaml:"data_bits"`
	Parity   string `yaml:"parity"` // N | E | O
	StopBits int    `yaml:"stop_bits"`
}

// ---- POLL ----

// Timing fields left at 0 take their default; explicit zero is not
// expressible.
type PollConfig struct {
	IntervalMs int `yaml:"interval_ms"`
	CooldownMs int `yaml:"cooldown_ms"`
}

type ReconnectConfig struct {
	Attempts int `yaml:"attempts"`
	DelayMs  int `yaml:"delay_ms"`
}

// ---- DEVICE PROFILES ----

// FieldConfig is one named register of a device profile.
// Profiles are YAML sequences so field order is the poll order.
type FieldConfig struct {
	Name    string  `yaml:"name"`
	Address uint16  `yaml:"address"`
	Scaling float64 `yaml:"scaling"`
	Count   int     `yaml:"count"`
}

// ---- UNIT TABLE ----

type UnitConfig struct {
	ID      uint8  `yaml:"id"`
	Profile string `yaml:"profile"`

	// Device status block in the mirror (optional, opt-in)
	StatusSlot *uint16 `yaml:"status_slot"`
	DeviceName string  `yaml:"device_name"`
}

// ---- MIRROR ----

type MirrorConfig struct {
	Endpoint     string          `yaml:"endpoint"`
	TimeoutMs    int             `yaml:"timeout_ms"`
	Offset       uint16          `yaml:"offset"`
	UnitMap      map[uint8]uint8 `yaml:"unit_map"` // source unit -> mirror unit; missing => same id
	StatusUnitID *uint8          `yaml:"status_unit_id"`
}

// ---- AMBIENT ----

type MetricsConfig struct {
	Listen string `yaml:"listen"` // empty disables /metrics
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json | console
}
