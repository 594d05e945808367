// Package config loads the YAML configuration of the canroute host tool.
package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"canhal/core"
)

// Interface drivers
const (
	DriverSLCAN     = "slcan"
	DriverSocketCAN = "socketcan"
	DriverLoopback  = "loopback"
)

// Route match kinds
const (
	MatchExact = "exact"
	MatchMask  = "mask"
	MatchRange = "range"
	MatchAny   = "any"
)

// Actions taken for routed frames
const (
	ActionLog     = "log"
	ActionCapture = "capture"
	ActionDrop    = "drop"
	ActionNone    = "none" // fallback only: unmatched frames are dropped silently
)

type Config struct {
	Interface InterfaceConfig `yaml:"interface"`
	Routes    []RouteConfig   `yaml:"routes"`
	Fallback  string          `yaml:"fallback"`
	Capture   CaptureConfig   `yaml:"capture"`
	Log       LogConfig       `yaml:"log"`
}

// ---- INTERFACE ----

type InterfaceConfig struct {
	Driver  string `yaml:"driver"`
	Device  string `yaml:"device"` // serial device, slcan
	Name    string `yaml:"name"`   // network interface, socketcan
	Bitrate uint32 `yaml:"bitrate"`

	// UART baud of the adapter link; USB CDC adapters ignore it
	SerialBaud int `yaml:"serial_baud"`

	// slcan only: open the channel receive-only, request adapter timestamps
	ListenOnly bool `yaml:"listen_only"`
	Timestamps bool `yaml:"timestamps"`
}

// ---- ROUTES ----

type RouteConfig struct {
	Name   string `yaml:"name"`
	Match  string `yaml:"match"`
	ID     uint32 `yaml:"id"`
	Mask   uint32 `yaml:"mask"`
	Last   uint32 `yaml:"last"` // range upper bound, inclusive
	Action string `yaml:"action"`
}

// Matcher builds the router predicate for the route. The route must have
// passed Validate.
func (r RouteConfig) Matcher() core.CANMatcher {
	switch r.Match {
	case MatchMask:
		return core.MatchMask(r.ID, r.Mask)
	case MatchRange:
		return core.MatchRange(r.ID, r.Last)
	case MatchAny:
		return core.MatchAny()
	default:
		return core.MatchID(r.ID)
	}
}

// ---- CAPTURE / LOG ----

type CaptureConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads, decodes and fills defaults. Unknown keys are rejected. The
// result still needs Validate.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a YAML document and fills defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	Defaults(&cfg)
	return &cfg, nil
}
