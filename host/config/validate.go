package config

import (
	"fmt"
	"log/slog"

	"canhal/core"
	"canhal/protocol"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if err := validateInterface(&cfg.Interface); err != nil {
		return err
	}

	needCapture := false
	names := make(map[string]struct{}, len(cfg.Routes))

	for i, r := range cfg.Routes {
		if r.Name == "" {
			return fmt.Errorf("route %d: name is required", i)
		}
		if _, dup := names[r.Name]; dup {
			return fmt.Errorf("route %q: duplicate name", r.Name)
		}
		names[r.Name] = struct{}{}

		if err := validateMatch(r); err != nil {
			return fmt.Errorf("route %q: %w", r.Name, err)
		}

		switch r.Action {
		case ActionLog, ActionDrop:
		case ActionCapture:
			needCapture = true
		default:
			return fmt.Errorf("route %q: unknown action %q", r.Name, r.Action)
		}
	}

	switch cfg.Fallback {
	case ActionNone, ActionLog, ActionDrop:
	case ActionCapture:
		needCapture = true
	default:
		return fmt.Errorf("fallback: unknown action %q", cfg.Fallback)
	}

	if needCapture && cfg.Capture.Path == "" {
		return fmt.Errorf("capture.path is required when an action is %q", ActionCapture)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

func validateInterface(ic *InterfaceConfig) error {
	switch ic.Driver {
	case DriverSLCAN:
		if ic.Device == "" {
			return fmt.Errorf("interface: driver %q requires device", ic.Driver)
		}
		if _, err := protocol.SLCANBitrate(ic.Bitrate); err != nil {
			return fmt.Errorf("interface: bitrate %d: %w", ic.Bitrate, err)
		}
	case DriverSocketCAN:
		if ic.Name == "" {
			return fmt.Errorf("interface: driver %q requires name", ic.Driver)
		}
	case DriverLoopback:
	default:
		return fmt.Errorf("interface: unknown driver %q", ic.Driver)
	}
	if ic.Driver != DriverSLCAN && (ic.ListenOnly || ic.Timestamps) {
		return fmt.Errorf("interface: listen_only and timestamps require driver %q", DriverSLCAN)
	}
	return nil
}

func validateMatch(r RouteConfig) error {
	switch r.Match {
	case MatchExact:
		if r.ID > core.CANMaxExtendedID {
			return fmt.Errorf("id 0x%X exceeds 29 bits", r.ID)
		}
	case MatchMask:
		if r.Mask == 0 {
			return fmt.Errorf("mask match with zero mask accepts every frame, use match: any")
		}
		if r.Mask > core.CANMaxExtendedID {
			return fmt.Errorf("mask 0x%X exceeds 29 bits", r.Mask)
		}
	case MatchRange:
		if r.ID > r.Last {
			return fmt.Errorf("range 0x%X-0x%X is reversed", r.ID, r.Last)
		}
		if r.Last > core.CANMaxExtendedID {
			return fmt.Errorf("range end 0x%X exceeds 29 bits", r.Last)
		}
	case MatchAny:
	default:
		return fmt.Errorf("unknown match %q", r.Match)
	}
	return nil
}
