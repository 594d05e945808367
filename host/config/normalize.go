package config

import "strings"

const (
	defaultBitrate    = 500000
	defaultSerialBaud = 115200
)

// Defaults fills unset fields and lower-cases keywords. It is applied by
// Load and Parse before validation.
func Defaults(cfg *Config) {
	if cfg == nil {
		return
	}

	cfg.Interface.Driver = strings.ToLower(cfg.Interface.Driver)
	if cfg.Interface.Driver == "" {
		cfg.Interface.Driver = DriverSLCAN
	}
	if cfg.Interface.Bitrate == 0 {
		cfg.Interface.Bitrate = defaultBitrate
	}
	if cfg.Interface.SerialBaud == 0 {
		cfg.Interface.SerialBaud = defaultSerialBaud
	}

	for i := range cfg.Routes {
		r := &cfg.Routes[i]
		r.Match = strings.ToLower(r.Match)
		if r.Match == "" {
			r.Match = MatchExact
		}
		r.Action = strings.ToLower(r.Action)
		if r.Action == "" {
			r.Action = ActionLog
		}
	}

	cfg.Fallback = strings.ToLower(cfg.Fallback)
	if cfg.Fallback == "" {
		cfg.Fallback = ActionNone
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}
