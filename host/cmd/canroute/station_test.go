package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"canhal/core"
	"canhal/host/capture"
	"canhal/host/config"
	"canhal/host/loopback"
)

func testConfig() *config.Config {
	cfg := &config.Config{
		Interface: config.InterfaceConfig{Driver: config.DriverLoopback},
		Routes: []config.RouteConfig{
			{Name: "engine", Match: config.MatchExact, ID: 0x100, Action: config.ActionCapture},
			{Name: "silence", Match: config.MatchRange, ID: 0x200, Last: 0x2FF, Action: config.ActionDrop},
			{Name: "diag", Match: config.MatchMask, ID: 0x700, Mask: 0x700},
		},
		Fallback: config.ActionCapture,
		Capture:  config.CaptureConfig{Path: "unused"},
	}
	config.Defaults(cfg)
	return cfg
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStationRoutesByConfig(t *testing.T) {
	cfg := testConfig()
	if err := config.Validate(cfg); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	rec := capture.NewRecorder(&buf)
	st, err := newStation(cfg, rec, quietLogger())
	if err != nil {
		t.Fatalf("newStation failed: %v", err)
	}
	defer st.Close()

	for _, id := range []uint32{0x100, 0x250, 0x7E8, 0x050} {
		st.HandleCAN(core.MustCANFrame(id, nil))
	}

	// 0x100 and the unmatched 0x050 are captured
	if rec.Count() != 2 {
		t.Errorf("Expected 2 captured frames, got %d", rec.Count())
	}
	stats := st.Stats()
	if stats.Dispatched != 4 || stats.Matched != 3 || stats.Dropped != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}

	var out bytes.Buffer
	st.printRoutes(&out)
	if !strings.Contains(out.String(), "engine") || !strings.Contains(out.String(), "range=0x200-0x2FF") {
		t.Errorf("unexpected route listing:\n%s", out.String())
	}
}

func TestStationCaptureNeedsRecorder(t *testing.T) {
	if _, err := newStation(testConfig(), nil, quietLogger()); err == nil {
		t.Error("capture action without recorder should fail")
	}
}

func TestInteractiveLoopback(t *testing.T) {
	cfg := testConfig()
	cfg.Routes[0].Action = config.ActionLog
	cfg.Fallback = config.ActionNone

	st, err := newStation(cfg, nil, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	bus := loopback.NewBus()
	node, peer := bus.Open(), bus.Open()
	node.OnReceive(st)

	in := strings.NewReader("send 100#0102\nsend 300#\nsend bogus\nstats\nnope\nquit\n")
	var out bytes.Buffer
	if err := interactive(context.Background(), in, &out, st, peer); err != nil {
		t.Fatalf("interactive failed: %v", err)
	}

	text := out.String()
	if !strings.Contains(text, "dispatched=2 matched=1 dropped=1") {
		t.Errorf("stats line missing:\n%s", text)
	}
	if !strings.Contains(text, "Error: frame \"bogus\"") {
		t.Errorf("bad frame should be reported:\n%s", text)
	}
	if !strings.Contains(text, "Unknown command: nope") {
		t.Errorf("unknown command should be reported:\n%s", text)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	opts := &options{driver: "loopback", bitrate: 125000}
	cfg, err := loadConfig(opts)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.Interface.Driver != config.DriverLoopback || cfg.Interface.Bitrate != 125000 {
		t.Errorf("overrides not applied: %+v", cfg.Interface)
	}
	if cfg.Fallback != config.ActionLog {
		t.Errorf("Expected fallback log without a config file, got %q", cfg.Fallback)
	}

	if _, err := loadConfig(&options{driver: "slcan"}); err == nil {
		t.Error("slcan without device should fail validation")
	}

	cfg, err = loadConfig(&options{driver: "slcan", device: "/dev/ttyACM0", listenOnly: true})
	if err != nil || !cfg.Interface.ListenOnly {
		t.Errorf("listen-only override not applied: err=%v", err)
	}
	if _, err := loadConfig(&options{driver: "loopback", listenOnly: true}); err == nil {
		t.Error("listen-only loopback should fail validation")
	}
}
