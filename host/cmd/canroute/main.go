// canroute attaches a CAN router to an SLCAN adapter, a SocketCAN interface
// or an in-memory loopback bus, routes received frames according to a YAML
// configuration and logs or captures them.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"canhal/core"
	"canhal/host/capture"
	"canhal/host/config"
	"canhal/host/loopback"
	"canhal/host/serial"
	"canhal/host/slcan"
	"canhal/host/socketcan"
	"canhal/protocol"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	configPath  string
	driver      string
	device      string
	ifname      string
	bitrate     uint32
	listenOnly  bool
	verbose     bool
	interactive bool
	send        []string
	replay      string
}

func run(args []string) error {
	var opts options

	flagSet := pflag.NewFlagSet("canroute", pflag.ContinueOnError)
	flagSet.StringVarP(&opts.configPath, "config", "c", "", "path to the YAML configuration")
	flagSet.StringVar(&opts.driver, "driver", "", "interface driver: slcan, socketcan or loopback (overrides config)")
	flagSet.StringVar(&opts.device, "device", "", "SLCAN serial device (overrides config)")
	flagSet.StringVar(&opts.ifname, "interface", "", "SocketCAN interface name (overrides config)")
	flagSet.Uint32Var(&opts.bitrate, "bitrate", 0, "bus bitrate in bit/s (overrides config)")
	flagSet.BoolVar(&opts.listenOnly, "listen-only", false, "open an SLCAN channel receive-only (overrides config)")
	flagSet.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging and an event dump on exit")
	flagSet.BoolVarP(&opts.interactive, "interactive", "i", false, "read commands from stdin")
	flagSet.StringArrayVar(&opts.send, "send", nil, "frame to transmit after start, e.g. 123#DEADBEEF (repeatable)")
	flagSet.StringVar(&opts.replay, "replay", "", "dispatch frames from a capture file instead of a bus")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}
	if extra := flagSet.Args(); len(extra) > 0 {
		return fmt.Errorf("unexpected argument: %s", extra[0])
	}

	cfg, err := loadConfig(&opts)
	if err != nil {
		return err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	core.SetDebugWriter(func(s string) { logger.Debug(s) })
	core.SetDebugEnabled(opts.verbose)

	rec, closeCapture, err := openCapture(cfg, logger)
	if err != nil {
		return err
	}
	defer closeCapture()

	st, err := newStation(cfg, rec, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	if opts.replay != "" {
		return replay(opts.replay, st, logger)
	}

	drv, inject, closeDriver, err := openDriver(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeDriver(); err != nil {
			logger.Warn("driver close failed", "err", err)
		}
		if opts.verbose {
			core.DumpEventRing()
		}
	}()

	drv.OnReceive(st)
	if err := drv.Configure(core.CANSettings{BaudRate: cfg.Interface.Bitrate}); err != nil {
		return fmt.Errorf("configure %s: %w", cfg.Interface.Driver, err)
	}
	logger.Info("routing", "driver", cfg.Interface.Driver, "bitrate", cfg.Interface.Bitrate, "routes", len(cfg.Routes))

	for _, s := range opts.send {
		if err := sendText(inject, s); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.interactive {
		err = interactive(ctx, os.Stdin, os.Stdout, st, inject)
	} else {
		<-ctx.Done()
	}

	stats := st.Stats()
	logger.Info("stopped", "dispatched", stats.Dispatched, "matched", stats.Matched, "dropped", stats.Dropped)
	return err
}

// loadConfig reads the configuration file, if any, and applies flag
// overrides. Without a file the defaults route nothing and log unmatched
// frames.
func loadConfig(opts *options) (*config.Config, error) {
	var cfg *config.Config
	if opts.configPath != "" {
		c, err := config.Load(opts.configPath)
		if err != nil {
			return nil, err
		}
		cfg = c
	} else {
		cfg = &config.Config{Fallback: config.ActionLog}
	}

	if opts.driver != "" {
		cfg.Interface.Driver = opts.driver
	}
	if opts.device != "" {
		cfg.Interface.Device = opts.device
	}
	if opts.ifname != "" {
		cfg.Interface.Name = opts.ifname
	}
	if opts.bitrate != 0 {
		cfg.Interface.Bitrate = opts.bitrate
	}
	if opts.listenOnly {
		cfg.Interface.ListenOnly = true
	}
	config.Defaults(cfg)

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func openCapture(cfg *config.Config, logger *slog.Logger) (*capture.Recorder, func(), error) {
	if cfg.Capture.Path == "" {
		return nil, func() {}, nil
	}
	f, err := os.OpenFile(cfg.Capture.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open capture: %w", err)
	}
	rec := capture.NewRecorder(f)
	return rec, func() {
		if err := rec.Err(); err != nil {
			logger.Error("capture incomplete", "err", err)
		}
		logger.Info("capture closed", "path", cfg.Capture.Path, "frames", rec.Count())
		f.Close()
	}, nil
}

// openDriver opens the configured interface. inject is the driver used to
// transmit; on a loopback bus it is a second port so sent frames reach the
// router.
func openDriver(cfg *config.Config, logger *slog.Logger) (drv, inject core.CANDriver, closeFn func() error, err error) {
	ic := cfg.Interface
	switch ic.Driver {
	case config.DriverSLCAN:
		scfg := serial.DefaultConfig(ic.Device)
		scfg.Baud = ic.SerialBaud
		a, err := slcan.Open(scfg, logger)
		if err != nil {
			return nil, nil, nil, err
		}
		a.SetOptions(slcan.Options{ListenOnly: ic.ListenOnly, Timestamps: ic.Timestamps})
		return a, a, a.Close, nil

	case config.DriverSocketCAN:
		c, err := socketcan.Dial(ic.Name, logger)
		if err != nil {
			return nil, nil, nil, err
		}
		return c, c, c.Close, nil

	case config.DriverLoopback:
		bus := loopback.NewBus()
		node, peer := bus.Open(), bus.Open()
		if err := peer.Configure(core.CANSettings{BaudRate: ic.Bitrate}); err != nil {
			return nil, nil, nil, err
		}
		return node, peer, func() error {
			peer.Close()
			return node.Close()
		}, nil
	}
	return nil, nil, nil, fmt.Errorf("unknown driver %q", ic.Driver)
}

func sendText(drv core.CANDriver, s string) error {
	frame, err := parseFrame(s)
	if err != nil {
		return err
	}
	if err := drv.Send(frame); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	return nil
}

func replay(path string, st *station, logger *slog.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open replay: %w", err)
	}
	defer f.Close()

	n, err := capture.Replay(f, st)
	if err != nil {
		return err
	}
	stats := st.Stats()
	logger.Info("replayed", "frames", n, "matched", stats.Matched, "dropped", stats.Dropped)
	return nil
}

// interactive runs a small command loop until quit, EOF or ctx is done.
func interactive(ctx context.Context, in io.Reader, out io.Writer, st *station, drv core.CANDriver) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		scanErr <- scanner.Err()
		close(lines)
	}()

	fmt.Fprintln(out, "Enter commands (type 'help' for available commands, 'quit' to exit):")
	for {
		fmt.Fprint(out, "> ")
		var line string
		select {
		case <-ctx.Done():
			return nil
		case l, ok := <-lines:
			if !ok {
				return <-scanErr
			}
			line = strings.TrimSpace(l)
		}
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		switch parts[0] {
		case "quit", "exit", "q":
			return nil

		case "help", "?":
			printCommands(out)

		case "send":
			if len(parts) != 2 {
				fmt.Fprintln(out, "usage: send <id>#<data>")
				continue
			}
			if err := sendText(drv, parts[1]); err != nil {
				fmt.Fprintf(out, "Error: %v\n", err)
			}

		case "routes":
			st.printRoutes(out)

		case "stats":
			s := st.Stats()
			fmt.Fprintf(out, "dispatched=%d matched=%d dropped=%d\n", s.Dispatched, s.Matched, s.Dropped)
			if a, ok := drv.(*slcan.Adapter); ok {
				printDecoderStats(out, a.Stats())
			}

		case "events":
			st.dumpEvents(out)

		default:
			fmt.Fprintf(out, "Unknown command: %s (type 'help' for available commands)\n", parts[0])
		}
	}
}

func printDecoderStats(out io.Writer, s protocol.SLCANStats) {
	fmt.Fprintf(out, "slcan frames=%d malformed=%d acks=%d bells=%d other=%d\n",
		s.Frames, s.Malformed, s.Acks, s.Bells, s.Other)
}

func printCommands(out io.Writer) {
	fmt.Fprintln(out, "\nAvailable commands:")
	fmt.Fprintln(out, "  help            - Show this help message")
	fmt.Fprintln(out, "  send <id>#<hex> - Transmit a frame")
	fmt.Fprintln(out, "  routes          - List routes in evaluation order")
	fmt.Fprintln(out, "  stats           - Show dispatch counters")
	fmt.Fprintln(out, "  events          - Dump the router event ring")
	fmt.Fprintln(out, "  quit/exit/q     - Exit the program")
	fmt.Fprintln(out)
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `canroute routes CAN frames from an adapter to log or capture actions.

Usage:
  canroute [flags]

Flags:
%s
Example configuration:

  interface:
    driver: slcan
    device: /dev/ttyACM0
    bitrate: 500000
  routes:
    - name: heartbeat
      match: mask
      id: 0x700
      mask: 0x780
    - name: obd
      match: range
      id: 0x7E8
      last: 0x7EF
      action: capture
  fallback: drop
  capture:
    path: frames.cbor
`, flagSet.FlagUsages())
}
