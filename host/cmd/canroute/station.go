package main

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"canhal/core"
	"canhal/host/capture"
	"canhal/host/config"
)

// station owns the router and its route storage. Drivers deliver from their
// own goroutines, so every router access goes through mu.
type station struct {
	mu     sync.Mutex
	router core.CANRouter
	routes []core.CANRoute
	names  []string
	log    *slog.Logger
}

// logHandler prints routed frames.
type logHandler struct {
	log   *slog.Logger
	route string
}

func (h logHandler) HandleCAN(frame core.CANFrame) {
	h.log.Info("frame", "route", h.route, "frame", frame.String())
}

// newStation builds routes from the configuration in order. rec may be nil
// when no action captures.
func newStation(cfg *config.Config, rec *capture.Recorder, logger *slog.Logger) (*station, error) {
	s := &station{
		routes: make([]core.CANRoute, len(cfg.Routes)),
		names:  make([]string, len(cfg.Routes)),
		log:    logger,
	}

	for i, rc := range cfg.Routes {
		handler, err := actionHandler(rc.Action, rc.Name, rec, logger)
		if err != nil {
			return nil, fmt.Errorf("route %q: %w", rc.Name, err)
		}
		// routes slice is never resized; the router links its elements
		s.routes[i] = core.NewCANRoute(rc.Matcher(), handler)
		s.names[i] = rc.Name
		s.router.Add(&s.routes[i])
		logger.Debug("route added", "name", rc.Name, "match", rc.Matcher().String(), "action", rc.Action)
	}

	if cfg.Fallback != config.ActionNone {
		handler, err := actionHandler(cfg.Fallback, "fallback", rec, logger)
		if err != nil {
			return nil, fmt.Errorf("fallback: %w", err)
		}
		s.router.SetFallback(handler)
	}
	return s, nil
}

func actionHandler(action, route string, rec *capture.Recorder, logger *slog.Logger) (core.CANHandler, error) {
	switch action {
	case config.ActionLog:
		return logHandler{log: logger, route: route}, nil
	case config.ActionCapture:
		if rec == nil {
			return nil, fmt.Errorf("capture action without a capture file")
		}
		return rec, nil
	case config.ActionDrop:
		// nil handler: the route matches and the frame goes nowhere
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown action %q", action)
	}
}

// HandleCAN dispatches a received frame under the station lock.
func (s *station) HandleCAN(frame core.CANFrame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.router.Dispatch(frame)
}

// Stats returns the router counters.
func (s *station) Stats() core.CANRouterStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.router.Stats()
}

// Close unlinks every route.
func (s *station) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.router.Close()
}

// printRoutes lists the routes in evaluation order.
func (s *station) printRoutes(w io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := 0
	for entry := range s.router.Routes() {
		fmt.Fprintf(w, "  [%d] %-16s %s\n", i, s.names[i], entry.Match)
		i++
	}
}

// dumpEvents writes the core event ring to w. Dispatch records events under
// the same lock.
func (s *station) dumpEvents(w io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	core.SetDebugWriter(func(line string) { fmt.Fprintln(w, line) })
	defer core.SetDebugWriter(func(line string) { s.log.Debug(line) })
	core.DumpEventRing()
}
