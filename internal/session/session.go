// Package session installs worksets into a shell and tears it down again.
//
// Everything a session changes in the shell goes through one of three label
// registries: signal handlers, window manager overrides and named timeouts.
// Disable destroys all three, so the shell is left as it was found.
package session

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/worksets/internal/config"
	"github.com/zjrosen/worksets/internal/flags"
	"github.com/zjrosen/worksets/internal/handlers"
	"github.com/zjrosen/worksets/internal/log"
	"github.com/zjrosen/worksets/internal/pubsub"
	"github.com/zjrosen/worksets/internal/shell"
	"github.com/zjrosen/worksets/internal/tracing"
	"github.com/zjrosen/worksets/internal/watcher"
)

// Labels used for registrations.
const (
	LabelWorkspaces = "workspaces"
	LabelWindows    = "windows"
	LabelFocus      = "focus"
	LabelAutosave   = "autosave"
	LabelStartup    = "startup"
	LabelConfig     = "config"
)

// Timeout names.
const (
	TimeoutAutosave     = "autosave"
	TimeoutStartup      = "startup-notice"
	TimeoutConfigReload = "config-reload"
)

const defaultMaxEvents = 8

// Handler is the callback type connected to shell and watcher signals.
type Handler = func(pubsub.Event[string])

// Options configure a Session.
type Options struct {
	Config     config.SessionConfig
	Flags      *flags.Registry
	ConfigPath string // watched while enabled when FlagWatchConfig is on
	MaxEvents  int    // recent events kept for Status
	Tracer     trace.Tracer
}

// Session owns every resource worksets installs into a shell.
type Session struct {
	id         string
	shell      *shell.Shell
	cfg        config.SessionConfig
	flags      *flags.Registry
	configPath string
	maxEvents  int
	tracer     trace.Tracer

	Signals    *handlers.Subscriptions[pubsub.EventType, Handler]
	Injections *handlers.Overrides
	Timeouts   *handlers.Timers

	mu        sync.Mutex
	enabled   bool
	watcher   *watcher.Watcher
	active    string
	windows   map[string]string // window title -> workset
	switches  int
	saves     int
	reloads   int
	startedAt time.Time
	events    []string
}

// New creates a disabled session for sh.
func New(sh *shell.Shell, opts Options) *Session {
	if opts.MaxEvents <= 0 {
		opts.MaxEvents = defaultMaxEvents
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer("github.com/zjrosen/worksets/internal/session")
	}
	if opts.Flags == nil {
		opts.Flags = flags.New(nil)
	}
	regOpts := []handlers.Option{handlers.WithTracer(opts.Tracer)}

	return &Session{
		id:         uuid.NewString(),
		shell:      sh,
		cfg:        opts.Config,
		flags:      opts.Flags,
		configPath: opts.ConfigPath,
		maxEvents:  opts.MaxEvents,
		tracer:     opts.Tracer,
		Signals:    handlers.NewSubscriptions[pubsub.EventType, Handler](regOpts...),
		Injections: handlers.NewOverrides(regOpts...),
		Timeouts:   handlers.NewTimers(sh.Loop, regOpts...),
		windows:    make(map[string]string),
	}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Enabled reports whether the session is installed.
func (s *Session) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// Enable installs the session into the shell. Calling it on an enabled
// session is a no-op. If any step fails, whatever was installed is torn down
// and the error returned.
func (s *Session) Enable(ctx context.Context) (err error) {
	s.mu.Lock()
	if s.enabled {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	_, span := s.tracer.Start(ctx, tracing.SpanSessionEnable,
		trace.WithAttributes(attribute.String(tracing.AttrSessionID, s.id)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if err := s.install(); err != nil {
		log.ErrorErr(log.CatSession, "Enable failed, rolling back", err, "session", s.id)
		if rbErr := s.teardown(); rbErr != nil {
			err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return fmt.Errorf("enabling session: %w", err)
	}

	s.mu.Lock()
	s.enabled = true
	s.startedAt = time.Now()
	s.active = s.worksetName(s.shell.Active())
	s.mu.Unlock()

	log.Info(log.CatSession, "Session enabled", "session", s.id, "workset", s.ActiveWorkset())
	return nil
}

func (s *Session) install() error {
	sig := s.shell.Signals

	if err := s.Signals.AddWithLabel(LabelWorkspaces,
		handlers.On[pubsub.EventType, Handler](sig, s.onWorkspaceSwitched, shell.WorkspaceSwitched),
	); err != nil {
		return err
	}
	if err := s.Signals.AddWithLabel(LabelWindows,
		handlers.On[pubsub.EventType, Handler](sig, s.onWindow, shell.WindowAdded, shell.WindowRemoved),
	); err != nil {
		return err
	}

	wm, err := handlers.Fields(s.shell.WM)
	if err != nil {
		return err
	}
	injections := []handlers.Injection{
		handlers.Inject(wm, "PlaceWindow", s.placeWindow),
	}
	if s.flags.Enabled(flags.FlagRenameWorkspaces) {
		injections = append(injections, handlers.Inject(wm, "WorkspaceName", s.worksetName))
	}
	if err := s.Injections.AddWithLabel(LabelFocus, injections...); err != nil {
		return err
	}

	if s.flags.Enabled(flags.FlagAutosave) {
		if err := s.Timeouts.AddWithLabel(LabelAutosave, handlers.Timeout{
			Name:     TimeoutAutosave,
			Delay:    s.cfg.AutosaveInterval,
			Callback: s.autosave,
			Repeat:   true,
		}); err != nil {
			return err
		}
	}

	if err := s.Timeouts.AddWithLabel(LabelStartup, handlers.Timeout{
		Name:     TimeoutStartup,
		Delay:    s.cfg.StartupDelay,
		Callback: s.startupNotice,
	}); err != nil {
		return err
	}

	if s.flags.Enabled(flags.FlagWatchConfig) && s.configPath != "" {
		return s.watchConfig()
	}
	return nil
}

func (s *Session) watchConfig() error {
	w, err := watcher.New(watcher.DefaultConfig(s.configPath))
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.watcher = w
	s.mu.Unlock()

	if err := s.Signals.AddWithLabel(LabelConfig,
		handlers.On[pubsub.EventType, Handler](w, s.onConfigChanged, watcher.Changed),
	); err != nil {
		return err
	}
	return w.Start()
}

// Disable removes everything Enable installed. Calling it on a disabled
// session is a no-op.
func (s *Session) Disable() (err error) {
	s.mu.Lock()
	if !s.enabled {
		s.mu.Unlock()
		return nil
	}
	s.enabled = false
	s.mu.Unlock()

	_, span := s.tracer.Start(context.Background(), tracing.SpanSessionDisable,
		trace.WithAttributes(attribute.String(tracing.AttrSessionID, s.id)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if err := s.teardown(); err != nil {
		log.ErrorErr(log.CatSession, "Disable incomplete", err, "session", s.id)
		return fmt.Errorf("disabling session: %w", err)
	}
	log.Info(log.CatSession, "Session disabled", "session", s.id)
	return nil
}

// teardown stops the watcher first so no config event lands mid-destroy,
// then empties every registry.
func (s *Session) teardown() error {
	var errs []error

	s.mu.Lock()
	w := s.watcher
	s.watcher = nil
	s.mu.Unlock()
	if w != nil {
		if err := w.Stop(); err != nil {
			errs = append(errs, err)
		}
	}

	errs = append(errs,
		s.Timeouts.Destroy(),
		s.Signals.Destroy(),
		s.Injections.Destroy(),
	)
	return errors.Join(errs...)
}

// worksetName names workspace index after its workset, falling back to the
// shell's stock name past the configured worksets.
func (s *Session) worksetName(index int) string {
	if index >= 0 && index < len(s.cfg.Worksets) {
		return s.cfg.Worksets[index]
	}
	return shell.DefaultWindowManager().WorkspaceName(index)
}

// placeWindow reopens a remembered window on its workset's workspace.
func (s *Session) placeWindow(title string, active int) int {
	s.mu.Lock()
	ws, ok := s.windows[title]
	s.mu.Unlock()
	if !ok {
		return active
	}
	if i := slices.Index(s.cfg.Worksets, ws); i >= 0 {
		return i
	}
	return active
}

func (s *Session) onWorkspaceSwitched(e pubsub.Event[string]) {
	s.mu.Lock()
	s.active = e.Payload
	s.switches++
	s.mu.Unlock()
	s.record("switched to " + e.Payload)
}

// onWindow remembers the workset of the workspace a window actually opened
// on, which placeWindow may have chosen over the active one.
func (s *Session) onWindow(e pubsub.Event[string]) {
	opened := ""
	if e.Type == shell.WindowAdded {
		wins := s.shell.Windows()
		for i := len(wins) - 1; i >= 0; i-- {
			if wins[i].Title == e.Payload {
				opened = s.worksetName(wins[i].Workspace)
				break
			}
		}
	}

	s.mu.Lock()
	if opened != "" {
		s.windows[e.Payload] = opened
	}
	ws := s.windows[e.Payload]
	s.mu.Unlock()
	s.record(fmt.Sprintf("%s %q (%s)", e.Type, e.Payload, ws))
}

// onConfigChanged runs on the watcher goroutine; the reaction is handed to
// the main loop. Disable stops the watcher before destroying the registries
// and Stop waits for this handler, so nothing registered here outlives it.
// A reload still pending is replaced, keeping one record under the label.
func (s *Session) onConfigChanged(e pubsub.Event[string]) {
	log.Debug(log.CatWatcher, "Config changed", "path", e.Payload)
	if !s.Enabled() {
		return
	}
	if err := s.Timeouts.RemoveWithLabel(LabelConfig); err != nil {
		log.ErrorErr(log.CatSession, "Dropping pending config reload failed", err)
	}
	err := s.Timeouts.AddWithLabel(LabelConfig, handlers.Timeout{
		Name:     TimeoutConfigReload,
		Callback: s.configReloaded,
	})
	if err != nil {
		log.ErrorErr(log.CatSession, "Scheduling config reload failed", err)
	}
}

func (s *Session) configReloaded() {
	s.mu.Lock()
	s.reloads++
	s.mu.Unlock()
	s.record("config file changed")
}

func (s *Session) startupNotice() {
	s.record("worksets ready")
}

func (s *Session) autosave() {
	if err := s.Save(); err != nil {
		log.ErrorErr(log.CatSession, "Autosave failed", err, "session", s.id)
		return
	}
	s.record("saved")
}

func (s *Session) record(event string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	if over := len(s.events) - s.maxEvents; over > 0 {
		s.events = slices.Delete(s.events, 0, over)
	}
}

// ActiveWorkset returns the name of the workset last switched to.
func (s *Session) ActiveWorkset() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Status is a point-in-time view of a session.
type Status struct {
	ID            string
	Enabled       bool
	ActiveWorkset string
	Uptime        time.Duration
	Switches      int
	Saves         int
	Reloads       int

	// Record counts per label for each registry.
	Signals    map[string]int
	Injections map[string]int
	Timeouts   map[string]int

	Running []string // live timeout names
	Events  []string // most recent last
}

// Status returns a snapshot of the session.
func (s *Session) Status() Status {
	st := Status{
		ID:         s.id,
		Signals:    counts(s.Signals.Registry),
		Injections: counts(s.Injections.Registry),
		Timeouts:   counts(s.Timeouts.Registry),
		Running:    s.Timeouts.Running(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	st.Enabled = s.enabled
	st.ActiveWorkset = s.active
	st.Switches = s.switches
	st.Saves = s.saves
	st.Reloads = s.reloads
	st.Events = slices.Clone(s.events)
	if s.enabled {
		st.Uptime = time.Since(s.startedAt)
	}
	return st
}

func counts[D, R any](r *handlers.Registry[D, R]) map[string]int {
	out := make(map[string]int)
	for _, label := range r.Labels() {
		out[label] = r.Len(label)
	}
	return out
}

// Total sums the record counts of m.
func Total(m map[string]int) int {
	n := 0
	for v := range maps.Values(m) {
		n += v
	}
	return n
}
