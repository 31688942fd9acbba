// Package shell provides the desktop host a session installs itself into:
// numbered workspaces, a window list, a window manager whose behaviour lives
// in function-valued fields, a signal broker and a main loop.
//
// Shell is driven from a single goroutine, the one dispatching its loop.
package shell

import (
	"fmt"
	"slices"

	"github.com/zjrosen/worksets/internal/log"
	"github.com/zjrosen/worksets/internal/mainloop"
	"github.com/zjrosen/worksets/internal/pubsub"
)

// Signals emitted by the shell. The payload is the workspace name for
// WorkspaceSwitched and the window title for window events.
const (
	WorkspaceSwitched pubsub.EventType = "workspace-switched"
	WindowAdded       pubsub.EventType = "window-added"
	WindowRemoved     pubsub.EventType = "window-removed"
)

// Window is a top-level window on a workspace.
type Window struct {
	Title     string
	Workspace int
}

// WindowManager holds replaceable window manager behaviour.
type WindowManager struct {
	// WorkspaceName labels workspace index for display.
	WorkspaceName func(index int) string

	// PlaceWindow picks the workspace a new window opens on.
	PlaceWindow func(title string, active int) int
}

// DefaultWindowManager returns the stock behaviour: "Workspace N" names and
// new windows open on the active workspace.
func DefaultWindowManager() WindowManager {
	return WindowManager{
		WorkspaceName: func(index int) string { return fmt.Sprintf("Workspace %d", index+1) },
		PlaceWindow:   func(_ string, active int) int { return active },
	}
}

// Shell is the simulated desktop host.
type Shell struct {
	Signals *pubsub.Broker[string]
	Loop    *mainloop.Loop
	WM      *WindowManager

	workspaces int
	active     int
	windows    []Window
}

// New creates a shell with n workspaces (at least one).
func New(n int) *Shell {
	if n < 1 {
		n = 1
	}
	wm := DefaultWindowManager()
	return &Shell{
		Signals:    pubsub.NewBroker[string](),
		Loop:       mainloop.New(),
		WM:         &wm,
		workspaces: n,
	}
}

// Workspaces returns the number of workspaces.
func (s *Shell) Workspaces() int { return s.workspaces }

// Active returns the index of the active workspace.
func (s *Shell) Active() int { return s.active }

// WorkspaceName returns the current display name of workspace index.
func (s *Shell) WorkspaceName(index int) string {
	if s.WM.WorkspaceName == nil {
		return DefaultWindowManager().WorkspaceName(index)
	}
	return s.WM.WorkspaceName(index)
}

// SwitchWorkspace activates workspace index and emits WorkspaceSwitched.
func (s *Shell) SwitchWorkspace(index int) error {
	if index < 0 || index >= s.workspaces {
		return fmt.Errorf("workspace %d out of range [0,%d)", index, s.workspaces)
	}
	s.active = index
	name := s.WorkspaceName(index)
	log.Debug(log.CatSignals, "Workspace switched", "index", index, "name", name)
	s.Signals.Publish(WorkspaceSwitched, name)
	return nil
}

// NextWorkspace switches to the following workspace, wrapping around.
func (s *Shell) NextWorkspace() error {
	return s.SwitchWorkspace((s.active + 1) % s.workspaces)
}

// AddWindow opens a window and emits WindowAdded.
func (s *Shell) AddWindow(title string) Window {
	ws := s.active
	if s.WM.PlaceWindow != nil {
		ws = s.WM.PlaceWindow(title, s.active)
	}
	if ws < 0 || ws >= s.workspaces {
		ws = s.active
	}
	w := Window{Title: title, Workspace: ws}
	s.windows = append(s.windows, w)
	s.Signals.Publish(WindowAdded, title)
	return w
}

// RemoveWindow closes the first window titled title and emits WindowRemoved.
// Reports whether a window was closed.
func (s *Shell) RemoveWindow(title string) bool {
	i := slices.IndexFunc(s.windows, func(w Window) bool { return w.Title == title })
	if i < 0 {
		return false
	}
	s.windows = slices.Delete(s.windows, i, i+1)
	s.Signals.Publish(WindowRemoved, title)
	return true
}

// Windows returns the open windows in opening order.
func (s *Shell) Windows() []Window {
	return slices.Clone(s.windows)
}

// Close shuts down the signal broker and the main loop.
func (s *Shell) Close() {
	s.Signals.Close()
	s.Loop.Close()
}
