// Package flags provides feature flag support for controlled feature rollout.
// Flags are read-only after initialization and unknown flags read as disabled.
package flags

import (
	"maps"

	"github.com/zjrosen/worksets/internal/log"
)

// Flag name constants for type-safe flag access.
const (
	// FlagWatchConfig reconnects to config file changes while a session is enabled.
	FlagWatchConfig = "watch-config"

	// FlagAutosave runs the repeating autosave timeout.
	FlagAutosave = "autosave"

	// FlagRenameWorkspaces overrides the shell's workspace naming with workset names.
	FlagRenameWorkspaces = "rename-workspaces"
)

// Defaults returns the built-in flag values. Config entries override them.
func Defaults() map[string]bool {
	return map[string]bool{
		FlagWatchConfig:      false,
		FlagAutosave:         true,
		FlagRenameWorkspaces: true,
	}
}

// Registry holds feature flag state loaded from configuration.
type Registry struct {
	flags map[string]bool
}

// New creates a Registry from the defaults overlaid with flags.
func New(flags map[string]bool) *Registry {
	merged := Defaults()
	maps.Copy(merged, flags)
	r := &Registry{flags: merged}
	log.Debug(log.CatConfig, "Feature flags initialized", "count", len(merged), "flags", r.All())
	return r
}

// Enabled returns true if the named flag is enabled.
// Returns false for unknown flags and on a nil registry.
func (r *Registry) Enabled(name string) bool {
	if r == nil || r.flags == nil {
		return false
	}
	value, exists := r.flags[name]
	if !exists {
		log.Debug(log.CatConfig, "Unknown flag accessed", "flag", name, "result", false)
		return false
	}
	return value
}

// All returns a copy of all flags (for debugging/logging).
func (r *Registry) All() map[string]bool {
	if r == nil || r.flags == nil {
		return make(map[string]bool)
	}
	return maps.Clone(r.flags)
}
