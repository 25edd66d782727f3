// Package flags provides feature flag support for controlled feature rollout.
// Flags are read-only after initialization and provide safe defaults for unknown flags.
package flags

import (
	"maps"

	"github.com/zdavis/folio/internal/log"
)

// Flag name constants for type-safe flag access.
const (
	// FlagMouseSupport controls whether the TUI requests mouse cell motion
	// events from the terminal.
	FlagMouseSupport = "mouse-support"

	// FlagRenderStats controls whether the status bar shows render counters
	// (renders performed, requests coalesced, layout retries).
	FlagRenderStats = "render-stats"
)

// defaults maps known flags to their default state. Flags absent from
// configuration take these values; unknown flags are always false.
var defaults = map[string]bool{
	FlagMouseSupport: false,
	FlagRenderStats:  false,
}

// Registry holds feature flag state loaded from configuration.
// Flags are read-only after initialization.
type Registry struct {
	flags map[string]bool
}

// New creates a Registry from a config map.
func New(configured map[string]bool) *Registry {
	flags := maps.Clone(defaults)
	for name, enabled := range configured {
		if _, known := flags[name]; !known {
			log.Warn(log.CatConfig, "ignoring unknown feature flag", "flag", name)
			continue
		}
		flags[name] = enabled
	}
	return &Registry{flags: flags}
}

// Enabled reports whether a flag is on. Unknown flags are off.
func (r *Registry) Enabled(name string) bool {
	if r == nil {
		return defaults[name]
	}
	return r.flags[name]
}
