package flags

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_DefaultsWhenUnconfigured(t *testing.T) {
	r := New(nil)

	require.False(t, r.Enabled(FlagMouseSupport))
	require.False(t, r.Enabled(FlagRenderStats))
}

func TestNew_ConfiguredOverridesDefault(t *testing.T) {
	r := New(map[string]bool{FlagMouseSupport: true})

	require.True(t, r.Enabled(FlagMouseSupport))
	require.False(t, r.Enabled(FlagRenderStats))
}

func TestNew_IgnoresUnknownFlags(t *testing.T) {
	r := New(map[string]bool{"no-such-flag": true})

	require.False(t, r.Enabled("no-such-flag"))
}

func TestEnabled_NilRegistryUsesDefaults(t *testing.T) {
	var r *Registry

	require.False(t, r.Enabled(FlagRenderStats))
	require.False(t, r.Enabled("no-such-flag"))
}
