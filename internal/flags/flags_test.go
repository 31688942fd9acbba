package flags

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry_Enabled(t *testing.T) {
	tests := []struct {
		name     string
		registry *Registry
		flag     string
		expected bool
	}{
		{
			name:     "default autosave is on",
			registry: New(nil),
			flag:     FlagAutosave,
			expected: true,
		},
		{
			name:     "default watch-config is off",
			registry: New(nil),
			flag:     FlagWatchConfig,
			expected: false,
		},
		{
			name:     "config overrides default",
			registry: New(map[string]bool{FlagAutosave: false}),
			flag:     FlagAutosave,
			expected: false,
		},
		{
			name:     "extra flag set to true returns true",
			registry: New(map[string]bool{"feature-a": true}),
			flag:     "feature-a",
			expected: true,
		},
		{
			name:     "unknown flag returns false",
			registry: New(map[string]bool{"feature-a": true}),
			flag:     "unknown-flag",
			expected: false,
		},
		{
			name:     "nil registry returns false",
			registry: nil,
			flag:     FlagAutosave,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.registry.Enabled(tt.flag))
		})
	}
}

func TestRegistry_AllReturnsCopy(t *testing.T) {
	r := New(map[string]bool{"x": true})

	all := r.All()
	require.True(t, all["x"])
	require.Len(t, all, len(Defaults())+1)

	all["x"] = false
	require.True(t, r.Enabled("x"), "mutating the copy leaves the registry alone")

	var nilReg *Registry
	require.Empty(t, nilReg.All())
}

func TestNew_DoesNotAliasInput(t *testing.T) {
	in := map[string]bool{FlagWatchConfig: true}
	r := New(in)
	in[FlagWatchConfig] = false

	require.True(t, r.Enabled(FlagWatchConfig))
}
