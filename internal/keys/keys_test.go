package keys

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	"github.com/stretchr/testify/require"
)

func TestDefaultKeyMap_Assignments(t *testing.T) {
	km := DefaultKeyMap()

	tests := []struct {
		name     string
		binding  key.Binding
		expected []string
	}{
		{name: "NextWorkspace", binding: km.NextWorkspace, expected: []string{"l", "right", "tab"}},
		{name: "PrevWorkspace", binding: km.PrevWorkspace, expected: []string{"h", "left", "shift+tab"}},
		{name: "OpenWindow", binding: km.OpenWindow, expected: []string{"n"}},
		{name: "CloseWindow", binding: km.CloseWindow, expected: []string{"x"}},
		{name: "Toggle", binding: km.Toggle, expected: []string{"e"}},
		{name: "Save", binding: km.Save, expected: []string{"s"}},
		{name: "Help", binding: km.Help, expected: []string{"?"}},
		{name: "Quit", binding: km.Quit, expected: []string{"q", "ctrl+c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.binding.Keys())
			require.NotEmpty(t, tt.binding.Help().Desc)
		})
	}
}

func TestDefaultKeyMap_NoDuplicateKeys(t *testing.T) {
	km := DefaultKeyMap()
	seen := make(map[string]string)
	for _, group := range km.FullHelp() {
		for _, b := range group {
			for _, k := range b.Keys() {
				prev, dup := seen[k]
				require.False(t, dup, "key %q bound to both %q and %q", k, prev, b.Help().Desc)
				seen[k] = b.Help().Desc
			}
		}
	}
}

func TestShortHelp(t *testing.T) {
	km := DefaultKeyMap()
	short := km.ShortHelp()
	require.Len(t, short, 3)
	require.Equal(t, "enable/disable", short[0].Help().Desc)
}
