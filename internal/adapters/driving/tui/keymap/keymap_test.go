package keymap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultKeyMap_Bindings(t *testing.T) {
	km := DefaultKeyMap()

	tests := []struct {
		name    string
		keyStr  string
		matches bool
		binding func() bool
	}{
		{"tab moves next", "tab", true, func() bool { return Matches("tab", km.Next) }},
		{"shift+tab moves back", "shift+tab", true, func() bool { return Matches("shift+tab", km.Prev) }},
		{"enter submits", "enter", true, func() bool { return Matches("enter", km.Submit) }},
		{"f1 opens help", "f1", true, func() bool { return Matches("f1", km.Help) }},
		{"ctrl+c quits", "ctrl+c", true, func() bool { return Matches("ctrl+c", km.Quit) }},
		{"q does not quit", "q", false, func() bool { return Matches("q", km.Quit) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.matches, tt.binding())
		})
	}
}

func TestKeyMap_ShortHelp(t *testing.T) {
	km := DefaultKeyMap()
	help := km.ShortHelp()
	assert.Len(t, help, 4)
	assert.Equal(t, "tab", help[0].Help().Key)
}

func TestKeyMap_FullHelp(t *testing.T) {
	km := DefaultKeyMap()
	groups := km.FullHelp()
	assert.Len(t, groups, 2)
	assert.Len(t, groups[0], 3)
}
