package keymap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultKeyMap_Bindings(t *testing.T) {
	km := DefaultKeyMap()

	tests := []struct {
		key     string
		binding string
		want    bool
	}{
		{key: "enter", binding: "ask", want: true},
		{key: "ctrl+c", binding: "quit", want: true},
		{key: "esc", binding: "quit", want: true},
		{key: "q", binding: "quit", want: false},
		{key: "ctrl+r", binding: "rebuild", want: true},
		{key: "pgup", binding: "up", want: true},
		{key: "ctrl+d", binding: "down", want: true},
		{key: "ctrl+l", binding: "clear", want: true},
	}

	bindings := map[string]bool{}
	for _, tt := range tests {
		switch tt.binding {
		case "ask":
			bindings[tt.key] = Matches(tt.key, km.Ask)
		case "quit":
			bindings[tt.key] = Matches(tt.key, km.Quit)
		case "rebuild":
			bindings[tt.key] = Matches(tt.key, km.Rebuild)
		case "up":
			bindings[tt.key] = Matches(tt.key, km.ScrollUp)
		case "down":
			bindings[tt.key] = Matches(tt.key, km.ScrollDown)
		case "clear":
			bindings[tt.key] = Matches(tt.key, km.Clear)
		}
		assert.Equal(t, tt.want, bindings[tt.key], tt.key)
	}
}

func TestKeyMap_Help(t *testing.T) {
	km := DefaultKeyMap()
	assert.Len(t, km.ShortHelp(), 4)
	assert.Len(t, km.FullHelp(), 2)
	assert.Equal(t, "enter", km.ShortHelp()[0].Help().Key)
}
