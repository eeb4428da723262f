// Package status provides the console status bar.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/styles"
)

// State represents what the console is doing.
type State string

const (
	StateReady      State = "ready"
	StateThinking   State = "thinking"
	StateRebuilding State = "rebuilding"
	StateError      State = "error"
)

// Bar displays the user, index state and keybinding hints.
type Bar struct {
	styles   *styles.Styles
	keymap   *keymap.KeyMap
	state    State
	message  string
	userID   string
	indexed  int
	hasIndex bool
	width    int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap, userID string) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles: s,
		keymap: km,
		state:  StateReady,
		userID: userID,
		width:  80,
	}
}

// View renders the status bar.
func (b *Bar) View() string {
	left := b.renderLeft()
	right := b.renderRight()

	padding := b.width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	return b.styles.StatusBar.Width(b.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

func (b *Bar) renderLeft() string {
	user := b.styles.Muted.Render("user " + b.userID)

	switch b.state {
	case StateThinking:
		return user + "  " + b.styles.Muted.Render("Thinking...")
	case StateRebuilding:
		return user + "  " + b.styles.Muted.Render("Rebuilding index...")
	case StateError:
		if b.message != "" {
			return user + "  " + b.styles.Error.Render("Error: "+b.message)
		}
		return user + "  " + b.styles.Error.Render("Error")
	case StateReady:
	}

	if !b.hasIndex {
		return user + "  " + b.styles.Muted.Render("not indexed")
	}
	return user + "  " + b.styles.Success.Render(fmt.Sprintf("%d indexed", b.indexed))
}

func (b *Bar) renderRight() string {
	bindings := b.keymap.ShortHelp()
	hints := make([]string, 0, len(bindings))
	for _, binding := range bindings {
		h := binding.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return b.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetState sets the current state.
func (b *Bar) SetState(state State) {
	b.state = state
}

// State returns the current state.
func (b *Bar) State() State {
	return b.state
}

// SetMessage sets the error message.
func (b *Bar) SetMessage(message string) {
	b.message = message
}

// Message returns the current message.
func (b *Bar) Message() string {
	return b.message
}

// SetIndex records the user's index state.
func (b *Bar) SetIndex(hasIndex bool, indexed int) {
	b.hasIndex = hasIndex
	b.indexed = indexed
}

// SetWidth sets the status bar width.
func (b *Bar) SetWidth(width int) {
	b.width = width
}

// Width returns the current width.
func (b *Bar) Width() int {
	return b.width
}
