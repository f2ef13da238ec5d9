package calculator

import (
	"unicode/utf8"

	"github.com/BlackMission/mockcalc/internal/domain"
)

// Reserved key names, as reported by browser keyboard events.
const (
	KeyBackspace = "Backspace"
	KeyEscape    = "Escape"
	KeyEnter     = "Enter"
	KeyEquals    = "="
)

// Keypad button names that are not plain input characters.
const (
	ButtonClear     = "C"
	ButtonBackspace = "backspace"
	ButtonErase     = "⌫"
	ButtonEquals    = "="
)

// KeyEvent is a keyboard press forwarded from the page.
type KeyEvent struct {
	Key  string `json:"key"`
	Ctrl bool   `json:"ctrl"`
	Meta bool   `json:"meta"`
	Alt  bool   `json:"alt"`
}

// Modified reports whether a modifier was held, in which case the press
// belongs to the browser, not the calculator.
func (e KeyEvent) Modified() bool {
	return e.Ctrl || e.Meta || e.Alt
}

// Press maps a keyboard event onto the machine. Unknown and modified keys
// are ignored.
func (m *Machine) Press(ev KeyEvent) (State, error) {
	if ev.Modified() {
		return m.guarded()
	}
	switch ev.Key {
	case KeyBackspace:
		return m.DeleteLast()
	case KeyEscape:
		return m.Clear()
	case KeyEnter, KeyEquals:
		return m.Evaluate()
	}
	if r, ok := singleInputChar(ev.Key); ok {
		return m.Append(r)
	}
	return m.guarded()
}

// Button maps a keypad click onto the machine.
func (m *Machine) Button(name string) (State, error) {
	switch name {
	case ButtonClear:
		return m.Clear()
	case ButtonBackspace, ButtonErase:
		return m.DeleteLast()
	case ButtonEquals:
		return m.Evaluate()
	}
	if r, ok := singleInputChar(name); ok {
		return m.Append(r)
	}
	return m.guarded()
}

// guarded returns the current state without changing it, still reporting
// whether the machine accepts input.
func (m *Machine) guarded() (State, error) {
	st := m.Snapshot()
	if st.Status != domain.StatusAuthenticated {
		return st, domain.ErrNotAuthenticated
	}
	return st, nil
}

func singleInputChar(s string) (rune, bool) {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || size != len(s) || !isInputChar(r) {
		return 0, false
	}
	return r, true
}
