// Package calculator holds the interaction state behind the calculator page:
// the expression being typed, the last result, and the joke shown for
// expressions that are too easy.
package calculator

import (
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/BlackMission/mockcalc/internal/domain"
	"github.com/BlackMission/mockcalc/internal/expr"
)

// MockDuration is how long a mock message stays on screen.
const MockDuration = 2 * time.Second

// ErrorMarker is displayed in place of a result that could not be computed.
const ErrorMarker = "Error"

// ResultKind distinguishes the three shapes a result can take.
type ResultKind int

const (
	ResultEmpty ResultKind = iota
	ResultNumber
	ResultError
)

// Result is the outcome of the last evaluation.
type Result struct {
	Kind  ResultKind
	Value float64
}

// String renders the result for display.
func (r Result) String() string {
	switch r.Kind {
	case ResultNumber:
		return expr.Format(r.Value)
	case ResultError:
		return ErrorMarker
	default:
		return ""
	}
}

// State is a point-in-time copy of a Machine.
type State struct {
	Status      domain.SessionStatus
	Input       string
	Result      Result
	MockMessage string
}

// Machine is the calculator interaction state machine. It starts in the
// loading state and accepts input only once resolved as authenticated.
// All methods are safe for concurrent use; transitions are serialized.
type Machine struct {
	mu     sync.Mutex
	sched  Scheduler
	status domain.SessionStatus
	input  string
	result Result

	mock      string
	mockGen   uint64
	mockTimer Timer
}

// New creates a Machine in the loading state. A nil scheduler uses the wall
// clock.
func New(sched Scheduler) *Machine {
	if sched == nil {
		sched = RealScheduler{}
	}
	return &Machine{sched: sched, status: domain.StatusLoading}
}

// Resolve applies the outcome of the session check. Leaving the
// authenticated state discards all calculator state.
func (m *Machine) Resolve(status domain.SessionStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if status == domain.StatusAuthenticated {
		m.status = status
		return
	}
	m.status = status
	m.input = ""
	m.result = Result{}
	m.cancelMockLocked()
}

// Snapshot returns a copy of the current state.
func (m *Machine) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stateLocked()
}

// Append adds ch to the input if it is a digit, '.', or an operator.
// Other characters are ignored.
func (m *Machine) Append(ch rune) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status != domain.StatusAuthenticated {
		return m.stateLocked(), domain.ErrNotAuthenticated
	}
	if isInputChar(ch) {
		m.input += string(ch)
	}
	return m.stateLocked(), nil
}

// DeleteLast removes the last input character.
func (m *Machine) DeleteLast() (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status != domain.StatusAuthenticated {
		return m.stateLocked(), domain.ErrNotAuthenticated
	}
	if n := len(m.input); n > 0 {
		m.input = m.input[:n-1]
	}
	return m.stateLocked(), nil
}

// Clear resets the input and the result.
func (m *Machine) Clear() (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status != domain.StatusAuthenticated {
		return m.stateLocked(), domain.ErrNotAuthenticated
	}
	m.input = ""
	m.result = Result{}
	return m.stateLocked(), nil
}

// Evaluate computes the current input. Joke expressions also raise a mock
// message. A malformed expression sets the error marker; it is never
// returned as an error.
func (m *Machine) Evaluate() (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status != domain.StatusAuthenticated {
		return m.stateLocked(), domain.ErrNotAuthenticated
	}

	trimmed := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, m.input)
	if msg, ok := Joke(trimmed); ok {
		m.showMockLocked(msg)
	}

	sanitized := strings.Map(func(r rune) rune {
		if isInputChar(r) {
			return r
		}
		return -1
	}, trimmed)
	v, err := expr.Evaluate(sanitized)
	if err != nil {
		m.result = Result{Kind: ResultError}
	} else {
		m.result = Result{Kind: ResultNumber, Value: v}
	}
	return m.stateLocked(), nil
}

// Close cancels the pending mock expiry, if any.
func (m *Machine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelMockLocked()
}

func (m *Machine) showMockLocked(msg string) {
	if m.mockTimer != nil {
		m.mockTimer.Stop()
	}
	m.mockGen++
	gen := m.mockGen
	m.mock = msg
	m.mockTimer = m.sched.AfterFunc(MockDuration, func() { m.expireMock(gen) })
}

// expireMock clears the message raised as generation gen. A callback that
// was already running when it got superseded finds a newer generation and
// leaves the newer message alone.
func (m *Machine) expireMock(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mockGen != gen {
		return
	}
	m.mock = ""
	m.mockTimer = nil
}

func (m *Machine) cancelMockLocked() {
	if m.mockTimer != nil {
		m.mockTimer.Stop()
		m.mockTimer = nil
	}
	m.mockGen++
	m.mock = ""
}

func (m *Machine) stateLocked() State {
	return State{
		Status:      m.status,
		Input:       m.input,
		Result:      m.result,
		MockMessage: m.mock,
	}
}

func isInputChar(r rune) bool {
	switch {
	case r >= '0' && r <= '9':
		return true
	case r == '.', r == '+', r == '-', r == '*', r == '/':
		return true
	}
	return false
}
