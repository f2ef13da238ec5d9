package handler

import (
	"net/http"

	"github.com/BlackMission/mockcalc/internal/calculator"
	"github.com/BlackMission/mockcalc/internal/domain"
	"github.com/BlackMission/mockcalc/internal/gate"
)

type snapshotResponse struct {
	Input       string               `json:"input"`
	Result      string               `json:"result"`
	MockMessage string               `json:"mock_message"`
	Status      domain.SessionStatus `json:"status"`
}

func newSnapshot(st calculator.State) snapshotResponse {
	return snapshotResponse{
		Input:       st.Input,
		Result:      st.Result.String(),
		MockMessage: st.MockMessage,
		Status:      st.Status,
	}
}

type buttonRequest struct {
	Button string `json:"button"`
}

// CalculatorState handles GET /api/calculator.
func CalculatorState(g *gate.Gate) http.HandlerFunc {
	return withMachine(g, func(w http.ResponseWriter, r *http.Request, m *calculator.Machine) {
		writeSnapshot(w, m.Snapshot(), nil)
	})
}

// CalculatorKey handles POST /api/calculator/keys.
func CalculatorKey(g *gate.Gate) http.HandlerFunc {
	return withMachine(g, func(w http.ResponseWriter, r *http.Request, m *calculator.Machine) {
		var ev calculator.KeyEvent
		if !decodeJSON(w, r, &ev) {
			return
		}
		st, err := m.Press(ev)
		writeSnapshot(w, st, err)
	})
}

// CalculatorButton handles POST /api/calculator/buttons.
func CalculatorButton(g *gate.Gate) http.HandlerFunc {
	return withMachine(g, func(w http.ResponseWriter, r *http.Request, m *calculator.Machine) {
		var req buttonRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		st, err := m.Button(req.Button)
		writeSnapshot(w, st, err)
	})
}

func withMachine(g *gate.Gate, next func(http.ResponseWriter, *http.Request, *calculator.Machine)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, err := g.Calculator(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "not signed in")
			return
		}
		w.Header().Set("Cache-Control", "no-store")
		next(w, r, m)
	}
}

func writeSnapshot(w http.ResponseWriter, st calculator.State, err error) {
	if err != nil {
		// The session ended between the gate check and the transition.
		writeError(w, http.StatusUnauthorized, "not signed in")
		return
	}
	writeJSON(w, http.StatusOK, newSnapshot(st))
}
