package ui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
)

// Run launches the TUI for one import session and returns how it ended.
func Run(ctx context.Context, cfg Config, a Action) (Outcome, error) {
	m := NewModel(ctx, cfg, a)
	prog := tea.NewProgram(m, tea.WithContext(ctx))
	final, err := prog.Run()
	// Release blocked observer sends before reading tracker state.
	m.tracker.Cancel()
	m.cancel()

	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) {
			st := m.tracker.State()
			return Outcome{State: st, Interrupted: !st.Terminal()}, nil
		}
		return Outcome{}, err
	}

	out := Outcome{}
	if fm, ok := final.(Model); ok {
		out = fm.outcome
	}
	out.State = m.tracker.State()
	if !out.State.Terminal() && contextDone(ctx) && !out.Blocked && !out.NothingToResume {
		out.Interrupted = true
	}
	return out, nil
}
