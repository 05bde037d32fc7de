package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// fireMsg carries an engine timer callback back into Update.
type fireMsg struct{ fn func() }

// tickScheduler turns engine timers into tea.Tick commands, so callbacks
// run inside Update on the program goroutine.
type tickScheduler struct {
	cmds []tea.Cmd
}

func (s *tickScheduler) Schedule(delay time.Duration, fn func()) {
	s.cmds = append(s.cmds, tea.Tick(delay, func(time.Time) tea.Msg {
		return fireMsg{fn: fn}
	}))
}

// flush hands the queued timers to the program.
func (s *tickScheduler) flush() tea.Cmd {
	if len(s.cmds) == 0 {
		return nil
	}
	cmds := s.cmds
	s.cmds = nil
	return tea.Batch(cmds...)
}
