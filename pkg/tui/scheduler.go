package tui

import tea "github.com/charmbracelet/bubbletea"

// completionMsg carries the result of background work back into Update,
// which runs on the program goroutine.
type completionMsg struct {
	apply func()
}

// cmdScheduler turns controller work into tea commands. Commands queue up
// until the next drain at the end of Update.
type cmdScheduler struct {
	pending []tea.Cmd
}

func (s *cmdScheduler) Go(work func() func()) {
	s.pending = append(s.pending, func() tea.Msg {
		return completionMsg{apply: work()}
	})
}

func (s *cmdScheduler) drain() tea.Cmd {
	if len(s.pending) == 0 {
		return nil
	}
	cmds := s.pending
	s.pending = nil
	return tea.Batch(cmds...)
}
