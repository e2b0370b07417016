package tui

import tea "github.com/charmbracelet/bubbletea"

type stateChangedMsg struct{}

// changeSignal coalesces controller change notifications: any number of
// changes between two reads collapse into one message.
type changeSignal struct {
	ch chan struct{}
}

func newChangeSignal() *changeSignal {
	return &changeSignal{ch: make(chan struct{}, 1)}
}

func (c *changeSignal) notify() {
	select {
	case c.ch <- struct{}{}:
	default:
	}
}

func (c *changeSignal) wait() tea.Cmd {
	return func() tea.Msg {
		<-c.ch
		return stateChangedMsg{}
	}
}
