package tui

import tea "github.com/charmbracelet/bubbletea"

// ChannelDispatcher adapts domain.Dispatcher to Bubble Tea: work queued from
// any goroutine is delivered to Update as a dispatchMsg and run there.
type ChannelDispatcher struct {
	ch chan func()
}

// NewChannelDispatcher creates a dispatcher with the given queue size
func NewChannelDispatcher(buffer int) *ChannelDispatcher {
	return &ChannelDispatcher{ch: make(chan func(), buffer)}
}

// Dispatch queues fn for the UI goroutine. Blocks while the queue is full;
// completions are never dropped.
func (d *ChannelDispatcher) Dispatch(fn func()) {
	d.ch <- fn
}

// Wait returns a command that delivers the next queued function.
// Update must re-arm it after every dispatchMsg.
func (d *ChannelDispatcher) Wait() tea.Cmd {
	return func() tea.Msg {
		return dispatchMsg{fn: <-d.ch}
	}
}
