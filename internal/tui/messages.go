package tui

// Message types for the TUI

// dispatchMsg carries work queued through ChannelDispatcher
type dispatchMsg struct {
	fn func()
}

// ImageLoadedMsg signals that a cell image finished loading
type ImageLoadedMsg struct {
	URL string
	Err error
}

// LoadingDoneMsg ends the loading indicator started by search Seq
type LoadingDoneMsg struct {
	Seq int
}

// TickMsg advances the spinner
type TickMsg struct{}

// PhotoOpenedMsg reports the result of opening a photo externally
type PhotoOpenedMsg struct {
	ID  string
	Err error
}

// HistoryRecordedMsg signals that a search term was saved to history
type HistoryRecordedMsg struct {
	Term string
	Err  error
}

// ClearStatusMsg clears the status line message
type ClearStatusMsg struct{}

// StatusMsg sets a temporary status message
type StatusMsg struct {
	Message string
	IsError bool
}
