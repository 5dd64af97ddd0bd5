package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/snapgrid/internal/imageload"
	"github.com/mmcdole/snapgrid/internal/service"
)

// Command factories for async operations

// LoadImageCmd fetches and renders one cell image
func LoadImageCmd(loader *imageload.Loader, url string, width, height int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		_, err := loader.Load(ctx, url, width, height)
		return ImageLoadedMsg{URL: url, Err: err}
	}
}

// RecordHistoryCmd saves a submitted term
func RecordHistoryCmd(svc *service.HistoryService, term string) tea.Cmd {
	return func() tea.Msg {
		return HistoryRecordedMsg{Term: term, Err: svc.Record(term)}
	}
}

// OpenPhotoCmd opens a photo URL in the external viewer
func OpenPhotoCmd(opener Opener, id, url string) tea.Cmd {
	return func() tea.Msg {
		return PhotoOpenedMsg{ID: id, Err: opener.Launch(url)}
	}
}

// LoadingDoneCmd ends the loading indicator for search seq after delay
func LoadingDoneCmd(seq int, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return LoadingDoneMsg{Seq: seq}
	})
}

// TickCmd returns a command that sends a tick after a delay
func TickCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return TickMsg{}
	})
}

// ClearStatusCmd returns a command that clears status after a delay
func ClearStatusCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}
