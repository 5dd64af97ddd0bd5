package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mmcdole/snapgrid/internal/domain"
	"github.com/mmcdole/snapgrid/internal/imageload"
	"github.com/mmcdole/snapgrid/internal/service"
	"github.com/mmcdole/snapgrid/internal/tui/components"
	"github.com/mmcdole/snapgrid/internal/tui/styles"
)

// Timing
const (
	SpinnerInterval = 100 * time.Millisecond
	LoadingDuration = time.Second // the grid shows after this regardless of outcome
	StatusDuration  = 3 * time.Second
)

// MaxSuggestions caps the history suggestions under the search bar
const MaxSuggestions = 5

// Opener opens a URL outside the terminal
type Opener interface {
	Launch(url string) error
}

// Options holds presentation settings
type Options struct {
	Columns int
	ShowIDs bool
}

// changeFlag is set by the photos-changed callback. The callback runs inside
// Update (via the dispatcher), so no locking is needed.
type changeFlag struct {
	changed bool
}

func (f *changeFlag) take() bool {
	c := f.changed
	f.changed = false
	return c
}

// Model is the main Bubble Tea model for the application
type Model struct {
	// Services
	SearchSvc  *service.SearchService
	HistorySvc *service.HistoryService
	Images     *imageload.Loader
	Opener     Opener

	dispatcher    *ChannelDispatcher
	photosChanged *changeFlag
	pending       map[string]bool // image URLs being loaded

	// UI Components
	Keys      KeyMap
	Help      help.Model
	SearchBar components.SearchBar
	Grid      components.PhotoGrid

	// Dimensions
	Width  int
	Height int
	Ready  bool

	// Search state
	Query        string
	Loading      bool
	loadingSeq   int
	SpinnerFrame int

	// UI state
	StatusMsg    string
	StatusIsErr  bool
	ShowFullHelp bool
}

// NewModel creates a new application model. It installs itself as the
// search service's change callback.
func NewModel(
	searchSvc *service.SearchService,
	historySvc *service.HistoryService,
	images *imageload.Loader,
	opener Opener,
	dispatcher *ChannelDispatcher,
	opts Options,
) Model {
	flag := &changeFlag{}
	searchSvc.SetOnPhotosChanged(func() { flag.changed = true })

	bar := components.NewSearchBar()
	bar.Focus()

	return Model{
		SearchSvc:     searchSvc,
		HistorySvc:    historySvc,
		Images:        images,
		Opener:        opener,
		dispatcher:    dispatcher,
		photosChanged: flag,
		pending:       make(map[string]bool),
		Keys:          DefaultKeyMap(),
		Help:          help.New(),
		SearchBar:     bar,
		Grid:          components.NewPhotoGrid(opts.Columns, opts.ShowIDs),
	}
}

// Init initializes the application
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.dispatcher.Wait(),
		textinput.Blink,
	)
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Ready = true
		m.updateLayout()
		return m, m.loadVisibleImages()

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case dispatchMsg:
		msg.fn()
		cmds := []tea.Cmd{m.dispatcher.Wait()}
		if m.photosChanged.take() {
			m.onPhotosChanged()
			cmds = append(cmds, m.loadVisibleImages())
		}
		return m, tea.Batch(cmds...)

	case ImageLoadedMsg:
		delete(m.pending, msg.URL)
		return m, nil

	case TickMsg:
		if !m.Loading {
			return m, nil
		}
		m.SpinnerFrame++
		return m, TickCmd(SpinnerInterval)

	case LoadingDoneMsg:
		if msg.Seq == m.loadingSeq {
			m.Loading = false
		}
		return m, nil

	case HistoryRecordedMsg:
		if msg.Err != nil {
			return m.setStatus("Search history not saved: "+msg.Err.Error(), true)
		}
		return m, nil

	case PhotoOpenedMsg:
		if msg.Err != nil {
			return m.setStatus("Open failed: "+msg.Err.Error(), true)
		}
		return m.setStatus("Opened "+msg.ID, false)

	case StatusMsg:
		return m.setStatus(msg.Message, msg.IsError)

	case ClearStatusMsg:
		m.StatusMsg = ""
		m.StatusIsErr = false
		return m, nil
	}

	// Cursor blink and other input housekeeping
	if m.SearchBar.Focused() {
		var cmd tea.Cmd
		m.SearchBar, cmd, _ = m.SearchBar.Update(msg)
		return m, cmd
	}
	return m, nil
}

// onPhotosChanged is the grid reload after a search result was applied
func (m *Model) onPhotosChanged() {
	m.Grid.Reset()
	if photos, ok := m.SearchSvc.Photos(); ok && len(photos) == 0 {
		m.Grid.SetPlaceholder(fmt.Sprintf("No photos found for %q", m.SearchSvc.Term()))
	}
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.SearchBar.Focused() {
		return m.handleSearchKey(msg)
	}

	count := m.SearchSvc.Count()
	if m.SearchSvc.IsPlaceholder() {
		count = 0
	}

	switch {
	case key.Matches(msg, m.Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.Keys.Search):
		cmd := m.SearchBar.Focus()
		m.SearchBar.SetValue(m.Query)
		m.refreshSuggestions()
		m.updateLayout()
		return m, cmd

	case key.Matches(msg, m.Keys.Help):
		m.ShowFullHelp = !m.ShowFullHelp
		m.updateLayout()
		return m, m.loadVisibleImages()

	case key.Matches(msg, m.Keys.Up):
		m.Grid.MoveUp(count)
		return m, m.loadVisibleImages()

	case key.Matches(msg, m.Keys.Down):
		m.Grid.MoveDown(count)
		return m, m.loadVisibleImages()

	case key.Matches(msg, m.Keys.Left):
		m.Grid.MoveLeft(count)
		return m, m.loadVisibleImages()

	case key.Matches(msg, m.Keys.Right):
		m.Grid.MoveRight(count)
		return m, m.loadVisibleImages()

	case key.Matches(msg, m.Keys.Open):
		return m.openSelected()
	}

	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	prev := m.SearchBar.Value()

	var cmd tea.Cmd
	var submitted bool
	m.SearchBar, cmd, submitted = m.SearchBar.Update(msg)
	if submitted {
		return m.submit()
	}
	if m.SearchBar.Focused() && m.SearchBar.Value() != prev {
		m.refreshSuggestions()
	}
	// Suggestions and blur change the bar height
	m.updateLayout()
	return m, tea.Batch(cmd, m.loadVisibleImages())
}

// submit starts a search for the bar's value. Blank input is ignored.
func (m Model) submit() (tea.Model, tea.Cmd) {
	term := strings.TrimSpace(m.SearchBar.Value())
	if term == "" {
		return m, nil
	}

	m.SearchBar.Blur()
	m.updateLayout()
	m.Query = term
	m.SearchSvc.FetchImages(term)

	m.loadingSeq++
	m.Loading = true
	m.SpinnerFrame = 0

	cmds := []tea.Cmd{
		LoadingDoneCmd(m.loadingSeq, LoadingDuration),
		TickCmd(SpinnerInterval),
	}
	if m.HistorySvc != nil {
		cmds = append(cmds, RecordHistoryCmd(m.HistorySvc, term))
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) refreshSuggestions() {
	if m.HistorySvc == nil {
		return
	}
	m.SearchBar.SetSuggestions(m.HistorySvc.Suggest(m.SearchBar.Value(), MaxSuggestions))
}

func (m Model) openSelected() (tea.Model, tea.Cmd) {
	photo, ok := m.SearchSvc.ItemAt(m.Grid.Cursor())
	if !ok || m.Opener == nil {
		return m, nil
	}
	url, ok := photo.OpenURL()
	if !ok {
		return m.setStatus("Photo "+photo.ID+" has no URL to open", true)
	}
	return m, OpenPhotoCmd(m.Opener, photo.ID, url)
}

func (m Model) setStatus(text string, isErr bool) (tea.Model, tea.Cmd) {
	m.StatusMsg = text
	m.StatusIsErr = isErr
	return m, ClearStatusCmd(StatusDuration)
}

// loadVisibleImages starts loads for on-screen cells not yet rendered
func (m Model) loadVisibleImages() tea.Cmd {
	if m.Images == nil || !m.Ready || m.SearchSvc.IsPlaceholder() {
		return nil
	}

	w, h := m.Grid.CellSize()
	start, end := m.Grid.VisibleRange(m.SearchSvc.Count())

	var cmds []tea.Cmd
	for i := start; i < end; i++ {
		photo, ok := m.SearchSvc.ItemAt(i)
		if !ok {
			continue
		}
		url, ok := photo.PreviewURL()
		if !ok {
			continue
		}
		if _, done := m.Images.Cached(url, w, h); done || m.pending[url] {
			continue
		}
		m.pending[url] = true
		cmds = append(cmds, LoadImageCmd(m.Images, url, w, h))
	}
	return tea.Batch(cmds...)
}

// cellImage returns the rendered image for a grid cell, "" until loaded
func (m Model) cellImage(photo domain.Photo, width, height int) string {
	if m.Images == nil {
		return ""
	}
	url, ok := photo.PreviewURL()
	if !ok {
		return ""
	}
	art, _ := m.Images.Cached(url, width, height)
	return art
}

func (m *Model) updateLayout() {
	m.Help.Width = m.Width
	m.SearchBar.SetWidth(m.Width)
	m.Grid.SetSize(m.Width, m.gridHeight())
}

// gridHeight is what remains after the search bar and footer
func (m Model) gridHeight() int {
	h := m.Height - lipgloss.Height(m.SearchBar.View()) - lipgloss.Height(m.footerView())
	if h < 0 {
		return 0
	}
	return h
}

// View renders the UI
func (m Model) View() string {
	if !m.Ready {
		return "Loading..."
	}

	var body string
	if m.Loading {
		spinner := styles.SpinnerStyle.Render(styles.SpinnerFrames[m.SpinnerFrame%len(styles.SpinnerFrames)])
		body = lipgloss.Place(m.Width, m.gridHeight(), lipgloss.Center, lipgloss.Center,
			spinner+" "+styles.SubtitleStyle.Render(fmt.Sprintf("Searching for %q", m.Query)))
	} else {
		body = lipgloss.NewStyle().Height(m.gridHeight()).MaxHeight(m.gridHeight()).
			Render(m.Grid.View(m.SearchSvc, m.cellImage))
	}

	return lipgloss.JoinVertical(lipgloss.Left, m.SearchBar.View(), body, m.footerView())
}

func (m Model) footerView() string {
	m.Help.ShowAll = m.ShowFullHelp
	return lipgloss.JoinVertical(lipgloss.Left, m.statusView(), m.Help.View(m.Keys))
}

func (m Model) statusView() string {
	var text string
	switch {
	case m.StatusMsg != "" && m.StatusIsErr:
		return styles.ErrorStyle.Render(styles.Truncate(m.StatusMsg, m.Width))
	case m.StatusMsg != "":
		return styles.SuccessStyle.Render(styles.Truncate(m.StatusMsg, m.Width))
	case m.Query == "":
		text = "Type a search term and press enter"
	default:
		// Describe the page on screen, which lags m.Query until a fetch lands
		photos, ok := m.SearchSvc.Photos()
		if !ok {
			text = fmt.Sprintf("%q: no results yet", m.Query)
		} else {
			text = fmt.Sprintf("%q: %s matches, showing %d", m.SearchSvc.Term(), humanize.Comma(int64(m.SearchSvc.Total())), len(photos))
		}
	}
	return styles.DimStyle.Render(styles.Truncate(text, m.Width))
}
