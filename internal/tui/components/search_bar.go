package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/snapgrid/internal/tui/styles"
	"github.com/sahilm/fuzzy"
)

// Suggestion is a history term plus the byte offsets matching the query
type Suggestion struct {
	Term           string
	MatchedIndexes []int
}

// SearchBar is the search input with history suggestions below it
type SearchBar struct {
	input       textinput.Model
	suggestions []Suggestion
	selected    int // -1 = none
	width       int
}

// NewSearchBar creates a new search bar
func NewSearchBar() SearchBar {
	ti := textinput.New()
	ti.Placeholder = "Search photos..."
	ti.CharLimit = 100
	ti.Prompt = "/ "
	ti.PromptStyle = styles.AccentStyle
	ti.TextStyle = lipgloss.NewStyle().Foreground(styles.White)
	ti.PlaceholderStyle = styles.DimStyle

	return SearchBar{
		input:    ti,
		selected: -1,
	}
}

// SetWidth sets the outer width of the bar
func (s *SearchBar) SetWidth(width int) {
	s.width = width
	// Border, horizontal padding, prompt, and the trailing cursor cell
	inner := width - BorderWidth - 2 - lipgloss.Width(s.input.Prompt) - 1
	if inner < 1 {
		inner = 1
	}
	s.input.Width = inner
}

// Focus focuses the input and returns the cursor blink command
func (s *SearchBar) Focus() tea.Cmd {
	return s.input.Focus()
}

// Blur removes focus and hides suggestions
func (s *SearchBar) Blur() {
	s.input.Blur()
	s.suggestions = nil
	s.selected = -1
}

// Focused reports whether the bar has keyboard focus
func (s SearchBar) Focused() bool {
	return s.input.Focused()
}

// Value returns the current input value
func (s SearchBar) Value() string {
	return s.input.Value()
}

// SetValue replaces the input value
func (s *SearchBar) SetValue(v string) {
	s.input.SetValue(v)
	s.input.CursorEnd()
}

// SetSuggestions replaces the suggestion list. terms arrive already ranked;
// sahilm/fuzzy only supplies the positions to highlight.
func (s *SearchBar) SetSuggestions(terms []string) {
	query := strings.TrimSpace(s.input.Value())
	highlights := make(map[int][]int)
	if query != "" {
		// fuzzy.Find folds case itself, so offsets index into terms as given
		for _, m := range fuzzy.Find(query, terms) {
			highlights[m.Index] = m.MatchedIndexes
		}
	}

	s.suggestions = make([]Suggestion, len(terms))
	for i, t := range terms {
		s.suggestions[i] = Suggestion{Term: t, MatchedIndexes: highlights[i]}
	}
	s.selected = -1
}

// Suggestions returns the current suggestion list
func (s SearchBar) Suggestions() []Suggestion {
	return s.suggestions
}

// Selected returns the highlighted suggestion index, or -1
func (s SearchBar) Selected() int {
	return s.selected
}

// Update handles input events, returns (bar, cmd, submitted).
// On submit the value is the selected suggestion if one is highlighted.
func (s SearchBar) Update(msg tea.Msg) (SearchBar, tea.Cmd, bool) {
	if !s.input.Focused() {
		return s, nil, false
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "enter":
			if s.selected >= 0 && s.selected < len(s.suggestions) {
				s.SetValue(s.suggestions[s.selected].Term)
			}
			return s, nil, true
		case "esc":
			s.Blur()
			return s, nil, false
		case "tab", "down", "ctrl+n":
			if len(s.suggestions) > 0 {
				s.selected = (s.selected + 1) % len(s.suggestions)
			}
			return s, nil, false
		case "shift+tab", "up", "ctrl+p":
			if len(s.suggestions) > 0 {
				s.selected--
				if s.selected < 0 {
					s.selected = len(s.suggestions) - 1
				}
			}
			return s, nil, false
		}
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd, false
}

// View renders the bar and, while focused, the suggestion list
func (s SearchBar) View() string {
	style := styles.SearchBarStyle
	if s.input.Focused() {
		style = styles.SearchBarFocusedStyle
	}
	if s.width > BorderWidth {
		style = style.Width(s.width - BorderWidth)
	}
	bar := style.Render(s.input.View())

	if !s.input.Focused() || len(s.suggestions) == 0 {
		return bar
	}

	lines := []string{bar}
	for i, sug := range s.suggestions {
		lines = append(lines, " "+highlightMatches(sug.Term, sug.MatchedIndexes, i == s.selected))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// highlightMatches renders text with the runes at matchedIndexes (byte
// offsets) highlighted
func highlightMatches(text string, matchedIndexes []int, selected bool) string {
	normal := styles.SuggestionStyle
	match := styles.MatchHighlightStyle
	if selected {
		normal = styles.SuggestionSelectedStyle
		match = styles.MatchHighlightSelectedStyle
	}
	if len(matchedIndexes) == 0 {
		return normal.Render(text)
	}

	matchSet := make(map[int]bool, len(matchedIndexes))
	for _, idx := range matchedIndexes {
		matchSet[idx] = true
	}

	// Batch consecutive runes with the same style
	var result strings.Builder
	var run strings.Builder
	runMatch := false
	flush := func() {
		if run.Len() == 0 {
			return
		}
		if runMatch {
			result.WriteString(match.Render(run.String()))
		} else {
			result.WriteString(normal.Render(run.String()))
		}
		run.Reset()
	}
	for i, r := range text {
		if matchSet[i] != runMatch {
			flush()
			runMatch = matchSet[i]
		}
		run.WriteRune(r)
	}
	flush()
	return result.String()
}
