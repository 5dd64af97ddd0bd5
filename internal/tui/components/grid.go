package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/snapgrid/internal/domain"
	"github.com/mmcdole/snapgrid/internal/tui/styles"
)

// Layout constants for grid
const (
	// Border adds 1 char on each side
	BorderWidth  = 2
	BorderHeight = 2

	// Caption line under the image when IDs are shown
	CaptionLines = 1

	// Smallest image area worth drawing
	MinCellWidth  = 4
	MinCellHeight = 2
)

// CellSource is what the grid renders: a cell count plus the photo behind
// each cell. When IsPlaceholder is true the single cell is the placeholder.
type CellSource interface {
	Count() int
	ItemAt(index int) (domain.Photo, bool)
	IsPlaceholder() bool
}

// ImageFunc returns the rendered image for a photo cell, or "" if not ready
type ImageFunc func(photo domain.Photo, width, height int) string

// PhotoGrid lays photos out in a fixed number of columns
type PhotoGrid struct {
	columns int
	showIDs bool

	// Selection
	cursor int
	offset int // first visible row

	// Dimensions
	width  int
	height int

	placeholder string
}

// NewPhotoGrid creates a grid with the given column count
func NewPhotoGrid(columns int, showIDs bool) PhotoGrid {
	if columns < 1 {
		columns = 1
	}
	return PhotoGrid{
		columns:     columns,
		showIDs:     showIDs,
		placeholder: "Press / to search for photos",
	}
}

// SetSize sets the area available to the grid
func (g *PhotoGrid) SetSize(width, height int) {
	g.width = width
	g.height = height
}

// SetPlaceholder sets the text shown in the placeholder cell
func (g *PhotoGrid) SetPlaceholder(text string) {
	g.placeholder = text
}

// Columns returns the column count
func (g PhotoGrid) Columns() int {
	return g.columns
}

// Cursor returns the selected cell index
func (g PhotoGrid) Cursor() int {
	return g.cursor
}

// Reset moves the selection back to the first cell
func (g *PhotoGrid) Reset() {
	g.cursor = 0
	g.offset = 0
}

// CellSize returns the image area of one cell in terminal cells.
// Height is half the width so half-block art comes out roughly square.
func (g PhotoGrid) CellSize() (width, height int) {
	width = g.width/g.columns - BorderWidth
	if width < MinCellWidth {
		width = MinCellWidth
	}
	height = width / 2
	if height < MinCellHeight {
		height = MinCellHeight
	}
	return width, height
}

// rowHeight is the outer height of one grid row
func (g PhotoGrid) rowHeight() int {
	_, h := g.CellSize()
	h += BorderHeight
	if g.showIDs {
		h += CaptionLines
	}
	return h
}

// VisibleRows returns how many rows fit in the grid height
func (g PhotoGrid) VisibleRows() int {
	rows := g.height / g.rowHeight()
	if rows < 1 {
		rows = 1
	}
	return rows
}

// VisibleRange returns the [start, end) cell indices currently on screen
func (g PhotoGrid) VisibleRange(count int) (start, end int) {
	start = g.offset * g.columns
	end = start + g.VisibleRows()*g.columns
	if end > count {
		end = count
	}
	if start > end {
		start = end
	}
	return start, end
}

// MoveUp moves the selection one row up
func (g *PhotoGrid) MoveUp(count int) {
	if g.cursor-g.columns >= 0 {
		g.cursor -= g.columns
	}
	g.ensureVisible()
}

// MoveDown moves the selection one row down, clamping to the last cell
func (g *PhotoGrid) MoveDown(count int) {
	if count == 0 {
		return
	}
	next := g.cursor + g.columns
	if next >= count {
		// Land on the last cell if the row below is partial
		if g.cursor/g.columns < (count-1)/g.columns {
			next = count - 1
		} else {
			return
		}
	}
	g.cursor = next
	g.ensureVisible()
}

// MoveLeft moves the selection one cell left
func (g *PhotoGrid) MoveLeft(count int) {
	if g.cursor > 0 {
		g.cursor--
	}
	g.ensureVisible()
}

// MoveRight moves the selection one cell right
func (g *PhotoGrid) MoveRight(count int) {
	if g.cursor < count-1 {
		g.cursor++
	}
	g.ensureVisible()
}

// ensureVisible scrolls so the cursor row is on screen
func (g *PhotoGrid) ensureVisible() {
	row := g.cursor / g.columns
	rows := g.VisibleRows()
	if row < g.offset {
		g.offset = row
	}
	if row >= g.offset+rows {
		g.offset = row - rows + 1
	}
}

// View renders the visible rows of src
func (g PhotoGrid) View(src CellSource, image ImageFunc) string {
	if g.width <= 0 || g.height <= 0 {
		return ""
	}
	if src.IsPlaceholder() {
		return g.renderPlaceholder()
	}

	count := src.Count()
	start, end := g.VisibleRange(count)

	var rows []string
	for rowStart := start; rowStart < end; rowStart += g.columns {
		var cells []string
		for i := rowStart; i < rowStart+g.columns && i < end; i++ {
			photo, _ := src.ItemAt(i)
			cells = append(cells, g.renderCell(photo, image, i == g.cursor))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (g PhotoGrid) renderCell(photo domain.Photo, image ImageFunc, selected bool) string {
	w, h := g.CellSize()

	art := ""
	if image != nil {
		art = image(photo, w, h)
	}
	if art == "" {
		art = blankBlock(w, h)
	}

	content := art
	if g.showIDs {
		content = lipgloss.JoinVertical(lipgloss.Left, art, styles.CaptionStyle.Render(styles.Pad(styles.Truncate(photo.ID, w), w)))
	}

	style := styles.GridCellStyle
	if selected {
		style = styles.GridCellSelectedStyle
	}
	return style.Render(content)
}

// renderPlaceholder draws one cell spanning the full grid width
func (g PhotoGrid) renderPlaceholder() string {
	_, h := g.CellSize()
	if g.showIDs {
		h += CaptionLines
	}
	w := g.width - BorderWidth
	if w < MinCellWidth {
		w = MinCellWidth
	}
	return styles.PlaceholderStyle.
		Width(w).
		Height(h).
		Render(styles.Truncate(g.placeholder, w))
}

func blankBlock(width, height int) string {
	line := strings.Repeat(" ", width)
	lines := make([]string, height)
	for i := range lines {
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}
