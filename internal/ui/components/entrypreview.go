package components

import (
	"fmt"
	"strings"

	"axec/internal/ui"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// EntryPreview shows the rendered desktop-menu descriptor for an entry in a
// scrollable viewport with syntax highlighting.
type EntryPreview struct {
	viewport    viewport.Model
	highlighter *ui.Highlighter

	Title    string
	FilePath string
	Written  bool // Whether the previewed file actually exists on disk

	Width  int
	Height int

	headerStyle lipgloss.Style
	infoStyle   lipgloss.Style
	borderStyle lipgloss.Style
}

// NewEntryPreview creates a new preview component
func NewEntryPreview() *EntryPreview {
	vp := viewport.New(80, 20)
	vp.MouseWheelEnabled = true

	return &EntryPreview{
		viewport:    vp,
		highlighter: ui.NewHighlighter(),
		Width:       80,
		Height:      20,
		headerStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#89b4fa")),
		infoStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6c7086")),
		borderStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#89b4fa")).
			Padding(0, 1),
	}
}

// SetSize updates the viewport dimensions
func (p *EntryPreview) SetSize(width, height int) {
	p.Width = width
	p.Height = height

	contentHeight := height - 5 // Header and border
	if contentHeight < 5 {
		contentHeight = 5
	}
	contentWidth := width - 4
	if contentWidth < 20 {
		contentWidth = 20
	}

	p.viewport.Width = contentWidth
	p.viewport.Height = contentHeight
}

// SetContent loads the rendered entry text into the preview. path is the
// menu-entry location the text belongs to; written says whether that file
// exists (it never does in sandboxed mode).
func (p *EntryPreview) SetContent(title, path, content string, written bool) {
	p.Title = title
	p.FilePath = path
	p.Written = written

	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	highlighted := p.highlighter.HighlightLines(lines)
	p.viewport.SetContent(strings.Join(highlighted, "\n"))
	p.viewport.GotoTop()
}

// Update forwards messages to the viewport for scrolling
func (p *EntryPreview) Update(msg tea.Msg) (*EntryPreview, tea.Cmd) {
	var cmd tea.Cmd
	p.viewport, cmd = p.viewport.Update(msg)
	return p, cmd
}

// View renders the preview pane
func (p *EntryPreview) View() string {
	var b strings.Builder

	b.WriteString(p.headerStyle.Render(fmt.Sprintf("Menu entry — %s", p.Title)))
	b.WriteString("\n")

	status := "written to disk"
	if !p.Written {
		status = "not written (sandboxed)"
	}
	b.WriteString(p.infoStyle.Render(fmt.Sprintf("%s · %s", p.FilePath, status)))
	b.WriteString("\n\n")

	b.WriteString(p.viewport.View())

	return p.borderStyle.Width(p.Width - 2).Render(b.String())
}
