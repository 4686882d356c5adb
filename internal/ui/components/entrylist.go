package components

import (
	"fmt"
	"strings"

	"axec/internal/models"
	"axec/internal/ui"
)

// EntryList is a scrolling list of managed AppImage entries.
type EntryList struct {
	Entries []models.AppImageEntry
	Cursor  int
	Width   int
	Height  int
	Focused bool
	Title   string
}

// NewEntryList creates a new entry list
func NewEntryList(entries []models.AppImageEntry) *EntryList {
	return &EntryList{
		Entries: entries,
		Cursor:  0,
		Width:   40,
		Height:  15,
		Focused: true,
		Title:   "AppImages",
	}
}

// SetEntries updates the list, keeping the cursor in range
func (l *EntryList) SetEntries(entries []models.AppImageEntry) {
	l.Entries = entries
	if l.Cursor >= len(entries) {
		l.Cursor = max(0, len(entries)-1)
	}
}

// MoveUp moves cursor up
func (l *EntryList) MoveUp() {
	if l.Cursor > 0 {
		l.Cursor--
	}
}

// MoveDown moves cursor down
func (l *EntryList) MoveDown() {
	if l.Cursor < len(l.Entries)-1 {
		l.Cursor++
	}
}

// PageUp moves cursor up by a page
func (l *EntryList) PageUp() {
	pageSize := l.Height - 3
	if pageSize < 1 {
		pageSize = 10
	}
	l.Cursor -= pageSize
	if l.Cursor < 0 {
		l.Cursor = 0
	}
}

// PageDown moves cursor down by a page
func (l *EntryList) PageDown() {
	pageSize := l.Height - 3
	if pageSize < 1 {
		pageSize = 10
	}
	l.Cursor += pageSize
	if l.Cursor >= len(l.Entries) {
		l.Cursor = max(0, len(l.Entries)-1)
	}
}

// GoToFirst moves cursor to the first item
func (l *EntryList) GoToFirst() {
	l.Cursor = 0
}

// GoToLast moves cursor to the last item
func (l *EntryList) GoToLast() {
	if len(l.Entries) > 0 {
		l.Cursor = len(l.Entries) - 1
	}
}

// Current returns the entry under the cursor, or nil
func (l *EntryList) Current() *models.AppImageEntry {
	if len(l.Entries) > 0 && l.Cursor < len(l.Entries) {
		return &l.Entries[l.Cursor]
	}
	return nil
}

// View renders the entry list
func (l *EntryList) View() string {
	var b strings.Builder

	title := l.Title
	if len(l.Entries) > 0 {
		title = fmt.Sprintf("%s (%d)", l.Title, len(l.Entries))
	}
	b.WriteString(ui.PanelTitleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(ui.DividerStyle.Render(strings.Repeat("─", max(1, l.Width-2))))
	b.WriteString("\n")

	if len(l.Entries) == 0 {
		b.WriteString(ui.ItemStyle.Render("No AppImages installed"))
		b.WriteString("\n")
		b.WriteString(ui.MutedStyle.Render(" Press 'a' to add one"))
		return l.wrapInPanel(b.String())
	}

	// Calculate visible range
	visibleHeight := l.Height - 3 // Minus title and divider
	startIdx := 0
	if l.Cursor >= visibleHeight {
		startIdx = l.Cursor - visibleHeight + 1
	}
	endIdx := min(startIdx+visibleHeight, len(l.Entries))

	if startIdx > 0 {
		b.WriteString(ui.MutedStyle.Render("  ↑ more"))
		b.WriteString("\n")
	}

	for i := startIdx; i < endIdx; i++ {
		b.WriteString(l.renderItem(l.Entries[i], i == l.Cursor))
		if i < endIdx-1 {
			b.WriteString("\n")
		}
	}

	if endIdx < len(l.Entries) {
		b.WriteString("\n")
		b.WriteString(ui.MutedStyle.Render("  ↓ more"))
	}

	return l.wrapInPanel(b.String())
}

// renderItem renders a single entry line
func (l *EntryList) renderItem(entry models.AppImageEntry, isCursor bool) string {
	iconMark := ui.MutedStyle.Render("·")
	if entry.HasIcon() {
		iconMark = ui.IconOKStyle.Render("◆")
	}

	name := entry.Name
	if name == "" {
		name = entry.ID
	}
	maxNameLen := l.Width - 14
	if maxNameLen < 10 {
		maxNameLen = 10
	}
	if len(name) > maxNameLen {
		name = name[:maxNameLen-3] + "..."
	}

	content := fmt.Sprintf("%s %s %s", iconMark, name, ui.MutedStyle.Render(entry.ID))

	if isCursor && l.Focused {
		return ui.SelectedItemStyle.Width(l.Width - 4).Render(content)
	}
	return ui.ItemStyle.Render(content)
}

// wrapInPanel wraps content in a panel border
func (l *EntryList) wrapInPanel(content string) string {
	style := ui.PanelStyle
	if l.Focused {
		style = ui.ActivePanelStyle
	}
	return style.Width(l.Width).Height(l.Height).Render(content)
}
