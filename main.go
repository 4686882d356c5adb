package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"axec/internal/config"
	"axec/internal/desktop"
	"axec/internal/icon"
	"axec/internal/logging"
	"axec/internal/models"
	"axec/internal/overrides"
	"axec/internal/registry"
	"axec/internal/storage"
	"axec/internal/ui"
	"axec/internal/ui/components"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Version info (set by ldflags)
var (
	version = "dev"
)

// Screen represents different screens in the app
type Screen int

const (
	ScreenMain Screen = iota
	ScreenAdd           // File picker for importing an AppImage
	ScreenAdding        // Import in progress (copy + icon extraction)
	ScreenConfirmRemove // Confirmation dialog before removal
	ScreenRename        // Display-name input
	ScreenPreview       // Desktop-entry preview
	ScreenHelp
)

// Model is the main application model
type Model struct {
	reg  *registry.Registry
	mode storage.Mode

	// UI Components
	entryList  *components.EntryList
	preview    *components.EntryPreview
	spinner    spinner.Model
	filePicker filepicker.Model
	textInput  textinput.Model
	help       help.Model
	keys       ui.KeyMap

	// State
	screen        Screen
	status        string
	width         int
	height        int
	confirmRemove *models.AppImageEntry
	confirmCursor int

	err error
}

// Messages
type entriesLoadedMsg struct {
	entries []models.AppImageEntry
	err     error
}

type addCompleteMsg struct {
	entry *models.AppImageEntry
	err   error
}

type removeCompleteMsg struct {
	id  string
	err error
}

type launchCompleteMsg struct {
	id  string
	err error
}

type renameCompleteMsg struct {
	err error
}

// New builds the application model around a configured registry.
func New(reg *registry.Registry, mode storage.Mode) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(ui.Primary)

	fp := filepicker.New()
	fp.AllowedTypes = []string{".AppImage", ".appimage"}
	fp.CurrentDirectory, _ = os.UserHomeDir()
	fp.ShowHidden = false

	ti := textinput.New()
	ti.Placeholder = "Display name"
	ti.CharLimit = 128
	ti.Width = 50

	return &Model{
		reg:        reg,
		mode:       mode,
		entryList:  components.NewEntryList(nil),
		preview:    components.NewEntryPreview(),
		spinner:    s,
		filePicker: fp,
		textInput:  ti,
		help:       help.New(),
		keys:       ui.DefaultKeyMap(),
		screen:     ScreenMain,
		status:     "Ready",
		width:      80,
		height:     24,
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadEntries)
}

func (m *Model) loadEntries() tea.Msg {
	entries, err := m.reg.List()
	if err == nil {
		// Directory enumeration order is platform noise; the view sorts.
		sort.Slice(entries, func(i, j int) bool {
			return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
		})
	}
	return entriesLoadedMsg{entries: entries, err: err}
}

func (m *Model) addBundle(path string) tea.Cmd {
	return func() tea.Msg {
		entry, err := m.reg.Add(path)
		return addCompleteMsg{entry: entry, err: err}
	}
}

func (m *Model) removeBundle(id string) tea.Cmd {
	return func() tea.Msg {
		return removeCompleteMsg{id: id, err: m.reg.Remove(id)}
	}
}

func (m *Model) launchBundle(id string) tea.Cmd {
	return func() tea.Msg {
		return launchCompleteMsg{id: id, err: m.reg.Launch(id)}
	}
}

func (m *Model) renameBundle(id, name string) tea.Cmd {
	return func() tea.Msg {
		return renameCompleteMsg{err: m.reg.Rename(id, name)}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.entryList.Width = m.width - 4
		m.entryList.Height = m.height - 10
		m.preview.SetSize(m.width-4, m.height-6)
		m.filePicker.Height = m.height - 10
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case entriesLoadedMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
			m.err = msg.err
		} else {
			m.entryList.SetEntries(msg.entries)
			m.status = fmt.Sprintf("%d AppImages installed", len(msg.entries))
		}

	case addCompleteMsg:
		m.screen = ScreenMain
		if msg.err != nil {
			m.status = fmt.Sprintf("Add failed: %v", msg.err)
			return m, nil
		}
		if m.mode == storage.ModeSandboxed {
			m.status = fmt.Sprintf("Added %s (menu entry skipped in sandbox)", msg.entry.Name)
		} else {
			m.status = fmt.Sprintf("Added %s", msg.entry.Name)
		}
		return m, m.loadEntries

	case removeCompleteMsg:
		m.screen = ScreenMain
		if msg.err != nil {
			m.status = fmt.Sprintf("Remove failed: %v", msg.err)
			return m, nil
		}
		m.status = fmt.Sprintf("Removed %s", msg.id)
		return m, m.loadEntries

	case launchCompleteMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Launch failed: %v", msg.err)
		} else {
			m.status = fmt.Sprintf("Launched %s", msg.id)
		}

	case renameCompleteMsg:
		m.screen = ScreenMain
		if msg.err != nil {
			m.status = fmt.Sprintf("Rename failed: %v", msg.err)
			return m, nil
		}
		m.status = "Renamed"
		return m, m.loadEntries
	}

	if m.screen == ScreenAdd {
		var cmd tea.Cmd
		m.filePicker, cmd = m.filePicker.Update(msg)
		cmds = append(cmds, cmd)

		if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
			m.screen = ScreenAdding
			m.status = "Importing " + path
			cmds = append(cmds, m.addBundle(path))
		}
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.screen {
	case ScreenAdd:
		return m.handleAddKeys(msg)
	case ScreenConfirmRemove:
		return m.handleConfirmRemoveKeys(msg)
	case ScreenRename:
		return m.handleRenameKeys(msg)
	case ScreenPreview:
		return m.handlePreviewKeys(msg)
	case ScreenHelp:
		if key.Matches(msg, m.keys.Escape, m.keys.Help, m.keys.Quit) {
			m.screen = ScreenMain
		}
		return m, nil
	case ScreenAdding:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		return m, nil
	}

	return m.handleMainKeys(msg)
}

func (m *Model) handleMainKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.screen = ScreenHelp
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.entryList.MoveUp()
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.entryList.MoveDown()
		return m, nil

	case key.Matches(msg, m.keys.PageUp):
		m.entryList.PageUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.entryList.PageDown()
		return m, nil

	case key.Matches(msg, m.keys.Home):
		m.entryList.GoToFirst()
		return m, nil

	case key.Matches(msg, m.keys.End):
		m.entryList.GoToLast()
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		m.status = "Refreshing..."
		return m, m.loadEntries

	case key.Matches(msg, m.keys.Add):
		m.screen = ScreenAdd
		m.status = "Pick an AppImage to import"
		return m, m.filePicker.Init()

	case key.Matches(msg, m.keys.Remove):
		if entry := m.entryList.Current(); entry != nil {
			m.confirmRemove = entry
			m.confirmCursor = 1 // Default to Cancel
			m.screen = ScreenConfirmRemove
		}
		return m, nil

	case key.Matches(msg, m.keys.Launch), key.Matches(msg, m.keys.Enter):
		if entry := m.entryList.Current(); entry != nil {
			m.status = "Launching " + entry.Name + "..."
			return m, m.launchBundle(entry.ID)
		}
		return m, nil

	case key.Matches(msg, m.keys.Rename):
		if entry := m.entryList.Current(); entry != nil {
			m.textInput.SetValue(entry.Name)
			m.textInput.Focus()
			m.screen = ScreenRename
			m.status = "Enter to save, empty name reverts, Esc cancels"
			return m, textinput.Blink
		}
		return m, nil

	case key.Matches(msg, m.keys.Preview):
		if entry := m.entryList.Current(); entry != nil {
			content := desktop.Render(entry.Name, entry.Path, entry.IconPath)
			written := false
			if _, err := os.Stat(entry.DesktopFile); err == nil {
				written = true
			}
			m.preview.SetSize(m.width-4, m.height-6)
			m.preview.SetContent(entry.Name, entry.DesktopFile, content, written)
			m.screen = ScreenPreview
			m.status = "j/k scroll, q to close"
		}
		return m, nil
	}

	return m, nil
}

func (m *Model) handleAddKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Escape) {
		m.screen = ScreenMain
		m.status = "Ready"
		return m, nil
	}

	var cmd tea.Cmd
	m.filePicker, cmd = m.filePicker.Update(msg)

	if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
		m.screen = ScreenAdding
		m.status = "Importing " + path
		return m, tea.Batch(cmd, m.addBundle(path))
	}
	return m, cmd
}

func (m *Model) handleConfirmRemoveKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "left", "h", "right", "l", "tab":
		m.confirmCursor = 1 - m.confirmCursor
	case "enter", " ":
		if m.confirmCursor == 0 && m.confirmRemove != nil {
			id := m.confirmRemove.ID
			m.confirmRemove = nil
			return m, m.removeBundle(id)
		}
		m.screen = ScreenMain
		m.confirmRemove = nil
		m.status = "Remove cancelled"
	case "esc", "q", "n":
		m.screen = ScreenMain
		m.confirmRemove = nil
		m.status = "Remove cancelled"
	case "y":
		if m.confirmRemove != nil {
			id := m.confirmRemove.ID
			m.confirmRemove = nil
			return m, m.removeBundle(id)
		}
	}
	return m, nil
}

func (m *Model) handleRenameKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		entry := m.entryList.Current()
		m.textInput.Blur()
		if entry == nil {
			m.screen = ScreenMain
			return m, nil
		}
		return m, m.renameBundle(entry.ID, strings.TrimSpace(m.textInput.Value()))
	case "esc":
		m.textInput.Blur()
		m.screen = ScreenMain
		m.status = "Rename cancelled"
		return m, nil
	default:
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		return m, cmd
	}
}

func (m *Model) handlePreviewKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Escape, m.keys.Quit, m.keys.Preview) {
		m.screen = ScreenMain
		m.status = "Ready"
		return m, nil
	}
	var cmd tea.Cmd
	m.preview, cmd = m.preview.Update(msg)
	return m, cmd
}

func (m *Model) View() string {
	switch m.screen {
	case ScreenAdd:
		return m.renderAdd()
	case ScreenAdding:
		return m.renderAdding()
	case ScreenConfirmRemove:
		return m.renderConfirmRemove()
	case ScreenRename:
		return m.renderRename()
	case ScreenPreview:
		return m.renderPreview()
	case ScreenHelp:
		return m.renderHelp()
	default:
		return m.renderMain()
	}
}

func (m *Model) renderHeader() string {
	title := ui.TitleStyle.Render("axec") + " " + ui.VersionStyle.Render(version)
	if m.mode == storage.ModeSandboxed {
		title += "  " + ui.SandboxBadgeStyle.Render("[sandboxed]")
	}
	return ui.HeaderStyle.Render(title)
}

func (m *Model) renderStatusBar() string {
	return ui.StatusBarStyle.Render(m.status)
}

func (m *Model) renderMain() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.entryList.View())
	b.WriteString("\n")

	if entry := m.entryList.Current(); entry != nil {
		b.WriteString(m.renderDetails(entry))
		b.WriteString("\n")
	}

	b.WriteString(m.renderStatusBar())
	b.WriteString("\n")
	b.WriteString(ui.HelpBarStyle.Render(m.help.ShortHelpView(m.keys.ShortHelp())))

	return ui.AppStyle.Render(b.String())
}

func (m *Model) renderDetails(entry *models.AppImageEntry) string {
	var b strings.Builder

	row := func(label, value string) {
		b.WriteString(ui.LabelStyle.Render(label))
		b.WriteString(ui.ValueStyle.Render(value))
		b.WriteString("\n")
	}

	row("Bundle", entry.Path)
	if entry.HasIcon() {
		row("Icon", entry.IconPath)
	} else {
		row("Icon", "none extracted")
	}
	if m.mode == storage.ModeSandboxed {
		row("Menu entry", entry.DesktopFile+" (not written in sandbox)")
	} else {
		row("Menu entry", entry.DesktopFile)
	}

	return ui.PanelStyle.Width(m.width - 4).Render(strings.TrimRight(b.String(), "\n"))
}

func (m *Model) renderAdd() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(ui.PanelTitleStyle.Render("Import AppImage"))
	b.WriteString("\n")
	b.WriteString(m.filePicker.View())
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n")
	b.WriteString(ui.HelpBarStyle.Render(ui.RenderHelpItem("enter", "select") + "  " + ui.RenderHelpItem("esc", "cancel")))

	return ui.AppStyle.Render(b.String())
}

func (m *Model) renderAdding() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")
	b.WriteString("  " + m.spinner.View() + " " + m.status)
	b.WriteString("\n\n")
	b.WriteString(ui.MutedStyle.Render("  Copying bundle and extracting icon..."))

	return ui.AppStyle.Render(b.String())
}

func (m *Model) renderConfirmRemove() string {
	if m.confirmRemove == nil {
		return m.renderMain()
	}

	var b strings.Builder
	title := lipgloss.NewStyle().Bold(true).Foreground(ui.Error).Render("Remove AppImage")
	b.WriteString(title)
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("Remove %s (%s)?\n", m.confirmRemove.Name, m.confirmRemove.ID))
	b.WriteString(ui.MutedStyle.Render("The bundle, its icon and its menu entry will be deleted."))
	b.WriteString("\n\n")
	b.WriteString(ui.RenderButton("Remove", m.confirmCursor == 0))
	b.WriteString("  ")
	b.WriteString(ui.RenderButton("Cancel", m.confirmCursor == 1))
	b.WriteString("\n\n")
	b.WriteString(ui.HelpBarStyle.Render("←/→ choose · enter confirm · esc cancel"))

	box := ui.DialogStyle.Render(b.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m *Model) renderRename() string {
	entry := m.entryList.Current()
	if entry == nil {
		return m.renderMain()
	}

	var b strings.Builder
	title := lipgloss.NewStyle().Bold(true).Foreground(ui.Primary).Render("Rename " + entry.ID)
	b.WriteString(title)
	b.WriteString("\n\n")
	b.WriteString("New display name (only the label changes, files keep their id):\n\n")
	b.WriteString(m.textInput.View())
	b.WriteString("\n\n")
	b.WriteString(ui.HelpBarStyle.Render("enter save · esc cancel"))

	box := ui.DialogStyle.Render(b.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m *Model) renderPreview() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.preview.View())
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())

	return ui.AppStyle.Render(b.String())
}

func (m *Model) renderHelp() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(ui.PanelTitleStyle.Render("Keybindings"))
	b.WriteString("\n\n")
	b.WriteString(m.help.FullHelpView(m.keys.FullHelp()))
	b.WriteString("\n\n")
	b.WriteString(ui.MutedStyle.Render("Storage: bundles and icons live under the XDG data dir; menu entries"))
	b.WriteString("\n")
	b.WriteString(ui.MutedStyle.Render("go to ~/.local/share/applications unless running inside Flatpak."))
	b.WriteString("\n\n")
	b.WriteString(ui.HelpBarStyle.Render("esc/? to close"))

	return ui.AppStyle.Render(b.String())
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "axec: config: %v\n", err)
		os.Exit(1)
	}

	log := logging.NewLogger(logging.Config{
		Level:   cfg.LogLevel,
		LogFile: cfg.LogFile,
	})

	mode := storage.DetectMode()
	log.Debug().Stringer("mode", mode).Msg("starting")

	reg := registry.New(
		storage.NewLocator(mode),
		icon.NewExtractor(icon.ExecRunner{}, log),
		overrides.New(cfg.OverridesPath),
		nil,
		log,
	)

	if cfg.FirstRun {
		if err := cfg.Save(); err != nil {
			log.Warn().Err(err).Msg("could not persist default config")
		}
	}

	p := tea.NewProgram(New(reg, mode), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "axec: %v\n", err)
		os.Exit(1)
	}
}
