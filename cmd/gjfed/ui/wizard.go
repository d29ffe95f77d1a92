package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"gjfed/internal/backup"
	"gjfed/internal/catalog"
	"gjfed/internal/session"
)

// Deps carries everything the wizard needs from the command layer.
type Deps struct {
	Catalog *catalog.Catalog
	Backups *backup.Store
	Logger  *zap.Logger
	Theme   string
}

// page enumerates the wizard screens.
type page int

const (
	pageFile page = iota
	pageSections
	pageEdit
	pageCategory
	pageKeyword
	pageParams
	pagePreview
	pageBackups
)

// Model is the top-level wizard state. One sub-state per page; the page field
// decides which one Update and View route to.
type Model struct {
	deps   Deps
	styles Styles

	page   page
	width  int
	height int
	status string
	errMsg string

	// pageFile
	pathInput textinput.Model

	// session state once a file is open
	sess    *session.Session
	section int

	// generic list cursor, reset on every page switch
	cursor int

	// pageCategory / pageKeyword
	categoryID string
	candidates []candidate

	// pageParams
	paramKeyword string
	paramEditing bool
	valueInput   textinput.Model

	// pageBackups
	backupNames []string
}

// NewModel builds the wizard in its initial (file selection) state.
func NewModel(deps Deps) Model {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	pi := textinput.New()
	pi.Placeholder = "path/to/input.gjf"
	pi.CharLimit = 256
	pi.Width = 60
	pi.Focus()

	vi := textinput.New()
	vi.CharLimit = 128
	vi.Width = 40

	return Model{
		deps:       deps,
		styles:     NewStyles(ThemeByName(deps.Theme)),
		page:       pageFile,
		pathInput:  pi,
		valueInput: vi,
	}
}

// Run starts the wizard and blocks until it exits.
func Run(deps Deps) error {
	p := tea.NewProgram(NewModel(deps), tea.WithAltScreen())
	final, err := p.Run()
	if fm, ok := final.(Model); ok && fm.sess != nil {
		_ = fm.sess.Close()
	}
	return err
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m.quit()
		}
	}

	switch m.page {
	case pageFile:
		return m.updateFile(msg)
	case pageSections:
		return m.updateSections(msg)
	case pageEdit:
		return m.updateEdit(msg)
	case pageCategory:
		return m.updateCategory(msg)
	case pageKeyword:
		return m.updateKeyword(msg)
	case pageParams:
		return m.updateParams(msg)
	case pagePreview:
		return m.updatePreview(msg)
	case pageBackups:
		return m.updateBackups(msg)
	}
	return m, nil
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	if m.sess != nil {
		_ = m.sess.Close()
	}
	return m, tea.Quit
}

// View implements tea.Model.
func (m Model) View() string {
	var body string
	switch m.page {
	case pageFile:
		body = m.viewFile()
	case pageSections:
		body = m.viewSections()
	case pageEdit:
		body = m.viewEdit()
	case pageCategory:
		body = m.viewCategory()
	case pageKeyword:
		body = m.viewKeyword()
	case pageParams:
		body = m.viewParams()
	case pagePreview:
		body = m.viewPreview()
	case pageBackups:
		body = m.viewBackups()
	}

	var extra []string
	if m.errMsg != "" {
		extra = append(extra, m.styles.Error.Render(m.errMsg))
	}
	if m.status != "" {
		extra = append(extra, m.styles.Success.Render(m.status))
	}
	if len(extra) > 0 {
		body += "\n" + strings.Join(extra, "\n")
	}
	return body + "\n"
}

// switchTo moves to another page, clearing the transient state every page
// shares.
func (m *Model) switchTo(p page) {
	m.page = p
	m.cursor = 0
	m.status = ""
	m.errMsg = ""
}

// --- file selection -------------------------------------------------------

func (m Model) updateFile(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc", "q":
			if !m.pathInput.Focused() || key.String() == "esc" {
				return m.quit()
			}
		case "enter":
			path := strings.TrimSpace(m.pathInput.Value())
			if path == "" {
				return m, nil
			}
			if err := m.openFile(path); err != nil {
				m.errMsg = err.Error()
				return m, nil
			}
			m.switchTo(pageSections)
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.pathInput, cmd = m.pathInput.Update(msg)
	return m, cmd
}

func (m *Model) openFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("cannot open %s: %v", path, err)
	}
	sess, err := session.Open(path, m.deps.Catalog, m.deps.Backups, m.deps.Logger)
	if err != nil {
		return err
	}
	if m.sess != nil {
		_ = m.sess.Close()
	}
	m.sess = sess
	m.section = 0
	return nil
}

func (m Model) viewFile() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("gjfed"))
	b.WriteString("\n")
	b.WriteString(m.styles.Subtitle.Render("Gaussian input keyword editor"))
	b.WriteString("\n\n")
	b.WriteString(m.styles.Prompt.Render("Open file: "))
	b.WriteString(m.pathInput.View())
	b.WriteString("\n")
	b.WriteString(m.styles.Footer.Render("enter open · esc quit"))
	return b.String()
}

// --- section selection ----------------------------------------------------

func (m Model) updateSections(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	n := len(m.sess.Sections())
	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < n-1 {
			m.cursor++
		}
	case "enter":
		if m.sess.Directive(m.cursor) == nil {
			m.errMsg = "this section has no editable route line"
			return m, nil
		}
		m.section = m.cursor
		m.switchTo(pageEdit)
	case "b":
		m.loadBackups()
		m.switchTo(pageBackups)
	case "esc", "q":
		if m.sess.Dirty() {
			m.errMsg = "unsaved changes; save from a section or press ctrl+c to discard"
			return m, nil
		}
		return m.quit()
	}
	return m, nil
}

func (m Model) viewSections() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render(m.sess.Path))
	b.WriteString("\n")
	if m.sess.Stale() {
		b.WriteString(m.styles.Warning.Render("file changed on disk since it was loaded"))
		b.WriteString("\n")
	}
	for i, sec := range m.sess.Sections() {
		label := sec.ID()
		if label == "" {
			label = "main"
		}
		line := label
		if set := m.sess.Directive(i); set != nil {
			line += "  " + m.styles.Muted.Render(strings.Join(set.Names(), " "))
			if res := m.sess.Result(i); res != nil && !res.OK() {
				line += "  " + m.styles.Error.Render(fmt.Sprintf("%d violation(s)", len(res.Violations)))
			}
		} else if sec.HasRoute() {
			line += "  " + m.styles.Error.Render("route line not parseable")
		} else {
			line += "  " + m.styles.Muted.Render("no route line")
		}
		if i == m.cursor {
			b.WriteString(m.styles.Selected.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	b.WriteString(m.styles.Footer.Render("enter edit · b backups · esc quit"))
	return b.String()
}

// --- backups --------------------------------------------------------------

func (m *Model) loadBackups() {
	names, err := m.deps.Backups.List("")
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	m.backupNames = names
}

func (m Model) updateBackups(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.backupNames)-1 {
			m.cursor++
		}
	case "esc", "q":
		m.switchTo(pageSections)
	}
	return m, nil
}

func (m Model) viewBackups() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Backups"))
	b.WriteString("\n")
	if len(m.backupNames) == 0 {
		b.WriteString(m.styles.Muted.Render("no backups yet"))
		b.WriteString("\n")
	}
	for i, name := range m.backupNames {
		base := filepath.Base(name)
		if i == m.cursor {
			b.WriteString(m.styles.Selected.Render("> " + base))
		} else {
			b.WriteString("  " + base)
		}
		b.WriteString("\n")
	}
	b.WriteString(m.styles.Footer.Render("esc back"))
	return b.String()
}
