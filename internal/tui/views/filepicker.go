package views

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// FileSelectedMsg is sent when a file is picked in single-select mode.
type FileSelectedMsg struct {
	Path string
}

var (
	fpPathStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			Italic(true)

	fpDirStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ecdc4")).
			Bold(true)

	fpFileStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f1faee"))

	fpMarkedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#a8e6cf"))
)

// FileEntry represents a file or directory
type FileEntry struct {
	Name  string
	IsDir bool
	Path  string
}

// FilePickerModel browses the filesystem and picks files by extension.
// In multi mode enter and space mark files instead of emitting FileSelectedMsg.
type FilePickerModel struct {
	currentDir string
	entries    []FileEntry
	selected   int
	offset     int // For scrolling

	extensions []string // Filter to these extensions
	multi      bool
	marked     map[string]bool
	order      []string // marked paths in the order they were marked

	err error

	width  int
	height int
}

// NewFilePickerModel creates a picker rooted at the working directory.
func NewFilePickerModel(extensions []string, multi bool) FilePickerModel {
	startDir, err := os.Getwd()
	if err != nil {
		startDir, _ = os.UserHomeDir()
	}
	if startDir == "" {
		startDir = "/"
	}
	return NewFilePickerModelAt(startDir, extensions, multi)
}

// NewFilePickerModelAt creates a picker rooted at dir.
func NewFilePickerModelAt(dir string, extensions []string, multi bool) FilePickerModel {
	m := FilePickerModel{
		currentDir: dir,
		extensions: extensions,
		multi:      multi,
		marked:     map[string]bool{},
	}
	m.loadDir()
	return m
}

// SetSize updates the view dimensions.
func (m *FilePickerModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Dir returns the directory being browsed.
func (m FilePickerModel) Dir() string { return m.currentDir }

// Entries returns the visible entries.
func (m FilePickerModel) Entries() []FileEntry { return m.entries }

// Marked returns the marked files in marking order.
func (m FilePickerModel) Marked() []string {
	return append([]string(nil), m.order...)
}

// ClearMarks unmarks every file.
func (m *FilePickerModel) ClearMarks() {
	m.marked = map[string]bool{}
	m.order = nil
}

// Current returns the highlighted file, or "" when a directory is highlighted.
func (m FilePickerModel) Current() string {
	if m.selected < len(m.entries) && !m.entries[m.selected].IsDir {
		return m.entries[m.selected].Path
	}
	return ""
}

// loadDir loads the entries from the current directory
func (m *FilePickerModel) loadDir() {
	m.entries = nil
	m.selected = 0
	m.offset = 0
	m.err = nil

	entries, err := os.ReadDir(m.currentDir)
	if err != nil {
		m.err = err
		return
	}

	if m.currentDir != "/" {
		m.entries = append(m.entries, FileEntry{
			Name:  "..",
			IsDir: true,
			Path:  filepath.Dir(m.currentDir),
		})
	}

	var dirs, files []FileEntry
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		fe := FileEntry{
			Name:  entry.Name(),
			IsDir: entry.IsDir(),
			Path:  filepath.Join(m.currentDir, entry.Name()),
		}

		if entry.IsDir() {
			dirs = append(dirs, fe)
		} else if m.matchesExtension(entry.Name()) {
			files = append(files, fe)
		}
	}

	sort.Slice(dirs, func(i, j int) bool {
		return strings.ToLower(dirs[i].Name) < strings.ToLower(dirs[j].Name)
	})
	sort.Slice(files, func(i, j int) bool {
		return strings.ToLower(files[i].Name) < strings.ToLower(files[j].Name)
	})

	// Dirs first, then files
	m.entries = append(m.entries, dirs...)
	m.entries = append(m.entries, files...)
}

func (m *FilePickerModel) matchesExtension(name string) bool {
	if len(m.extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range m.extensions {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}

func (m *FilePickerModel) toggle(path string) {
	if m.marked[path] {
		delete(m.marked, path)
		for i, p := range m.order {
			if p == path {
				m.order = append(m.order[:i], m.order[i+1:]...)
				break
			}
		}
		return
	}
	m.marked[path] = true
	m.order = append(m.order, path)
}

// Update handles messages.
func (m FilePickerModel) Update(msg tea.Msg) (FilePickerModel, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "j", "down":
		if m.selected < len(m.entries)-1 {
			m.selected++
			m.adjustScroll()
		}
	case "k", "up":
		if m.selected > 0 {
			m.selected--
			m.adjustScroll()
		}
	case "enter", "l", "right", " ":
		if m.selected >= len(m.entries) {
			return m, nil
		}
		entry := m.entries[m.selected]
		switch {
		case entry.IsDir:
			if key.String() != " " {
				m.currentDir = entry.Path
				m.loadDir()
			}
		case m.multi:
			m.toggle(entry.Path)
		default:
			return m, func() tea.Msg {
				return FileSelectedMsg{Path: entry.Path}
			}
		}
	case "backspace", "h":
		parent := filepath.Dir(m.currentDir)
		if parent != m.currentDir {
			m.currentDir = parent
			m.loadDir()
		}
	case "~":
		home, _ := os.UserHomeDir()
		if home != "" {
			m.currentDir = home
			m.loadDir()
		}
	case "home":
		m.selected = 0
		m.offset = 0
	case "end":
		m.selected = max(len(m.entries)-1, 0)
		m.adjustScroll()
	case "ctrl+d":
		m.selected = min(m.selected+m.visibleHeight()/2, max(len(m.entries)-1, 0))
		m.adjustScroll()
	case "ctrl+u":
		m.selected = max(m.selected-m.visibleHeight()/2, 0)
		m.adjustScroll()
	}
	return m, nil
}

func (m *FilePickerModel) visibleHeight() int {
	h := m.height - 14 // header, status and help of the enclosing view
	if h < 5 {
		h = 5
	}
	return h
}

func (m *FilePickerModel) adjustScroll() {
	visible := m.visibleHeight()
	if m.selected < m.offset {
		m.offset = m.selected
	}
	if m.selected >= m.offset+visible {
		m.offset = m.selected - visible + 1
	}
}

// View renders the file list.
func (m FilePickerModel) View() string {
	var b strings.Builder

	b.WriteString(fpPathStyle.Render(m.currentDir))
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		b.WriteString("\n")
	}

	rule := dividerStyle.Render(strings.Repeat("─", max(min(m.width-4, 60), 10)))
	b.WriteString(rule)
	b.WriteString("\n")

	if len(m.entries) == 0 || (len(m.entries) == 1 && m.entries[0].Name == "..") {
		b.WriteString(mutedStyle.Render("  (no " + strings.Join(m.extensions, "/") + " files here)"))
		b.WriteString("\n")
	}

	nameWidth := max(m.width-16, 20)
	end := min(m.offset+m.visibleHeight(), len(m.entries))
	for i := m.offset; i < end; i++ {
		entry := m.entries[i]

		icon := "[FILE] "
		if entry.IsDir {
			icon = "[DIR]  "
		} else if m.marked[entry.Path] {
			icon = "[x]    "
		} else if m.multi {
			icon = "[ ]    "
		}
		line := icon + runewidth.Truncate(entry.Name, nameWidth, "…")

		style := fpFileStyle
		switch {
		case i == m.selected:
			style = selectedStyle
		case entry.IsDir:
			style = fpDirStyle
		case m.marked[entry.Path]:
			style = fpMarkedStyle
		}

		prefix := "  "
		if i == m.selected {
			prefix = "> "
		}
		b.WriteString(prefix)
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}

	if len(m.entries) > m.visibleHeight() {
		b.WriteString(mutedStyle.Render("  ↕ scroll"))
		b.WriteString("\n")
	}
	b.WriteString(rule)

	return b.String()
}
