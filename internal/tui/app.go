package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/clinote/clinote/internal/engine"
	"github.com/clinote/clinote/internal/tui/views"
)

// Session is the controller surface the TUI drives.
type Session interface {
	OnChange(fn func())
	Snapshot() engine.State
	Init(ctx context.Context)
	RefreshDoctors(ctx context.Context)
	SelectDoctor(ctx context.Context, id string)
	SetDoctorInput(text string)
	CreateDoctor(ctx context.Context)
	UploadSamples(ctx context.Context, paths []string)
	SelectDictation(path string)
	Generate(ctx context.Context)
}

// ViewType represents the current active view
type ViewType int

const (
	ViewDoctor ViewType = iota
	ViewSamples
	ViewDictation
	ViewHelp
)

// MenuItem represents a sidebar menu entry
type MenuItem struct {
	Label    string
	View     ViewType
	Shortcut string
}

// Options tunes a new AppModel.
type Options struct {
	// Doctor is selected at startup instead of the first listed doctor.
	Doctor string
	// Dir is where the file pickers start. Empty means the working directory.
	Dir string
}

// AppModel is the main TUI model
type AppModel struct {
	ctx     context.Context
	session Session
	changes *changeSignal
	doctor  string

	state engine.State

	// Layout state
	width        int
	height       int
	sidebarWidth int
	ready        bool

	// Navigation
	currentView   ViewType
	menuItems     []MenuItem
	selectedMenu  int
	sidebarActive bool

	doctorView    views.DoctorModel
	samplesView   views.SamplesModel
	dictationView views.DictationModel

	showHelp bool
}

// NewApp creates the TUI bound to session. Session operations run in
// commands under ctx.
func NewApp(ctx context.Context, session Session, opts Options) AppModel {
	changes := newChangeSignal()
	session.OnChange(changes.notify)

	samplesPicker := views.NewFilePickerModel(views.SampleExtensions, true)
	dictationPicker := views.NewFilePickerModel(views.AudioExtensions, false)
	if opts.Dir != "" {
		samplesPicker = views.NewFilePickerModelAt(opts.Dir, views.SampleExtensions, true)
		dictationPicker = views.NewFilePickerModelAt(opts.Dir, views.AudioExtensions, false)
	}

	return AppModel{
		ctx:          ctx,
		session:      session,
		changes:      changes,
		doctor:       opts.Doctor,
		state:        session.Snapshot(),
		sidebarWidth: 20,
		currentView:  ViewDoctor,
		menuItems: []MenuItem{
			{Label: "Doctor", View: ViewDoctor, Shortcut: "1"},
			{Label: "Samples", View: ViewSamples, Shortcut: "2"},
			{Label: "Dictation", View: ViewDictation, Shortcut: "3"},
			{Label: "Help", View: ViewHelp, Shortcut: "?"},
		},

		doctorView:    views.NewDoctorModel(),
		samplesView:   views.NewSamplesModel(samplesPicker),
		dictationView: views.NewDictationModel(dictationPicker),
	}
}

// Init loads the doctor list and starts listening for state changes.
func (m AppModel) Init() tea.Cmd {
	doctor := m.doctor
	return tea.Batch(
		textinput.Blink,
		m.changes.wait(),
		m.run(func(ctx context.Context) {
			if doctor != "" {
				m.session.SelectDoctor(ctx, doctor)
			}
			m.session.Init(ctx)
		}),
	)
}

// run executes fn off the UI goroutine; its effects arrive as state changes.
func (m AppModel) run(fn func(ctx context.Context)) tea.Cmd {
	return func() tea.Msg {
		fn(m.ctx)
		return nil
	}
}

func (m *AppModel) applyState(s engine.State) {
	m.state = s
	m.doctorView.SetState(s)
	m.samplesView.SetState(s)
	m.dictationView.SetState(s)
}

func (m *AppModel) switchTo(v ViewType) {
	if v == ViewHelp {
		m.showHelp = true
		return
	}
	m.currentView = v
	for i, item := range m.menuItems {
		if item.View == v {
			m.selectedMenu = i
			break
		}
	}
	m.sidebarActive = false
}

// Update handles messages
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.showHelp {
			m.showHelp = false
			return m, nil
		}
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		// The create-doctor input swallows everything but ctrl+c.
		if !(m.currentView == ViewDoctor && m.doctorView.Editing() && !m.sidebarActive) {
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "?":
				m.showHelp = true
				return m, nil
			case "esc":
				if m.sidebarActive {
					return m, tea.Quit
				}
				m.sidebarActive = true
				return m, nil
			case "1":
				m.switchTo(ViewDoctor)
				return m, nil
			case "2":
				m.switchTo(ViewSamples)
				return m, nil
			case "3":
				m.switchTo(ViewDictation)
				return m, nil
			case "tab":
				m.sidebarActive = !m.sidebarActive
				return m, nil
			}
		}

		if m.sidebarActive {
			switch msg.String() {
			case "j", "down":
				if m.selectedMenu < len(m.menuItems)-1 {
					m.selectedMenu++
				}
			case "k", "up":
				if m.selectedMenu > 0 {
					m.selectedMenu--
				}
			case "enter", "l", "right":
				m.switchTo(m.menuItems[m.selectedMenu].View)
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

		contentWidth := m.width - m.sidebarWidth - 4
		contentHeight := m.height - 2
		m.doctorView.SetSize(contentWidth, contentHeight)
		m.samplesView.SetSize(contentWidth, contentHeight)
		m.dictationView.SetSize(contentWidth, contentHeight)
		return m, nil

	case stateChangedMsg:
		m.applyState(m.session.Snapshot())
		return m, m.changes.wait()

	case views.SelectDoctorMsg:
		return m, m.run(func(ctx context.Context) { m.session.SelectDoctor(ctx, msg.ID) })

	case views.RefreshDoctorsMsg:
		return m, m.run(m.session.RefreshDoctors)

	case views.CreateDoctorMsg:
		return m, m.run(m.session.CreateDoctor)

	case views.UploadSamplesMsg:
		paths := msg.Paths
		return m, m.run(func(ctx context.Context) { m.session.UploadSamples(ctx, paths) })

	case views.FileSelectedMsg:
		m.session.SelectDictation(msg.Path)
		m.applyState(m.session.Snapshot())
		return m, nil

	case views.GenerateMsg:
		return m, m.run(m.session.Generate)
	}

	var cmd tea.Cmd
	switch m.currentView {
	case ViewDoctor:
		m.doctorView, cmd = m.doctorView.Update(msg)
		if v := m.doctorView.InputValue(); v != m.state.DoctorInput {
			m.session.SetDoctorInput(v)
			m.applyState(m.session.Snapshot())
		}
	case ViewSamples:
		m.samplesView, cmd = m.samplesView.Update(msg)
	case ViewDictation:
		m.dictationView, cmd = m.dictationView.Update(msg)
	}
	return m, cmd
}

// View renders the UI
func (m AppModel) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	var content string
	switch m.currentView {
	case ViewDoctor:
		content = m.doctorView.View()
	case ViewSamples:
		content = m.samplesView.View()
	case ViewDictation:
		content = m.dictationView.View()
	}

	mainContent := ContentStyle.
		Width(m.width - m.sidebarWidth - 4).
		Height(m.height - 2).
		Render(content)

	return lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(), mainContent)
}

func (m AppModel) renderSidebar() string {
	var items []string

	items = append(items, SidebarTitleStyle.Render(" clinote "))
	items = append(items, "")

	for i, item := range m.menuItems {
		label := item.Shortcut + ". " + item.Label

		style := SidebarItemStyle
		if i == m.selectedMenu {
			if m.sidebarActive {
				style = SidebarItemActiveStyle
			} else {
				style = SidebarItemStyle.Bold(true).Foreground(ColorSecondary)
			}
		}
		items = append(items, style.Render(label))
	}

	items = append(items, "")
	doctor := m.state.DoctorID
	if doctor == "" {
		doctor = "-"
	}
	items = append(items, SidebarDoctorStyle.Render("Dr "+doctor))

	usedHeight := len(items) + 4
	for i := 0; i < m.height-usedHeight-2; i++ {
		items = append(items, "")
	}
	items = append(items, SidebarHelpStyle.Render("? Help  q Quit"))

	return SidebarStyle.
		Width(m.sidebarWidth).
		Height(m.height - 2).
		Render(lipgloss.JoinVertical(lipgloss.Left, items...))
}

func (m AppModel) renderHelp() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorPrimary).
		MarginBottom(1)

	sectionStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorSecondary).
		MarginTop(1)

	keyStyle := lipgloss.NewStyle().
		Foreground(ColorAccent).
		Width(12)

	descStyle := lipgloss.NewStyle().
		Foreground(ColorText)

	row := func(k, d string) string {
		return keyStyle.Render(k) + descStyle.Render(d) + "\n"
	}

	helpText := titleStyle.Render("clinote - typing engine") + "\n\n"

	helpText += sectionStyle.Render("Global Keys") + "\n"
	helpText += row("1-3", "Switch views")
	helpText += row("tab", "Toggle sidebar focus")
	helpText += row("?", "Show this help")
	helpText += row("q", "Quit")

	helpText += sectionStyle.Render("Doctor") + "\n"
	helpText += row("enter", "Make doctor active")
	helpText += row("n", "Type a new doctor code")
	helpText += row("r", "Reload doctor list")

	helpText += sectionStyle.Render("Samples") + "\n"
	helpText += row("space", "Mark .txt/.docx file")
	helpText += row("u", "Upload marked files")

	helpText += sectionStyle.Render("Dictation") + "\n"
	helpText += row("enter", "Choose audio file")
	helpText += row("g", "Generate draft")
	helpText += row("y", "Copy draft path")

	helpText += "\n" + lipgloss.NewStyle().
		Foreground(ColorMuted).
		Italic(true).
		Render("Press any key to close")

	helpBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorSecondary).
		Padding(1, 2).
		Width(50).
		Render(helpText)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, helpBox)
}
