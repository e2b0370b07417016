package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/clinote/clinote/internal/engine"
)

// SelectDoctorMsg asks for id to become the active doctor.
type SelectDoctorMsg struct {
	ID string
}

// CreateDoctorMsg asks for the typed doctor code to be registered.
type CreateDoctorMsg struct{}

// RefreshDoctorsMsg asks for the doctor list to be reloaded.
type RefreshDoctorsMsg struct{}

// DoctorModel lists doctors, shows the active doctor's sample count and
// registers new doctor codes.
type DoctorModel struct {
	state  engine.State
	cursor int

	input   textinput.Model
	editing bool

	width  int
	height int
}

// NewDoctorModel creates the doctor view.
func NewDoctorModel() DoctorModel {
	ti := textinput.New()
	ti.Placeholder = "New doctor code"
	ti.CharLimit = 32
	ti.Width = 24
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ecdc4"))
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffe66d"))

	return DoctorModel{input: ti}
}

// SetSize updates the view dimensions.
func (m *DoctorModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// SetState replaces the rendered state. The cursor jumps to the active doctor
// when it changes and the input mirrors the controller's copy of it.
func (m *DoctorModel) SetState(s engine.State) {
	prev := m.state
	m.state = s
	if s.DoctorID != prev.DoctorID || len(s.Doctors) != len(prev.Doctors) {
		for i, d := range s.Doctors {
			if d.Value == s.DoctorID {
				m.cursor = i
				break
			}
		}
	}
	if m.cursor >= len(s.Doctors) {
		m.cursor = max(len(s.Doctors)-1, 0)
	}
	if m.input.Value() != s.DoctorInput {
		m.input.SetValue(s.DoctorInput)
	}
}

// Editing reports whether the create-doctor input has focus.
func (m DoctorModel) Editing() bool { return m.editing }

// InputValue returns the text in the create-doctor input.
func (m DoctorModel) InputValue() string { return m.input.Value() }

// Update handles messages.
func (m DoctorModel) Update(msg tea.Msg) (DoctorModel, tea.Cmd) {
	if m.editing {
		return m.updateInput(msg)
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "j", "down":
		if m.cursor < len(m.state.Doctors)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "enter":
		if m.cursor < len(m.state.Doctors) {
			id := m.state.Doctors[m.cursor].Value
			return m, func() tea.Msg { return SelectDoctorMsg{ID: id} }
		}
	case "n", "i":
		m.editing = true
		cmd := m.input.Focus()
		return m, cmd
	case "r":
		return m, func() tea.Msg { return RefreshDoctorsMsg{} }
	}
	return m, nil
}

func (m DoctorModel) updateInput(msg tea.Msg) (DoctorModel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			m.editing = false
			m.input.Blur()
			return m, nil
		case "enter":
			s := m.state
			s.DoctorInput = m.input.Value()
			if !s.CanCreateDoctor() {
				return m, nil
			}
			return m, func() tea.Msg { return CreateDoctorMsg{} }
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the doctor view.
func (m DoctorModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Doctor"))
	b.WriteString("\n")

	b.WriteString(headerStyle.Render("Doctors"))
	b.WriteString("\n")
	if len(m.state.Doctors) == 0 {
		b.WriteString(mutedStyle.Render("  No doctors available"))
		b.WriteString("\n")
	}
	for i, d := range m.state.Doctors {
		prefix := "  "
		if i == m.cursor && !m.editing {
			prefix = "> "
		}
		line := d.Label
		if d.Value == m.state.DoctorID {
			line += " ●"
		}
		style := valueStyle
		if i == m.cursor && !m.editing {
			style = selectedStyle
		}
		b.WriteString(prefix + style.Render(line) + "\n")
	}
	b.WriteString("\n")

	b.WriteString(boxStyle.Render(m.renderSamples()))
	b.WriteString("\n\n")

	b.WriteString(headerStyle.Render("Create doctor profile"))
	b.WriteString("\n")
	label := "Create"
	if m.state.CreatingDoctor {
		label = "Creating…"
	}
	s := m.state
	s.DoctorInput = m.input.Value()
	b.WriteString(m.input.View() + "  " + button(label, s.CanCreateDoctor()))
	b.WriteString("\n")

	if m.editing {
		b.WriteString(helpStyle.Render("enter: create • esc: back to list"))
	} else {
		b.WriteString(helpStyle.Render("j/k: move • enter: select • n: new doctor • r: reload"))
	}
	return b.String()
}

func (m DoctorModel) renderSamples() string {
	if m.state.DoctorID == "" {
		return mutedStyle.Render("No doctor selected")
	}
	label := warnStyle.Render(m.state.StyleLabel())
	if m.state.StyleEngineActive() {
		label = activeStyle.Render(m.state.StyleLabel())
	}
	return fmt.Sprintf("%s %s\n%s %s  %s",
		headerStyle.Render("Active:"), valueStyle.Render(m.state.DoctorID),
		headerStyle.Render("Samples:"), valueStyle.Render(fmt.Sprint(m.state.SampleCount)), label)
}
