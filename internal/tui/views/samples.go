package views

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/clinote/clinote/internal/engine"
)

// SampleExtensions are the style-sample file types the backend accepts.
var SampleExtensions = []string{".txt", ".docx"}

// UploadSamplesMsg asks for the files to be uploaded in order.
type UploadSamplesMsg struct {
	Paths []string
}

// SamplesModel picks style-sample files and uploads them for the active doctor.
type SamplesModel struct {
	state  engine.State
	picker FilePickerModel

	width  int
	height int
}

// NewSamplesModel creates the samples view.
func NewSamplesModel(picker FilePickerModel) SamplesModel {
	return SamplesModel{picker: picker}
}

// SetSize updates the view dimensions.
func (m *SamplesModel) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.picker.SetSize(width, height)
}

// SetState replaces the rendered state.
func (m *SamplesModel) SetState(s engine.State) {
	m.state = s
}

// Picker exposes the embedded file picker.
func (m SamplesModel) Picker() FilePickerModel { return m.picker }

func (m SamplesModel) canUpload() bool {
	return !m.state.Samples.Uploading && m.state.DoctorID != ""
}

// pending returns the files an upload would send: the marked files, or the
// highlighted one when nothing is marked.
func (m SamplesModel) pending() []string {
	if marked := m.picker.Marked(); len(marked) > 0 {
		return marked
	}
	if cur := m.picker.Current(); cur != "" {
		return []string{cur}
	}
	return nil
}

// Update handles messages.
func (m SamplesModel) Update(msg tea.Msg) (SamplesModel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "u" {
		paths := m.pending()
		if !m.canUpload() || len(paths) == 0 {
			return m, nil
		}
		m.picker.ClearMarks()
		return m, func() tea.Msg { return UploadSamplesMsg{Paths: paths} }
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	return m, cmd
}

// View renders the samples view.
func (m SamplesModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Style Samples"))
	b.WriteString("\n")

	doctor := m.state.DoctorID
	if doctor == "" {
		doctor = "none"
	}
	b.WriteString(fmt.Sprintf("%s %s   %s %d  %s\n\n",
		headerStyle.Render("Doctor:"), valueStyle.Render(doctor),
		headerStyle.Render("Samples:"), m.state.SampleCount, mutedStyle.Render(m.state.StyleLabel())))

	b.WriteString(m.picker.View())
	b.WriteString("\n")

	label := "Upload"
	if n := len(m.pending()); n > 1 {
		label = fmt.Sprintf("Upload %d files", n)
	}
	b.WriteString(button(label, m.canUpload() && len(m.pending()) > 0))
	if st := m.state.Samples.Status; st != "" {
		style := valueStyle
		if m.state.Samples.Failed {
			style = errorStyle
		}
		b.WriteString("  " + style.Render(st))
	}
	b.WriteString("\n")

	b.WriteString(helpStyle.Render("space/enter: mark • u: upload • backspace: parent • ~: home"))
	return b.String()
}
