package views

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/clinote/clinote/internal/clipboard"
	"github.com/clinote/clinote/internal/engine"
)

// AudioExtensions are the dictation formats offered by the picker.
var AudioExtensions = []string{".wav", ".mp3", ".m4a", ".ogg", ".webm", ".flac", ".aac"}

// GenerateMsg asks for the selected dictation to be turned into a draft.
type GenerateMsg struct{}

type clearCopiedMsg struct{}

func clearCopiedAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return clearCopiedMsg{}
	})
}

// DictationModel picks a dictation file, generates the draft and shows progress.
type DictationModel struct {
	state  engine.State
	picker FilePickerModel
	bar    progress.Model

	canCopy  bool
	copyText func(string) error
	copied   bool

	width  int
	height int
}

// NewDictationModel creates the dictation view.
func NewDictationModel(picker FilePickerModel) DictationModel {
	return DictationModel{
		picker:   picker,
		bar:      progress.New(progress.WithDefaultGradient()),
		canCopy:  clipboard.Available(),
		copyText: clipboard.Write,
	}
}

// SetSize updates the view dimensions.
func (m *DictationModel) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.picker.SetSize(width, height)
	m.bar.Width = max(min(width-8, 60), 10)
}

// SetState replaces the rendered state.
func (m *DictationModel) SetState(s engine.State) {
	m.state = s
}

// Update handles messages.
func (m DictationModel) Update(msg tea.Msg) (DictationModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "g":
			if !m.state.CanGenerate() {
				return m, nil
			}
			return m, func() tea.Msg { return GenerateMsg{} }
		case "y":
			if !m.canCopy || m.state.Dictation.SavedPath == "" {
				return m, nil
			}
			if err := m.copyText(m.state.Dictation.SavedPath); err == nil {
				m.copied = true
				return m, clearCopiedAfter(2 * time.Second)
			}
			return m, nil
		}

	case clearCopiedMsg:
		m.copied = false
		return m, nil
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	return m, cmd
}

// View renders the dictation view.
func (m DictationModel) View() string {
	var b strings.Builder
	d := m.state.Dictation

	b.WriteString(titleStyle.Render("Dictation to Draft"))
	b.WriteString("\n")

	file := mutedStyle.Render("no file selected")
	if d.File != "" {
		file = valueStyle.Render(d.File)
	}
	b.WriteString(headerStyle.Render("Dictation: ") + file + "\n\n")

	b.WriteString(m.picker.View())
	b.WriteString("\n")

	label := "Generate Draft"
	if d.Phase == engine.PhasePending {
		label = "Generating…"
	}
	b.WriteString(button(label, m.state.CanGenerate()))
	b.WriteString("\n")

	if d.Progress > 0 {
		b.WriteString(m.bar.ViewAs(float64(d.Progress) / 100))
		b.WriteString("\n")
	}

	if d.Status != "" {
		style := valueStyle
		if d.Failed {
			style = errorStyle
		}
		b.WriteString(style.Render(d.Status))
		if d.SavedPath != "" {
			b.WriteString(" " + mutedStyle.Render(d.SavedPath))
		}
		if m.copied {
			b.WriteString("  " + copiedStyle.Render("Copied!"))
		}
		b.WriteString("\n")
	}

	help := "enter: choose file • g: generate"
	if m.canCopy {
		help += " • y: copy draft path"
	}
	b.WriteString(helpStyle.Render(help))
	return b.String()
}
