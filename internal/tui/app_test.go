package tui

import (
	"context"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinote/clinote/internal/engine"
	"github.com/clinote/clinote/internal/tui/views"
)

type fakeSession struct {
	mu       sync.Mutex
	state    engine.State
	observer func()
	calls    []string
}

func (f *fakeSession) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeSession) set(fn func(s *engine.State)) {
	f.mu.Lock()
	fn(&f.state)
	obs := f.observer
	f.mu.Unlock()
	if obs != nil {
		obs()
	}
}

func (f *fakeSession) OnChange(fn func()) { f.observer = fn }
func (f *fakeSession) Snapshot() engine.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}
func (f *fakeSession) Init(context.Context)           { f.record("init") }
func (f *fakeSession) RefreshDoctors(context.Context) { f.record("refresh") }
func (f *fakeSession) SelectDoctor(_ context.Context, id string) {
	f.record("select:" + id)
}
func (f *fakeSession) SetDoctorInput(text string) {
	f.set(func(s *engine.State) { s.DoctorInput = text })
}
func (f *fakeSession) CreateDoctor(context.Context) { f.record("create") }
func (f *fakeSession) UploadSamples(_ context.Context, paths []string) {
	f.record("upload")
}
func (f *fakeSession) SelectDictation(path string) {
	f.set(func(s *engine.State) {
		s.Dictation.File = path
		s.Dictation.Phase = engine.PhaseReady
	})
}
func (f *fakeSession) Generate(context.Context) { f.record("generate") }

func newTestApp(t *testing.T, opts Options) (AppModel, *fakeSession) {
	t.Helper()
	s := &fakeSession{}
	opts.Dir = t.TempDir()
	m := NewApp(context.Background(), s, opts)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(AppModel), s
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestChangeSignalCoalesces(t *testing.T) {
	c := newChangeSignal()
	c.notify()
	c.notify()
	c.notify()

	assert.Equal(t, stateChangedMsg{}, c.wait()())
	select {
	case <-c.ch:
		t.Fatal("expected a single pending signal")
	default:
	}
}

func TestApp_InitSelectsConfiguredDoctor(t *testing.T) {
	m, s := newTestApp(t, Options{Doctor: "2056"})

	// A pending signal keeps the change listener from blocking.
	m.changes.notify()
	batch, ok := m.Init()().(tea.BatchMsg)
	require.True(t, ok)
	for _, cmd := range batch {
		if cmd != nil {
			cmd()
		}
	}

	assert.Equal(t, []string{"select:2056", "init"}, s.calls)
}

func TestApp_StateChangeRereadsSnapshot(t *testing.T) {
	m, s := newTestApp(t, Options{})
	s.set(func(st *engine.State) {
		st.Doctors = []engine.DoctorOption{{Value: "1001", Label: "1001"}}
		st.DoctorID = "1001"
		st.SampleCount = 7
	})

	next, cmd := m.Update(stateChangedMsg{})
	require.NotNil(t, cmd)
	app := next.(AppModel)

	assert.Equal(t, "1001", app.state.DoctorID)
	assert.Contains(t, app.View(), "Style engine active")
}

func TestApp_SwitchViews(t *testing.T) {
	m, _ := newTestApp(t, Options{})

	next, _ := m.Update(key("3"))
	assert.Equal(t, ViewDictation, next.(AppModel).currentView)

	next, _ = next.Update(key("2"))
	assert.Equal(t, ViewSamples, next.(AppModel).currentView)

	next, _ = next.Update(key("?"))
	assert.True(t, next.(AppModel).showHelp)
}

func TestApp_TypingDoctorCodeMirrorsIntoSession(t *testing.T) {
	m, s := newTestApp(t, Options{})

	next, _ := m.Update(key("n"))
	require.True(t, next.(AppModel).doctorView.Editing())

	// "q" and "1" are text while the input has focus.
	next, _ = next.Update(key("q"))
	next, _ = next.Update(key("1"))

	app := next.(AppModel)
	assert.Equal(t, ViewDoctor, app.currentView)
	assert.Equal(t, "q1", s.Snapshot().DoctorInput)
}

func TestApp_FileSelectedSelectsDictation(t *testing.T) {
	m, s := newTestApp(t, Options{})

	next, _ := m.Update(views.FileSelectedMsg{Path: "/tmp/visit.wav"})

	assert.Equal(t, "/tmp/visit.wav", s.Snapshot().Dictation.File)
	assert.True(t, next.(AppModel).state.CanGenerate())
}

func TestApp_ActionMessagesRunSessionOperations(t *testing.T) {
	m, s := newTestApp(t, Options{})

	for _, msg := range []tea.Msg{
		views.SelectDoctorMsg{ID: "1002"},
		views.CreateDoctorMsg{},
		views.UploadSamplesMsg{Paths: []string{"a.txt"}},
		views.GenerateMsg{},
		views.RefreshDoctorsMsg{},
	} {
		_, cmd := m.Update(msg)
		require.NotNil(t, cmd)
		cmd()
	}

	assert.Equal(t, []string{"select:1002", "create", "upload", "generate", "refresh"}, s.calls)
}
