package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/clinote/clinote/internal/backend"
)

// DefaultResetDelay is how long a finished progress bar stays at 100.
const DefaultResetDelay = time.Second

// Backend is the subset of the typing-engine API the controller drives.
type Backend interface {
	ListDoctors(ctx context.Context) ([]string, error)
	SampleCount(ctx context.Context, doctorID string) (int, error)
	CreateDoctor(ctx context.Context, doctorID string) (backend.CreateResult, error)
	UploadSample(ctx context.Context, doctorID string, f backend.File) (backend.UploadResult, error)
	Transcribe(ctx context.Context, doctorID string, f backend.File) (*backend.Download, error)
}

// Controller owns the session state and sequences every request against the
// backend. Operations never return errors: failures are folded into State as
// plain status text and logged.
type Controller struct {
	backend    Backend
	saver      Saver
	log        *zap.Logger
	progress   *Progress
	resetDelay time.Duration

	mu         sync.Mutex
	state      State
	resetTimer *time.Timer
	observers  []func()
}

// Option configures a Controller.
type Option func(*Controller)

// WithSaver sets where generated drafts are written.
func WithSaver(s Saver) Option {
	return func(c *Controller) { c.saver = s }
}

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// WithProgressInterval changes the cosmetic tick interval.
func WithProgressInterval(d time.Duration) Option {
	return func(c *Controller) { c.progress.Interval = d }
}

// WithResetDelay changes how long a completed progress bar stays at 100.
func WithResetDelay(d time.Duration) Option {
	return func(c *Controller) { c.resetDelay = d }
}

// New creates a controller with empty state.
func New(b Backend, opts ...Option) *Controller {
	c := &Controller{
		backend:    b,
		log:        zap.NewNop(),
		resetDelay: DefaultResetDelay,
	}
	c.progress = NewProgress(c.onProgressTick)
	for _, opt := range opts {
		opt(c)
	}
	if c.saver == nil {
		c.saver = NewDownloads("")
	}
	return c
}

// OnChange registers fn to be called after every state change. fn runs on
// the goroutine that made the change and must not block.
func (c *Controller) OnChange(fn func()) {
	c.mu.Lock()
	c.observers = append(c.observers, fn)
	c.mu.Unlock()
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// ProgressRunning reports whether the cosmetic progress ticker is active.
func (c *Controller) ProgressRunning() bool {
	return c.progress.Running()
}

// Close stops the progress ticker and any pending progress reset.
func (c *Controller) Close() {
	c.progress.Stop()
	c.mu.Lock()
	if c.resetTimer != nil {
		c.resetTimer.Stop()
		c.resetTimer = nil
	}
	c.mu.Unlock()
}

func (c *Controller) update(fn func(s *State)) {
	c.try(func(s *State) bool {
		fn(s)
		return true
	})
}

// try applies fn under the lock and notifies observers only when fn reports
// that it changed something.
func (c *Controller) try(fn func(s *State) bool) bool {
	c.mu.Lock()
	changed := fn(&c.state)
	observers := c.observers
	c.mu.Unlock()

	if changed {
		for _, o := range observers {
			o()
		}
	}
	return changed
}

// Init loads the doctor list and selects the first doctor when none is active.
func (c *Controller) Init(ctx context.Context) {
	c.RefreshDoctors(ctx)
}

// RefreshDoctors reloads the doctor list. A failure leaves the list empty.
func (c *Controller) RefreshDoctors(ctx context.Context) {
	codes, err := c.backend.ListDoctors(ctx)
	if err != nil {
		c.log.Warn("listing doctors", zap.Error(err))
		c.update(func(s *State) { s.Doctors = nil })
		return
	}

	var selected string
	c.update(func(s *State) {
		s.Doctors = doctorOptions(codes)
		if s.DoctorID == "" && len(codes) > 0 {
			s.DoctorID = codes[0]
			selected = codes[0]
		}
	})

	if selected != "" {
		c.refreshSampleCount(ctx, selected)
	}
}

// SelectDoctor makes id the active doctor and fetches its sample count when
// the active doctor actually changed.
func (c *Controller) SelectDoctor(ctx context.Context, id string) {
	changed := c.try(func(s *State) bool {
		if s.DoctorID == id {
			return false
		}
		s.DoctorID = id
		return true
	})
	if changed && id != "" {
		c.refreshSampleCount(ctx, id)
	}
}

// RefreshSampleCount refetches the sample count of the active doctor.
func (c *Controller) RefreshSampleCount(ctx context.Context) {
	id := c.Snapshot().DoctorID
	if id == "" {
		return
	}
	c.refreshSampleCount(ctx, id)
}

func (c *Controller) refreshSampleCount(ctx context.Context, id string) {
	n, err := c.backend.SampleCount(ctx, id)
	if err != nil {
		c.log.Warn("fetching sample count", zap.String("doctor_id", id), zap.Error(err))
		n = 0
	}
	if n < 0 {
		n = 0
	}
	c.update(func(s *State) {
		// A late answer for a doctor that is no longer active is dropped.
		if s.DoctorID == id {
			s.SampleCount = n
		}
	})
}

// SetDoctorInput records the text typed into the create-doctor field.
func (c *Controller) SetDoctorInput(text string) {
	c.update(func(s *State) { s.DoctorInput = text })
}

// CreateDoctor registers the code in the input field. A blank code sends
// nothing. Any answer other than created/exists is ignored without feedback.
func (c *Controller) CreateDoctor(ctx context.Context) {
	var code string
	started := c.try(func(s *State) bool {
		if !s.CanCreateDoctor() {
			return false
		}
		code = trimCode(s.DoctorInput)
		s.CreatingDoctor = true
		return true
	})
	if !started {
		return
	}

	res, err := c.backend.CreateDoctor(ctx, code)
	if err != nil || !res.Accepted() {
		c.log.Warn("creating doctor",
			zap.String("doctor_id", code),
			zap.String("status", res.Status),
			zap.Error(err))
		c.update(func(s *State) { s.CreatingDoctor = false })
		return
	}

	id := res.DoctorID
	if id == "" {
		id = code
	}
	c.log.Info("doctor profile ready", zap.String("doctor_id", id), zap.String("status", res.Status))

	c.update(func(s *State) {
		s.DoctorID = id
		s.DoctorInput = ""
		s.CreatingDoctor = false
	})
	c.RefreshDoctors(ctx)
	c.refreshSampleCount(ctx, id)
}

// sampleError halts a sample batch; its message is shown after "Error: ".
type sampleError struct {
	msg string
}

func (e *sampleError) Error() string { return e.msg }

// UploadSamples sends each file in order for the active doctor. The first
// failure halts the batch; nothing already stored is rolled back.
func (c *Controller) UploadSamples(ctx context.Context, paths []string) {
	if len(paths) == 0 {
		return
	}

	var doctor string
	started := c.try(func(s *State) bool {
		if s.Samples.Uploading {
			return false
		}
		doctor = s.DoctorID
		s.Samples = SampleBatch{Uploading: true, Status: StatusUploading}
		return true
	})
	if !started {
		return
	}

	err := firstFailure(paths, func(path string) error {
		return c.uploadSample(ctx, doctor, path)
	})
	if err != nil {
		c.update(func(s *State) {
			s.Samples = SampleBatch{Status: "Error: " + err.Error(), Failed: true}
		})
		return
	}

	c.update(func(s *State) {
		s.Samples = SampleBatch{Status: StatusSamplesUploaded}
	})
	c.refreshSampleCount(ctx, doctor)
}

// firstFailure runs step over items in order and stops at the first error.
func firstFailure[T any](items []T, step func(T) error) error {
	for _, item := range items {
		if err := step(item); err != nil {
			return err
		}
	}
	return nil
}

func (c *Controller) uploadSample(ctx context.Context, doctor, path string) error {
	name := filepath.Base(path)

	f, err := os.Open(path)
	if err != nil {
		c.log.Warn("opening sample", zap.String("path", path), zap.Error(err))
		return &sampleError{msg: fmt.Sprintf("cannot read %s", name)}
	}
	defer f.Close()

	res, err := c.backend.UploadSample(ctx, doctor, backend.File{Name: name, Body: f})
	if err != nil {
		c.log.Warn("uploading sample", zap.String("file", name), zap.Error(err))
		return &sampleError{msg: fmt.Sprintf("could not upload %s", name)}
	}
	if res.Error != "" {
		c.log.Info("sample rejected", zap.String("file", name), zap.String("reason", res.Error))
		return &sampleError{msg: res.Error}
	}

	c.log.Debug("sample uploaded", zap.String("doctor_id", doctor), zap.String("file", name))
	return nil
}

// SelectDictation chooses the dictation file and clears the previous result.
// A request already in flight keeps running.
func (c *Controller) SelectDictation(path string) {
	c.update(func(s *State) {
		s.Dictation.File = path
		s.Dictation.Status = ""
		s.Dictation.SavedPath = ""
		s.Dictation.Failed = false
		if s.Dictation.Phase != PhasePending {
			s.Dictation.Phase = PhaseReady
		}
	})
}

// Generate transcribes the selected dictation and saves the draft. It
// returns once the request has resolved; only one may be in flight.
func (c *Controller) Generate(ctx context.Context) {
	var file, doctor string
	started := c.try(func(s *State) bool {
		if !s.CanGenerate() {
			return false
		}
		if c.resetTimer != nil {
			c.resetTimer.Stop()
			c.resetTimer = nil
		}
		file = s.Dictation.File
		doctor = s.DoctorID
		s.Dictation.Phase = PhasePending
		s.Dictation.Status = ""
		s.Dictation.SavedPath = ""
		s.Dictation.Failed = false
		s.Dictation.Progress = 0
		return true
	})
	if !started {
		return
	}

	c.progress.Start()
	defer c.progress.Stop()

	dl, err := c.transcribe(ctx, doctor, file)
	c.progress.Stop()

	if err != nil {
		status := StatusBackendUnreachable
		if backend.IsStatusError(err) {
			status = StatusTranscriptionFailed
		}
		c.log.Warn("transcription", zap.String("file", file), zap.Error(err))
		c.fail(status)
		return
	}

	path, err := c.saver.Save(DraftFilename, dl.Data)
	if err != nil {
		c.log.Error("saving draft", zap.Error(err))
		c.fail(StatusDraftNotSaved)
		return
	}
	c.log.Info("draft saved", zap.String("path", path), zap.Int("bytes", len(dl.Data)))

	c.update(func(s *State) {
		s.Dictation.Progress = 100
		s.Dictation.Phase = PhaseSucceeded
		s.Dictation.Status = StatusDraftDownloaded
		s.Dictation.SavedPath = path
	})
	c.scheduleReset()
}

func (c *Controller) transcribe(ctx context.Context, doctor, path string) (*backend.Download, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dictation: %w", err)
	}
	defer f.Close()

	return c.backend.Transcribe(ctx, doctor, backend.File{Name: filepath.Base(path), Body: f})
}

// fail records a failed generation. Like a success it settles back to Idle
// after the reset delay; the status text and Failed flag stay until the next
// selection or generation.
func (c *Controller) fail(status string) {
	c.update(func(s *State) {
		s.Dictation.Progress = 0
		s.Dictation.Phase = PhaseFailed
		s.Dictation.Status = status
		s.Dictation.Failed = true
	})
	c.scheduleReset()
}

func (c *Controller) scheduleReset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	var t *time.Timer
	t = time.AfterFunc(c.resetDelay, func() {
		c.mu.Lock()
		current := c.resetTimer == t
		if current {
			c.resetTimer = nil
		}
		c.mu.Unlock()
		if !current {
			return
		}
		c.update(func(s *State) {
			s.Dictation.Progress = 0
			if s.Dictation.Phase == PhaseSucceeded || s.Dictation.Phase == PhaseFailed {
				s.Dictation.Phase = PhaseIdle
			}
		})
	})
	c.resetTimer = t
}

func (c *Controller) onProgressTick(v int) {
	c.update(func(s *State) {
		if s.Dictation.Phase == PhasePending {
			s.Dictation.Progress = v
		}
	})
}

func trimCode(s string) string {
	return strings.TrimSpace(s)
}
