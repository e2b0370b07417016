// Package engine implements the typing-engine client controller: doctor
// selection, style-sample upload and dictation-to-draft generation against
// one backend, all sharing a single active doctor.
package engine

// StyleThreshold is the sample count at which the style engine is considered active.
const StyleThreshold = 5

// Status texts shown to the user.
const (
	LabelNeedSamples = "Need at least 5"
	LabelStyleActive = "Style engine active"

	StatusUploading       = "Uploading…"
	StatusSamplesUploaded = "Samples uploaded successfully."

	StatusTranscriptionFailed = "Transcription failed."
	StatusBackendUnreachable  = "Error connecting to backend."
	StatusDraftDownloaded     = "Draft downloaded successfully."
	StatusDraftNotSaved       = "Could not save draft."
)

// DraftFilename is the name the generated draft is saved under.
const DraftFilename = "draft.docx"

// DoctorOption is one entry of the selectable doctor list.
type DoctorOption struct {
	Value string
	Label string
}

// Phase is the lifecycle of a dictation session.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseReady
	PhasePending
	PhaseSucceeded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseReady:
		return "ready"
	case PhasePending:
		return "pending"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	}
	return "unknown"
}

// SampleBatch tracks one multi-file style-sample upload.
type SampleBatch struct {
	Uploading bool
	Status    string
	// Failed is set when the last batch halted on an error.
	Failed bool
}

// Dictation tracks the selected dictation file and its draft generation.
type Dictation struct {
	File      string
	Phase     Phase
	Progress  int
	Status    string
	SavedPath string
	// Failed is set when the last generation ended in an error.
	Failed bool
}

// State is everything the controller knows. Snapshots are copies.
type State struct {
	Doctors        []DoctorOption
	DoctorID       string
	DoctorInput    string
	CreatingDoctor bool

	SampleCount int

	Samples   SampleBatch
	Dictation Dictation
}

// StyleEngineActive reports whether enough samples exist for the active doctor.
func (s State) StyleEngineActive() bool {
	return s.SampleCount >= StyleThreshold
}

// StyleLabel is the text shown next to the sample count.
func (s State) StyleLabel() string {
	return StyleLabel(s.SampleCount)
}

// CanCreateDoctor mirrors the enabled state of the create control.
func (s State) CanCreateDoctor() bool {
	return !s.CreatingDoctor && trimCode(s.DoctorInput) != ""
}

// CanGenerate mirrors the enabled state of the generate control.
func (s State) CanGenerate() bool {
	return s.Dictation.File != "" && s.Dictation.Phase != PhasePending
}

// StyleLabel returns the label for a sample count.
func StyleLabel(count int) string {
	if count < StyleThreshold {
		return LabelNeedSamples
	}
	return LabelStyleActive
}

func (s State) clone() State {
	c := s
	if s.Doctors != nil {
		c.Doctors = append([]DoctorOption(nil), s.Doctors...)
	}
	return c
}

func doctorOptions(codes []string) []DoctorOption {
	opts := make([]DoctorOption, 0, len(codes))
	for _, code := range codes {
		opts = append(opts, DoctorOption{Value: code, Label: code})
	}
	return opts
}
