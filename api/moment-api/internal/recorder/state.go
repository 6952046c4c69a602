package internal_recorder

// UploadState tracks the upload leg of the flow.
type UploadState string

const (
	UploadIdle    UploadState = "idle"
	UploadPending UploadState = "pending"
	UploadDone    UploadState = "done"
)

// Step is the derived, mutually exclusive phase of the recording lifecycle.
type Step string

const (
	StepIdle       Step = "idle"
	StepRecording  Step = "recording"
	StepProcessing Step = "processing"
	StepReviewing  Step = "reviewing"
	StepSaving     Step = "saving"
	StepDone       Step = "done"
	// StepInvalid marks a field combination no transition can produce.
	StepInvalid Step = ""
)

// State holds the recorder fields. It is replaced wholesale (never patched)
// on record and retry, so a second take can never inherit a stale blob or
// uploaded URL from an earlier one.
type State struct {
	IsRecording  bool
	HaveRecorded bool
	Blob         []byte
	DownloadURL  string
	UploadState  UploadState
	UploadedURL  string
}

func initialState() State {
	return State{
		IsRecording:  false,
		HaveRecorded: false,
		Blob:         nil,
		DownloadURL:  "",
		UploadState:  UploadIdle,
		UploadedURL:  "",
	}
}

// WhichStep derives the current step from the field combination. Pure and
// total: every reachable state maps to exactly one step, in the order the
// flow moves through them.
func WhichStep(s State) Step {
	switch {
	case !s.IsRecording && !s.HaveRecorded:
		return StepIdle
	case s.IsRecording:
		return StepRecording
	case s.HaveRecorded && s.Blob == nil:
		return StepProcessing
	case s.HaveRecorded && s.Blob != nil && s.UploadState == UploadIdle:
		return StepReviewing
	case s.Blob != nil && s.UploadState == UploadPending:
		return StepSaving
	case s.Blob != nil && s.UploadedURL != "":
		return StepDone
	}
	return StepInvalid
}
