package internal_recorder

import (
	"context"
	"sync"

	"github.com/google/uuid"

	internal_session "github.com/teachermoments/moments/api/moment-api/internal/session"
	"github.com/teachermoments/moments/pkg/commons"
)

// Log event names, one per transition-triggering action.
const (
	EventRecordClicked        = "message_popup_audio_record_clicked"
	EventDoneRecordingClicked = "message_popup_audio_done_recording_clicked"
	EventDoneCapture          = "message_popup_audio_on_done_capture"
	EventSubmit               = "message_popup_audio_on_submit"
	EventRetry                = "message_popup_audio_on_retry"
	EventDoneUploading        = "message_popup_audio_done_uploading"
	EventErrorUploading       = "message_popup_audio_error_uploading"
)

// UploadTransport sends a captured blob to a destination and resolves the
// done callback at most once, with either a remote URL or an error. No
// progress reporting, no cancellation.
type UploadTransport interface {
	Upload(ctx context.Context, blob []byte, dest string, done func(remoteURL string, err error))
}

// LocalRefFunc derives a local reference for a captured blob, the
// counterpart of a browser object URL.
type LocalRefFunc func(blob []byte) string

func defaultLocalRef(blob []byte) string {
	return "local://" + uuid.New().String()
}

// Result is handed to the completion callback after a successful upload.
type Result struct {
	UploadedURL string `json:"uploadedUrl"`
	DownloadURL string `json:"downloadUrl"`
}

// Flow coordinates a single record → review → submit → upload cycle:
//
//	idle → recording → processing → reviewing → saving → done
//
// Record and Retry fully reset state. An upload failure is logged and the
// flow halts in saving with no state change; recovery is caller-driven
// through Retry or Record, never automatic.
type Flow struct {
	mu        sync.Mutex
	logger    commons.Logger
	sink      internal_session.EventSink
	transport UploadTransport
	dest      string
	localRef  LocalRefFunc
	onDone    func(Result)

	state State
}

type FlowOption func(*Flow)

// WithLocalRef overrides how the local download reference is derived.
func WithLocalRef(fn LocalRefFunc) FlowOption {
	return func(f *Flow) { f.localRef = fn }
}

// NewFlow binds the collaborators for one recorder instance. dest is the
// upload destination handed to the transport; onDone fires once per
// successful upload with both references.
func NewFlow(logger commons.Logger, sink internal_session.EventSink, transport UploadTransport, dest string, onDone func(Result), opts ...FlowOption) *Flow {
	f := &Flow{
		logger:    logger,
		sink:      sink,
		transport: transport,
		dest:      dest,
		localRef:  defaultLocalRef,
		onDone:    onDone,
		state:     initialState(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// State returns a copy of the current fields.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Step returns the derived step for the current state.
func (f *Flow) Step() Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	return WhichStep(f.state)
}

// Record starts a new take from any state. Full reset: a prior blob or
// uploaded URL never leaks into the new cycle.
func (f *Flow) Record() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sink(EventRecordClicked, nil)
	state := initialState()
	state.IsRecording = true
	f.state = state
}

// DoneRecording stops the capture. The flow sits in processing until the
// capture collaborator delivers the finished blob.
func (f *Flow) DoneRecording() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sink(EventDoneRecordingClicked, nil)
	f.state.IsRecording = false
	f.state.HaveRecorded = true
}

// DeliverCapture accepts the completed blob from the capture collaborator,
// exactly once per recording cycle, after recording has stopped. Storing the
// blob and its local reference is what advances processing → reviewing; no
// separate transition exists.
func (f *Flow) DeliverCapture(blob []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	downloadURL := f.localRef(blob)
	f.sink(EventDoneCapture, map[string]interface{}{"blobUrl": downloadURL})
	f.state.Blob = blob
	f.state.DownloadURL = downloadURL
}

// Submit starts the upload of the captured blob. Idempotent while an upload
// is pending or finished: repeat calls do nothing and trigger no second
// upload.
func (f *Flow) Submit(ctx context.Context) {
	f.mu.Lock()
	if f.state.UploadState != UploadIdle {
		f.mu.Unlock()
		return
	}
	f.sink(EventSubmit, nil)
	f.state.UploadState = UploadPending
	blob := f.state.Blob
	f.mu.Unlock()

	if blob != nil {
		f.transport.Upload(ctx, blob, f.dest, f.resolveUpload)
	}
}

// Retry discards the current take and starts recording again. Identical
// full reset to Record.
func (f *Flow) Retry() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sink(EventRetry, nil)
	state := initialState()
	state.IsRecording = true
	f.state = state
}

// resolveUpload is the transport's single-shot completion callback. On
// failure the flow stays in saving: loud in the logs, stationary in the UI.
func (f *Flow) resolveUpload(remoteURL string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err != nil {
		f.sink(EventErrorUploading, nil)
		f.logger.Errorf("audio upload failed, flow halted in saving: %v", err)
		return
	}

	f.sink(EventDoneUploading, nil)
	f.state.UploadedURL = remoteURL
	f.state.UploadState = UploadDone
	if f.onDone != nil {
		f.onDone(Result{UploadedURL: remoteURL, DownloadURL: f.state.DownloadURL})
	}
}
