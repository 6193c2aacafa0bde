package model

import (
	"io"
	"time"
)

// Fixed parameters of every derived audio artifact.
const (
	AudioSampleRate    = 16000
	AudioChannels      = 1
	AudioBitsPerSample = 16
)

// UploadedMedia is the raw blob received from a client.
type UploadedMedia struct {
	Filename string
	Body     io.Reader
}

// MediaReference locates a stored upload. Key is unique per request and
// namespaces every artifact derived from it.
type MediaReference struct {
	Key  string
	Name string
	Path string
}

// AudioArtifact is a mono 16 kHz 16-bit PCM WAV file.
type AudioArtifact struct {
	Path          string
	SampleRate    int
	Channels      int
	BitsPerSample int
}

// Transcript is the recognised text. An empty Text means the audio
// contained no recognisable speech, which is not a failure.
type Transcript struct {
	Text     string
	Language string
}

// TaskRecord is one actionable item extracted from a meeting. Any field
// the model could not determine is left empty.
type TaskRecord struct {
	Task        string `json:"task"`
	Description string `json:"description"`
	Owner       string `json:"owner"`
	Deadline    string `json:"deadline"`
}

// SummaryResult is the summarizer output. Degraded is set when the
// completion failed and Summary holds the failure sentinel.
type SummaryResult struct {
	Summary  string       `json:"summary"`
	Tasks    []TaskRecord `json:"tasks"`
	Degraded bool         `json:"degraded,omitempty"`
}

// OutcomeStatus classifies a pipeline run.
type OutcomeStatus string

const (
	OutcomeComplete OutcomeStatus = "complete"
	OutcomeDegraded OutcomeStatus = "degraded"
	OutcomeFailed   OutcomeStatus = "failed"
)

// PipelineOutcome is the externally visible result of one run.
type PipelineOutcome struct {
	RequestID  string
	Media      MediaReference
	Transcript Transcript
	Summary    SummaryResult
	Status     OutcomeStatus
	Err        error
	Duration   time.Duration
}

// Failed reports whether a terminal stage error stopped the run.
func (o *PipelineOutcome) Failed() bool {
	return o.Status == OutcomeFailed
}

// Response is the JSON body returned for a successful or degraded run.
type Response struct {
	RequestID  string       `json:"request_id,omitempty"`
	Transcript string       `json:"transcript"`
	Summary    string       `json:"summary"`
	Tasks      []TaskRecord `json:"tasks"`
	Degraded   bool         `json:"degraded,omitempty"`
}

// Response converts the outcome into its wire form. Tasks is never nil so
// it encodes as [] rather than null.
func (o *PipelineOutcome) Response() Response {
	tasks := o.Summary.Tasks
	if tasks == nil {
		tasks = []TaskRecord{}
	}
	return Response{
		RequestID:  o.RequestID,
		Transcript: o.Transcript.Text,
		Summary:    o.Summary.Summary,
		Tasks:      tasks,
		Degraded:   o.Summary.Degraded,
	}
}
