package importer

import "time"

// Config is the immutable configuration of a single import run.
type Config struct {
	ImportRoot        string `json:"import_root"`
	OverwriteExisting bool   `json:"overwrite_existing"`
	SnippetsRoot      string `json:"snippets_root"`
}

func NewConfig(importPath string, overwriteExisting bool, configDir string) Config {
	return Config{
		ImportRoot:        JoinPath(importPath),
		OverwriteExisting: overwriteExisting,
		SnippetsRoot:      SnippetsRoot(configDir),
	}
}

type OutcomeStatus string

const (
	StatusCreated     OutcomeStatus = "created"
	StatusOverwritten OutcomeStatus = "overwritten"
	StatusSkipped     OutcomeStatus = "skipped"
	StatusFailed      OutcomeStatus = "failed"
)

type Outcome struct {
	Entry       string        `json:"entry"`
	Name        string        `json:"name"`
	Kind        EntryKind     `json:"kind"`
	Destination Destination   `json:"destination"`
	Status      OutcomeStatus `json:"status"`
	Reason      string        `json:"reason,omitempty"`
	Err         error         `json:"-"`
}

type Failure struct {
	Entry       string `json:"entry"`
	Destination string `json:"destination,omitempty"`
	Error       string `json:"error"`
}

type State string

const (
	StateIdle          State = "idle"
	StateDecoding      State = "decoding"
	StateClassifying   State = "classifying"
	StateResolving     State = "resolving"
	StateMaterializing State = "materializing"
	StateWriting       State = "writing"
	StateSummarizing   State = "summarizing"
	StateDone          State = "done"
	StateCancelled     State = "cancelled"
	StateFailed        State = "failed"
)

type Summary struct {
	RunID       string    `json:"run_id"`
	State       State     `json:"state"`
	Config      Config    `json:"config"`
	Entries     int       `json:"entries"`
	Ignored     int       `json:"ignored"`
	Created     int       `json:"created"`
	Overwritten int       `json:"overwritten"`
	Skipped     int       `json:"skipped"`
	Failed      int       `json:"failed"`
	Outcomes    []Outcome `json:"outcomes"`
	Failures    []Failure `json:"failures,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	DurationMs  int64     `json:"duration_ms"`
}

func newSummary(runID string, cfg Config, startedAt time.Time) *Summary {
	return &Summary{
		RunID:     runID,
		State:     StateIdle,
		Config:    cfg,
		Outcomes:  []Outcome{},
		StartedAt: startedAt,
	}
}

func (s *Summary) record(o Outcome) {
	s.Outcomes = append(s.Outcomes, o)

	switch o.Status {
	case StatusCreated:
		s.Created++
	case StatusOverwritten:
		s.Overwritten++
	case StatusSkipped:
		s.Skipped++
	case StatusFailed:
		s.Failed++
		failure := Failure{Entry: o.Entry, Destination: o.Destination.Path}
		if o.Err != nil {
			failure.Error = o.Err.Error()
		}
		s.Failures = append(s.Failures, failure)
	}
}

// Total is the number of outcomes produced.
func (s *Summary) Total() int {
	return s.Created + s.Overwritten + s.Skipped + s.Failed
}

func (s *Summary) HasFailures() bool {
	return s.Failed > 0
}
