package importer

import (
	"fmt"
	"time"
)

const MessageImportSucceeded = "Files imported successfully!"

type NoticeLevel string

const (
	LevelInfo    NoticeLevel = "info"
	LevelWarning NoticeLevel = "warning"
	LevelError   NoticeLevel = "error"
)

// Notice is a user-facing message about one entry or the whole run.
type Notice struct {
	RunID     string        `json:"run_id"`
	Level     NoticeLevel   `json:"level"`
	Message   string        `json:"message"`
	Entry     string        `json:"entry,omitempty"`
	Status    OutcomeStatus `json:"status,omitempty"`
	Final     bool          `json:"final,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

type Notifier interface {
	Notify(Notice)
}

type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) {
	f(n)
}

// Notifiers fans a notice out to every non-nil notifier in order.
type Notifiers []Notifier

func (ns Notifiers) Notify(n Notice) {
	for _, notifier := range ns {
		if notifier != nil {
			notifier.Notify(n)
		}
	}
}

func OutcomeMessage(o Outcome) string {
	if o.Kind == KindImage {
		switch o.Status {
		case StatusCreated:
			return "Image created: " + o.Name
		case StatusOverwritten:
			return "Image updated: " + o.Name
		case StatusSkipped:
			return "Image already exists: " + o.Name
		}
	}

	switch o.Status {
	case StatusCreated:
		return "File created: " + o.Name
	case StatusOverwritten:
		return "File overwritten: " + o.Name
	case StatusSkipped:
		return "File already exists: " + o.Name
	default:
		return fmt.Sprintf("Error importing %s: %v", o.Name, o.Err)
	}
}

func ImportFailedMessage(err error) string {
	return fmt.Sprintf("Error importing files: %v", err)
}

func outcomeNotice(runID string, o Outcome, now time.Time) Notice {
	level := LevelInfo
	switch o.Status {
	case StatusSkipped:
		level = LevelWarning
	case StatusFailed:
		level = LevelError
	}

	return Notice{
		RunID:     runID,
		Level:     level,
		Message:   OutcomeMessage(o),
		Entry:     o.Entry,
		Status:    o.Status,
		Timestamp: now,
	}
}
