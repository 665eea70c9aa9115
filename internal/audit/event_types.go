package audit

const (
	EventImportStarted   = "import.started"
	EventImportCompleted = "import.completed"
	EventImportFailed    = "import.failed"
	EventImportCancelled = "import.cancelled"
)

const (
	EventFileCreated     = "file.created"
	EventFileOverwritten = "file.overwritten"
	EventFileSkipped     = "file.skipped"
	EventFileFailed      = "file.failed"
)

func GetEventCategory(eventType string) string {
	switch eventType {
	case EventImportStarted, EventImportCompleted, EventImportFailed, EventImportCancelled:
		return "import"
	case EventFileCreated, EventFileOverwritten, EventFileSkipped, EventFileFailed:
		return "file"
	default:
		return "unknown"
	}
}

func GetEventSeverity(eventType string) string {
	switch eventType {
	case EventFileOverwritten:
		return "critical"
	case EventImportFailed, EventFileFailed, EventImportCancelled:
		return "high"
	case EventImportStarted, EventImportCompleted, EventFileCreated:
		return "medium"
	case EventFileSkipped:
		return "low"
	default:
		return "medium"
	}
}
