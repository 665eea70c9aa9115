package importer

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"
)

const (
	StreamTypeNotice  = "notice"
	StreamTypeSummary = "summary"
	StreamTypeError   = "error"
)

type StreamMessage struct {
	Type      string    `json:"type"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// StreamWriter writes server-sent events and doubles as a Notifier so a
// client can follow an import entry by entry.
type StreamWriter struct {
	mu     sync.Mutex
	writer io.Writer
}

func NewStreamWriter(writer io.Writer) *StreamWriter {
	return &StreamWriter{writer: writer}
}

func (w *StreamWriter) WriteMessage(msgType string, data any) {
	messageBytes, err := json.Marshal(StreamMessage{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now(),
	})
	if err != nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := fmt.Fprintf(w.writer, "event: %s\ndata: %s\n\n", msgType, messageBytes); err != nil {
		return
	}

	if flusher, ok := w.writer.(interface{ Flush() }); ok {
		defer func() {
			_ = recover()
		}()
		flusher.Flush()
	}
}

func (w *StreamWriter) Notify(n Notice) {
	w.WriteMessage(StreamTypeNotice, n)
}

func (w *StreamWriter) WriteSummary(summary *Summary) {
	w.WriteMessage(StreamTypeSummary, summary)
}

func (w *StreamWriter) WriteError(code, message string) {
	w.WriteMessage(StreamTypeError, map[string]string{
		"error": message,
		"code":  code,
	})
}
