package websocket

import "time"

type MessageType string

const (
	MessageTypeNotice MessageType = "notice"
)

type BaseMessage struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
}

type NoticeEvent struct {
	BaseMessage
	RunID   string `json:"run_id"`
	Level   string `json:"level"`
	Message string `json:"message"`
	Entry   string `json:"entry,omitempty"`
	Status  string `json:"status,omitempty"`
	Final   bool   `json:"final,omitempty"`
}
