package domain

import "time"

// ChatMessage 是一条只转发、不落库的聊天消息。
type ChatMessage struct {
	RoomID    string
	Name      string
	Message   string
	Timestamp time.Time
}
