package dto

import (
	"encoding/json"
	"time"

	"whiteboard-relay/internal/domain"
)

// 服务端 -> 客户端 事件名
const (
	EventUserIsJoined           = "userIsJoined"
	EventUpdateUserCount        = "updateUserCount"
	EventWhiteBoardDataResponse = "whiteBoardDataResponse"
	EventReceiveMessage         = "receiveMessage"
)

// Event 是出站事件。
type Event interface {
	EventName() string
}

// UserIsJoined 只发给刚加入的连接。
type UserIsJoined struct {
	Success bool `json:"success"`
}

// UpdateUserCount 是房间人数，单发 (请求时) 或房间广播 (成员变化时)。
type UpdateUserCount struct {
	Count int `json:"count"`
}

// WhiteBoardDataResponse 携带白板快照，单发 (回放) 或排除发送者广播 (实时更新)。
type WhiteBoardDataResponse struct {
	ImgURL string `json:"imgURL"`
}

// ReceiveMessage 是向整个房间广播的聊天消息。
type ReceiveMessage struct {
	Name      string    `json:"name"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// NewReceiveMessage 从聊天消息构造出站事件，RoomID 只用于路由，不下发。
func NewReceiveMessage(msg domain.ChatMessage) ReceiveMessage {
	return ReceiveMessage{Name: msg.Name, Message: msg.Message, Timestamp: msg.Timestamp}
}

func (UserIsJoined) EventName() string           { return EventUserIsJoined }
func (UpdateUserCount) EventName() string        { return EventUpdateUserCount }
func (WhiteBoardDataResponse) EventName() string { return EventWhiteBoardDataResponse }
func (ReceiveMessage) EventName() string         { return EventReceiveMessage }

// EncodeEvent 将出站事件编码为一帧 Envelope JSON。
func EncodeEvent(ev Event) ([]byte, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: ev.EventName(), Data: data})
}
