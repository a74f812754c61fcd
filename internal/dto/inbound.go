package dto

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"whiteboard-relay/internal/domain"
)

var (
	ErrMalformedEvent = errors.New("malformed event")
	ErrUnknownEvent   = errors.New("unknown event")
)

// 客户端 -> 服务端 事件名
const (
	EventJoin             = "join"
	EventUserJoined       = "userJoined" // join 的旧名称
	EventRequestUserCount = "requestUserCount"
	EventWhiteboardUpdate = "whiteboardUpdate"
	EventWhiteboardData   = "whiteboardData" // whiteboardUpdate 的旧名称
	EventSendMessage      = "sendMessage"
	EventLeaveRoom        = "leaveRoom"
)

// Envelope 是两个方向上每一帧 WebSocket 文本消息的外层结构。
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Command 是解码后的入站事件。只有本包内定义的类型实现它。
type Command interface {
	command()
}

// JoinCommand 请求加入房间。
type JoinCommand struct {
	Identity domain.Identity
}

// RequestUserCountCommand 请求当前房间人数，只回复给请求方。
type RequestUserCountCommand struct{}

// WhiteboardUpdateCommand 携带演示者最新的画布快照。
type WhiteboardUpdateCommand struct {
	ImgURL string
}

// SendMessageCommand 是一条待转发的聊天消息。
// RoomID 由客户端附带，仅用于与连接所在房间做一致性校验。
type SendMessageCommand struct {
	RoomID  string
	Name    string
	Message string
}

// LeaveRoomCommand 主动离开房间。
type LeaveRoomCommand struct{}

// RejectedCommand 表示无法解码或校验失败的事件，处理方应将其丢弃。
type RejectedCommand struct {
	Event  string
	Reason error
}

func (JoinCommand) command()             {}
func (RequestUserCountCommand) command() {}
func (WhiteboardUpdateCommand) command() {}
func (SendMessageCommand) command()      {}
func (LeaveRoomCommand) command()        {}
func (RejectedCommand) command()         {}

type joinPayload struct {
	Name      string `json:"name"`
	UserID    string `json:"userId"`
	RoomID    string `json:"roomId"`
	Host      bool   `json:"host"`
	Presenter bool   `json:"presenter"`
}

type sendMessagePayload struct {
	RoomID  string `json:"roomId"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

// DecodeCommand 将一帧原始消息解码为 Command。
// 解码失败时总是返回 RejectedCommand，而不是 error。
func DecodeCommand(raw []byte) Command {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return reject("", fmt.Errorf("%w: %v", ErrMalformedEvent, err))
	}

	switch env.Event {
	case EventJoin, EventUserJoined:
		var p joinPayload
		if err := unmarshalData(env.Data, &p); err != nil {
			return reject(env.Event, err)
		}
		identity := domain.Identity{
			UserID:    strings.TrimSpace(p.UserID),
			RoomID:    strings.TrimSpace(p.RoomID),
			Name:      p.Name,
			Host:      p.Host,
			Presenter: p.Presenter,
		}
		if !identity.Valid() {
			return reject(env.Event, fmt.Errorf("%w: userId and roomId are required", ErrMalformedEvent))
		}
		return JoinCommand{Identity: identity}

	case EventRequestUserCount:
		return RequestUserCountCommand{}

	case EventWhiteboardUpdate, EventWhiteboardData:
		var imgURL string
		if err := unmarshalData(env.Data, &imgURL); err != nil {
			return reject(env.Event, err)
		}
		if imgURL == "" {
			return reject(env.Event, fmt.Errorf("%w: empty snapshot", ErrMalformedEvent))
		}
		return WhiteboardUpdateCommand{ImgURL: imgURL}

	case EventSendMessage:
		var p sendMessagePayload
		if err := unmarshalData(env.Data, &p); err != nil {
			return reject(env.Event, err)
		}
		if strings.TrimSpace(p.Message) == "" {
			return reject(env.Event, fmt.Errorf("%w: empty message", ErrMalformedEvent))
		}
		return SendMessageCommand{RoomID: p.RoomID, Name: p.Name, Message: p.Message}

	case EventLeaveRoom:
		return LeaveRoomCommand{}

	default:
		return reject(env.Event, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event))
	}
}

func unmarshalData(data json.RawMessage, v interface{}) error {
	if len(data) == 0 || string(data) == "null" {
		return fmt.Errorf("%w: missing data", ErrMalformedEvent)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	return nil
}

func reject(event string, reason error) RejectedCommand {
	return RejectedCommand{Event: event, Reason: reason}
}
