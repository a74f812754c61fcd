package hub

import (
	"context"
	"strings"

	"whiteboard-relay/internal/domain"
	"whiteboard-relay/internal/dto"

	"github.com/sirupsen/logrus"
)

// connState 是单个连接的协议状态
type connState int

const (
	stateUnjoined connState = iota
	stateJoined
	stateDisconnected
)

func (s connState) String() string {
	switch s {
	case stateUnjoined:
		return "unjoined"
	case stateJoined:
		return "joined"
	case stateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// handleCommand 按连接状态分派入站事件。不满足前置条件的事件直接丢弃，从不断开连接。
func (h *Hub) handleCommand(ctx context.Context, c *Client, cmd dto.Command) {
	switch cmd := cmd.(type) {
	case dto.JoinCommand:
		h.handleJoin(ctx, c, cmd)
	case dto.RequestUserCountCommand:
		h.replyCount(ctx, c)
	case dto.WhiteboardUpdateCommand:
		h.handleWhiteboardUpdate(ctx, c, cmd)
	case dto.SendMessageCommand:
		h.handleSendMessage(c, cmd)
	case dto.LeaveRoomCommand:
		h.leaveRoom(ctx, c)
	case dto.RejectedCommand:
		logrus.WithFields(logrus.Fields{"conn_id": c.ID(), "event": cmd.Event}).WithError(cmd.Reason).Debug("Dropping rejected event")
	}
}

func (h *Hub) handleJoin(ctx context.Context, c *Client, cmd dto.JoinCommand) {
	identity := cmd.Identity
	logCtx := logrus.WithFields(logrus.Fields{
		"conn_id":   c.ID(),
		"room_id":   identity.RoomID,
		"user_id":   identity.UserID,
		"presenter": identity.Presenter,
	})
	if c.state != stateUnjoined {
		logCtx.WithField("state", c.state).Debug("Join ignored, connection already joined")
		return
	}

	opCtx, cancel := h.opContext(ctx)
	defer cancel()

	count, err := h.presence.Join(opCtx, identity)
	if err != nil {
		logCtx.WithError(err).Error("Join failed")
		h.send(c, dto.UserIsJoined{Success: false})
		return
	}

	h.registry.Associate(c, identity)
	c.state = stateJoined
	logCtx.WithField("count", count).Info("Connection joined room")

	h.send(c, dto.UserIsJoined{Success: true})
	h.broadcastCount(identity.RoomID, count)
	h.replaySnapshot(opCtx, c, identity.RoomID)
}

// replaySnapshot 把房间最新快照单独发给新加入的连接；没有快照时什么都不发
func (h *Hub) replaySnapshot(ctx context.Context, c *Client, roomID string) {
	snapshot, ok, err := h.whiteboard.Latest(ctx, roomID)
	if err != nil {
		logrus.WithFields(logrus.Fields{"conn_id": c.ID(), "room_id": roomID}).WithError(err).Warn("Failed to load snapshot for replay")
		return
	}
	if !ok {
		return
	}
	h.send(c, dto.WhiteBoardDataResponse{ImgURL: snapshot.ImgURL})
}

func (h *Hub) handleWhiteboardUpdate(ctx context.Context, c *Client, cmd dto.WhiteboardUpdateCommand) {
	identity, ok := h.registry.Lookup(c)
	if !ok {
		return
	}
	logCtx := logrus.WithFields(logrus.Fields{"conn_id": c.ID(), "room_id": identity.RoomID, "user_id": identity.UserID})
	if h.opts.PresenterOnlyDraw && !identity.Presenter {
		logCtx.Debug("Whiteboard update from non-presenter dropped")
		return
	}

	opCtx, cancel := h.opContext(ctx)
	defer cancel()

	// 缓存失败不影响实时转发
	if _, err := h.whiteboard.Store(opCtx, identity.RoomID, identity.UserID, cmd.ImgURL); err != nil {
		logCtx.WithError(err).Warn("Failed to cache whiteboard snapshot")
	}
	h.broadcast(identity.RoomID, dto.WhiteBoardDataResponse{ImgURL: cmd.ImgURL}, c)
}

func (h *Hub) handleSendMessage(c *Client, cmd dto.SendMessageCommand) {
	identity, ok := h.registry.Lookup(c)
	if !ok {
		return
	}
	if cmd.RoomID != "" && cmd.RoomID != identity.RoomID {
		logrus.WithFields(logrus.Fields{"conn_id": c.ID(), "room_id": identity.RoomID, "target_room": cmd.RoomID}).Debug("Chat message for another room dropped")
		return
	}
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		name = identity.Name
	}
	msg := domain.ChatMessage{
		RoomID:    identity.RoomID,
		Name:      name,
		Message:   cmd.Message,
		Timestamp: h.now(),
	}
	h.broadcast(msg.RoomID, dto.NewReceiveMessage(msg), nil)
}

// leaveRoom 处理主动离开和断开：更新目录、解除绑定并通知剩余成员。
// 连接未加入房间时是空操作，所以 leaveRoom 之后的断开不会重复计数。
// 目录更新失败时保留绑定并返回 false，之后的断开会再次尝试。
func (h *Hub) leaveRoom(ctx context.Context, c *Client) bool {
	identity, ok := h.registry.Lookup(c)
	if !ok {
		return true
	}
	logCtx := logrus.WithFields(logrus.Fields{"conn_id": c.ID(), "room_id": identity.RoomID, "user_id": identity.UserID})

	// 同一 userId 仍在其他连接上时，目录中的成员和人数都不变
	if h.registry.SharedByOther(c, identity.RoomID, identity.UserID) {
		h.unbind(c)
		logCtx.Info("Connection left room, user still present on another connection")
		return true
	}

	opCtx, cancel := h.opContext(ctx)
	defer cancel()

	count, deleted, err := h.presence.Leave(opCtx, identity.RoomID, identity.UserID)
	if err != nil {
		logCtx.WithError(err).Error("Leave failed, keeping room binding")
		return false
	}
	h.unbind(c)
	logCtx.WithField("count", count).Info("Connection left room")

	if deleted {
		// 只有在没有任何连接仍绑定该房间时才清理快照
		if len(h.registry.Members(identity.RoomID)) == 0 {
			if err := h.whiteboard.Evict(opCtx, identity.RoomID); err != nil {
				logCtx.WithError(err).Warn("Failed to evict snapshot of empty room")
			}
		}
		return true
	}
	h.broadcastCount(identity.RoomID, count)
	return true
}

func (h *Hub) unbind(c *Client) {
	h.registry.Remove(c)
	if c.state == stateJoined {
		c.state = stateUnjoined
	}
}
