package hub

import (
	"context"

	"whiteboard-relay/internal/dto"

	"github.com/sirupsen/logrus"
)

// broadcastCount 向房间内所有连接 (包括触发变化的连接) 广播人数
func (h *Hub) broadcastCount(roomID string, count int) {
	h.broadcast(roomID, dto.UpdateUserCount{Count: count}, nil)
}

// replyCount 只回复请求方当前房间人数；连接未加入房间时静默忽略
func (h *Hub) replyCount(ctx context.Context, c *Client) {
	identity, ok := h.registry.Lookup(c)
	if !ok {
		return
	}
	opCtx, cancel := h.opContext(ctx)
	defer cancel()

	count, err := h.presence.Count(opCtx, identity.RoomID)
	if err != nil {
		logrus.WithFields(logrus.Fields{"conn_id": c.ID(), "room_id": identity.RoomID}).WithError(err).Warn("Failed to read room count")
		return
	}
	if count == 0 {
		// 房间已不在目录中
		return
	}
	h.send(c, dto.UpdateUserCount{Count: count})
}
