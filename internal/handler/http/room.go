package http

import (
	"net/http"
	"strings"

	"whiteboard-relay/internal/domain"
	"whiteboard-relay/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RoomHandler 提供房间状态的只读查询，供加入页面在连接前展示房间是否活跃
type RoomHandler struct {
	presence   *service.PresenceService
	whiteboard *service.WhiteboardService
}

// NewRoomHandler 创建 RoomHandler 实例
func NewRoomHandler(presence *service.PresenceService, whiteboard *service.WhiteboardService) *RoomHandler {
	if presence == nil || whiteboard == nil {
		panic("services cannot be nil for RoomHandler")
	}
	return &RoomHandler{presence: presence, whiteboard: whiteboard}
}

// GetRoom 处理 GET /api/rooms/:roomId。
// 不存在的房间不是错误，返回 count 为 0。
func (h *RoomHandler) GetRoom(c *gin.Context) {
	roomID := strings.TrimSpace(c.Param("roomId"))
	logCtx := logrus.WithField("room_id", roomID)

	count, err := h.presence.Count(c.Request.Context(), roomID)
	if err != nil {
		logCtx.WithError(err).Warn("Handler.GetRoom: Failed to read member count")
		HandleServiceError(c, err)
		return
	}

	_, hasSnapshot, err := h.whiteboard.Latest(c.Request.Context(), roomID)
	if err != nil {
		logCtx.WithError(err).Warn("Handler.GetRoom: Failed to read snapshot")
		HandleServiceError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, domain.RoomStats{
		RoomID:      roomID,
		Count:       count,
		HasSnapshot: hasSnapshot,
	})
}
