package websocket

import (
	"net/http"

	"whiteboard-relay/internal/hub"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// WebSocketHandler 负责处理 WebSocket 升级请求和客户端注册
type WebSocketHandler struct {
	upgrader websocket.Upgrader
	hub      *hub.Hub
}

// NewWebSocketHandler 创建 WebSocketHandler 实例。
// 房间在连接建立之后通过 join 事件选择，升级时不做任何校验。
func NewWebSocketHandler(h *hub.Hub) *WebSocketHandler {
	if h == nil {
		panic("Hub cannot be nil for WebSocketHandler")
	}
	return &WebSocketHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// 与 HTTP 的 CORS 配置一致，允许任意来源
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		hub: h,
	}
}

// HandleConnection 处理 GET /ws 的升级请求
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	logCtx := logrus.WithField("client_ip", c.ClientIP())

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade 已经写回了 HTTP 错误响应
		logCtx.WithError(err).Warn("WS Handler: Failed to upgrade connection")
		return
	}

	client := hub.NewClient(h.hub, conn)
	logCtx = logCtx.WithField("conn_id", client.ID())

	if !h.hub.QueueMessage(hub.HubMessage{Type: hub.MessageRegister, Client: client}) {
		logCtx.Error("WS Handler: Hub unavailable, closing connection")
		client.CloseConn()
		return
	}
	client.Run()
	logCtx.Info("WS Handler: Client connected")
}
