package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// 存活探针返回的固定文本
const livenessText = "This is realtime board sharing app server"

// Root 处理 GET /
func Root(c *gin.Context) {
	c.String(http.StatusOK, livenessText)
}

// ConnectionCounter 提供当前 WebSocket 连接数，由 Hub 实现
type ConnectionCounter interface {
	ConnectedClients() int
}

// HealthHandler 处理健康检查
type HealthHandler struct {
	counter ConnectionCounter
}

// NewHealthHandler 创建 HealthHandler 实例
func NewHealthHandler(counter ConnectionCounter) *HealthHandler {
	if counter == nil {
		panic("ConnectionCounter cannot be nil for HealthHandler")
	}
	return &HealthHandler{counter: counter}
}

// Ping 处理 GET /ping
func (h *HealthHandler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong", "clients": h.counter.ConnectedClients()})
}
