package hub

import (
	"context"
	"sync/atomic"
	"time"

	"whiteboard-relay/internal/dto"
	"whiteboard-relay/internal/service"

	"github.com/sirupsen/logrus"
)

// 包级别的 WebSocket 常量，供 hub 和 client 使用
const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// 单个事件访问状态存储的超时时间
	opTimeout = 3 * time.Second

	defaultMaxMessageSize = 4 << 20 // 快照是 data URL，可能较大
	defaultSendBuffer     = 256
)

// HubMessage 类型
const (
	MessageRegister   = "register"
	MessageUnregister = "unregister"
	MessageInbound    = "inbound"
)

// HubMessage 定义了在 Hub 内部通道传递的消息
type HubMessage struct {
	Type    string  // MessageRegister / MessageUnregister / MessageInbound
	Client  *Client // 消息来源连接
	RawData []byte  // 仅用于 inbound (原始 WebSocket 文本帧)
}

// Options 是 Hub 的可调参数
type Options struct {
	MaxMessageSize    int64 // 单帧最大字节数
	SendBuffer        int   // 每个连接的发送队列长度
	PresenterOnlyDraw bool  // 为 true 时丢弃非演示者的白板更新
}

func (o Options) withDefaults() Options {
	if o.MaxMessageSize <= 0 {
		o.MaxMessageSize = defaultMaxMessageSize
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = defaultSendBuffer
	}
	return o
}

// Hub 是中继协议的核心：所有连接的注册、入站事件和断开都通过同一个通道
// 交给 Run 所在的单个 goroutine 顺序处理，每个事件处理完毕后才处理下一个，
// 因此注册表、房间目录和快照缓存的修改不会交错。
type Hub struct {
	messageChan chan HubMessage
	done        chan struct{}

	// 以下字段只由 Run 所在 goroutine 访问
	clients  map[*Client]struct{} // 所有活跃连接 (包括尚未 join 的)
	registry *Registry

	presence   *service.PresenceService
	whiteboard *service.WhiteboardService
	opts       Options
	now        func() time.Time

	connected atomic.Int64 // 供健康检查读取
}

// NewHub 创建并返回一个新的 Hub 实例
func NewHub(presence *service.PresenceService, whiteboard *service.WhiteboardService, opts Options) *Hub {
	if presence == nil {
		panic("PresenceService cannot be nil for Hub")
	}
	if whiteboard == nil {
		panic("WhiteboardService cannot be nil for Hub")
	}
	return &Hub{
		messageChan: make(chan HubMessage, 512),
		done:        make(chan struct{}),
		clients:     make(map[*Client]struct{}),
		registry:    NewRegistry(),
		presence:    presence,
		whiteboard:  whiteboard,
		opts:        opts.withDefaults(),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Run 启动 Hub 的事件循环，直到 ctx 被取消。
// 它应该在一个单独的 goroutine 中运行。
func (h *Hub) Run(ctx context.Context) {
	log := logrus.WithField("component", "hub")
	log.Info("Hub is running...")
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			log.WithField("clients", len(h.clients)).Info("Hub is shutting down...")
			h.closeAll()
			return
		case msg := <-h.messageChan:
			h.dispatch(ctx, msg)
		}
	}
}

// Done 在 Run 退出后关闭
func (h *Hub) Done() <-chan struct{} { return h.done }

// ConnectedClients 返回当前活跃连接数，可在任意 goroutine 调用
func (h *Hub) ConnectedClients() int { return int(h.connected.Load()) }

// QueueMessage 将消息放入 Hub 的处理队列 (非阻塞)。
// 返回 false 表示队列已满或 Hub 已停止。
func (h *Hub) QueueMessage(msg HubMessage) bool {
	select {
	case <-h.done:
		return false
	default:
	}
	select {
	case h.messageChan <- msg:
		return true
	default:
		logrus.WithFields(logrus.Fields{
			"message_type": msg.Type,
			"conn_id":      msg.Client.ID(),
		}).Warn("Hub message channel full, dropping message")
		return false
	}
}

// enqueue 阻塞直到消息入队或 Hub 停止，用于保持单个连接内的事件顺序。
func (h *Hub) enqueue(msg HubMessage) bool {
	select {
	case h.messageChan <- msg:
		return true
	case <-h.done:
		return false
	}
}

// dispatch 在事件循环中处理一条消息，处理完才返回
func (h *Hub) dispatch(ctx context.Context, msg HubMessage) {
	if msg.Client == nil {
		logrus.WithField("message_type", msg.Type).Error("Hub: received message without client")
		return
	}
	switch msg.Type {
	case MessageRegister:
		h.registerClient(msg.Client)
	case MessageUnregister:
		h.unregisterClient(ctx, msg.Client)
	case MessageInbound:
		if _, ok := h.clients[msg.Client]; !ok {
			// 连接已注销，丢弃残留消息
			return
		}
		h.handleCommand(ctx, msg.Client, dto.DecodeCommand(msg.RawData))
	default:
		logrus.Warnf("Hub: received unknown message type: %s", msg.Type)
	}
}

func (h *Hub) registerClient(c *Client) {
	if _, ok := h.clients[c]; ok {
		return
	}
	h.clients[c] = struct{}{}
	c.state = stateUnjoined
	h.connected.Add(1)
	logrus.WithField("conn_id", c.ID()).Info("Client registered to Hub")
}

// unregisterClient 处理传输层断开：效果与 leaveRoom 相同，且可重复调用
func (h *Hub) unregisterClient(ctx context.Context, c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	if !h.leaveRoom(ctx, c) {
		// 连接即将销毁，不能继续留在广播目标中
		if identity, ok := h.registry.Remove(c); ok {
			logrus.WithFields(logrus.Fields{
				"conn_id": c.ID(),
				"room_id": identity.RoomID,
				"user_id": identity.UserID,
			}).Error("Room directory may keep a stale member after failed leave")
		}
	}
	delete(h.clients, c)
	c.state = stateDisconnected
	close(c.send) // WritePump 随之退出
	h.connected.Add(-1)
	logrus.WithField("conn_id", c.ID()).Info("Client unregistered from Hub")
}

// closeAll 在关闭时断开所有连接，并把它们从房间目录中移除 (外部存储不会残留成员)
func (h *Hub) closeAll() {
	for c := range h.clients {
		h.unregisterClient(context.Background(), c)
	}
}

// send 将事件放入单个连接的发送队列 (非阻塞)
func (h *Hub) send(c *Client, ev dto.Event) {
	payload, err := dto.EncodeEvent(ev)
	if err != nil {
		logrus.WithField("event", ev.EventName()).WithError(err).Error("Failed to encode outbound event")
		return
	}
	h.push(c, ev.EventName(), payload)
}

// broadcast 将事件发送给房间内所有连接，except 不为 nil 时排除该连接
func (h *Hub) broadcast(roomID string, ev dto.Event, except *Client) {
	recipients := h.registry.Members(roomID)
	if len(recipients) == 0 {
		return
	}
	payload, err := dto.EncodeEvent(ev)
	if err != nil {
		logrus.WithField("event", ev.EventName()).WithError(err).Error("Failed to encode broadcast event")
		return
	}
	logrus.WithFields(logrus.Fields{
		"room_id":         roomID,
		"event":           ev.EventName(),
		"message_size":    len(payload),
		"recipient_count": len(recipients),
	}).Debug("Broadcasting event to room")

	for _, c := range recipients {
		if c == except {
			continue
		}
		h.push(c, ev.EventName(), payload)
	}
}

func (h *Hub) push(c *Client, event string, payload []byte) {
	select {
	case c.send <- payload:
	default:
		// 慢客户端不阻塞广播
		logrus.WithFields(logrus.Fields{"conn_id": c.ID(), "event": event}).Warn("Client send channel full, message dropped")
	}
}

func (h *Hub) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, opTimeout)
}
