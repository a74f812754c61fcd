package websocket

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"whiteboard-relay/internal/dto"
	"whiteboard-relay/internal/hub"
	memstate "whiteboard-relay/internal/infra/state/memory"
	"whiteboard-relay/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupServer(t *testing.T) string {
	t.Helper()
	gin.SetMode(gin.TestMode)

	state := memstate.NewMemoryStateRepository()
	h := hub.NewHub(service.NewPresenceService(state), service.NewWhiteboardService(state), hub.Options{})
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)

	router := gin.New()
	router.GET("/ws", NewWebSocketHandler(h).HandleConnection)
	srv := httptest.NewServer(router)

	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-h.Done()
	})
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func emit(t *testing.T, conn *websocket.Conn, frame string) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))
}

func next(t *testing.T, conn *websocket.Conn) dto.Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var env dto.Envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	return env
}

func TestWebSocket_JoinRelayAndDisconnect(t *testing.T) {
	url := setupServer(t)
	presenter := dial(t, url)
	viewer := dial(t, url)

	emit(t, presenter, `{"event":"join","data":{"name":"P","userId":"up","roomId":"r1","host":true,"presenter":true}}`)
	ack := next(t, presenter)
	assert.Equal(t, dto.EventUserIsJoined, ack.Event)
	assert.JSONEq(t, `{"success":true}`, string(ack.Data))
	assert.JSONEq(t, `{"count":1}`, string(next(t, presenter).Data))

	emit(t, presenter, `{"event":"whiteboardUpdate","data":"data:image/png;base64,AAAA"}`)
	// 同一连接上的事件按顺序处理，收到人数回复说明快照已写入
	emit(t, presenter, `{"event":"requestUserCount"}`)
	assert.JSONEq(t, `{"count":1}`, string(next(t, presenter).Data))

	emit(t, viewer, `{"event":"userJoined","data":{"name":"V","userId":"uv","roomId":"r1"}}`)
	assert.Equal(t, dto.EventUserIsJoined, next(t, viewer).Event)
	assert.JSONEq(t, `{"count":2}`, string(next(t, viewer).Data))
	replay := next(t, viewer)
	assert.Equal(t, dto.EventWhiteBoardDataResponse, replay.Event)
	assert.JSONEq(t, `{"imgURL":"data:image/png;base64,AAAA"}`, string(replay.Data))
	assert.JSONEq(t, `{"count":2}`, string(next(t, presenter).Data))

	emit(t, viewer, `{"event":"requestUserCount"}`)
	assert.JSONEq(t, `{"count":2}`, string(next(t, viewer).Data))

	require.NoError(t, viewer.Close())
	update := next(t, presenter)
	assert.Equal(t, dto.EventUpdateUserCount, update.Event)
	assert.JSONEq(t, `{"count":1}`, string(update.Data))
}

func TestWebSocket_MalformedFramesKeepConnectionOpen(t *testing.T) {
	url := setupServer(t)
	conn := dial(t, url)

	emit(t, conn, `garbage`)
	emit(t, conn, `{"event":"nope"}`)
	emit(t, conn, `{"event":"join","data":{"userId":"u1","roomId":"r1"}}`)

	assert.Equal(t, dto.EventUserIsJoined, next(t, conn).Event)
}
