package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	httpHandler "whiteboard-relay/internal/handler/http"
	wsHandler "whiteboard-relay/internal/handler/websocket"
	"whiteboard-relay/internal/hub"
	"whiteboard-relay/internal/infra/setup"
	memstate "whiteboard-relay/internal/infra/state/memory"
	redisstate "whiteboard-relay/internal/infra/state/redis"
	"whiteboard-relay/internal/middleware"
	"whiteboard-relay/internal/repository"
	"whiteboard-relay/internal/service"
)

const shutdownTimeout = 10 * time.Second

// App 结构体包含应用的所有组件和配置
type App struct {
	Config      *Config
	Log         *logrus.Logger
	RedisClient *redis.Client // 未配置 Redis 时为 nil
	Hub         *hub.Hub
	HttpServer  *http.Server

	hubCancel context.CancelFunc
}

// NewApp 加载配置并创建应用
func NewApp() (*App, error) {
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return nil, err
	}
	return NewAppWithConfig(cfg)
}

// NewAppWithConfig 根据给定配置初始化应用的所有组件
func NewAppWithConfig(cfg *Config) (*App, error) {
	log := initLogger(cfg)
	log.Info("Configuration loaded successfully")

	// 1. 选择状态存储
	var (
		roomRepo     repository.RoomRepository
		snapshotRepo repository.SnapshotRepository
		redisClient  *redis.Client
	)
	if cfg.UseRedis() {
		client, err := setup.InitRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("failed to init Redis: %w", err)
		}
		redisClient = client
		stateRepo := redisstate.NewRedisStateRepository(client, cfg.KeyPrefix, cfg.SnapshotTTL)
		roomRepo, snapshotRepo = stateRepo, stateRepo
		log.WithFields(logrus.Fields{"addr": cfg.RedisAddr, "key_prefix": cfg.KeyPrefix}).Info("Using Redis room state")
	} else {
		stateRepo := memstate.NewMemoryStateRepository()
		roomRepo, snapshotRepo = stateRepo, stateRepo
		log.Info("REDIS_ADDR not set, using in-memory room state")
	}

	// 2. Services 和 Hub
	presenceService := service.NewPresenceService(roomRepo)
	whiteboardService := service.NewWhiteboardService(snapshotRepo)
	hubInstance := hub.NewHub(presenceService, whiteboardService, hub.Options{
		MaxMessageSize:    cfg.WSMaxMessageBytes,
		SendBuffer:        cfg.WSSendBuffer,
		PresenterOnlyDraw: cfg.PresenterOnlyDraw,
	})

	// 3. Handlers 和路由
	roomHandler := httpHandler.NewRoomHandler(presenceService, whiteboardService)
	websocketHandler := wsHandler.NewWebSocketHandler(hubInstance)
	healthHandler := httpHandler.NewHealthHandler(hubInstance)
	router := newRouter(cfg, log, redisClient, healthHandler, roomHandler, websocketHandler)

	app := &App{
		Config:      cfg,
		Log:         log,
		RedisClient: redisClient,
		Hub:         hubInstance,
		HttpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
	log.Info("Application assembled successfully")
	return app, nil
}

// initLogger 配置 logrus 的标准 logger，各包通过 logrus 包级函数共享它
func initLogger(cfg *Config) *logrus.Logger {
	log := logrus.StandardLogger()
	if cfg.AppEnv == "production" {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	log.SetOutput(os.Stdout)
	log.Infof("Logger initialized (Level: %s, Format: %T)", level.String(), log.Formatter)
	return log
}

func newRouter(cfg *Config, log *logrus.Logger, redisClient *redis.Client,
	healthHandler *httpHandler.HealthHandler, roomHandler *httpHandler.RoomHandler,
	websocketHandler *wsHandler.WebSocketHandler) *gin.Engine {
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(log))
	router.Use(middleware.CORS(cfg.CORSAllowedOrigin))

	router.GET("/", httpHandler.Root)
	router.GET("/ping", healthHandler.Ping)
	router.GET("/ws", websocketHandler.HandleConnection)

	api := router.Group("/api")
	if redisClient != nil {
		api.Use(middleware.RateLimit(redisClient, cfg.KeyPrefix, cfg.RateLimitMax, cfg.RateLimitWindow))
	}
	api.GET("/rooms/:roomId", roomHandler.GetRoom)

	return router
}

// Start 启动 Hub 事件循环和 HTTP 服务器
func (a *App) Start() {
	hubCtx, cancel := context.WithCancel(context.Background())
	a.hubCancel = cancel
	go a.Hub.Run(hubCtx)
	a.Log.Info("Hub routine started")

	go func() {
		a.Log.Infof("HTTP server starting to listen on %s", a.HttpServer.Addr)
		if err := a.HttpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Log.Fatalf("Failed to start HTTP server: %v", err)
		}
		a.Log.Info("HTTP server stopped listening.")
	}()
}

// Shutdown 优雅地关闭应用：先停止接受新连接，再关闭 Hub (断开所有 WebSocket)，最后关闭 Redis
func (a *App) Shutdown() {
	a.Log.Info("Shutting down application...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// 1. HTTP 服务器 (被劫持的 WebSocket 连接不受影响，由 Hub 关闭)
	if err := a.HttpServer.Shutdown(ctx); err != nil {
		a.Log.Errorf("Error shutting down HTTP server: %v", err)
	} else {
		a.Log.Info("HTTP server shut down gracefully.")
	}

	// 2. Hub
	if a.hubCancel != nil {
		a.hubCancel()
		select {
		case <-a.Hub.Done():
			a.Log.Info("Hub stopped.")
		case <-ctx.Done():
			a.Log.Warn("Timed out waiting for hub to stop")
		}
	}

	// 3. Redis 在 Hub 之后关闭，Hub 退出时还要清理房间目录
	if a.RedisClient != nil {
		if err := a.RedisClient.Close(); err != nil {
			a.Log.Errorf("Error closing Redis connection: %v", err)
		} else {
			a.Log.Info("Redis connection closed.")
		}
	}

	a.Log.Info("Application shutdown complete.")
}
