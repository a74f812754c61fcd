package bootstrap

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config 结构体用于存储从环境变量或 .env 文件加载的配置
type Config struct {
	ServerPort        string
	AppEnv            string // development / production
	LogLevel          string
	CORSAllowedOrigin string

	// RedisAddr 为空时房间目录和快照缓存使用进程内存
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	KeyPrefix       string
	SnapshotTTL     time.Duration // 0 表示快照不过期 (房间清空时仍会被删除)
	RateLimitMax    int
	RateLimitWindow time.Duration

	WSMaxMessageBytes int64
	WSSendBuffer      int
	PresenterOnlyDraw bool
}

// LoadConfig 从环境变量加载配置，非法值回退到默认值并打印警告
func LoadConfig() (*Config, error) {
	// 优先加载 .env 文件 (如果存在)
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:        envString("PORT", "5000"),
		AppEnv:            envString("APP_ENV", "development"),
		LogLevel:          envString("LOG_LEVEL", "info"),
		CORSAllowedOrigin: envString("CORS_ALLOWED_ORIGIN", "*"),
		RedisAddr:         envString("REDIS_ADDR", ""),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		RedisDB:           envInt("REDIS_DB", 0),
		KeyPrefix:         envString("REDIS_KEY_PREFIX", "wb:"),
		SnapshotTTL:       envDuration("SNAPSHOT_TTL", 0),
		RateLimitMax:      envInt("RATE_LIMIT_MAX", 100),
		RateLimitWindow:   envDuration("RATE_LIMIT_WINDOW", time.Second),
		WSMaxMessageBytes: int64(envInt("WS_MAX_MESSAGE_BYTES", 4<<20)),
		WSSendBuffer:      envInt("WS_SEND_BUFFER", 256),
		PresenterOnlyDraw: envBool("PRESENTER_ONLY_DRAW", false),
	}

	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		logrus.Warnf("Invalid LOG_LEVEL '%s', using default 'info'", cfg.LogLevel)
		cfg.LogLevel = "info"
	}
	if _, err := strconv.Atoi(cfg.ServerPort); err != nil {
		logrus.Warnf("Invalid PORT '%s', using default '5000'", cfg.ServerPort)
		cfg.ServerPort = "5000"
	}
	if cfg.RateLimitMax <= 0 {
		cfg.RateLimitMax = 100
	}
	if cfg.RateLimitWindow <= 0 {
		cfg.RateLimitWindow = time.Second
	}
	if cfg.WSMaxMessageBytes <= 0 {
		cfg.WSMaxMessageBytes = 4 << 20
	}
	if cfg.WSSendBuffer <= 0 {
		cfg.WSSendBuffer = 256
	}
	if cfg.SnapshotTTL < 0 {
		cfg.SnapshotTTL = 0
	}

	return cfg, nil
}

// UseRedis 表示是否配置了 Redis 作为共享状态存储
func (c *Config) UseRedis() bool { return c.RedisAddr != "" }

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logrus.Warnf("Invalid %s '%s', using default %d", key, v, def)
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		logrus.Warnf("Invalid %s '%s', using default %s", key, v, def)
		return def
	}
	return d
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		logrus.Warnf("Invalid %s '%s', using default %t", key, v, def)
		return def
	}
	return b
}
