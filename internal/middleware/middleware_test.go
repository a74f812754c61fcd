package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler(c *gin.Context) { c.String(http.StatusOK, "ok") }

func get(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, nil)
	req.RemoteAddr = "10.0.0.1:1234"
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	r := gin.New()
	r.Use(RateLimit(client, "wb:", 2, time.Second))
	r.GET("/api/x", okHandler)

	assert.Equal(t, http.StatusOK, get(r, http.MethodGet, "/api/x").Code)
	w := get(r, http.MethodGet, "/api/x")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = get(r, http.MethodGet, "/api/x")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.True(t, mr.Exists("wb:ratelimit:10.0.0.1"))

	// 窗口过期后计数器重置
	mr.FastForward(2 * time.Second)
	assert.Equal(t, http.StatusOK, get(r, http.MethodGet, "/api/x").Code)
}

func TestRateLimit_WindowIsNotExtendedByTraffic(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	r := gin.New()
	r.Use(RateLimit(client, "wb:", 2, time.Second))
	r.GET("/api/x", okHandler)

	assert.Equal(t, http.StatusOK, get(r, http.MethodGet, "/api/x").Code)
	mr.FastForward(600 * time.Millisecond)
	assert.Equal(t, http.StatusOK, get(r, http.MethodGet, "/api/x").Code)

	// 窗口从第一个请求开始计时，第二个请求不会延长它
	mr.FastForward(600 * time.Millisecond)
	w := get(r, http.MethodGet, "/api/x")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimit_RedisDown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	r := gin.New()
	r.Use(RateLimit(client, "wb:", 2, time.Second))
	r.GET("/api/x", okHandler)

	assert.Equal(t, http.StatusInternalServerError, get(r, http.MethodGet, "/api/x").Code)
}

func TestRateLimit_InvalidArgsPanic(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer client.Close()
	assert.Panics(t, func() { RateLimit(nil, "", 1, time.Second) })
	assert.Panics(t, func() { RateLimit(client, "", 0, time.Second) })
	assert.Panics(t, func() { RateLimit(client, "", 1, 0) })
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("Wildcard", func(t *testing.T) {
		r := gin.New()
		r.Use(CORS(""))
		r.GET("/", okHandler)

		w := get(r, http.MethodGet, "/")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("Preflight with fixed origin", func(t *testing.T) {
		r := gin.New()
		r.Use(CORS("http://localhost:3000"))
		r.GET("/", okHandler)

		w := get(r, http.MethodOptions, "/")
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	})
}

func TestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetFormatter(&logrus.JSONFormatter{})

	r := gin.New()
	r.Use(Logger(log))
	r.GET("/ok", okHandler)

	w := get(r, http.MethodGet, "/ok?x=1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, buf.String(), `"path":"/ok?x=1"`)
	assert.Contains(t, buf.String(), `"status_code":200`)

	buf.Reset()
	get(r, http.MethodGet, "/missing")
	assert.Contains(t, buf.String(), `"level":"warning"`)
}
