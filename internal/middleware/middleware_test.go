package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/SergeiKhy/shortlink/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestRequestID_Generated проверяет генерацию идентификатора запроса
func TestRequestID_Generated(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var seen string
	router := gin.New()
	router.Use(middleware.RequestID())
	router.GET("/test", func(c *gin.Context) {
		seen = middleware.GetRequestID(c)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	router.ServeHTTP(w, req)

	id := w.Header().Get(middleware.RequestIDHeader)
	_, err := uuid.Parse(id)
	assert.NoError(t, err)
	assert.Equal(t, id, seen)
}

// TestRequestID_Propagated проверяет, что входящий идентификатор сохраняется
func TestRequestID_Propagated(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(middleware.RequestID())
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set(middleware.RequestIDHeader, "abc-123")
	router.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(middleware.RequestIDHeader))

	// слишком длинный идентификатор заменяется новым
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/test", nil)
	req.Header.Set(middleware.RequestIDHeader, strings.Repeat("x", 500))
	router.ServeHTTP(w, req)
	assert.NotEqual(t, strings.Repeat("x", 500), w.Header().Get(middleware.RequestIDHeader))
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

// TestLogger_LevelByStatus проверяет уровень записи журнала в зависимости от статуса
func TestLogger_LevelByStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		status int
		level  zapcore.Level
	}{
		{status: http.StatusOK, level: zapcore.InfoLevel},
		{status: http.StatusTemporaryRedirect, level: zapcore.InfoLevel},
		{status: http.StatusNotFound, level: zapcore.WarnLevel},
		{status: http.StatusServiceUnavailable, level: zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)

			router := gin.New()
			router.Use(middleware.RequestID(), middleware.Logger(zap.New(core)))
			router.GET("/test", func(c *gin.Context) {
				c.Status(tt.status)
			})

			w := httptest.NewRecorder()
			req, _ := http.NewRequest("GET", "/test", nil)
			router.ServeHTTP(w, req)

			require.Equal(t, 1, logs.Len())
			entry := logs.All()[0]
			assert.Equal(t, tt.level, entry.Level)

			fields := entry.ContextMap()
			assert.Equal(t, "GET", fields["method"])
			assert.Equal(t, "/test", fields["path"])
			assert.EqualValues(t, tt.status, fields["status"])
			assert.Equal(t, w.Header().Get(middleware.RequestIDHeader), fields["request_id"])
		})
	}
}

// TestMetrics_PassesThrough проверяет, что сбор метрик не меняет ответ
func TestMetrics_PassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(middleware.Metrics())
	router.GET("/:short_id", func(c *gin.Context) {
		c.String(http.StatusOK, c.Param("short_id"))
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/abc", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc", w.Body.String())

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/a/b", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
