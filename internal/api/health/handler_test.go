package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		dbErr      error
		setupRedis func(redismock.ClientMock)
		wantCode   int
		wantStatus string
		wantRedis  string
	}{
		{name: "db only", wantCode: http.StatusOK, wantStatus: "ok"},
		{name: "db down", dbErr: errors.New("connection refused"), wantCode: http.StatusServiceUnavailable, wantStatus: "down"},
		{
			name:       "redis healthy",
			setupRedis: func(m redismock.ClientMock) { m.ExpectPing().SetVal("PONG") },
			wantCode:   http.StatusOK, wantStatus: "ok", wantRedis: "ok",
		},
		{
			name:       "redis down",
			setupRedis: func(m redismock.ClientMock) { m.ExpectPing().SetErr(errors.New("redis connection failed")) },
			wantCode:   http.StatusOK, wantStatus: "degraded", wantRedis: "down",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rdb redis.Cmdable
			var mock redismock.ClientMock
			if tt.setupRedis != nil {
				var client *redis.Client
				client, mock = redismock.NewClientMock()
				tt.setupRedis(mock)
				rdb = client
			}
			h := NewHandler(pinger{tt.dbErr}, rdb, zap.NewNop().Sugar())

			r := gin.New()
			r.GET("/health", h.Live)
			r.GET("/health/ready", h.Ready)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

			w = httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
			require.Equal(t, tt.wantCode, w.Code)

			var resp struct {
				Status string            `json:"status"`
				Checks map[string]string `json:"checks"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantStatus, resp.Status)
			if tt.wantRedis != "" {
				assert.Equal(t, tt.wantRedis, resp.Checks["redis"])
				assert.NoError(t, mock.ExpectationsWereMet())
			}
		})
	}
}
