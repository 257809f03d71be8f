package audit

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/healthhive/server/internal/auth"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type logged struct {
	Level     string `json:"level"`
	Component string `json:"component"`
	Message   string `json:"message"`
	Audit     Entry  `json:"audit"`
}

func decode(t *testing.T, buf *bytes.Buffer) logged {
	t.Helper()
	var out logged
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out), buf.String())
	return out
}

func TestLogger_Log(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(zerolog.New(&buf))
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	logger.now = func() time.Time { return fixed }

	logger.Log(Entry{Action: ActionPlaceCreate, UserID: "01HYX3KQW7ERTV9XNBM2P8QJZF", PlaceID: "01HYX3KQW7ERTV9XNBM2P8QJZG", Status: StatusSuccess})

	out := decode(t, &buf)
	require.Equal(t, "info", out.Level)
	require.Equal(t, "audit", out.Component)
	require.Equal(t, ActionPlaceCreate, out.Message)
	require.True(t, fixed.Equal(out.Audit.Timestamp))
	require.Equal(t, "01HYX3KQW7ERTV9XNBM2P8QJZG", out.Audit.PlaceID)
}

func TestLogger_NonSuccessIsWarn(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(zerolog.New(&buf)).Log(Entry{Action: ActionPlaceDelete, Status: StatusDenied})
	require.Equal(t, "warn", decode(t, &buf).Level)
}

func TestLogger_LogFromRequest(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(zerolog.New(&buf))

	req := httptest.NewRequest(http.MethodPut, "/api/v1/places/x", nil)
	req.RemoteAddr = "203.0.113.9:51234"
	req.Header.Set("X-Forwarded-For", "10.0.0.1")
	req = req.WithContext(auth.WithClaims(req.Context(), &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "01HYX3KQW7ERTV9XNBM2P8QJZF"},
	}))

	logger.LogFromRequest(req, ActionPlaceUpdate, "01HYX3KQW7ERTV9XNBM2P8QJZG", StatusDenied, "req-1", map[string]string{"reason": "not owner"})

	out := decode(t, &buf).Audit
	require.Equal(t, "01HYX3KQW7ERTV9XNBM2P8QJZF", out.UserID)
	require.Equal(t, "203.0.113.9", out.IPAddress)
	require.Equal(t, "req-1", out.RequestID)
	require.Equal(t, "not owner", out.Details["reason"])
}

func TestLogger_NilIsNoop(t *testing.T) {
	var logger *Logger
	require.NotPanics(t, func() {
		logger.Log(Entry{Action: ActionPlaceCreate})
		logger.LogFromRequest(httptest.NewRequest(http.MethodGet, "/", nil), ActionPlaceCreate, "", StatusSuccess, "", nil)
	})
}
