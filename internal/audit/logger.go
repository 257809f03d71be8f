package audit

import (
	"net"
	"net/http"
	"time"

	"github.com/healthhive/server/internal/auth"
	"github.com/rs/zerolog"
)

const (
	ActionPlaceCreate = "place.create"
	ActionPlaceUpdate = "place.update"
	ActionPlaceDelete = "place.delete"

	StatusSuccess = "success"
	StatusDenied  = "denied"
	StatusFailure = "failure"
)

// Entry is one audited place mutation.
type Entry struct {
	Timestamp time.Time         `json:"timestamp"`
	Action    string            `json:"action"`
	UserID    string            `json:"user_id"`
	PlaceID   string            `json:"place_id,omitempty"`
	IPAddress string            `json:"ip_address"`
	RequestID string            `json:"request_id,omitempty"`
	Status    string            `json:"status"`
	Details   map[string]string `json:"details,omitempty"`
}

// Logger writes entries as a nested "audit" object so they can be routed
// apart from request logs.
type Logger struct {
	logger zerolog.Logger
	now    func() time.Time
}

func NewLogger(logger zerolog.Logger) *Logger {
	return &Logger{
		logger: logger.With().Str("component", "audit").Logger(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Log is a no-op on a nil Logger.
func (l *Logger) Log(entry Entry) {
	if l == nil {
		return
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = l.now()
	}
	event := l.logger.Info()
	if entry.Status != StatusSuccess {
		event = l.logger.Warn()
	}
	event.Interface("audit", entry).Msg(entry.Action)
}

// LogFromRequest fills the caller from the verified token and the address
// from the connection. Forwarded headers are not trusted here.
func (l *Logger) LogFromRequest(r *http.Request, action, placeID, status, requestID string, details map[string]string) {
	if l == nil {
		return
	}
	l.Log(Entry{
		Action:    action,
		UserID:    auth.UserID(r.Context()),
		PlaceID:   placeID,
		IPAddress: remoteIP(r),
		RequestID: requestID,
		Status:    status,
		Details:   details,
	})
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
