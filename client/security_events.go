package client

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event categories, after the NIST SP 800-92 taxonomy.
const (
	EventAuthentication   = "authentication"
	EventSessionLifecycle = "session_lifecycle"
)

// Event subtypes.
const (
	SubtypeAuthAttempt   = "attempt"
	SubtypeAuthSuccess   = "success"
	SubtypeAuthRejected  = "rejected"
	SubtypeAuthFailure   = "failure"
	SubtypeTokenRestored = "token_restored"
	SubtypeSessionInit   = "init"
	SubtypeSessionLogout = "logout"
)

// Outcome is the result recorded on a SecurityEvent. It also picks the log
// level: attempts and successes at info, denials at warn, failures at error.
type Outcome string

// Outcomes.
const (
	OutcomeAttempt Outcome = "attempt"
	OutcomeSuccess Outcome = "success"
	OutcomeDenied  Outcome = "denied"
	OutcomeFailure Outcome = "failure"
)

// Level returns the slog level events with this outcome are logged at.
func (o Outcome) Level() slog.Level {
	switch o {
	case OutcomeDenied:
		return slog.LevelWarn
	case OutcomeFailure:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

const eventSource = "go-dspace"

// SecurityEvent is one audit record. Passwords and tokens are never part of it.
type SecurityEvent struct {
	Timestamp     time.Time      `json:"timestamp"`
	EventType     string         `json:"event_type"`
	Subtype       string         `json:"subtype"`
	Outcome       Outcome        `json:"outcome"`
	User          string         `json:"user,omitempty"`
	Source        string         `json:"source"`
	Target        string         `json:"target"`
	CorrelationID string         `json:"correlation_id"`
	Details       map[string]any `json:"details,omitempty"`
}

// Action is "<event_type>.<subtype>", e.g. "authentication.success".
func (e *SecurityEvent) Action() string {
	return e.EventType + "." + e.Subtype
}

// LogValue implements slog.LogValuer.
func (e *SecurityEvent) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Time("timestamp", e.Timestamp),
		slog.String("event_type", e.EventType),
		slog.String("subtype", e.Subtype),
		slog.String("action", e.Action()),
		slog.String("outcome", string(e.Outcome)),
	}
	if e.User != "" {
		attrs = append(attrs, slog.String("user", e.User))
	}
	attrs = append(attrs,
		slog.String("source", e.Source),
		slog.String("target", e.Target),
		slog.String("correlation_id", e.CorrelationID),
	)
	if len(e.Details) > 0 {
		attrs = append(attrs, slog.Any("details", e.Details))
	}
	return slog.GroupValue(attrs...)
}

// String returns the event as JSON.
func (e *SecurityEvent) String() string {
	b, _ := json.Marshal(e)
	return string(b)
}

// SecurityLogger writes the audit trail of one client. All events share a
// correlation ID generated when the logger is created.
type SecurityLogger struct {
	logger        *slog.Logger
	user          string
	correlationID string

	mu     sync.RWMutex
	target string
}

// NewSecurityLogger returns a logger for events about target on behalf of user.
// A nil logger drops all events.
func NewSecurityLogger(logger *slog.Logger, user, target string) *SecurityLogger {
	return &SecurityLogger{
		logger:        logger,
		user:          user,
		target:        target,
		correlationID: uuid.NewString(),
	}
}

// CorrelationID returns the UUID attached to every event of this logger.
func (l *SecurityLogger) CorrelationID() string {
	return l.correlationID
}

// SetTarget changes the endpoint reported on later events. The correlation
// ID is kept.
func (l *SecurityLogger) SetTarget(target string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.target = target
	l.mu.Unlock()
}

// Target returns the endpoint reported on events.
func (l *SecurityLogger) Target() string {
	if l == nil {
		return ""
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.target
}

// Log writes one event. It is safe to call on a nil logger.
func (l *SecurityLogger) Log(ctx context.Context, eventType, subtype string, outcome Outcome, details map[string]any) {
	if l == nil || l.logger == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	event := &SecurityEvent{
		Timestamp:     time.Now().UTC(),
		EventType:     eventType,
		Subtype:       subtype,
		Outcome:       outcome,
		User:          l.user,
		Source:        eventSource,
		Target:        l.Target(),
		CorrelationID: l.correlationID,
		Details:       details,
	}
	l.logger.Log(ctx, outcome.Level(), "SecurityEvent", slog.Any("event", event))
}

// Authentication logs login, rejection and token events.
func (l *SecurityLogger) Authentication(ctx context.Context, subtype string, outcome Outcome, details map[string]any) {
	l.Log(ctx, EventAuthentication, subtype, outcome, details)
}

// Session logs client initialization and logout.
func (l *SecurityLogger) Session(ctx context.Context, subtype string, outcome Outcome, details map[string]any) {
	l.Log(ctx, EventSessionLifecycle, subtype, outcome, details)
}
