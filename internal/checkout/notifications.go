package checkout

import (
	"sync"

	"github.com/rs/zerolog/log"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is a structured signal for the presentation layer. The core
// never decides how something is displayed; it only reports what happened
// and, for field-scoped failures, which field it concerns.
type Notification struct {
	Level   Level  `json:"level"`
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// Notification codes emitted by the session.
const (
	CodeAddressSynced     = "address_synced"
	CodeAddressSyncFailed = "address_sync_failed"
	CodePaymentSynced     = "payment_method_synced"
	CodePaymentSyncFailed = "payment_method_sync_failed"
	CodePromoApplied      = "promo_applied"
	CodePromoRejected     = "promo_rejected"
	CodeOrderSubmitted    = "order_submitted"
	CodeSubmitFailed      = "submit_failed"
)

// Sink receives notifications. Implementations must not block.
type Sink interface {
	Notify(n Notification)
}

// BufferSink accumulates notifications until the rendering layer drains them.
type BufferSink struct {
	mu      sync.Mutex
	pending []Notification
}

func NewBufferSink() *BufferSink {
	return &BufferSink{}
}

func (s *BufferSink) Notify(n Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, n)
}

// Drain returns and clears everything buffered so far.
func (s *BufferSink) Drain() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.pending
	s.pending = nil
	return out
}

// LogSink writes notifications to the service log.
type LogSink struct{}

func (LogSink) Notify(n Notification) {
	ev := log.Info()
	switch n.Level {
	case LevelWarning:
		ev = log.Warn()
	case LevelError:
		ev = log.Error()
	}
	ev.Str("code", n.Code).Str("field", n.Field).Msg(n.Message)
}

// TeeSink fans a notification out to several sinks.
type TeeSink []Sink

func (t TeeSink) Notify(n Notification) {
	for _, s := range t {
		s.Notify(n)
	}
}
