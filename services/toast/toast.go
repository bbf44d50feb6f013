// Package toast is the process-wide, fire-and-forget user-feedback channel.
// Any component may push a message; the sink owns display and expiry policy.
// Pushes never block and are never awaited: a toast has no bearing on
// application state.
package toast

import (
	"sync"
	"time"
)

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Toast is one user-visible notification.
type Toast struct {
	Kind      Kind
	Message   string
	ExpiresAt time.Time
}

// Sink receives toasts keyed by client. The portal keys queues by the
// client's durable token (or a per-visitor fallback for anonymous clients).
type Sink interface {
	Push(client string, kind Kind, message string)
	// Drain returns the client's pending, unexpired toasts and clears them.
	Drain(client string) []Toast
}

type memorySink struct {
	mu     sync.Mutex
	queues map[string][]Toast

	successDuration time.Duration
	errorDuration   time.Duration
	nowFunc         func() time.Time // mockable
}

// NewSink builds the in-memory sink with per-kind display durations.
func NewSink(successDuration, errorDuration time.Duration) Sink {
	return &memorySink{
		queues:          make(map[string][]Toast),
		successDuration: successDuration,
		errorDuration:   errorDuration,
		nowFunc:         time.Now,
	}
}

func (s *memorySink) Push(client string, kind Kind, message string) {
	if client == "" || message == "" {
		return
	}
	duration := s.successDuration
	if kind == KindError {
		duration = s.errorDuration
	}
	s.mu.Lock()
	s.queues[client] = append(s.queues[client], Toast{
		Kind:      kind,
		Message:   message,
		ExpiresAt: s.nowFunc().Add(duration),
	})
	s.mu.Unlock()
}

func (s *memorySink) Drain(client string) []Toast {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := s.queues[client]
	if pending == nil {
		return nil
	}
	delete(s.queues, client)

	now := s.nowFunc()
	live := pending[:0]
	for _, t := range pending {
		if now.Before(t.ExpiresAt) {
			live = append(live, t)
		}
	}
	if len(live) == 0 {
		return nil
	}
	return live
}
