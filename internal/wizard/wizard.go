// Package wizard runs the multi-step guided conversations: each chat has at
// most one live session, entering a flow replaces whatever was running, and
// idle sessions expire.
package wizard

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// SessionTTL is how long an idle session survives before the next message
// falls through to normal routing.
const SessionTTL = 10 * time.Minute

// Outcome is what a step decides about the session after handling one input.
type Outcome int

const (
	// Stay repeats the current step; the input was not usable.
	Stay Outcome = iota
	// Advance moves to the next step.
	Advance
	// Complete ends the session; the flow finished its work.
	Complete
	// Cancel ends the session without finishing.
	Cancel
)

// Step handles one user input for a session and returns the reply to send.
// The entry step (index 0) runs with empty input when the flow starts.
type Step func(ctx context.Context, s *Session, input string) (Outcome, string)

// Flow is a named sequence of steps.
type Flow struct {
	Name  string
	Steps []Step
}

// Session is the per-chat state of a running flow. Data carries whatever the
// steps collect along the way.
type Session struct {
	ChatID string
	Data   map[string]string

	flow    *Flow
	step    int
	touched time.Time
}

// Manager owns all live sessions.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	log      zerolog.Logger
	now      func() time.Time
}

// NewManager creates a session manager with the default TTL.
func NewManager(log zerolog.Logger) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		ttl:      SessionTTL,
		log:      log,
		now:      time.Now,
	}
}

// WithClock overrides the time source. Test helper.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// Start enters a flow for chatID and returns the entry prompt. A session
// already running for that chat is discarded.
func (m *Manager) Start(ctx context.Context, chatID string, flow *Flow) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.sessions[chatID]; ok {
		m.log.Debug().Str("chat", chatID).Str("old", old.flow.Name).Str("new", flow.Name).Msg("Replacing wizard session")
	}

	s := &Session{
		ChatID:  chatID,
		Data:    make(map[string]string),
		flow:    flow,
		step:    0,
		touched: m.now(),
	}
	m.sessions[chatID] = s

	outcome, reply := flow.Steps[0](ctx, s, "")
	m.apply(s, outcome)
	return reply
}

// Handle feeds one message into the chat's live session. The second return
// is false when no session is live (or it expired), meaning the router
// should treat the message normally.
func (m *Manager) Handle(ctx context.Context, chatID, input string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[chatID]
	if !ok {
		return "", false
	}
	if m.now().Sub(s.touched) > m.ttl {
		delete(m.sessions, chatID)
		m.log.Debug().Str("chat", chatID).Str("flow", s.flow.Name).Msg("Wizard session expired")
		return "", false
	}

	s.touched = m.now()
	outcome, reply := s.flow.Steps[s.step](ctx, s, input)
	m.apply(s, outcome)
	return reply, true
}

// Active reports whether chatID has a live, unexpired session.
func (m *Manager) Active(chatID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[chatID]
	if !ok {
		return false
	}
	if m.now().Sub(s.touched) > m.ttl {
		delete(m.sessions, chatID)
		return false
	}
	return true
}

// Abort drops the chat's live session, reporting whether one existed.
func (m *Manager) Abort(chatID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.sessions[chatID]
	delete(m.sessions, chatID)
	return ok
}

func (m *Manager) apply(s *Session, outcome Outcome) {
	switch outcome {
	case Advance:
		s.step++
		if s.step >= len(s.flow.Steps) {
			delete(m.sessions, s.ChatID)
		}
	case Complete, Cancel:
		delete(m.sessions, s.ChatID)
	}
}

// isCancel matches the cancel keyword and the cancel keyboard button.
func isCancel(raw string) bool {
	lower := strings.ToLower(strings.TrimSpace(raw))
	return lower == "cancel" || strings.Contains(lower, "❌")
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), substr)
}
