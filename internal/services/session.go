package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"

	"warren-backend/internal/models"
)

// ConversationSession is one visitor's ongoing exchange with the assistant.
// It is created once, never re-created, and owns its transcript and the
// server-held chat history. At most one turn may be in flight at a time;
// BeginTurn is the gate.
type ConversationSession struct {
	ID         uuid.UUID
	Transcript *Transcript

	chat *genai.ChatSession

	mu         sync.Mutex
	inFlight   bool
	lastActive time.Time
}

// BeginTurn claims the in-flight slot. The widget disables its controls
// while busy; this is the server-side backstop for the same invariant.
func (s *ConversationSession) BeginTurn() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return &BusyError{}
	}
	s.inFlight = true
	s.lastActive = time.Now()
	return nil
}

// EndTurn releases the slot and clears the loading placeholder.
func (s *ConversationSession) EndTurn() {
	s.mu.Lock()
	s.inFlight = false
	s.lastActive = time.Now()
	s.mu.Unlock()
	s.Transcript.SetBusy(false)
}

func (s *ConversationSession) InFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

func (s *ConversationSession) touch() {
	s.mu.Lock()
	s.lastActive = time.Now()
	s.mu.Unlock()
}

func (s *ConversationSession) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// SessionManager creates and resolves conversation sessions. Idle sessions
// are reaped by a janitor; expiry is the server-side stand-in for the page
// unload that ended the original widget's conversation.
type SessionManager struct {
	mu        sync.RWMutex
	sessions  map[uuid.UUID]*ConversationSession
	assistant *AssistantService
	publisher Publisher
	ttl       time.Duration
}

func NewSessionManager(assistant *AssistantService, publisher Publisher, ttl time.Duration) *SessionManager {
	m := &SessionManager{
		sessions:  make(map[uuid.UUID]*ConversationSession),
		assistant: assistant,
		publisher: publisher,
		ttl:       ttl,
	}

	// Janitor for expired sessions
	go func() {
		ticker := time.NewTicker(ttl / 4)
		defer ticker.Stop()
		for range ticker.C {
			m.reap()
		}
	}()

	return m
}

// Create opens a new conversation. Creation succeeds even when the
// assistant is unavailable: the session exists, and every send against it
// fails fast with an UnavailableError.
func (m *SessionManager) Create() *ConversationSession {
	id := uuid.New()
	sess := &ConversationSession{
		ID:         id,
		chat:       m.assistant.StartChat(),
		lastActive: time.Now(),
	}
	sess.Transcript = NewTranscript(func(msg models.WSMessage) {
		m.publisher.Publish(context.Background(), id, msg)
	})

	m.mu.Lock()
	m.sessions[id] = sess
	m.mu.Unlock()
	return sess
}

// Get resolves a session by id, refreshing its idle clock.
func (m *SessionManager) Get(id uuid.UUID) (*ConversationSession, error) {
	m.mu.RLock()
	sess, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, &NotFoundError{Message: "conversation not found or expired"}
	}
	sess.touch()
	return sess, nil
}

func (m *SessionManager) reap() {
	cutoff := time.Now().Add(-m.ttl)
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, sess := range m.sessions {
		if sess.idleSince().Before(cutoff) && !sess.InFlight() {
			delete(m.sessions, id)
		}
	}
}

func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
