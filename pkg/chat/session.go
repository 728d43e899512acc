package chat

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultMaxMessages caps stored history at the last 10 messages
// (5 question/answer pairs).
const DefaultMaxMessages = 10

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry in a conversation history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// sessionData is the JSON layout persisted per session key.
type sessionData struct {
	Messages []Message `json:"messages"`
}

// SessionsConfig holds session manager configuration.
type SessionsConfig struct {
	// MaxMessages bounds stored history per session. Older messages are
	// evicted first.
	MaxMessages int

	// Optional structured logger.
	Logger zerolog.Logger
}

// SessionsOption configures a Sessions manager.
type SessionsOption interface {
	Apply(*SessionsConfig)
}

type sessionsConfigOption struct{ config *SessionsConfig }

func (o sessionsConfigOption) Apply(config *SessionsConfig) { *config = *o.config }

// WithSessionsConfig sets custom session manager configuration.
func WithSessionsConfig(config *SessionsConfig) SessionsOption {
	return sessionsConfigOption{config: config}
}

// Sessions manages bounded conversation histories over a pluggable store.
// Multiple concurrent conversations are identified by session keys.
type Sessions struct {
	store       Store
	maxMessages int
	logger      zerolog.Logger
}

// NewSessions creates a session manager. A nil store defaults to in-memory.
//
// Example:
//
//	sessions := chat.NewSessions(chat.NewInMemoryStore())
//	id := sessions.NewSessionID()
func NewSessions(store Store, opts ...SessionsOption) *Sessions {
	if store == nil {
		store = NewInMemoryStore()
	}

	config := &SessionsConfig{}
	for _, opt := range opts {
		opt.Apply(config)
	}
	if config.MaxMessages <= 0 {
		config.MaxMessages = DefaultMaxMessages
	}

	return &Sessions{
		store:       store,
		maxMessages: config.MaxMessages,
		logger:      config.Logger,
	}
}

// NewSessionID returns a fresh unique session key.
func (s *Sessions) NewSessionID() string {
	return uuid.NewString()
}

// History returns the stored messages for a session, oldest first. An
// unknown session yields an empty history.
func (s *Sessions) History(sessionID string) ([]Message, error) {
	data, err := s.store.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", sessionID, err)
	}
	if data == nil {
		return []Message{}, nil
	}

	var session sessionData
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("decoding session %s: %w", sessionID, err)
	}
	return session.Messages, nil
}

// AppendTurn records a question/answer pair and evicts the oldest messages
// once the history exceeds the configured cap.
func (s *Sessions) AppendTurn(sessionID, question, answer string) error {
	messages, err := s.History(sessionID)
	if err != nil {
		return err
	}

	messages = append(messages,
		Message{Role: RoleUser, Content: question},
		Message{Role: RoleAssistant, Content: answer},
	)
	if len(messages) > s.maxMessages {
		messages = messages[len(messages)-s.maxMessages:]
	}

	data, err := json.Marshal(sessionData{Messages: messages})
	if err != nil {
		return fmt.Errorf("encoding session %s: %w", sessionID, err)
	}
	if err := s.store.Set(sessionID, data); err != nil {
		return fmt.Errorf("saving session %s: %w", sessionID, err)
	}

	s.logger.Debug().
		Str("session", sessionID).
		Int("messages", len(messages)).
		Msg("turn recorded")
	return nil
}

// Clear removes a session's history, returning it to the empty state.
func (s *Sessions) Clear(sessionID string) error {
	if err := s.store.Delete(sessionID); err != nil {
		return fmt.Errorf("clearing session %s: %w", sessionID, err)
	}
	s.logger.Info().Str("session", sessionID).Msg("session cleared")
	return nil
}

// List returns the IDs of all stored sessions.
func (s *Sessions) List() []string {
	return s.store.List()
}
