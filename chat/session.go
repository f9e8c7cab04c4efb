package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Completer is the text-generation collaborator. It receives the full transcript every call.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// CompleterFunc adapts a function to Completer
type CompleterFunc func(ctx context.Context, messages []Message) (string, error)

// Complete calls f
func (f CompleterFunc) Complete(ctx context.Context, messages []Message) (string, error) {
	return f(ctx, messages)
}

// Logger is the subset of utils.Logger the flow reports through
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

// State of the submission state machine
type State int32

const (
	StateIdle State = iota
	StateSubmitting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Result describes one accepted submission.
// Reply is nil when the completion failed; Failure then holds the cause.
type Result struct {
	Conversation Conversation
	Reply        *Message
	Failure      error
}

// Answered reports whether an assistant turn was appended
func (r Result) Answered() bool {
	return r.Reply != nil
}

// SessionOption configures a Session
type SessionOption func(*Session)

// WithLogger routes flow diagnostics to logger
func WithLogger(logger Logger) SessionOption {
	return func(s *Session) { s.logger = logger }
}

// WithSessionClock overrides the time source used for message timestamps
func WithSessionClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

// Session runs the chat submission flow against one Repository.
// At most one submission is in flight at a time.
type Session struct {
	repo      Repository
	completer Completer
	logger    Logger
	now       func() time.Time

	state   atomic.Int32
	loading atomic.Bool

	mu        sync.Mutex
	currentID string
}

// NewSession creates an idle session with no conversation selected
func NewSession(repo Repository, completer Completer, opts ...SessionOption) *Session {
	s := &Session{
		repo:      repo,
		completer: completer,
		logger:    nopLogger{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit appends a user turn, asks the completer for a reply and appends it.
// Blank input and overlapping calls are rejected without touching any state.
// A completion failure is not returned as an error: the user turn stays persisted,
// no assistant turn is added and Result.Failure carries the cause.
func (s *Session) Submit(ctx context.Context, input string) (Result, error) {
	text := strings.TrimSpace(input)
	if text == "" {
		return Result{}, ErrEmptyInput
	}
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateSubmitting)) {
		return Result{}, ErrSubmissionInFlight
	}
	defer s.state.Store(int32(StateIdle))

	s.loading.Store(true)
	defer s.loading.Store(false)

	conv, err := s.appendUserTurn(NewMessage(RoleUser, text, s.now()))
	if err != nil {
		return Result{}, err
	}

	reply, err := s.completer.Complete(ctx, conv.Messages)
	if err == nil && reply == "" {
		err = ErrEmptyReply
	}
	if err != nil {
		s.logger.Error("Completion failed for conversation %s: %v", conv.ID, err)
		return Result{Conversation: conv, Failure: err}, nil
	}

	assistant := NewMessage(RoleAssistant, reply, s.now())
	updated, err := s.repo.Update(conv.Append(assistant))
	if err != nil {
		if errors.Is(err, ErrConversationNotFound) {
			s.logger.Warn("Conversation %s disappeared before the reply was stored", conv.ID)
		} else {
			s.logger.Error("Failed to store reply for conversation %s: %v", conv.ID, err)
		}
		return Result{Conversation: conv, Failure: err}, nil
	}

	return Result{Conversation: updated, Reply: &assistant}, nil
}

func (s *Session) appendUserTurn(msg Message) (Conversation, error) {
	id := s.CurrentID()
	if id == "" {
		conv, err := s.repo.Create(msg)
		if err != nil {
			return Conversation{}, err
		}
		s.setCurrent(conv.ID)
		return conv, nil
	}

	existing, err := s.repo.Get(id)
	if errors.Is(err, ErrConversationNotFound) {
		s.logger.Warn("Selected conversation %s no longer exists, deselecting", id)
		s.setCurrent("")
	}
	if err != nil {
		return Conversation{}, err
	}
	conv, err := s.repo.Update(existing.Append(msg))
	if err != nil {
		if errors.Is(err, ErrConversationNotFound) {
			s.logger.Warn("Update targeted missing conversation %s", id)
		}
		return Conversation{}, err
	}
	return conv, nil
}

// NewChat deselects the current conversation so the next submission starts a new one
func (s *Session) NewChat() {
	s.setCurrent("")
}

// Select makes an existing conversation current
func (s *Session) Select(id string) error {
	if _, err := s.repo.Get(id); err != nil {
		return err
	}
	s.setCurrent(id)
	return nil
}

// Delete removes a conversation and deselects it if it was current
func (s *Session) Delete(id string) error {
	if err := s.repo.Delete(id); err != nil {
		return err
	}
	s.mu.Lock()
	if s.currentID == id {
		s.currentID = ""
	}
	s.mu.Unlock()
	return nil
}

// Reset clears every stored conversation and deselects
func (s *Session) Reset() error {
	if err := s.repo.Clear(); err != nil {
		return err
	}
	s.setCurrent("")
	return nil
}

// Current returns the selected conversation, or false in the fresh-chat state
func (s *Session) Current() (Conversation, bool, error) {
	id := s.CurrentID()
	if id == "" {
		return Conversation{}, false, nil
	}
	conv, err := s.repo.Get(id)
	if errors.Is(err, ErrConversationNotFound) {
		return Conversation{}, false, nil
	}
	if err != nil {
		return Conversation{}, false, err
	}
	return conv, true, nil
}

// CurrentID is empty when no conversation is selected
func (s *Session) CurrentID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentID
}

// Conversations lists the repository contents
func (s *Session) Conversations() ([]Conversation, error) {
	return s.repo.List()
}

// Loading reports whether a completion is pending
func (s *Session) Loading() bool {
	return s.loading.Load()
}

// State returns the current state machine position
func (s *Session) State() State {
	return State(s.state.Load())
}

func (s *Session) setCurrent(id string) {
	s.mu.Lock()
	s.currentID = id
	s.mu.Unlock()
}
