package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ConversationsKey is the slot name holding the serialized conversation list
const ConversationsKey = "chat-conversations"

// Slot is a single named persisted value. Load returns nil data when nothing has been saved.
type Slot interface {
	Load() ([]byte, error)
	Save(data []byte) error
}

// Repository is the conversation persistence contract used by Session
type Repository interface {
	List() ([]Conversation, error)
	Get(id string) (Conversation, error)
	Create(first Message) (Conversation, error)
	Update(conv Conversation) (Conversation, error)
	Delete(id string) error
	Clear() error
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithClock overrides the time source
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides conversation id allocation
func WithIDGenerator(newID func() string) StoreOption {
	return func(s *Store) { s.newID = newID }
}

// Store keeps conversations as one JSON array in a Slot, newest-created first.
// Every mutation rewrites the whole array.
type Store struct {
	mu    sync.Mutex
	slot  Slot
	now   func() time.Time
	newID func() string
}

var _ Repository = (*Store)(nil)

// NewStore creates a store over slot. A nil slot yields a store that lists nothing.
func NewStore(slot Slot, opts ...StoreOption) *Store {
	s := &Store{
		slot:  slot,
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns every persisted conversation in stored order
func (s *Store) List() ([]Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Get returns the conversation with id
func (s *Store) Get(id string) (Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conversations, err := s.load()
	if err != nil {
		return Conversation{}, err
	}
	if i := indexOf(conversations, id); i >= 0 {
		return conversations[i].Clone(), nil
	}
	return Conversation{}, ErrConversationNotFound
}

// Create starts a conversation from its first message and prepends it
func (s *Store) Create(first Message) (Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := FormatTimestamp(s.now())
	conv := Conversation{
		ID:        s.newID(),
		Title:     DeriveTitle(first.Content),
		Messages:  []Message{first},
		CreatedAt: now,
		UpdatedAt: now,
	}

	conversations, err := s.load()
	if err != nil {
		return Conversation{}, err
	}
	conversations = append([]Conversation{conv}, conversations...)
	if err := s.save(conversations); err != nil {
		return Conversation{}, err
	}
	return conv.Clone(), nil
}

// Update replaces the stored conversation with the same id and bumps updatedAt.
// A missing id writes nothing and returns ErrConversationNotFound.
func (s *Store) Update(conv Conversation) (Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conversations, err := s.load()
	if err != nil {
		return Conversation{}, err
	}
	i := indexOf(conversations, conv.ID)
	if i < 0 {
		return Conversation{}, ErrConversationNotFound
	}

	updated := conv.Clone()
	updated.UpdatedAt = s.bumpedTimestamp(conversations[i].UpdatedAt)
	conversations[i] = updated
	if err := s.save(conversations); err != nil {
		return Conversation{}, err
	}
	return updated.Clone(), nil
}

// Delete removes the conversation with id; absent ids leave the list unchanged
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conversations, err := s.load()
	if err != nil {
		return err
	}
	filtered := make([]Conversation, 0, len(conversations))
	for _, c := range conversations {
		if c.ID != id {
			filtered = append(filtered, c)
		}
	}
	return s.save(filtered)
}

// Clear empties the persisted list
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save([]Conversation{})
}

// bumpedTimestamp never moves updatedAt backwards, even if the clock does
func (s *Store) bumpedTimestamp(previous string) string {
	now := s.now()
	if prev, err := ParseTimestamp(previous); err == nil && prev.After(now) {
		now = prev
	}
	return FormatTimestamp(now)
}

func (s *Store) load() ([]Conversation, error) {
	if s.slot == nil {
		return []Conversation{}, nil
	}
	data, err := s.slot.Load()
	if errors.Is(err, ErrSlotUnavailable) {
		return []Conversation{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load conversations: %w", err)
	}
	if len(data) == 0 {
		return []Conversation{}, nil
	}

	var conversations []Conversation
	if err := json.Unmarshal(data, &conversations); err != nil {
		return nil, fmt.Errorf("failed to parse conversations: %w", err)
	}
	if conversations == nil {
		conversations = []Conversation{}
	}
	return conversations, nil
}

func (s *Store) save(conversations []Conversation) error {
	if s.slot == nil {
		return nil
	}
	data, err := json.Marshal(conversations)
	if err != nil {
		return fmt.Errorf("failed to marshal conversations: %w", err)
	}
	if err := s.slot.Save(data); err != nil {
		return fmt.Errorf("failed to save conversations: %w", err)
	}
	return nil
}

func indexOf(conversations []Conversation, id string) int {
	for i, c := range conversations {
		if c.ID == id {
			return i
		}
	}
	return -1
}
