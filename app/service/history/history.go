package history

import (
	"assistbot/app/config"
	"sync"

	"github.com/samber/do"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role
	Content string
}

type conversation struct {
	mu       sync.Mutex
	messages []Message
}

// Store keeps a bounded message log per conversation. Lock serializes
// whole turns within one conversation; the map itself is guarded separately
// so different conversations never wait on each other.
type Store struct {
	maxSize int

	mu            sync.RWMutex
	conversations map[int64]*conversation
}

func New(di *do.Injector) (*Store, error) {
	cfg := do.MustInvoke[*config.Config](di)
	return NewStore(cfg.Bot.MaxHistory), nil
}

func NewStore(maxSize int) *Store {
	if maxSize < 1 {
		maxSize = 1
	}

	return &Store{
		maxSize:       maxSize,
		conversations: make(map[int64]*conversation),
	}
}

func (s *Store) entry(id int64) *conversation {
	s.mu.RLock()
	c, ok := s.conversations[id]
	s.mu.RUnlock()
	if ok {
		return c
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok = s.conversations[id]; !ok {
		c = &conversation{}
		s.conversations[id] = c
	}

	return c
}

// Lock acquires exclusive access to the conversation and returns the unlock func.
func (s *Store) Lock(id int64) func() {
	c := s.entry(id)
	c.mu.Lock()
	return c.mu.Unlock
}

// Append must be called while holding Lock(id).
func (s *Store) Append(id int64, role Role, content string) {
	c := s.entry(id)

	s.mu.Lock()
	defer s.mu.Unlock()

	c.messages = append(c.messages, Message{Role: role, Content: content})
	if len(c.messages) > s.maxSize {
		trimmed := make([]Message, s.maxSize)
		copy(trimmed, c.messages[len(c.messages)-s.maxSize:])
		c.messages = trimmed
	}
}

func (s *Store) Get(id int64) []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.conversations[id]
	if !ok {
		return []Message{}
	}

	result := make([]Message, len(c.messages))
	copy(result, c.messages)

	return result
}

// LastUserText returns the content of the most recent user message.
func (s *Store) LastUserText(id int64) string {
	messages := s.Get(id)
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			return messages[i].Content
		}
	}

	return ""
}

// Reset clears the log but keeps the conversation entry and its lock.
func (s *Store) Reset(id int64) {
	c := s.entry(id)

	s.mu.Lock()
	defer s.mu.Unlock()

	c.messages = nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.conversations)
}
