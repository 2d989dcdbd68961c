package queue

import (
	"assistbot/app/client/telegram"
	"log/slog"
	"sync"

	"github.com/samber/do"
)

const bufferSize = 256

var _ do.Shutdownable = (*Service)(nil)

// Service buffers inbound chat events between the transport and the engine.
type Service struct {
	queue chan telegram.Event

	mu     sync.RWMutex
	closed bool
}

func New(_ *do.Injector) (*Service, error) {
	return NewService(bufferSize), nil
}

func NewService(size int) *Service {
	return &Service{
		queue: make(chan telegram.Event, size),
	}
}

// Add never blocks; events are dropped when the buffer is full.
func (s *Service) Add(event telegram.Event) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false
	}

	select {
	case s.queue <- event:
		return true
	default:
		slog.Warn("Event queue is full, dropping event",
			"chat_id", event.ChatID,
			"user_id", event.UserID)
		return false
	}
}

func (s *Service) Channel() <-chan telegram.Event {
	return s.queue
}

// Len reports the number of buffered events.
func (s *Service) Len() int {
	return len(s.queue)
}

func (s *Service) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		close(s.queue)
	}

	return nil
}
