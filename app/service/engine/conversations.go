package engine

import (
	"assistbot/app/client/telegram"
	"container/list"
	"sync"
)

// conversations keeps a FIFO of pending events per chat. A chat present in
// the map has exactly one worker draining it.
type conversations struct {
	mu      sync.Mutex
	pending map[int64]*list.List
}

func newConversations() *conversations {
	return &conversations{
		pending: make(map[int64]*list.List),
	}
}

// push appends the event to its chat FIFO and reports whether the chat
// needs a new worker.
func (c *conversations) push(event telegram.Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	queue, ok := c.pending[event.ChatID]
	if !ok {
		queue = list.New()
		c.pending[event.ChatID] = queue
	}
	queue.PushBack(event)

	return !ok
}

// next pops the oldest event of the chat. When the FIFO is drained the chat
// is released and the worker must stop.
func (c *conversations) next(chatID int64) (telegram.Event, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	queue, ok := c.pending[chatID]
	if !ok {
		return telegram.Event{}, false
	}

	front := queue.Front()
	if front == nil {
		delete(c.pending, chatID)
		return telegram.Event{}, false
	}
	queue.Remove(front)

	event, _ := front.Value.(telegram.Event)
	return event, true
}

// drop releases the chat and returns the number of discarded events.
func (c *conversations) drop(chatID int64) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	queue, ok := c.pending[chatID]
	if !ok {
		return 0
	}
	delete(c.pending, chatID)

	return queue.Len()
}

func (c *conversations) active() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.pending)
}
