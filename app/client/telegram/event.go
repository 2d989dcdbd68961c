package telegram

import (
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type EventKind int

const (
	EventText EventKind = iota
	EventCommand
	EventCallback
)

type Event struct {
	Kind       EventKind
	ChatID     int64
	UserID     int64
	Username   string
	Text       string
	Command    string
	CallbackID string
}

// Handle is how the sender is referred to in orders: @username when
// available, the numeric id otherwise.
func (e Event) Handle() string {
	if e.Username != "" {
		return "@" + e.Username
	}

	return strconv.FormatInt(e.UserID, 10)
}

func toEvent(update tgbotapi.Update) (Event, bool) {
	if cq := update.CallbackQuery; cq != nil {
		if cq.Message == nil || cq.Message.Chat == nil {
			return Event{}, false
		}

		event := Event{
			Kind:       EventCallback,
			ChatID:     cq.Message.Chat.ID,
			Text:       strings.TrimSpace(cq.Data),
			CallbackID: cq.ID,
		}
		if cq.From != nil {
			event.UserID = cq.From.ID
			event.Username = cq.From.UserName
		}

		return event, true
	}

	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return Event{}, false
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return Event{}, false
	}

	event := Event{
		Kind:   EventText,
		ChatID: msg.Chat.ID,
		Text:   text,
	}
	if msg.From != nil {
		event.UserID = msg.From.ID
		event.Username = msg.From.UserName
	}

	if msg.IsCommand() {
		event.Kind = EventCommand
		event.Command = msg.Command()
		event.Text = strings.TrimSpace(msg.CommandArguments())
	}

	return event, true
}
